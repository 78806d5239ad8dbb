package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"findash/internal/config"
	applog "findash/internal/log"
)

func TestSetupLoggerJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, applog.ComponentLoader, &buf)
	logger.Info("dropped")
	logger.Warn("kept")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "dropped") {
		t.Fatalf("info record should be filtered at warn level: %s", line)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("not JSON: %v (%q)", err, line)
	}
	if rec["msg"] != "kept" || rec[applog.FieldComponent] != applog.ComponentLoader {
		t.Errorf("record = %v", rec)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FINDASH_TEST_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FINDASH_TEST_KEY", "")
	os.Unsetenv("FINDASH_TEST_KEY")

	LoadEnvFile(path)
	if got := os.Getenv("FINDASH_TEST_KEY"); got != "from-file" {
		t.Errorf("FINDASH_TEST_KEY = %q", got)
	}

	// Missing files are ignored.
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Setenv("PORT", "not-a-port")
	t.Setenv("LOG_FORMAT", "json")
	cfg, logger, err := LoadAndValidateConfig(applog.ComponentApp)
	if err == nil || cfg != nil {
		t.Fatalf("expected validation error, got cfg=%v err=%v", cfg, err)
	}
	if logger == nil {
		t.Fatal("logger should be returned with the error")
	}

	t.Setenv("PORT", "9000")
	cfg, _, err = LoadAndValidateConfig(applog.ComponentApp)
	if err != nil {
		t.Fatalf("LoadAndValidateConfig() error = %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %s", cfg.Port)
	}
}

func TestGracefulShutdownOnSignal(t *testing.T) {
	called := make(chan struct{})
	ctx, done := GracefulShutdown(slog.Default(), time.Second, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("cleanup context should carry the timeout")
		}
		close(called)
		return nil
	})

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	if ctx.Err() == nil {
		t.Error("context should be cancelled")
	}
	select {
	case <-called:
	default:
		t.Error("cleanup was not called")
	}
}
