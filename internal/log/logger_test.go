package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestJSONLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentStorage, Output: &buf})

	l.Debug("hidden")
	l.Info("loaded", FieldRows, 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above debug level, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec[FieldComponent] != ComponentStorage || rec[FieldRows] != float64(3) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestTextHandlerWrites(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "text", Component: ComponentApp, Output: &buf})
	l.WithComponent(ComponentHTTP).Warn("slow request")
	if !strings.Contains(buf.String(), "slow request") || !strings.Contains(buf.String(), ComponentHTTP) {
		t.Fatalf("unexpected text output: %q", buf.String())
	}
}

func TestFieldsToSliceSorted(t *testing.T) {
	got := NewFields().WithOperation(OpLoad).WithComponent(ComponentLoader).WithError(errors.New("boom")).ToSlice()
	want := []any{FieldComponent, ComponentLoader, FieldError, "boom", FieldOperation, OpLoad}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ToSlice() = %v, want %v", got, want)
	}
	if len(NewFields().WithError(nil)) != 0 {
		t.Fatalf("nil error should add no field")
	}
}

func TestMiddlewareCarriesLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Handler: slog.NewJSONHandler(&buf, nil), Component: ComponentHTTP})

	var seen *Logger
	h := Middleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithRequestID(r.Context(), "abc")
		seen = FromContext(ctx)
		seen.InfoContext(ctx, "inside")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == nil || seen.Component() != ComponentHTTP {
		t.Fatalf("handler did not get the injected logger")
	}
	out := buf.String()
	if !strings.Contains(out, `"request_id":"abc"`) || !strings.Contains(out, `"component":"http"`) {
		t.Fatalf("log line missing request id or component: %s", out)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if RequestID(ctx) != "req-1" {
		t.Fatalf("RequestID = %q", RequestID(ctx))
	}
	if RequestID(context.Background()) != "" {
		t.Fatalf("empty context should have no request id")
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("fallback logger should report unknown component")
	}
}
