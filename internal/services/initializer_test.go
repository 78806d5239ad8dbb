package services

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"findash/internal/amqp"
	"findash/internal/core"
	"findash/internal/source"
	"findash/internal/source/memory"
	"findash/internal/storage"
)

type fakeReader struct {
	ds  source.Dataset
	err error
}

func (f fakeReader) Read(context.Context) (source.Dataset, error) { return f.ds, f.err }

type fakeNotifier struct {
	msgs []*amqp.DatasetLoadedMessage
	err  error
}

func (f *fakeNotifier) PublishDatasetLoaded(_ context.Context, msg *amqp.DatasetLoadedMessage) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

func countUsers(t *testing.T, path string) int {
	t.Helper()
	var n int
	err := storage.WithStore(context.Background(), path, func(s *storage.Store) error {
		users, err := s.Users(context.Background())
		n = len(users)
		return err
	})
	if err != nil {
		t.Fatalf("read users: %v", err)
	}
	return n
}

func TestInitializer_RunDemo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findash.db")
	notifier := &fakeNotifier{}
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	loader := NewInitializer(memory.New(memory.Demo()), notifier, InitializerConfig{DBPath: path, SourceName: "memory"}, logger)

	res, err := loader.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stats != (storage.LoadStats{Users: 4, Categories: 5, Transactions: 10}) {
		t.Errorf("Run() stats = %+v", res.Stats)
	}
	if res.SchemaVersion != 6 {
		t.Errorf("Run() schema version = %d, want 6", res.SchemaVersion)
	}
	if !res.Notified || len(notifier.msgs) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.msgs))
	}
	if msg := notifier.msgs[0]; msg.Source != "memory" || msg.Transactions != 10 || msg.DBPath != path {
		t.Errorf("unexpected message: %+v", msg)
	}
	if !strings.Contains(logs.String(), `"setup_steps":["create_users",`) {
		t.Errorf("reset log does not list the setup steps: %s", logs.String())
	}
	if _, err := os.Stat(path + ".loading"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("staging store should be renamed away, stat err = %v", err)
	}
}

func TestInitializer_RunTwiceReplacesData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findash.db")
	src := memory.New(memory.Demo())
	loader := NewInitializer(src, nil, InitializerConfig{DBPath: path, SourceName: "memory"}, nil)

	if _, err := loader.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	ds := memory.Demo()
	ds.Users = ds.Users[:2]
	ds.Transactions = ds.Transactions[:7]
	src.Set(ds)

	res, err := loader.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if res.Stats.Users != 2 || res.Stats.Transactions != 7 {
		t.Errorf("second Run() stats = %+v", res.Stats)
	}
	if n := countUsers(t, path); n != 2 {
		t.Errorf("store has %d users after reload, want 2", n)
	}
}

func TestInitializer_FailuresKeepExistingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findash.db")
	good := NewInitializer(memory.New(memory.Demo()), nil, InitializerConfig{DBPath: path}, nil)
	if _, err := good.Run(context.Background()); err != nil {
		t.Fatalf("seed Run() error = %v", err)
	}

	dangling := memory.Demo()
	dangling.Transactions = append(dangling.Transactions, core.Transaction{
		ID: 99, UserID: 42, Date: core.NewDate(2024, 5, 1), CategoryID: 1, Type: core.Expense, RawType: "expense",
	})

	// Passes dataset validation but trips the type CHECK inside the load
	// transaction, after the schema was already reset.
	badStoredType := memory.Demo()
	badStoredType.Transactions[9].RawType = "transfer"

	tests := []struct {
		name    string
		reader  source.Reader
		wantErr error
	}{
		{"read error", fakeReader{err: source.ErrSourceMissing}, source.ErrSourceMissing},
		{"dangling reference", fakeReader{ds: dangling}, source.ErrDanglingRef},
		{"load error", fakeReader{ds: badStoredType}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			_, err := NewInitializer(tt.reader, notifier, InitializerConfig{DBPath: path}, nil).Run(context.Background())
			if err == nil || (tt.wantErr != nil && !errors.Is(err, tt.wantErr)) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if _, serr := os.Stat(path + ".loading"); !errors.Is(serr, fs.ErrNotExist) {
				t.Errorf("staging store left behind: %v", serr)
			}
			if len(notifier.msgs) != 0 {
				t.Errorf("failed run must not notify")
			}
			if n := countUsers(t, path); n != 4 {
				t.Errorf("store has %d users, want the 4 from the previous load", n)
			}
		})
	}
}

func TestInitializer_NotifyFailureIsNotFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findash.db")
	notifier := &fakeNotifier{err: errors.New("broker down")}
	res, err := NewInitializer(memory.New(memory.Demo()), notifier, InitializerConfig{DBPath: path}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Notified {
		t.Errorf("Notified should be false when publish fails")
	}
	if res.Stats.Transactions != 10 {
		t.Errorf("stats = %+v", res.Stats)
	}
}
