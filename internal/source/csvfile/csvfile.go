// Package csvfile reads the source tables from a directory of delimited files,
// one file per table: users.csv, categories.csv and transactions.csv.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"findash/internal/source"
)

type Reader struct {
	dir    string
	logger *slog.Logger
}

var _ source.Reader = (*Reader)(nil)

func New(dir string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{dir: dir, logger: logger}
}

// Path returns the file backing a table.
func (r *Reader) Path(t source.Table) string {
	return filepath.Join(r.dir, string(t)+".csv")
}

// Read loads all three files concurrently and parses them once every file is
// in memory. Any missing or unreadable file fails the whole read.
func (r *Reader) Read(ctx context.Context) (source.Dataset, error) {
	var (
		mu     sync.Mutex
		tables = make(map[source.Table][][]string, 3)
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range source.Tables() {
		g.Go(func() error {
			rows, err := r.readFile(ctx, t)
			if err != nil {
				return err
			}
			mu.Lock()
			tables[t] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return source.Dataset{}, err
	}

	ds, err := source.ParseDataset(tables)
	if err != nil {
		return source.Dataset{}, err
	}
	r.logger.InfoContext(ctx, "Read CSV source",
		"dir", r.dir,
		"users", len(ds.Users),
		"categories", len(ds.Categories),
		"transactions", len(ds.Transactions))
	return ds, nil
}

func (r *Reader) readFile(ctx context.Context, t source.Table) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := r.Path(t)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", source.ErrSourceMissing, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	// Field counts are checked by the parser so the error carries a line number.
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &source.RecordError{Table: t, Line: perr.Line, Err: fmt.Errorf("%w: %v", source.ErrMalformedRecord, perr.Err)}
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
