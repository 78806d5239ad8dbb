package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"findash/internal/source"
)

// Config names the spreadsheet and the tab holding each source table. Each tab
// carries the same header row as the CSV file it replaces.
type Config struct {
	SpreadsheetID      string
	UsersSheet         string
	CategoriesSheet    string
	TransactionsSheet  string
	ServiceAccountJSON string
	ServiceAccountFile string
}

func (c Config) sheet(t source.Table) string {
	var name string
	switch t {
	case source.UsersTable:
		name = c.UsersSheet
	case source.CategoriesTable:
		name = c.CategoriesSheet
	case source.TransactionsTable:
		name = c.TransactionsSheet
	}
	if strings.TrimSpace(name) == "" {
		name = string(t)
	}
	return name
}

type batchGetter func(ctx context.Context, ranges []string) ([][][]any, error)

type Client struct {
	cfg      Config
	batchGet batchGetter
	logger   *slog.Logger
}

var _ source.Reader = (*Client)(nil)

// New creates a Sheets-backed reader authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	get := func(ctx context.Context, ranges []string) ([][][]any, error) {
		resp, err := svc.Spreadsheets.Values.BatchGet(cfg.SpreadsheetID).
			Ranges(ranges...).
			ValueRenderOption("UNFORMATTED_VALUE").
			DateTimeRenderOption("FORMATTED_STRING").
			Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		out := make([][][]any, len(resp.ValueRanges))
		for i, vr := range resp.ValueRanges {
			out[i] = vr.Values
		}
		return out, nil
	}
	return newClient(cfg, get, logger), nil
}

func newClient(cfg Config, get batchGetter, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, batchGet: get, logger: logger}
}

// newSheetsService builds a read-only Sheets service from inline JSON or a
// credentials file, falling back to GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, cfg Config, logger *slog.Logger) (*gsheet.Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	switch {
	case inline != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		creds = []byte(inline)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.InfoContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		creds = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// Read fetches all three tabs in one batch request.
func (c *Client) Read(ctx context.Context) (source.Dataset, error) {
	tables := source.Tables()
	ranges := make([]string, len(tables))
	for i, t := range tables {
		ranges[i] = c.cfg.sheet(t)
	}

	values, err := c.batchGet(ctx, ranges)
	if err != nil {
		return source.Dataset{}, fmt.Errorf("read sheets %v: %w", ranges, err)
	}
	if len(values) != len(tables) {
		return source.Dataset{}, fmt.Errorf("%w: got %d ranges, want %d", source.ErrSourceMissing, len(values), len(tables))
	}

	raw := make(map[source.Table][][]string, len(tables))
	for i, t := range tables {
		if len(values[i]) == 0 {
			return source.Dataset{}, fmt.Errorf("%w: sheet %q is empty", source.ErrSourceMissing, ranges[i])
		}
		raw[t] = toRows(values[i], len(t.Columns()))
	}

	ds, err := source.ParseDataset(raw)
	if err != nil {
		return source.Dataset{}, err
	}
	c.logger.InfoContext(ctx, "Read Sheets source",
		"spreadsheet_id", c.cfg.SpreadsheetID,
		"users", len(ds.Users),
		"categories", len(ds.Categories),
		"transactions", len(ds.Transactions))
	return ds, nil
}

// toRows converts a Sheets values matrix into text rows. The API drops
// trailing empty cells, so data rows shorter than width are padded back.
// Header rows are left alone so a missing column still reads as a mismatch.
func toRows(values [][]any, width int) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		n := len(row)
		if i > 0 && n < width && n > 0 {
			n = width
		}
		cells := make([]string, n)
		for j, v := range row {
			cells[j] = cellString(v)
		}
		out[i] = cells
	}
	return out
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(x)
	}
}
