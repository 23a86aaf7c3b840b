// Package catalog provides the product catalog mirrored from the external
// spreadsheet, behind a time-boxed read-through cache.
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Constants for the sheet source configuration
const (
	// DefaultBaseURL is the Google Sheets endpoint serving worksheet exports.
	DefaultBaseURL = "https://docs.google.com"
	// DefaultFetchTimeout bounds one full read of the external source.
	DefaultFetchTimeout = 30 * time.Second
)

// RowSource supplies all rows of the external tabular source as raw string
// cells, including the header row.
type RowSource interface {
	FetchRows(ctx context.Context) ([][]string, error)
}

// Opts holds configuration options for the sheet source.
type Opts struct {
	BaseURL string
	Client  *http.Client
}

// Option defines a configuration option for the sheet source.
type Option func(*Opts)

// WithBaseURL overrides the Google Sheets endpoint, mainly for tests.
func WithBaseURL(base string) Option {
	return func(o *Opts) {
		o.BaseURL = base
	}
}

// WithHTTPClient sets the HTTP client used to read the sheet.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) {
		o.Client = c
	}
}

// SheetsSource reads a worksheet through the spreadsheet CSV export endpoint.
// It needs no credentials for sheets shared read-only by link.
type SheetsSource struct {
	spreadsheetID string
	worksheet     string
	baseURL       string
	client        *http.Client
}

// NewSheetsSource creates a RowSource for the given spreadsheet and worksheet.
func NewSheetsSource(spreadsheetID, worksheet string, opts ...Option) *SheetsSource {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	slog.Debug("SheetsSource created", "spreadsheet_id", spreadsheetID, "worksheet", worksheet)
	return &SheetsSource{
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		baseURL:       cfg.BaseURL,
		client:        cfg.Client,
	}
}

// FetchRows downloads the worksheet as CSV and returns all rows.
func (s *SheetsSource) FetchRows(ctx context.Context) ([][]string, error) {
	exportURL := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
		s.baseURL, url.PathEscape(s.spreadsheetID), url.QueryEscape(s.worksheet))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheet request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Error("SheetsSource fetch failed", "error", err, "worksheet", s.worksheet)
		return nil, fmt.Errorf("failed to fetch sheet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("SheetsSource unexpected status", "status", resp.StatusCode, "worksheet", s.worksheet)
		return nil, fmt.Errorf("sheet export returned status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1 // rows may have trailing blank cells trimmed
	rows, err := reader.ReadAll()
	if err != nil {
		slog.Error("SheetsSource CSV parse failed", "error", err, "worksheet", s.worksheet)
		return nil, fmt.Errorf("failed to parse sheet CSV: %w", err)
	}

	slog.Debug("SheetsSource fetched rows", "count", len(rows), "worksheet", s.worksheet)
	return rows, nil
}
