package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSheetsSourceFetchRows(t *testing.T) {
	csvBody := "Id,Item Name,Code,Image Link\n1,Rice 25kg,R1,https://img.example/rice.jpg\n"
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	src := NewSheetsSource("sheet-id-123", "Products", WithBaseURL(srv.URL))
	rows, err := src.FetchRows(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1][1] != "Rice 25kg" {
		t.Errorf("unexpected cell value: %q", rows[1][1])
	}
	if gotPath != "/spreadsheets/d/sheet-id-123/gviz/tq" {
		t.Errorf("unexpected request path: %q", gotPath)
	}
	if gotQuery != "tqx=out:csv&sheet=Products" {
		t.Errorf("unexpected request query: %q", gotQuery)
	}
}

func TestSheetsSourceRaggedRows(t *testing.T) {
	// Export may trim trailing empty cells; rows of different widths must parse.
	csvBody := "a,b,c\n1,2\n1,2,3,4\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(csvBody))
	}))
	defer srv.Close()

	src := NewSheetsSource("id", "ws", WithBaseURL(srv.URL))
	rows, err := src.FetchRows(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 || len(rows[1]) != 2 || len(rows[2]) != 4 {
		t.Errorf("ragged rows not preserved: %v", rows)
	}
}

func TestSheetsSourceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewSheetsSource("id", "ws", WithBaseURL(srv.URL))
	if _, err := src.FetchRows(context.Background()); err == nil {
		t.Error("expected error for non-200 response, got nil")
	}
}
