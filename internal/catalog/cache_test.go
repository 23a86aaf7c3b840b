package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yomasupply/supplierbot/internal/models"
)

// fakeSource counts fetches and serves canned rows or a failure.
type fakeSource struct {
	rows    [][]string
	err     error
	fetches int
}

func (f *fakeSource) FetchRows(ctx context.Context) ([][]string, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

// sheetRow builds a full-width row with the given name, price, status, and expiry.
func sheetRow(name, price, status, expiry string) []string {
	row := make([]string, 14)
	row[colName] = name
	row[colImage] = "https://img.example/" + name + ".jpg"
	row[colPrice] = price
	row[colUnit] = "box"
	row[colQty] = "12"
	row[colStatus] = status
	row[colExpiry] = expiry
	return row
}

func testRows() [][]string {
	return [][]string{
		make([]string, 14), // header
		sheetRow("Rice 25kg", "K52000", "In-Stock", "2026-12-01"),
		sheetRow("Cooking Oil", "38000", "In-Stock", ""),
		sheetRow("Instant Noodles", "K9500", "On The Way", ""),
		sheetRow("", "K100", "In-Stock", ""),              // empty name, skipped
		{"", "Short Row", "x"},                            // too few columns, skipped
		sheetRow("Mystery Box", "K1", "Discontinued", ""), // unknown status, skipped
	}
}

func TestGetByStatusGrouping(t *testing.T) {
	src := &fakeSource{rows: testRows()}
	c := NewCache(src)
	ctx := context.Background()

	inStock := c.GetByStatus(ctx, models.StatusInStock)
	if len(inStock) != 2 {
		t.Fatalf("expected 2 in-stock entries, got %d", len(inStock))
	}
	if inStock[0].Name != "Rice 25kg" || inStock[1].Name != "Cooking Oil" {
		t.Errorf("in-stock entries out of order: %+v", inStock)
	}
	if inStock[0].Price != "52000" {
		t.Errorf("expected leading K stripped from price, got %q", inStock[0].Price)
	}
	if inStock[0].Expiry != "2026-12-01" {
		t.Errorf("expected expiry preserved, got %q", inStock[0].Expiry)
	}

	incoming := c.GetByStatus(ctx, models.StatusIncoming)
	if len(incoming) != 1 || incoming[0].Name != "Instant Noodles" {
		t.Errorf("unexpected incoming entries: %+v", incoming)
	}
}

func TestGetByStatusUnknownStatus(t *testing.T) {
	src := &fakeSource{rows: testRows()}
	c := NewCache(src)

	entries := c.GetByStatus(context.Background(), models.Status("Sold Out"))
	if len(entries) != 0 {
		t.Errorf("expected empty result for unknown status, got %d entries", len(entries))
	}
}

func TestCacheFreshnessSingleFetch(t *testing.T) {
	src := &fakeSource{rows: testRows()}
	c := NewCache(src)
	ctx := context.Background()

	c.GetByStatus(ctx, models.StatusInStock)
	c.GetByStatus(ctx, models.StatusIncoming)
	c.GetByStatus(ctx, models.StatusInStock)
	if src.fetches != 1 {
		t.Errorf("expected exactly 1 fetch within TTL, got %d", src.fetches)
	}
}

func TestCacheExpiryTriggersRefetch(t *testing.T) {
	src := &fakeSource{rows: testRows()}
	c := NewCache(src, WithTTL(time.Millisecond))
	ctx := context.Background()

	c.GetByStatus(ctx, models.StatusInStock)
	time.Sleep(5 * time.Millisecond)
	c.GetByStatus(ctx, models.StatusInStock)
	if src.fetches != 2 {
		t.Errorf("expected 2 fetches across TTL expiry, got %d", src.fetches)
	}
}

func TestStaleSnapshotServedOnFailure(t *testing.T) {
	src := &fakeSource{rows: testRows()}
	c := NewCache(src, WithTTL(time.Millisecond))
	ctx := context.Background()

	before := c.GetByStatus(ctx, models.StatusInStock)
	if len(before) != 2 {
		t.Fatalf("expected 2 entries from first fetch, got %d", len(before))
	}

	src.err = errors.New("connection refused")
	time.Sleep(5 * time.Millisecond)

	after := c.GetByStatus(ctx, models.StatusInStock)
	if len(after) != 2 {
		t.Errorf("expected stale snapshot served on fetch failure, got %d entries", len(after))
	}
}

func TestNoSnapshotAndFailureYieldsEmpty(t *testing.T) {
	src := &fakeSource{err: errors.New("auth failed")}
	c := NewCache(src)

	entries := c.GetByStatus(context.Background(), models.StatusInStock)
	if len(entries) != 0 {
		t.Errorf("expected empty result when no snapshot ever succeeded, got %d", len(entries))
	}
}

func TestForceRefreshBypassesTTL(t *testing.T) {
	src := &fakeSource{rows: testRows()}
	c := NewCache(src)
	ctx := context.Background()

	c.GetByStatus(ctx, models.StatusInStock)
	if err := c.ForceRefresh(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.fetches != 2 {
		t.Errorf("expected force refresh to refetch, got %d fetches", src.fetches)
	}
}

func TestForceRefreshReportsFailure(t *testing.T) {
	src := &fakeSource{rows: testRows()}
	c := NewCache(src)
	ctx := context.Background()

	c.GetByStatus(ctx, models.StatusInStock)
	src.err = errors.New("quota exceeded")
	if err := c.ForceRefresh(ctx); err == nil {
		t.Error("expected force refresh to surface the fetch error")
	}

	// Previous snapshot must survive the failed refresh.
	if got := c.GetByStatus(ctx, models.StatusInStock); len(got) != 2 {
		t.Errorf("expected snapshot untouched after failed refresh, got %d entries", len(got))
	}
}
