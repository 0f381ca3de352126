package submission

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gever/intake/internal/platform/blobstore"
	"github.com/gever/intake/internal/platform/validate"
)

// failingStore fails every write.
type failingStore struct{ blobstore.Store }

func (failingStore) SetJSON(context.Context, string, any) error { return errors.New("disk full") }

func newTestLogStore(t *testing.T) (*logStoreBlob, *blobstore.Memory, *time.Time) {
	t.Helper()
	mem := blobstore.NewMemory()
	s := NewLogStoreBlob(mem, zerolog.Nop()).(*logStoreBlob)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }
	return s, mem, &now
}

func TestLogStore_SaveAndList(t *testing.T) {
	s, mem, now := newTestLogStore(t)
	ctx := context.Background()

	for i, master := range []string{"m1", "m2", "m3"} {
		*now = now.Add(time.Duration(i+1) * time.Second)
		s.Save(ctx, LogEntry{MasterID: master, Status: StatusSuccess})
	}
	*now = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	s.Save(ctx, LogEntry{MasterID: "m4", Status: StatusBelugaError})

	raw, err := mem.List(ctx, "submission-logs/2025-06-01/")
	if err != nil || len(raw) != 3 {
		t.Fatalf("expected 3 entries under the day prefix, got %v %v", raw, err)
	}

	keys, err := s.List(ctx, "2025-06-01", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 || !strings.HasSuffix(keys[0], "_m3") || !strings.HasSuffix(keys[1], "_m2") {
		t.Errorf("expected newest first, got %v", keys)
	}
	if !strings.HasPrefix(keys[0], "2025-06-01/1748768") {
		t.Errorf("unexpected key layout %q", keys[0])
	}

	all, _ := s.List(ctx, "", 0)
	if len(all) != 4 || !strings.HasSuffix(all[0], "_m4") {
		t.Errorf("unexpected full listing %v", all)
	}

	entries := s.GetMany(ctx, append(all, "2025-06-01/0_missing"))
	if len(entries) != 4 {
		t.Fatalf("expected missing keys to be skipped, got %d entries", len(entries))
	}
	if entries[0].ID == "" || entries[0].Timestamp.IsZero() || entries[0].MasterID != "m4" {
		t.Errorf("unexpected entry %+v", entries[0])
	}
}

func TestLogStore_SaveNeverFails(t *testing.T) {
	s := NewLogStoreBlob(failingStore{blobstore.NewMemory()}, zerolog.Nop())
	s.Save(context.Background(), LogEntry{MasterID: "m"})
}

func TestLogStore_AffiliateSales(t *testing.T) {
	s, _, now := newTestLogStore(t)
	ctx := context.Background()

	save := func(day int, e LogEntry) {
		*now = time.Date(2025, 6, day, 10, 0, 0, 0, time.UTC).Add(time.Duration(len(e.MasterID)) * time.Millisecond)
		s.Save(ctx, e)
	}
	save(1, LogEntry{MasterID: "a", Status: StatusSuccess, AffiliateCode: "save10", DiscountAmount: 10, PaymentAmount: 189})
	save(1, LogEntry{MasterID: "bb", Status: StatusSuccess})
	save(2, LogEntry{MasterID: "c", Status: StatusCaptureFailed, AffiliateCode: "save10", DiscountAmount: 10})
	save(3, LogEntry{MasterID: "d", Status: StatusSuccess, AffiliateCode: "SAVE10", DiscountAmount: 10, PaymentAmount: 189})
	save(5, LogEntry{MasterID: "e", Status: StatusSuccess, AffiliateCode: "late", DiscountAmount: 1})

	r, _ := validate.ParseDateRange("2025-06-01", "2025-06-03")
	sales, err := s.AffiliateSales(ctx, r)
	if err != nil {
		t.Fatalf("AffiliateSales: %v", err)
	}
	if len(sales) != 2 || sales[0].PaymentAmount != 189 || sales[1].AffiliateCode != "SAVE10" {
		t.Errorf("unexpected sales %+v", sales)
	}
}
