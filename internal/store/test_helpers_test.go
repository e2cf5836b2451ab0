package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/stageledger/internal/ledger"
)

var fixedNow = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)

// createTestStore creates a new store in a temporary directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithNow(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestLedger creates a ledger with one inherited record per id.
func createTestLedger(stage ledger.Stage, ids ...string) ledger.Ledger {
	l := ledger.New(stage)
	for _, id := range ids {
		r := ledger.NewRecord(id, stage.Tag(), fixedNow)
		r.Name = "debt " + id
		r.ReferenceInstallment = decimal.NewFromInt(100)
		r.ReferenceTermMonths = 10
		r.CurrentInstallment = decimal.NewFromInt(100)
		r.CurrentTermMonths = 10
		r.IsPaymentConfirmed = true
		r.ProjectedPayoff = ledger.PayoffMonth{Year: 2027, Month: time.January}
		l.Put(r)
	}
	return l
}
