package session

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stageledger/internal/amortization"
	"github.com/roach88/stageledger/internal/engine"
	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/negotiation"
	"github.com/roach88/stageledger/internal/store"
	"github.com/roach88/stageledger/internal/testutil"
)

var (
	syncTime   = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)
	mappedTime = time.Date(2026, time.January, 20, 15, 0, 0, 0, time.UTC)
	client     = store.Self("client-1")
)

// flakyRepo fails reads of one stage.
type flakyRepo struct {
	*store.Store
	failStage ledger.Stage
}

func (r flakyRepo) GetLedger(ctx context.Context, a store.Access, stage ledger.Stage) (ledger.Ledger, error) {
	if stage == r.failStage {
		return ledger.Ledger{}, errors.New("connection reset")
	}
	return r.Store.GetLedger(ctx, a, stage)
}

type fixture struct {
	svc   *Service
	store *store.Store
	logs  *bytes.Buffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "session.db"), store.WithNow(func() time.Time { return syncTime }))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return newFixtureWith(t, st, st)
}

func newFixtureWith(t *testing.T, st *store.Store, repo Repository) fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	eng := engine.New(
		amortization.New(testutil.NewManualClock(syncTime)),
		engine.WithIDGenerator(testutil.NewSequenceGenerator()),
	)
	return fixture{svc: New(repo, eng, logger), store: st, logs: logs}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mappedRecord(id, installment string, term int) ledger.DebtRecord {
	r := ledger.NewRecord(id, ledger.OriginMapping, mappedTime)
	r.Name = "debt " + id
	r.Creditor = "Bank"
	r.ReferenceInstallment = dec(installment)
	r.ReferenceTermMonths = term
	r.CurrentInstallment = dec(installment)
	r.CurrentTermMonths = term
	r.IsPaymentConfirmed = true
	return r
}

func (f fixture) saveMapping(t *testing.T, records ...ledger.DebtRecord) {
	t.Helper()
	l := ledger.New(ledger.StageMapping)
	for _, r := range records {
		l.Put(r)
	}
	_, err := f.store.UpsertLedger(context.Background(), client, l)
	require.NoError(t, err)
}

func mustFind(t *testing.T, l ledger.Ledger, id string) ledger.DebtRecord {
	t.Helper()
	r, ok := l.Find(id)
	require.True(t, ok, "record %s not found", id)
	return r
}

func TestOpen_AppliesNegotiationOverlayAndSaves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10), mappedRecord("b", "50", 3))
	require.NoError(t, f.store.ImportNegotiations(ctx, client, negotiation.Table{
		"a": {Installment: "80", Term: "6x"},
	}))

	out, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	assert.True(t, out.Saved)
	assert.Equal(t, 2, out.Inherited)
	assert.Equal(t, 1, out.Negotiated)

	stored, err := f.store.GetLedger(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	a := mustFind(t, stored, "a")
	assert.True(t, a.IsNegotiated)
	assert.True(t, a.ReferenceInstallment.Equal(dec("80")))
	assert.True(t, a.CurrentInstallment.Equal(dec("80")))
	assert.Equal(t, 6, a.CurrentTermMonths)
	assert.Equal(t, "2026-09", a.ProjectedPayoff.String())
	assert.Equal(t, ledger.OriginStage2, a.Origin())

	b := mustFind(t, stored, "b")
	assert.False(t, b.IsNegotiated)
	assert.Equal(t, 3, b.CurrentTermMonths)
}

func TestOpen_SecondVisitLeavesStageUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10))

	_, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	_, err = f.svc.EditTerm(ctx, client, ledger.Stage2, "a", "4")
	require.NoError(t, err)

	out, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	assert.True(t, out.Unchanged)
	assert.False(t, out.Saved)
	assert.Equal(t, 4, mustFind(t, out.Ledger, "a").CurrentTermMonths)
}

func TestOpen_MappingIsReturnedAsStored(t *testing.T) {
	f := newFixture(t)
	f.saveMapping(t, mappedRecord("a", "100", 10))

	out, err := f.svc.Open(context.Background(), client, ledger.StageMapping)
	require.NoError(t, err)
	assert.True(t, out.Unchanged)
	assert.Equal(t, 1, out.Ledger.Len())
}

func TestOpen_PriorNeverSavedYieldsEmptyLedger(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.Open(context.Background(), client, ledger.Stage3)
	require.NoError(t, err)
	assert.False(t, out.UpstreamUnavailable)
	assert.True(t, out.Ledger.IsEmpty())
}

func TestRefresh_ResetsEditsAndKeepsManualRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10))

	_, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	_, err = f.svc.EditCurrent(ctx, client, ledger.Stage2, "a", "75,00", "1,5")
	require.NoError(t, err)
	manual, err := f.svc.AddDebt(ctx, client, ledger.Stage2, engine.ManualInput{
		Name:        "card",
		Installment: dec("30"),
		TermMonths:  5,
	})
	require.NoError(t, err)

	out, err := f.svc.Refresh(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	assert.True(t, out.Saved)
	assert.Equal(t, 1, out.Preserved)

	stored, err := f.svc.Show(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	assert.True(t, mustFind(t, stored, "a").CurrentInstallment.Equal(dec("100")))
	kept := mustFind(t, stored, manual.ID)
	assert.True(t, kept.IsManuallyAdded)
	assert.Equal(t, ledger.OriginManualStage2, kept.Origin())
}

func TestRefresh_UpstreamUnavailable(t *testing.T) {
	base := newFixture(t)
	ctx := context.Background()
	base.saveMapping(t, mappedRecord("a", "100", 10))
	_, err := base.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	_, err = base.svc.AddDebt(ctx, client, ledger.Stage2, engine.ManualInput{Name: "card", TermMonths: 2})
	require.NoError(t, err)

	f := newFixtureWith(t, base.store, flakyRepo{Store: base.store, failStage: ledger.StageMapping})
	out, err := f.svc.Refresh(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	assert.True(t, out.UpstreamUnavailable)
	assert.False(t, out.Saved)
	assert.Equal(t, 1, out.Ledger.Len())
	assert.Contains(t, f.logs.String(), "prior stage unavailable")

	stored, err := base.store.GetLedger(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Len())
}

func TestOpen_SkipsMalformedNegotiation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10), mappedRecord("b", "50", 3))
	errs, err := f.svc.ImportNegotiations(ctx, client, negotiation.Table{
		"a": {Installment: "80"},
		"b": {Term: "soon"},
	})
	require.NoError(t, err)
	require.Len(t, errs, 1)

	out, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	require.Len(t, out.Skipped, 1)
	assert.ErrorIs(t, out.Skipped[0], negotiation.ErrMalformed)
	assert.Equal(t, 1, out.Negotiated)
	assert.False(t, mustFind(t, out.Ledger, "b").IsNegotiated)
	assert.Contains(t, f.logs.String(), "ignoring negotiation entry")
}

func TestOverlayIgnoredAfterFirstStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10))
	_, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	require.NoError(t, f.store.PutNegotiation(ctx, client, "a", negotiation.Entry{Installment: "1"}))

	out, err := f.svc.Open(ctx, client, ledger.Stage3)
	require.NoError(t, err)
	assert.Zero(t, out.Negotiated)
	assert.True(t, mustFind(t, out.Ledger, "a").CurrentInstallment.Equal(dec("100")))
}

func TestRemoveDebt_InheritedRecordRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10))
	_, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)

	err = f.svc.RemoveDebt(ctx, client, ledger.Stage2, "a")
	assert.True(t, engine.IsInheritedRecordError(err))

	added, err := f.svc.AddDebt(ctx, client, ledger.Stage2, engine.ManualInput{Name: "card", TermMonths: 1})
	require.NoError(t, err)
	require.NoError(t, f.svc.RemoveDebt(ctx, client, ledger.Stage2, added.ID))

	stored, err := f.svc.Show(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Len())
}

func TestPaymentAndAmortizationToggles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10))
	_, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)

	r, err := f.svc.SetPaymentConfirmed(ctx, client, ledger.Stage2, "a", false)
	require.NoError(t, err)
	assert.False(t, r.IsAmortizationConfirmed)
	assert.Equal(t, 10, r.CurrentTermMonths)

	_, err = f.svc.SetAmortizationConfirmed(ctx, client, ledger.Stage2, "a", true)
	assert.ErrorIs(t, err, amortization.ErrPaymentNotConfirmed)

	_, err = f.svc.SetPaymentConfirmed(ctx, client, ledger.Stage2, "a", true)
	require.NoError(t, err)
	r, err = f.svc.SetAmortizationConfirmed(ctx, client, ledger.Stage2, "a", true)
	require.NoError(t, err)
	assert.Equal(t, 9, r.CurrentTermMonths)

	stored, err := f.svc.Show(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	assert.Equal(t, "2026-12", mustFind(t, stored, "a").ProjectedPayoff.String())
}

func TestEdits_CoerceUnreadableInputToZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10))
	_, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)

	r, err := f.svc.EditTerm(ctx, client, ledger.Stage2, "a", "soon")
	require.NoError(t, err)
	assert.Zero(t, r.CurrentTermMonths)
	assert.True(t, r.ProjectedPayoff.IsIndefinite())

	r, err = f.svc.EditCurrent(ctx, client, ledger.Stage2, "a", "R$ 1.234,56", "abc")
	require.NoError(t, err)
	assert.True(t, r.CurrentInstallment.Equal(dec("1234.56")))
	assert.True(t, r.CurrentInterestRate.IsZero())

	_, err = f.svc.EditTerm(ctx, client, ledger.Stage2, "missing", "3")
	assert.ErrorIs(t, err, ledger.ErrRecordNotFound)
}

func TestImpersonationRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10))

	_, err := f.svc.Open(ctx, store.Impersonate("advisor", "client-1"), ledger.Stage2)
	assert.ErrorIs(t, err, store.ErrNotPermitted)

	require.NoError(t, f.store.AddAdmin(ctx, "advisor"))
	out, err := f.svc.Open(ctx, store.Impersonate("advisor", "client-1"), ledger.Stage2)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Inherited)
}

func TestCoerce(t *testing.T) {
	assert.True(t, CoerceAmount("").IsZero())
	assert.True(t, CoerceAmount("250,50").Equal(dec("250.5")))
	assert.True(t, CoerceRate("2.5%").Equal(dec("2.5")))
	assert.Equal(t, 12, CoerceTerm("12 meses"))
	assert.Zero(t, CoerceTerm("-3"))
}

func TestRefresh_MappingHasNoPriorStage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Refresh(context.Background(), client, ledger.StageMapping)
	assert.True(t, engine.IsNoPriorStageError(err))
	assert.NotContains(t, f.logs.String(), "prior stage unavailable")
}

// countingRepo counts ledger writes.
type countingRepo struct {
	*store.Store
	upserts int
}

func (r *countingRepo) UpsertLedger(ctx context.Context, a store.Access, l ledger.Ledger) (bool, error) {
	r.upserts++
	return r.Store.UpsertLedger(ctx, a, l)
}

func TestEdit_AppliesEveryFieldInOneWrite(t *testing.T) {
	base := newFixture(t)
	repo := &countingRepo{Store: base.store}
	f := newFixtureWith(t, base.store, repo)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10))
	_, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	repo.upserts = 0

	installment, term := "80,00", "6x"
	r, err := f.svc.Edit(ctx, client, ledger.Stage2, "a", RecordEdit{Installment: &installment, Term: &term})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.upserts)
	assert.True(t, r.CurrentInstallment.Equal(dec("80")))
	assert.Equal(t, 6, r.CurrentTermMonths)
	assert.Equal(t, "2026-09", r.ProjectedPayoff.String())
	assert.True(t, r.CurrentInterestRate.IsZero())
}

func TestEdit_RejectedTermLeavesRecordUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10))
	_, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)

	installment, term := "80", "100000"
	_, err = f.svc.Edit(ctx, client, ledger.Stage2, "a", RecordEdit{Installment: &installment, Term: &term})
	assert.ErrorIs(t, err, ledger.ErrInvalidLedger)

	stored, err := f.svc.Show(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	a := mustFind(t, stored, "a")
	assert.True(t, a.CurrentInstallment.Equal(dec("100")))
	assert.Equal(t, 10, a.CurrentTermMonths)
}

func TestEdit_LongTermSurvivesReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.saveMapping(t, mappedRecord("a", "100", 10))
	_, err := f.svc.Open(ctx, client, ledger.Stage2)
	require.NoError(t, err)

	_, err = f.svc.EditTerm(ctx, client, ledger.Stage2, "a", "1200")
	require.NoError(t, err)

	stored, err := f.svc.Show(ctx, client, ledger.Stage2)
	require.NoError(t, err)
	assert.Equal(t, "2126-03", mustFind(t, stored, "a").ProjectedPayoff.String())
}
