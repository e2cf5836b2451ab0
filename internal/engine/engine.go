package engine

import (
	"time"

	"github.com/roach88/stageledger/internal/amortization"
	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/negotiation"
)

// Mode selects how Synchronize treats an existing current ledger.
type Mode int

const (
	// InitialLoad derives the ledger on first visit and leaves a non-empty
	// current ledger untouched.
	InitialLoad Mode = iota + 1

	// ManualRefresh re-derives every inherited record from upstream.
	ManualRefresh
)

func (m Mode) String() string {
	switch m {
	case InitialLoad:
		return "initial_load"
	case ManualRefresh:
		return "manual_refresh"
	}
	return "unknown"
}

// Engine derives stage ledgers. It holds no mutable state; one Engine may
// serve any number of users and stages.
type Engine struct {
	calc *amortization.Calculator
	ids  IDGenerator
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the UUIDv7 generator used for manual record IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// New creates an Engine that projects payoff months with calc.
func New(calc *amortization.Calculator, opts ...Option) *Engine {
	e := &Engine{
		calc: calc,
		ids:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculator returns the amortization calculator the engine uses.
func (e *Engine) Calculator() *amortization.Calculator {
	return e.calc
}

// Request is the input of one synchronization.
type Request struct {
	// Stage is the stage whose ledger is being derived.
	Stage ledger.Stage

	// Prior is the previous stage's ledger. Nil means it could not be
	// retrieved; an empty ledger means the previous stage has no records.
	Prior *ledger.Ledger

	// Current is what the stage already holds, possibly empty.
	Current ledger.Ledger

	Mode Mode

	// Overlay holds negotiation overrides. It is consulted only when Stage
	// is the first stage after mapping. A negotiated record takes its
	// reference values from the override, not from the prior current values.
	Overlay negotiation.Overlay
}

// Result is the outcome of one synchronization.
type Result struct {
	Ledger ledger.Ledger

	// Unchanged is set when InitialLoad found work already in the stage.
	Unchanged bool

	// UpstreamUnavailable is set when Prior was nil; the ledger then holds
	// only the preserved manual records and the caller should offer a retry.
	UpstreamUnavailable bool

	Inherited  int
	Negotiated int
	Preserved  int

	// DuplicatePrior lists prior IDs seen more than once; only the first
	// occurrence was inherited.
	DuplicatePrior []string
}

// Synchronize derives the working ledger for req.Stage.
func (e *Engine) Synchronize(req Request) (Result, error) {
	if !req.Stage.Valid() {
		return Result{}, newStageError(ErrCodeUnknownStage, req.Stage, "stage %d is not part of the workflow", int(req.Stage))
	}
	prevStage, ok := req.Stage.Prev()
	if !ok {
		return Result{}, newStageError(ErrCodeNoPriorStage, req.Stage, "the mapping stage has no ledger to inherit")
	}
	if req.Mode != InitialLoad && req.Mode != ManualRefresh {
		return Result{}, newStageError(ErrCodeInvalidMode, req.Stage, "unknown mode %d", int(req.Mode))
	}
	if req.Prior != nil && req.Prior.Stage != 0 && req.Prior.Stage != prevStage {
		return Result{}, newStageError(ErrCodeStageMismatch, req.Stage, "prior ledger belongs to %s, want %s", req.Prior.Stage, prevStage)
	}

	current := req.Current.Clone()
	current.Stage = req.Stage

	if req.Mode == InitialLoad && !current.IsEmpty() {
		return Result{Ledger: current, Unchanged: true}, nil
	}

	now := e.calc.Now()
	out := ledger.New(req.Stage)
	res := Result{}

	inherited := make(map[string]struct{})
	if req.Prior == nil {
		res.UpstreamUnavailable = true
	} else {
		for _, p := range req.Prior.Records {
			if _, dup := inherited[p.ID]; dup {
				res.DuplicatePrior = append(res.DuplicatePrior, p.ID)
				continue
			}
			inherited[p.ID] = struct{}{}

			local, hasLocal := current.Find(p.ID)
			n := e.derive(req, p, local, hasLocal, now)
			if n.IsNegotiated && req.Stage.NegotiationStage() {
				res.Negotiated++
			}
			out.Records = append(out.Records, n)
			res.Inherited++
		}
	}

	for _, r := range current.Records {
		if !r.IsManuallyAdded {
			continue
		}
		if _, ok := inherited[r.ID]; ok {
			continue
		}
		out.Records = append(out.Records, r)
		res.Preserved++
	}

	res.Ledger = out
	return res, nil
}

// derive builds the inherited counterpart of prior record p. Overrides are
// applied to p first, so a negotiated record's reference values are the
// negotiated ones.
func (e *Engine) derive(req Request, p, local ledger.DebtRecord, hasLocal bool, now time.Time) ledger.DebtRecord {
	basis := p
	negotiated := p.IsNegotiated
	if req.Stage.NegotiationStage() {
		negotiated = false
		if o, ok := req.Overlay.Lookup(p.ID); ok {
			basis = o.Apply(p)
			negotiated = true
		}
	}

	origin := req.Stage.Tag()
	if p.Origin().Stamped() {
		origin = p.Origin()
	}
	createdAt := now
	if hasLocal {
		if local.Origin().Valid() {
			origin = local.Origin()
		}
		createdAt = local.CreatedAt
	}

	n := ledger.NewRecord(p.ID, origin, createdAt)
	n.UpdatedAt = now
	n.Name = p.Name
	n.Creditor = p.Creditor
	n.IsNegotiated = negotiated

	n.ReferenceInstallment = basis.CurrentInstallment
	n.ReferenceTermMonths = basis.CurrentTermMonths
	n.ReferenceInterestRate = basis.CurrentInterestRate

	if hasLocal && req.Mode == InitialLoad {
		n.CurrentInstallment = local.CurrentInstallment
		n.CurrentTermMonths = local.CurrentTermMonths
		n.CurrentInterestRate = local.CurrentInterestRate
		n.IsPaymentConfirmed = local.IsPaymentConfirmed
		n.IsAmortizationConfirmed = local.IsAmortizationConfirmed
	} else {
		n.CurrentInstallment = basis.CurrentInstallment
		n.CurrentTermMonths = basis.CurrentTermMonths
		n.CurrentInterestRate = basis.CurrentInterestRate
		// Payment is assumed to continue until the client says otherwise.
		n.IsPaymentConfirmed = true
		n.IsAmortizationConfirmed = false
	}

	n.ProjectedPayoff = e.calc.ProjectedPayoffMonth(n.CurrentTermMonths)
	return n
}
