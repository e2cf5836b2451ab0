package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/stageledger/internal/amortization"
	"github.com/roach88/stageledger/internal/engine"
	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/negotiation"
	"github.com/roach88/stageledger/internal/session"
	"github.com/roach88/stageledger/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios with a frozen clock and sequential record ids.
type Harness struct {
	engine  *engine.Engine
	calc    *amortization.Calculator
	prior   *ledger.Ledger
	overlay negotiation.Overlay
	stage   ledger.Stage
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Build the prior and current ledgers and normalize negotiations
// 2. Execute steps in order, checking expected errors
// 3. Evaluate assertions against the final ledger
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with step logging sent to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	day, err := time.Parse(time.DateOnly, scenario.Today)
	if err != nil {
		return nil, fmt.Errorf("today: %w", err)
	}
	stage, err := ledger.ParseStage(scenario.Stage)
	if err != nil {
		return nil, fmt.Errorf("stage: %w", err)
	}

	now := day.Add(12 * time.Hour)
	calc := amortization.New(testutil.NewManualClock(now))
	h := &Harness{
		engine: engine.New(calc, engine.WithIDGenerator(testutil.NewSequenceGenerator())),
		calc:   calc,
		stage:  stage,
		logger: logger.With("scenario", scenario.Name),
	}

	result := NewResult()

	if scenario.Prior != nil {
		prevStage, _ := stage.Prev()
		prior, err := h.buildLedger(scenario.Prior, prevStage, now)
		if err != nil {
			return nil, fmt.Errorf("prior: %w", err)
		}
		h.prior = &prior
	}

	current := ledger.New(stage)
	if scenario.Current != nil {
		current, err = h.buildLedger(scenario.Current, stage, now)
		if err != nil {
			return nil, fmt.Errorf("current: %w", err)
		}
	}

	var skipped []error
	h.overlay, skipped = scenario.Negotiations.Normalize()
	for _, e := range skipped {
		result.Skipped = append(result.Skipped, e.Error())
	}

	for i, step := range scenario.Steps {
		next, err := h.executeStep(current, step, result)
		outcome := "ok"
		if err != nil {
			outcome = ErrorCode(err)
		}
		result.AddStep(i, step.Op, step.ID, outcome)
		h.logger.Info("step completed", "step", i, "op", step.Op, "id", step.ID, "outcome", outcome)

		switch {
		case step.ExpectError != "" && err == nil:
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got none", i, step.Op, step.ExpectError))
		case step.ExpectError != "" && outcome != step.ExpectError:
			result.AddError(fmt.Sprintf("steps[%d] %s: expected error %s, got %s (%v)", i, step.Op, step.ExpectError, outcome, err))
		case step.ExpectError == "" && err != nil:
			result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", i, step.Op, err))
		}
		if err == nil {
			current = next
		}
	}
	result.Ledger = current

	for _, e := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(e.Error())
	}
	return result, nil
}

func (h *Harness) executeStep(l ledger.Ledger, step Step, result *Result) (ledger.Ledger, error) {
	on := step.On == nil || *step.On

	switch step.Op {
	case OpSync:
		mode, err := parseMode(step.Mode)
		if err != nil {
			return l, err
		}
		res, err := h.engine.Synchronize(engine.Request{
			Stage:   h.stage,
			Prior:   h.prior,
			Current: l,
			Mode:    mode,
			Overlay: h.overlay,
		})
		if err != nil {
			return l, err
		}
		result.Sync = res
		return res.Ledger, nil

	case OpAdd:
		out, _, err := h.engine.AddDebt(l, engine.ManualInput{
			Name:         step.Name,
			Creditor:     step.Creditor,
			Installment:  session.CoerceAmount(step.Installment),
			TermMonths:   session.CoerceTerm(step.Term),
			InterestRate: session.CoerceRate(step.Rate),
		})
		return out, err

	case OpRemove:
		return h.engine.RemoveDebt(l, step.ID)

	case OpPay:
		return h.updateRecord(l, step.ID, func(r ledger.DebtRecord) (ledger.DebtRecord, error) {
			return h.calc.SetPaymentConfirmed(r, on), nil
		})

	case OpAmortize:
		return h.updateRecord(l, step.ID, func(r ledger.DebtRecord) (ledger.DebtRecord, error) {
			return h.calc.SetAmortizationConfirmed(r, on)
		})

	case OpEditTerm:
		months := session.CoerceTerm(step.Term)
		return h.updateRecord(l, step.ID, func(r ledger.DebtRecord) (ledger.DebtRecord, error) {
			return h.calc.SetTerm(r, months), nil
		})

	case OpEditCurrent:
		out := l.Clone()
		err := out.EditCurrent(step.ID, session.CoerceAmount(step.Installment), session.CoerceRate(step.Rate), h.calc.Now())
		return out, err
	}
	return l, fmt.Errorf("unknown op %q", step.Op)
}

func (h *Harness) updateRecord(l ledger.Ledger, id string, fn func(ledger.DebtRecord) (ledger.DebtRecord, error)) (ledger.Ledger, error) {
	out := l.Clone()
	err := out.Update(id, func(r *ledger.DebtRecord) error {
		n, err := fn(*r)
		if err != nil {
			return err
		}
		*r = n
		return nil
	})
	return out, err
}

// buildLedger converts a scenario ledger. Stage defaults to def.
func (h *Harness) buildLedger(spec *LedgerSpec, def ledger.Stage, now time.Time) (ledger.Ledger, error) {
	stage := def
	if spec.Stage != "" {
		s, err := ledger.ParseStage(spec.Stage)
		if err != nil {
			return ledger.Ledger{}, err
		}
		stage = s
	}

	l := ledger.New(stage)
	for i, rs := range spec.Records {
		r, err := h.buildRecord(rs, now)
		if err != nil {
			return ledger.Ledger{}, fmt.Errorf("records[%d]: %w", i, err)
		}
		// Appended rather than Put so duplicate ids reach the engine.
		l.Records = append(l.Records, r)
	}
	return l, nil
}

func (h *Harness) buildRecord(rs RecordSpec, now time.Time) (ledger.DebtRecord, error) {
	origin, err := ledger.ParseProvenance(rs.Origin)
	if err != nil {
		return ledger.DebtRecord{}, err
	}
	cur := rs.Reference
	if rs.Current != nil {
		cur = *rs.Current
	}

	r := ledger.NewRecord(rs.ID, origin, now)
	r.Name = rs.Name
	r.Creditor = rs.Creditor
	r.IsManuallyAdded = rs.Manual
	r.IsNegotiated = rs.Negotiated
	r.IsPaymentConfirmed = rs.Paying
	r.IsAmortizationConfirmed = rs.Amortizing

	if r.ReferenceInstallment, err = plainDecimal(rs.Reference.Installment); err != nil {
		return r, err
	}
	if r.ReferenceInterestRate, err = plainDecimal(rs.Reference.Rate); err != nil {
		return r, err
	}
	if r.CurrentInstallment, err = plainDecimal(cur.Installment); err != nil {
		return r, err
	}
	if r.CurrentInterestRate, err = plainDecimal(cur.Rate); err != nil {
		return r, err
	}
	r.ReferenceTermMonths = rs.Reference.Term
	r.CurrentTermMonths = cur.Term
	r.ProjectedPayoff = h.calc.ProjectedPayoffMonth(cur.Term)
	return r, nil
}

func plainDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", s, err)
	}
	return d, nil
}

// ErrorCode names an error the way scenarios refer to it.
func ErrorCode(err error) string {
	var re *engine.RuntimeError
	switch {
	case errors.As(err, &re):
		return string(re.Code)
	case errors.Is(err, amortization.ErrPaymentNotConfirmed):
		return "PAYMENT_NOT_CONFIRMED"
	case errors.Is(err, ledger.ErrRecordNotFound):
		return string(engine.ErrCodeRecordNotFound)
	}
	return "ERROR"
}
