package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/stageledger/internal/engine"
	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/negotiation"
	"github.com/roach88/stageledger/internal/store"
)

// Repository is the persistence the service needs. *store.Store satisfies it.
type Repository interface {
	GetLedger(ctx context.Context, a store.Access, stage ledger.Stage) (ledger.Ledger, error)
	LoadLedger(ctx context.Context, a store.Access, stage ledger.Stage) (ledger.Ledger, error)
	UpsertLedger(ctx context.Context, a store.Access, l ledger.Ledger) (bool, error)
	GetNegotiations(ctx context.Context, a store.Access) (negotiation.Table, error)
	ImportNegotiations(ctx context.Context, a store.Access, table negotiation.Table) error
}

var _ Repository = (*store.Store)(nil)

// Service coordinates the repository and the engine.
type Service struct {
	repo   Repository
	engine *engine.Engine
	logger *slog.Logger
}

// New creates a Service. A nil logger falls back to slog.Default().
func New(repo Repository, eng *engine.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, engine: eng, logger: logger}
}

// Outcome reports what a synchronization did.
type Outcome struct {
	engine.Result

	// Saved is false when nothing was written: the stage was already
	// populated, the upstream was unavailable, or the stored ledger was
	// identical.
	Saved bool

	// Skipped lists negotiation entries that could not be parsed.
	Skipped []error
}

// Open is the first visit to a stage. An already populated stage is
// returned as stored. The mapping stage has nothing to inherit and is
// always returned as stored.
func (s *Service) Open(ctx context.Context, a store.Access, stage ledger.Stage) (Outcome, error) {
	if stage == ledger.StageMapping {
		l, err := s.repo.LoadLedger(ctx, a, stage)
		if err != nil {
			return Outcome{}, fmt.Errorf("open %s: %w", stage, err)
		}
		return Outcome{Result: engine.Result{Ledger: l, Unchanged: true}}, nil
	}
	return s.synchronize(ctx, a, stage, engine.InitialLoad)
}

// Refresh re-derives every inherited record of stage from upstream,
// discarding local edits to them. Manual records survive.
func (s *Service) Refresh(ctx context.Context, a store.Access, stage ledger.Stage) (Outcome, error) {
	return s.synchronize(ctx, a, stage, engine.ManualRefresh)
}

func (s *Service) synchronize(ctx context.Context, a store.Access, stage ledger.Stage, mode engine.Mode) (Outcome, error) {
	log := s.logger.With("user", a.Subject, "stage", stage.String(), "mode", mode.String())
	if a.Impersonated() {
		log = log.With("actor", a.Actor)
	}

	current, err := s.repo.LoadLedger(ctx, a, stage)
	if err != nil {
		return Outcome{}, fmt.Errorf("synchronize %s: load current: %w", stage, err)
	}
	if mode == engine.InitialLoad && !current.IsEmpty() {
		log.Debug("stage already populated", "records", current.Len())
		return Outcome{Result: engine.Result{Ledger: current, Unchanged: true}}, nil
	}

	req := engine.Request{
		Stage:   stage,
		Current: current,
		Mode:    mode,
	}

	prior, err := s.fetchPrior(ctx, a, stage)
	switch {
	case errors.Is(err, store.ErrNotPermitted):
		return Outcome{}, fmt.Errorf("synchronize %s: %w", stage, err)
	case err != nil:
		log.Warn("prior stage unavailable, keeping manual records only", "error", err)
	default:
		req.Prior = &prior
	}

	var out Outcome
	if stage.NegotiationStage() {
		req.Overlay, out.Skipped = s.fetchOverlay(ctx, a, log)
	}

	res, err := s.engine.Synchronize(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("synchronize %s: %w", stage, err)
	}
	out.Result = res
	if len(res.DuplicatePrior) > 0 {
		log.Warn("duplicate ids in prior stage", "ids", res.DuplicatePrior)
	}

	if res.UpstreamUnavailable {
		return out, nil
	}

	out.Saved, err = s.repo.UpsertLedger(ctx, a, res.Ledger)
	if err != nil {
		return Outcome{}, fmt.Errorf("synchronize %s: save: %w", stage, err)
	}
	log.Info("stage synchronized",
		"inherited", res.Inherited,
		"negotiated", res.Negotiated,
		"preserved", res.Preserved,
		"saved", out.Saved,
	)
	return out, nil
}

// fetchPrior returns the previous stage's ledger. A stage that was never
// saved reads as an empty ledger, not as unavailable.
func (s *Service) fetchPrior(ctx context.Context, a store.Access, stage ledger.Stage) (ledger.Ledger, error) {
	prev, ok := stage.Prev()
	if !ok {
		// Synchronize rejects the stage itself.
		return ledger.Ledger{}, nil
	}
	l, err := s.repo.GetLedger(ctx, a, prev)
	if errors.Is(err, store.ErrNotFound) {
		return ledger.New(prev), nil
	}
	return l, err
}

func (s *Service) fetchOverlay(ctx context.Context, a store.Access, log *slog.Logger) (negotiation.Overlay, []error) {
	table, err := s.repo.GetNegotiations(ctx, a)
	if err != nil {
		log.Warn("negotiation notes unavailable", "error", err)
		return nil, nil
	}
	overlay, errs := table.Normalize()
	for _, e := range errs {
		log.Warn("ignoring negotiation entry", "error", e)
	}
	return overlay, errs
}

// Show returns the stored ledger of stage without synchronizing.
func (s *Service) Show(ctx context.Context, a store.Access, stage ledger.Stage) (ledger.Ledger, error) {
	l, err := s.repo.LoadLedger(ctx, a, stage)
	if err != nil {
		return ledger.Ledger{}, fmt.Errorf("show %s: %w", stage, err)
	}
	return l, nil
}

// ImportNegotiations stores table for a.Subject. Entries that would not
// parse are stored anyway and reported; they are ignored at synchronization.
func (s *Service) ImportNegotiations(ctx context.Context, a store.Access, table negotiation.Table) ([]error, error) {
	_, errs := table.Normalize()
	if err := s.repo.ImportNegotiations(ctx, a, table); err != nil {
		return errs, fmt.Errorf("import negotiations: %w", err)
	}
	s.logger.Info("negotiations imported", "user", a.Subject, "entries", len(table), "malformed", len(errs))
	return errs, nil
}
