package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/stageledger/internal/amortization"
	"github.com/roach88/stageledger/internal/config"
	"github.com/roach88/stageledger/internal/engine"
	"github.com/roach88/stageledger/internal/ledger"
	"github.com/roach88/stageledger/internal/session"
	"github.com/roach88/stageledger/internal/store"
)

// env is everything a command needs once flags and config are resolved.
type env struct {
	cfg    config.Config
	store  *store.Store
	svc    *session.Service
	logger *slog.Logger
	access store.Access
	out    *OutputFormatter
}

func openEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	access, err := opts.access()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid user", err)
	}

	// Configure logging based on verbose flag
	logLevel := cfg.Level()
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	loc, err := cfg.Location()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	clock := opts.Clock
	if clock == nil {
		clock = amortization.SystemClock{Location: loc}
	}

	logger.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	var engOpts []engine.Option
	if opts.IDs != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(opts.IDs))
	}
	eng := engine.New(amortization.New(clock), engOpts...)

	return &env{
		cfg:    cfg,
		store:  st,
		svc:    session.New(st, eng, logger),
		logger: logger,
		access: access,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing database", "error", err)
	}
}

func loadConfig(opts *RootOptions) (config.Config, error) {
	var cfg config.Config
	var err error
	if opts.Config == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(opts.Config)
	}
	if err != nil {
		return config.Config{}, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	return cfg, nil
}

func (o *RootOptions) access() (store.Access, error) {
	if o.User == "" {
		return store.Access{}, errors.New("--user is required")
	}
	if o.As != "" && o.As != o.User {
		return store.Impersonate(o.User, o.As), nil
	}
	return store.Self(o.User), nil
}

func parseStageArg(arg string) (ledger.Stage, error) {
	stage, err := ledger.ParseStage(arg)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid stage %q", arg), err)
	}
	return stage, nil
}

// fail reports err through the formatter and returns it with an exit code.
func (e *env) fail(message string, err error) error {
	code, exit := classify(err)
	_ = e.out.Error(code, fmt.Sprintf("%s: %v", message, err), nil)
	return WrapExitError(exit, message, err)
}

func classify(err error) (string, int) {
	switch {
	case errors.Is(err, store.ErrNotPermitted):
		return ErrCodeNotPermitted, ExitCommandError
	case engine.IsInheritedRecordError(err):
		return ErrCodeInheritedRecord, ExitFailure
	case engine.IsNotFoundError(err), errors.Is(err, ledger.ErrRecordNotFound):
		return ErrCodeRecordNotFound, ExitFailure
	case engine.IsNoPriorStageError(err):
		return ErrCodeNoPriorStage, ExitCommandError
	case errors.Is(err, amortization.ErrPaymentNotConfirmed):
		return ErrCodePaymentNotConfirmed, ExitFailure
	}
	return ErrCodeGeneric, ExitFailure
}
