package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/rowgate/internal/catalog"
	"github.com/roach88/rowgate/internal/config"
	"github.com/roach88/rowgate/internal/logging"
	"github.com/roach88/rowgate/internal/record"
	"github.com/roach88/rowgate/internal/registry"
	"github.com/roach88/rowgate/internal/schema"
	"github.com/roach88/rowgate/internal/session"
	"github.com/roach88/rowgate/internal/store"
)

// env is everything a record command needs, opened from the configuration.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	registry *registry.Registry
	cache    *schema.Cache
	sessions record.SessionProbe
	closers  []func() error
}

// openEnv loads the configuration and opens the store, the catalog and the
// session probe. Failures are written through f and returned as ExitErrors.
func openEnv(ctx context.Context, opts *RootOptions, f *OutputFormatter) (*env, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}

	level := cfg.Log.Level
	if opts.Verbose {
		level = "debug"
	}
	logger, err := logging.Setup(level, cfg.Log.Format, f.GetErrWriter())
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "failed to set up logging", err)
	}

	if cfg.Catalog == "" {
		return nil, f.Fail(ExitCommandError, ErrCodeCatalog, "no catalog configured", nil)
	}
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeCatalog, "failed to load catalog", err)
	}
	f.VerboseLog("Loaded %d record type(s) from %d file(s)", len(cat.Tables), cat.Files)

	e := &env{
		cfg:      cfg,
		logger:   logger,
		registry: registry.New(),
		cache:    schema.NewCache(),
	}
	cat.Register(e.registry)

	st, err := store.Open(ctx, cfg.Driver, cfg.DSN, store.WithLogger(logger))
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}
	e.store = st
	e.closers = append(e.closers, st.Close)

	if err := e.openSessions(ctx); err != nil {
		e.Close()
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "failed to open session backend", err)
	}
	return e, nil
}

func (e *env) openSessions(ctx context.Context) error {
	sc := e.cfg.Sessions
	switch sc.Backend {
	case config.BackendSQL:
		e.sessions = session.NewSQLProbe(e.store, sc.Table, sc.Column)
	case config.BackendRedis:
		client, err := session.DialRedis(ctx, sc.RedisAddr, sc.DialTimeout)
		if err != nil {
			return err
		}
		e.closers = append(e.closers, client.Close)
		e.sessions = session.NewRedisProbe(client, sc.RedisPrefix)
	}
	return nil
}

// Close releases everything openEnv acquired, newest first.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Error("error closing resource", "error", err)
		}
	}
	e.closers = nil
}

// newRecord builds an empty record of the named type.
func (e *env) newRecord(ctx context.Context, f *OutputFormatter, typeName string) (*record.Record, registry.Definition, error) {
	def, ok := e.registry.Get(typeName)
	if !ok {
		return nil, def, f.Fail(ExitCommandError, ErrCodeRecordType,
			fmt.Sprintf("unknown record type %q", typeName), nil)
	}

	opts := []record.Option{
		record.WithCache(e.cache),
		record.WithLogger(e.logger),
	}
	if e.sessions != nil {
		opts = append(opts, record.WithSessions(e.sessions))
	}
	rec, err := def.New(ctx, e.store, opts...)
	if err != nil {
		return nil, def, recordFailure(f, "open "+typeName, err)
	}
	return rec, def, nil
}

// recordFailure reports an error returned by a record operation. Record
// misuse is reported under its own code, anything else is a database error.
func recordFailure(f *OutputFormatter, op string, err error) error {
	var recErr *record.Error
	if errors.As(err, &recErr) {
		return f.Fail(ExitCommandError, string(recErr.Code), op+" failed", err)
	}
	return f.Fail(ExitCommandError, ErrCodeDatabase, op+" failed", err)
}

// softFailure reports an operation that returned false, using the last
// message the record logged.
func softFailure(f *OutputFormatter, op string, rec *record.Record) error {
	msg := op + " failed"
	if last := rec.LastError(); last != "" {
		msg += ": " + last
	}
	return f.Fail(ExitFailure, ErrCodeSoft, msg, nil)
}
