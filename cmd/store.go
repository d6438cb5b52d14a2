package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/config"
	"github.com/sells-group/rera-cli/internal/store"
)

var errNoStore = eris.New("no result store configured (set store.driver to sqlite or postgres)")

// initStore opens and migrates the configured result store. It returns
// errNoStore when the driver is "none".
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "rera.db"
		}
		st, err = store.NewSQLite(dsn)
	case config.DriverPostgres:
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.Pool.MaxConns,
			MinConns: cfg.Store.Pool.MinConns,
		})
	case config.DriverNone, "":
		return nil, errNoStore
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return store.WithRetry(st, store.RetryConfig{
		MaxAttempts:    cfg.Store.Retry.MaxAttempts,
		InitialBackoff: cfg.Store.Retry.InitialBackoff,
		MaxBackoff:     cfg.Store.Retry.MaxBackoff,
	}), nil
}

// optionalStore opens the store when one is configured and returns nil
// otherwise.
func optionalStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if eris.Is(err, errNoStore) {
		zap.L().Debug("no result store configured, results are not persisted")
		return nil, nil
	}
	return st, err
}
