package store

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/model"
)

// RetryConfig controls how RetryingStore retries writes.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
	// JitterFraction spreads each delay by ±fraction.
	JitterFraction float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// DefaultRetryConfig returns the retry settings used when none are configured.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		JitterFraction: 0.25,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	if c.JitterFraction < 0 {
		c.JitterFraction = 0
	}
	return c
}

// backoff doubles per attempt up to MaxBackoff.
func (c RetryConfig) backoff(attempt int) time.Duration {
	delay := float64(c.InitialBackoff) * math.Pow(2, float64(attempt))
	if delay > float64(c.MaxBackoff) {
		delay = float64(c.MaxBackoff)
	}
	if c.JitterFraction > 0 {
		delay += (rand.Float64()*2 - 1) * delay * c.JitterFraction
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// RetryingStore retries SaveResult on transient database errors. Reads are
// passed through unchanged.
type RetryingStore struct {
	Store
	cfg RetryConfig
}

// WithRetry wraps s so that transient write failures are retried.
func WithRetry(s Store, cfg RetryConfig) *RetryingStore {
	return &RetryingStore{Store: s, cfg: cfg.withDefaults()}
}

func (r *RetryingStore) SaveResult(ctx context.Context, res *model.ProcessResult) error {
	var err error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		err = r.Store.SaveResult(ctx, res)
		if err == nil || ctx.Err() != nil || !IsTransient(err) {
			return err
		}
		if attempt == r.cfg.MaxAttempts-1 {
			break
		}

		delay := r.cfg.backoff(attempt)
		zap.L().Warn("store: retrying save",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

// transientSQLStates are Postgres error codes worth retrying: connection
// exceptions, serialization failures, deadlocks, too many connections and
// admin shutdown.
var transientSQLStates = map[string]bool{
	"40001": true,
	"40P01": true,
	"53300": true,
	"57P01": true,
	"57P02": true,
	"57P03": true,
}

// IsTransient reports whether err is a database or network failure that a
// later attempt may not hit.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientSQLStates[pgErr.Code] || strings.HasPrefix(pgErr.Code, "08")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"database is locked",
		"sqlite_busy",
		"connection reset by peer",
		"broken pipe",
		"i/o timeout",
		"conn closed",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
