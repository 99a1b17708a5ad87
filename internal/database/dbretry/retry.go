package dbretry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Policy controls how failed database operations are retried.
type Policy struct {
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      uint64
}

// DefaultPolicy is used by the package-level helpers.
var DefaultPolicy = Policy{ //nolint:gochecknoglobals // -
	MaxElapsedTime:  30 * time.Second,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
	MaxRetries:      5,
}

// retryableCodes are the PostgreSQL SQLSTATE codes worth another attempt.
var retryableCodes = map[string]struct{}{ //nolint:gochecknoglobals // -
	"08000": {}, // connection_exception
	"08001": {}, // sqlclient_unable_to_establish_sqlconnection
	"08003": {}, // connection_does_not_exist
	"08004": {}, // sqlserver_rejected_establishment_of_sqlconnection
	"08006": {}, // connection_failure
	"08007": {}, // transaction_resolution_unknown
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"53300": {}, // too_many_connections
	"55P03": {}, // lock_not_available
	"57P01": {}, // admin_shutdown
	"57P03": {}, // cannot_connect_now
}

// IsRetryableError checks if the given error is transient.
// Context cancellation is never retried.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgerr pgdriver.Error
	if errors.As(err, &pgerr) {
		_, ok := retryableCodes[pgerr.Field('C')]
		return ok
	}

	errMsg := err.Error()
	for _, fragment := range []string{
		"connection reset by peer",
		"broken pipe",
		"connection refused",
		"i/o timeout",
	} {
		if strings.Contains(errMsg, fragment) {
			return true
		}
	}

	return false
}

func (p Policy) backOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(p.MaxElapsedTime),
		backoff.WithInitialInterval(p.InitialInterval),
		backoff.WithMaxInterval(p.MaxInterval),
	), p.MaxRetries)

	return backoff.WithContext(b, ctx)
}

// NoResult runs operation until it succeeds, fails permanently or the policy gives up.
// Non-retryable errors are returned on the first failure with their chain intact.
func (p Policy) NoResult(ctx context.Context, operation func(context.Context) error) error {
	var lastErr error

	err := backoff.Retry(func() error {
		err := operation(ctx)
		if err == nil {
			return nil
		}

		if !IsRetryableError(err) {
			return backoff.Permanent(err)
		}

		lastErr = err

		return err
	}, p.backOff(ctx))
	if err != nil {
		if lastErr != nil && errors.Is(err, lastErr) {
			return fmt.Errorf("database operation failed after retries: %w", lastErr)
		}

		return err
	}

	return nil
}

// Transaction runs fn in a transaction, retrying the whole transaction on transient failures.
// A nil opts uses the server's default isolation level.
func (p Policy) Transaction(
	ctx context.Context, db *bun.DB, opts *sql.TxOptions, fn func(context.Context, bun.Tx) error,
) error {
	return p.NoResult(ctx, func(ctx context.Context) error {
		return db.RunInTx(ctx, opts, fn)
	})
}

// Operation runs an operation that returns a value with the default policy.
func Operation[T any](ctx context.Context, operation func(context.Context) (T, error)) (T, error) {
	var result T

	err := DefaultPolicy.NoResult(ctx, func(ctx context.Context) error {
		var err error
		result, err = operation(ctx)
		return err
	})

	return result, err
}

// Transaction runs fn in a transaction with the default policy.
func Transaction(ctx context.Context, db *bun.DB, opts *sql.TxOptions, fn func(context.Context, bun.Tx) error) error {
	return DefaultPolicy.Transaction(ctx, db, opts, fn)
}

// Runner runs transactions on a database using a retry policy.
type Runner struct {
	db     *bun.DB
	policy Policy
}

// NewRunner creates a transaction runner for db.
func NewRunner(db *bun.DB, policy Policy) *Runner {
	return &Runner{db: db, policy: policy}
}

// RunInTx runs fn inside a retried transaction.
func (r *Runner) RunInTx(ctx context.Context, fn func(context.Context, bun.IDB) error) error {
	return r.policy.Transaction(ctx, r.db, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, tx)
	})
}
