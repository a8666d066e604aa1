package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/screwyprof/stakesync/pkg/clock"
	"github.com/screwyprof/stakesync/staking"
)

// QueryOption configures the Querier
// ------------------------------------------------
type QueryOption func(*Querier)

// WithMaxAttempts sets how many endpoints a query tries before giving up
func WithMaxAttempts(n int) QueryOption {
	return func(q *Querier) { q.maxAttempts = max(n, 1) }
}

// WithRetryDelay sets the pause between two attempts
func WithRetryDelay(d time.Duration) QueryOption {
	return func(q *Querier) { q.retryDelay = d }
}

// WithQueryClock injects a custom Clock (e.g., for testing)
func WithQueryClock(c Clock) QueryOption {
	return func(q *Querier) { q.clock = c }
}

// WithQueryMetrics records attempts and exhausted queries
func WithQueryMetrics(m *Metrics) QueryOption {
	return func(q *Querier) { q.metrics = m }
}

// Querier runs reads with bounded retry, drawing a fresh endpoint per attempt
// ---------------------------------------------------------------------------
//
// Every failure is retried the same way: transport errors, node errors, null
// results and undecodable payloads. A field that does not exist therefore costs
// the full attempt budget before ErrRetriesExhausted is returned.
type Querier struct {
	pool        Pool
	caller      Caller
	clock       Clock
	maxAttempts int
	retryDelay  time.Duration
	metrics     *Metrics
}

// NewQuerier constructs a Querier with required dependencies and options
// ---------------------------------------------------------------------
// By default, it uses a real clock, 10 attempts and a 100ms retry delay.
func NewQuerier(pool Pool, caller Caller, opts ...QueryOption) *Querier {
	q := &Querier{
		pool:        pool,
		caller:      caller,
		clock:       clock.SystemClock{},
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// FetchSubState reads one field of a contract, narrowed by the given map keys
func (q *Querier) FetchSubState(ctx context.Context, contract, field string, indices ...string) (staking.SubState, error) {
	contract, err := staking.NormalizeAddress(contract)
	if err != nil {
		return nil, err
	}

	return retry(ctx, q, field, func(ctx context.Context, endpoint string) (staking.SubState, error) {
		raw, err := q.caller.GetSmartContractSubState(ctx, endpoint, contract, field, indices)
		if err != nil {
			return nil, err
		}
		return staking.ParseSubState(raw)
	})
}

// LatestBlock returns the latest tx block count reported by the network
func (q *Querier) LatestBlock(ctx context.Context) (uint64, error) {
	return retry(ctx, q, "num_tx_blocks", q.caller.GetNumTxBlocks)
}

func retry[T any](ctx context.Context, q *Querier, label string, call func(context.Context, string) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)

	for attempt := range q.maxAttempts {
		if attempt > 0 {
			if err := clock.Sleep(ctx, q.clock, q.retryDelay); err != nil {
				return zero, err
			}
		}

		v, err := call(ctx, q.pool.Next())
		if err == nil {
			q.metrics.queryAttempt(label, "success")
			return v, nil
		}
		q.metrics.queryAttempt(label, "failure")
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}

	q.metrics.queryExhaust(label)
	return zero, fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, label, q.maxAttempts, lastErr)
}
