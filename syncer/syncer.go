// Package syncer keeps derived staking state fresh: a retrying query client over
// an endpoint pool, a contract state reader, a vault aggregator and a polling
// scheduler that commits whole snapshots per role and data class.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Sentinel errors for failure cases
var (
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrDerivationPanic  = errors.New("derivation panicked")
	ErrNotStarted       = errors.New("scheduler is not running")
	ErrUnknownRole      = errors.New("unknown role")
	ErrUnknownClass     = errors.New("unknown data class")
	ErrNoVaultFactory   = errors.New("vault factory contract is not configured")
)

// Default configuration values
const (
	DefaultMaxAttempts      = 10
	DefaultRetryDelay       = 100 * time.Millisecond
	DefaultLandingInterval  = 30 * time.Second
	DefaultUserInterval     = 10 * time.Second
	DefaultVaultInterval    = 20 * time.Second
	DefaultVaultConcurrency = 4
	DefaultNodeConcurrency  = 4
	DefaultEventBuffer      = 64
)

// Pool hands out the endpoint for the next attempt
// ------------------------------------------------
type Pool interface {
	Next() string
}

// Caller performs a single RPC against a single endpoint
type Caller interface {
	GetSmartContractSubState(ctx context.Context, endpoint, contract, field string, indices []string) (json.RawMessage, error)
	GetNumTxBlocks(ctx context.Context, endpoint string) (uint64, error)
}

// Clock abstracts time for production and testing
// ------------------------------------------------
type Clock interface {
	After(d time.Duration) <-chan time.Time
	Now() time.Time
}
