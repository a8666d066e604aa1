package pgxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/screwyprof/stakesync/syncer/store/dbrow"
)

// Sentinel errors for store operations
var (
	ErrTransactionFailed = errors.New("transaction failed")
	ErrTempTableFailed   = errors.New("temporary table operation failed")
	ErrCopyFailed        = errors.New("bulk copy operation failed")
	ErrUpsertFailed      = errors.New("upsert operation failed")
	ErrQueryFailed       = errors.New("endpoint query failed")
	ErrEndpointNotFound  = errors.New("endpoint not found")
)

// Store is the Postgres registry of RPC endpoints per network
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new PostgreSQL store with an existing connection pool
// Returns the store and a closer function
func New(pool *pgxpool.Pool) (*Store, func()) {
	store := &Store{pool: pool}
	closer := func() {
		pool.Close()
	}
	return store, closer
}

// Endpoints returns the enabled endpoint URLs of network, sorted by URL
func (s *Store) Endpoints(ctx context.Context, network string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT network, url, enabled, updated_at
		FROM rpc_endpoints
		WHERE network = $1 AND enabled
		ORDER BY url
	`, network)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	endpoints, err := pgx.CollectRows(rows, pgx.RowToStructByName[dbrow.Endpoint])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return dbrow.URLs(endpoints), nil
}

// SaveEndpoints registers urls for network. Known endpoints are re-enabled.
// Uses a temporary table so one COPY serves any number of endpoints.
func (s *Store) SaveEndpoints(ctx context.Context, network string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // No-op if commit succeeds

	_, err = tx.Exec(ctx, `
		CREATE TEMPORARY TABLE temp_rpc_endpoints (
			network TEXT,
			url TEXT
		) ON COMMIT DROP
	`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTempTableFailed, err)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"temp_rpc_endpoints"},
		[]string{"network", "url"},
		pgx.CopyFromRows(dbrow.EndpointsToRows(network, urls)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFailed, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO rpc_endpoints (network, url)
		SELECT DISTINCT network, url
		FROM temp_rpc_endpoints
		ON CONFLICT (network, url) DO UPDATE SET enabled = TRUE, updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpsertFailed, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
	}
	return nil
}

// DisableEndpoint takes url of network out of rotation without forgetting it
func (s *Store) DisableEndpoint(ctx context.Context, network, url string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rpc_endpoints SET enabled = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE network = $1 AND url = $2
	`, network, url)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpsertFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s", ErrEndpointNotFound, network, url)
	}
	return nil
}
