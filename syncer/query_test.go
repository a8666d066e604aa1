package syncer_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/stakesync/pkg/endpoint"
	"github.com/screwyprof/stakesync/staking"
	"github.com/screwyprof/stakesync/syncer"
)

const stakingContract = "0x62a9d5d611cdcae8d78005f31635898dfd9e6a6e"

var errUnreachable = errors.New("endpoint unreachable")

func TestQuerierFetchSubState(t *testing.T) {
	t.Parallel()

	t.Run("it gives up after exactly maxAttempts and sleeps between attempts", func(t *testing.T) {
		t.Parallel()

		// Arrange
		const maxAttempts, delay = 4, 250 * time.Millisecond
		caller := &scriptedCaller{failures: 1 << 30}
		clock := &recordingClock{}
		q := syncer.NewQuerier(endpoint.MustNewPool(testEndpoints), caller,
			syncer.WithMaxAttempts(maxAttempts),
			syncer.WithRetryDelay(delay),
			syncer.WithQueryClock(clock),
		)

		// Act
		_, err := q.FetchSubState(t.Context(), stakingContract, staking.FieldLastRewardCycle)

		// Assert
		require.ErrorIs(t, err, syncer.ErrRetriesExhausted)
		require.ErrorIs(t, err, errUnreachable, "Last cause is kept")
		assert.Equal(t, maxAttempts, caller.callCount())
		assert.Equal(t, []time.Duration{delay, delay, delay}, clock.waits(), "No sleep before the first or after the last attempt")
	})

	t.Run("it returns on the first success without further attempts", func(t *testing.T) {
		t.Parallel()

		for _, k := range []int{1, 3, 10} {
			// Arrange
			caller := &scriptedCaller{failures: k - 1, result: `{"lastrewardcycle":"42"}`}
			clock := &recordingClock{}
			q := syncer.NewQuerier(endpoint.MustNewPool(testEndpoints), caller, syncer.WithQueryClock(clock))

			// Act
			s, err := q.FetchSubState(t.Context(), stakingContract, staking.FieldLastRewardCycle)

			// Assert
			require.NoError(t, err, "success on attempt %d", k)
			cycle, err := s.Uint(staking.FieldLastRewardCycle)
			require.NoError(t, err)
			assert.Equal(t, uint64(42), cycle)
			assert.Equal(t, k, caller.callCount(), "success on attempt %d", k)
			assert.Len(t, clock.waits(), k-1)
		}
	})

	t.Run("it draws a different endpoint for every attempt", func(t *testing.T) {
		t.Parallel()

		// Arrange
		caller := &scriptedCaller{failures: 1 << 30}
		q := syncer.NewQuerier(endpoint.MustNewPool(testEndpoints), caller,
			syncer.WithMaxAttempts(len(testEndpoints)),
			syncer.WithQueryClock(&recordingClock{}),
		)

		// Act
		_, _ = q.FetchSubState(t.Context(), stakingContract, staking.FieldLastRewardCycle)

		// Assert
		assert.ElementsMatch(t, testEndpoints, caller.endpointsUsed())
	})

	t.Run("it retries an undecodable payload like any other failure", func(t *testing.T) {
		t.Parallel()

		// Arrange
		caller := &scriptedCaller{result: `["not","an","object"]`}
		q := syncer.NewQuerier(endpoint.MustNewPool(testEndpoints), caller,
			syncer.WithMaxAttempts(3),
			syncer.WithQueryClock(&recordingClock{}),
		)

		// Act
		_, err := q.FetchSubState(t.Context(), stakingContract, staking.FieldSSNList)

		// Assert
		require.ErrorIs(t, err, syncer.ErrRetriesExhausted)
		require.ErrorIs(t, err, staking.ErrMalformedState)
		assert.Equal(t, 3, caller.callCount())
	})

	t.Run("it rejects an invalid contract address without calling out", func(t *testing.T) {
		t.Parallel()

		// Arrange
		caller := &scriptedCaller{}
		q := syncer.NewQuerier(endpoint.MustNewPool(testEndpoints), caller)

		// Act
		_, err := q.FetchSubState(t.Context(), "not-an-address", staking.FieldSSNList)

		// Assert
		require.ErrorIs(t, err, staking.ErrInvalidAddress)
		assert.Zero(t, caller.callCount())
	})

	t.Run("it stops retrying once the context is cancelled", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ctx, cancel := context.WithCancel(t.Context())
		caller := &scriptedCaller{failures: 1 << 30, onCall: cancel}
		q := syncer.NewQuerier(endpoint.MustNewPool(testEndpoints), caller, syncer.WithQueryClock(&recordingClock{}))

		// Act
		_, err := q.FetchSubState(ctx, stakingContract, staking.FieldSSNList)

		// Assert
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, caller.callCount())
	})
}

func TestQuerierLatestBlock(t *testing.T) {
	t.Parallel()

	// Arrange
	caller := &scriptedCaller{failures: 2, blocks: 4263011}
	q := syncer.NewQuerier(endpoint.MustNewPool(testEndpoints), caller, syncer.WithQueryClock(&recordingClock{}))

	// Act
	n, err := q.LatestBlock(t.Context())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint64(4263011), n)
	assert.Equal(t, 3, caller.callCount())
}

var testEndpoints = []string{"https://a.example.org", "https://b.example.org", "https://c.example.org"}

// scriptedCaller fails the first `failures` calls and then answers with result
type scriptedCaller struct {
	failures int
	result   string
	blocks   uint64
	onCall   func()

	mu        sync.Mutex
	calls     int
	endpoints []string
}

func (c *scriptedCaller) GetSmartContractSubState(_ context.Context, ep, _, _ string, _ []string) (json.RawMessage, error) {
	if err := c.record(ep); err != nil {
		return nil, err
	}
	return json.RawMessage(c.result), nil
}

func (c *scriptedCaller) GetNumTxBlocks(_ context.Context, ep string) (uint64, error) {
	if err := c.record(ep); err != nil {
		return 0, err
	}
	return c.blocks, nil
}

func (c *scriptedCaller) record(ep string) error {
	c.mu.Lock()
	c.calls++
	c.endpoints = append(c.endpoints, ep)
	n := c.calls
	c.mu.Unlock()

	if c.onCall != nil {
		c.onCall()
	}
	if n <= c.failures {
		return errUnreachable
	}
	return nil
}

func (c *scriptedCaller) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *scriptedCaller) endpointsUsed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.endpoints...)
}

// recordingClock fires immediately and remembers every requested wait
type recordingClock struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (c *recordingClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.durations = append(c.durations, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func (c *recordingClock) Now() time.Time {
	return time.Time{}
}

func (c *recordingClock) waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.durations...)
}
