// Package endpoint load-balances reads across equivalent RPC endpoints of one network.
package endpoint

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
)

// ErrNoEndpoints is returned when a pool is built without a single usable endpoint.
var ErrNoEndpoints = errors.New("no RPC endpoints configured")

// Option configures the Pool
type Option func(*options)

type options struct {
	rnd *rand.Rand
}

// WithRand sets the source used for the initial permutation (e.g., a seeded one in tests)
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rnd = r }
}

// Pool hands out endpoints in a shuffled round-robin.
//
// The permutation is chosen once when the pool is built. After that the rotation is
// deterministic: N consecutive calls to Next cover all N endpoints, and call N+1 wraps
// to the first endpoint of the permutation.
type Pool struct {
	endpoints []string
	perm      []int

	mu     sync.Mutex
	cursor int
}

// NewPool builds a pool over the given endpoints. Blank entries and duplicates are
// ignored; if nothing is left ErrNoEndpoints is returned.
func NewPool(endpoints []string, opts ...Option) (*Pool, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	eps := dedup(endpoints)
	if len(eps) == 0 {
		return nil, ErrNoEndpoints
	}

	var perm []int
	if o.rnd != nil {
		perm = o.rnd.Perm(len(eps))
	} else {
		perm = rand.Perm(len(eps))
	}

	return &Pool{
		endpoints: eps,
		perm:      perm,
	}, nil
}

// MustNewPool is NewPool for wiring code where a missing endpoint list is fatal.
func MustNewPool(endpoints []string, opts ...Option) *Pool {
	p, err := NewPool(endpoints, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// Next returns the endpoint under the cursor and advances it.
func (p *Pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	ep := p.endpoints[p.perm[p.cursor]]
	p.cursor++
	if p.cursor == len(p.perm) {
		p.cursor = 0
	}
	return ep
}

// Len returns the number of endpoints in the pool
func (p *Pool) Len() int {
	return len(p.endpoints)
}

// Endpoints returns a copy of the endpoints in rotation order
func (p *Pool) Endpoints() []string {
	out := make([]string, len(p.perm))
	for i, idx := range p.perm {
		out[i] = p.endpoints[idx]
	}
	return out
}

func dedup(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	result := make([]string, 0, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		result = append(result, s)
	}
	return result
}
