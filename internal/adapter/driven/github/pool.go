package github

import (
	"context"

	"github.com/yongseopkim/workrecap/internal/domain/port/driven"
)

// Pool is a fixed-size set of independent SearchClient instances lent to
// concurrent per-date workers. No client is shared concurrently: Acquire
// blocks until one is free, Release returns it.
type Pool struct {
	clients chan driven.SearchClient
}

// NewPool builds a pool of size len(clients), one slot per client.
func NewPool(clients []driven.SearchClient) *Pool {
	ch := make(chan driven.SearchClient, len(clients))
	for _, c := range clients {
		ch <- c
	}
	return &Pool{clients: ch}
}

// Acquire blocks until a client is available or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (driven.SearchClient, error) {
	select {
	case c := <-p.clients:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns c to the pool.
func (p *Pool) Release(c driven.SearchClient) {
	p.clients <- c
}

// Size returns the pool's total client count.
func (p *Pool) Size() int {
	return cap(p.clients)
}
