package cache

import (
	"context"
	"errors"
	"time"

	"github.com/khetsense/khetsense-api/pkg/types"
)

// ErrCacheMiss is returned by FetchAggregate when the key is absent or
// caching is disabled.
var ErrCacheMiss = errors.New("cache miss")

var _ Cache = (*Noop)(nil)

// Noop is the driver used when no cache endpoint is configured; every
// fetch misses and every store succeeds silently.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (n *Noop) Store(string, types.Entry) error { return nil }

func (n *Noop) FetchLast(string, int) ([]types.Entry, error) { return nil, nil }

func (n *Noop) StoreAggregate(context.Context, string, any, time.Duration) error { return nil }

func (n *Noop) FetchAggregate(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (n *Noop) Ping(context.Context) error { return nil }

func (n *Noop) Close() {}
