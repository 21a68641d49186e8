package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// bucket is a shared token-bucket limiter (spec §4.1: "capacity =
// configured tokens-per-minute, refill = tokens-per-minute / 60 per
// second"). golang.org/x/time/rate.Limiter supplies the steady-state
// pacing; bucket adds server-authoritative reconciliation on top, since
// the remote provider's reported remaining-tokens value always wins over
// the client's local estimate.
type bucket struct {
	mu              sync.Mutex
	limiter         *rate.Limiter
	capacity        int
	serverRemaining int
}

func newBucket(tokensPerMinute int) *bucket {
	refillPerSecond := rate.Limit(float64(tokensPerMinute) / 60.0)
	return &bucket{
		limiter:         rate.NewLimiter(refillPerSecond, tokensPerMinute),
		capacity:        tokensPerMinute,
		serverRemaining: tokensPerMinute,
	}
}

// Reserve blocks until n tokens are available under the local estimate,
// then consumes them. The mutex guards the reserve/consume boundary
// against concurrent callers (spec §5: "guarded by mutual exclusion").
func (b *bucket) Reserve(ctx context.Context, n int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limiter.WaitN(ctx, n)
}

// Reconcile snaps the bucket's belief to the server's authoritative
// remaining-token count. When the server reports fewer tokens than the
// client believed, the deficit is drained from the local limiter so the
// next Reserve call blocks for the correct additional refill time.
func (b *bucket) Reconcile(serverRemaining int) {
	if serverRemaining < 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.serverRemaining = serverRemaining
	if serverRemaining < b.capacity {
		deficit := b.capacity - serverRemaining
		_ = b.limiter.ReserveN(time.Now(), deficit)
	}
}

// Remaining returns the last server-reported remaining token count.
func (b *bucket) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.serverRemaining
}
