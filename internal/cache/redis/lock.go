package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// unlockLua deletes the lock key only when it still holds the caller's
// token, so one holder can never release another's lock.
const unlockLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

const liveLockKey = "lock:trader:live"

// TraderLock guards live trading: at most one instance may hold it, so two
// deployments can never both submit against the same wallet.
type TraderLock struct {
	rdb      *redis.Client
	unlockSc *redis.Script
}

// NewTraderLock builds the lock on the given client.
func NewTraderLock(c *Client) *TraderLock {
	return &TraderLock{
		rdb:      c.Underlying(),
		unlockSc: redis.NewScript(unlockLua),
	}
}

// Acquire takes the live-trading lock with the given TTL. On success it
// returns an unlock function safe to call more than once. It returns
// domain.ErrLockHeld when another instance already trades.
func (tl *TraderLock) Acquire(ctx context.Context, ttl time.Duration) (func(), error) {
	token := uuid.New().String()

	ok, err := tl.rdb.SetNX(ctx, liveLockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire trader lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	released := false
	unlock := func() {
		if released {
			return
		}
		released = true

		// Background context so unlock works even after the caller's
		// context is cancelled during shutdown.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tl.unlockSc.Run(unlockCtx, tl.rdb, []string{liveLockKey}, token).Err()
	}
	return unlock, nil
}

// Refresh extends the TTL while this instance keeps trading.
func (tl *TraderLock) Refresh(ctx context.Context, ttl time.Duration) error {
	if err := tl.rdb.Expire(ctx, liveLockKey, ttl).Err(); err != nil {
		return fmt.Errorf("redis: refresh trader lock: %w", err)
	}
	return nil
}
