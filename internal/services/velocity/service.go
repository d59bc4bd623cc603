// Package velocity implements the admission check gating the routing
// pipeline. It is evaluated before any channel is scored: cheap, and it
// keeps rate-limited callers from learning anything about channel
// availability.
package velocity

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Identifier kinds
const (
	KindUser     = "user"
	KindMerchant = "merchant"
)

// Result of an admission check.
type Result struct {
	Allowed      bool
	Reason       string
	BlockedUntil *time.Time
}

// Thresholds for one identifier kind over the sliding window.
type Thresholds struct {
	Window      time.Duration
	MaxAttempts int
	MaxAmount   float64
}

// Config holds per-kind thresholds. Merchant limits are looser than user
// limits; a merchant aggregates many users.
type Config struct {
	User     Thresholds
	Merchant Thresholds
}

func DefaultConfig() Config {
	return Config{
		User: Thresholds{
			Window:      time.Minute,
			MaxAttempts: 5,
			MaxAmount:   100000,
		},
		Merchant: Thresholds{
			Window:      time.Minute,
			MaxAttempts: 120,
			MaxAmount:   2000000,
		},
	}
}

// Guard checks attempt counts against a Redis sorted-set sliding window and
// amounts against a fixed expiry window. Redis trouble fails open with a log
// line: degraded admission control must never take routing down with it.
type Guard struct {
	client *redis.Client
	config Config
}

func NewGuard(client *redis.Client, config Config) *Guard {
	if client == nil {
		panic("redis client is required")
	}
	return &Guard{client: client, config: config}
}

// Check records this attempt and reports whether it is admitted.
func (g *Guard) Check(ctx context.Context, identifier, kind string, amount float64) (Result, error) {
	th := g.config.User
	if kind == KindMerchant {
		th = g.config.Merchant
	}

	now := time.Now()
	countKey := fmt.Sprintf("velocity:%s:%s:attempts", kind, identifier)
	amountKey := fmt.Sprintf("velocity:%s:%s:amount", kind, identifier)
	windowStart := now.Add(-th.Window)

	pipe := g.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, countKey, "0", fmt.Sprintf("%d", windowStart.UnixMilli()))
	pipe.ZAdd(ctx, countKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	countCmd := pipe.ZCard(ctx, countKey)
	oldestCmd := pipe.ZRangeWithScores(ctx, countKey, 0, 0)
	pipe.Expire(ctx, countKey, th.Window)
	sumCmd := pipe.IncrByFloat(ctx, amountKey, amount)
	pipe.ExpireNX(ctx, amountKey, th.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("velocity check degraded, admitting %s %s: %v", kind, identifier, err)
		return Result{Allowed: true}, nil
	}

	if count := countCmd.Val(); count > int64(th.MaxAttempts) {
		blocked := now.Add(th.Window)
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			blocked = time.UnixMilli(int64(oldest[0].Score)).Add(th.Window)
		}
		return Result{
			Allowed:      false,
			Reason:       fmt.Sprintf("too many attempts in %s", th.Window),
			BlockedUntil: &blocked,
		}, nil
	}

	if sum := sumCmd.Val(); sum > th.MaxAmount {
		blocked := now.Add(th.Window)
		return Result{
			Allowed:      false,
			Reason:       fmt.Sprintf("amount velocity limit of %.0f exceeded", th.MaxAmount),
			BlockedUntil: &blocked,
		}, nil
	}

	return Result{Allowed: true}, nil
}
