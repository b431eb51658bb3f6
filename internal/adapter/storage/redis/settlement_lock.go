package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// SettlementLock implements ports.SettlementLock with SET NX. The key is
// never released; it expires after ttl so the next day's run can take it.
type SettlementLock struct {
	client goredis.UniversalClient
	prefix string
	owner  string
}

// NewSettlementLock creates a lock store. owner is written as the key value
// to show which instance ran the sweep.
func NewSettlementLock(client goredis.UniversalClient, owner string) *SettlementLock {
	return &SettlementLock{client: client, prefix: "settlement:", owner: owner}
}

// Acquire returns true if this caller is the first to claim day.
func (l *SettlementLock) Acquire(ctx context.Context, day string, ttl time.Duration) (bool, error) {
	err := l.client.SetArgs(ctx, l.prefix+day, l.owner, goredis.SetArgs{Mode: "NX", TTL: ttl}).Err()
	if err == goredis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire settlement lock %s: %w", day, err)
	}
	return true, nil
}
