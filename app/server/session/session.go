// Package session 记录已注销的令牌。令牌本身无状态，注销后在过期前都要拒绝
package session

import (
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"sync"
	"teamforge/app/server/constants"
	"time"
)

type Revoker interface {
	// Revoke 吊销 tokenID ，记录保留到 expires
	Revoke(ctx context.Context, tokenID string, expires time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

func ttl(expires time.Time, now time.Time) time.Duration {
	d := expires.Sub(now)
	if d < constants.CacheExpireRevokedTokenMin {
		return constants.CacheExpireRevokedTokenMin
	}
	return d
}

type RedisRevoker struct {
	rdb *redis.Client
}

func NewRedisRevoker(rdb *redis.Client) *RedisRevoker {
	return &RedisRevoker{rdb: rdb}
}

func (r *RedisRevoker) Revoke(ctx context.Context, tokenID string, expires time.Time) error {
	if tokenID == "" {
		return errors.New("token id is empty")
	}
	cacheKey := fmt.Sprintf(constants.CacheKeyRevokedToken, tokenID)
	if err := r.rdb.Set(ctx, cacheKey, 1, ttl(expires, time.Now())).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *RedisRevoker) Revoked(ctx context.Context, tokenID string) (bool, error) {
	cacheKey := fmt.Sprintf(constants.CacheKeyRevokedToken, tokenID)
	n, err := r.rdb.Exists(ctx, cacheKey).Result()
	if err != nil {
		return false, fmt.Errorf("query revoked token: %w", err)
	}
	return n > 0, nil
}

// MemoryRevoker 单进程部署时使用，重启后记录丢失
type MemoryRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		revoked: map[string]time.Time{},
		now:     time.Now,
	}
}

func (m *MemoryRevoker) Revoke(_ context.Context, tokenID string, expires time.Time) error {
	if tokenID == "" {
		return errors.New("token id is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	// 顺带清理已经过期的记录
	for id, until := range m.revoked {
		if now.After(until) {
			delete(m.revoked, id)
		}
	}
	m.revoked[tokenID] = now.Add(ttl(expires, now))
	return nil
}

func (m *MemoryRevoker) Revoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	until, ok := m.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if m.now().After(until) {
		delete(m.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
