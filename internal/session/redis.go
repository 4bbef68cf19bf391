package session

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisTracker 基于 Redis 集合的勾选状态实现，可在多实例间共享。
// 每个 (会话, 类型) 对应一个带 TTL 的 SET，TTL 即会话有效期。
type RedisTracker struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisTracker 创建 Redis 勾选跟踪器并验证连通性。
func NewRedisTracker(address, password string, db int, ttl time.Duration) (*RedisTracker, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         address,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisTracker{rdb: rdb, ttl: ttl}, nil
}

func (t *RedisTracker) key(sessionID string, kind Kind) string {
	return fmt.Sprintf("mailtriage:session:%s:done:%s", sessionID, kind)
}

// IsDone 查询勾选状态。
func (t *RedisTracker) IsDone(ctx context.Context, sessionID string, kind Kind, id string) (bool, error) {
	return t.rdb.SIsMember(ctx, t.key(sessionID, kind), id).Result()
}

// MarkDone 勾选完成并刷新集合的 TTL。
func (t *RedisTracker) MarkDone(ctx context.Context, sessionID string, kind Kind, id string) error {
	key := t.key(sessionID, kind)
	pipe := t.rdb.TxPipeline()
	pipe.SAdd(ctx, key, id)
	pipe.Expire(ctx, key, t.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// ClearDone 清除勾选。
func (t *RedisTracker) ClearDone(ctx context.Context, sessionID string, kind Kind, id string) error {
	return t.rdb.SRem(ctx, t.key(sessionID, kind), id).Err()
}

// Close 关闭 Redis 连接。
func (t *RedisTracker) Close() error {
	return t.rdb.Close()
}

// Ping 测试 Redis 连接。
func (t *RedisTracker) Ping(ctx context.Context) error {
	return t.rdb.Ping(ctx).Err()
}

var _ Tracker = (*RedisTracker)(nil)
