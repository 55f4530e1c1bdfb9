package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// 基于 Redis 的分布式锁
//
// 加锁：SET key token NX PX ttl
// 解锁：Lua 脚本比对 token 后再 DEL，避免删掉别人（锁过期后重新获取）的锁

var (
	ErrLockFailed = errors.New("获取分布式锁失败")
	ErrNotHeld    = errors.New("锁已过期或被其他持有者占用")
)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

const (
	defaultRetryInterval = 100 * time.Millisecond
	defaultMaxRetries    = 30
)

type DistributedLock struct {
	client     *redis.Client
	key        string
	token      string
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		token:      uuid.NewString(),
		expiration: expiration,
	}
}

func (l *DistributedLock) Key() string {
	return l.key
}

// TryLock 非阻塞加锁
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, l.expiration).Result()
}

// Lock 按固定间隔重试，超出次数返回 ErrLockFailed
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		ok, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return fmt.Errorf("%w: %s", ErrLockFailed, l.key)
}

// LockWithDefaults 100ms 间隔，最多 30 次
func (l *DistributedLock) LockWithDefaults(ctx context.Context) error {
	return l.Lock(ctx, defaultRetryInterval, defaultMaxRetries)
}

func (l *DistributedLock) Unlock(ctx context.Context) error {
	n, err := unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// NewPurchaseLock 按用户维度加锁：同一用户的结算串行，不同用户互不影响
func NewPurchaseLock(client *redis.Client, userID int64, expiration time.Duration) *DistributedLock {
	return NewDistributedLock(client, fmt.Sprintf("purchase:lock:user:%d", userID), expiration)
}

// NewRankingLock 全局锁，同一时刻只允许一个实例重算排行榜
func NewRankingLock(client *redis.Client, expiration time.Duration) *DistributedLock {
	return NewDistributedLock(client, "ranking:lock", expiration)
}
