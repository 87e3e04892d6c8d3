package refresher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 只有锁仍然属于自己时才删除，避免误删其他实例在锁过期后重新获取的锁
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// 只有锁仍然属于自己时才延长过期时间
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisLocker 持有锁期间每隔 ttl/3 续期一次，刷新耗时超过 ttl 时锁也不会被其他实例拿走
type RedisLocker struct {
	client lockClient
	key    string
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return newRedisLocker(client, key, ttl)
}

func newRedisLocker(client lockClient, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (l *RedisLocker) TryLock(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	renewCtx, stopRenew := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.keepAlive(renewCtx, token)
	}()

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			stopRenew()
			wg.Wait()

			// 解锁时 ctx 可能已经被取消，因此使用新的 context
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := unlockScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
				slog.Warn("无法释放刷新锁", "key", l.key, "error", err)
			}
		})
	}

	return unlock, true, nil
}

func (l *RedisLocker) keepAlive(ctx context.Context, token string) {
	interval := l.ttl / 3
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			renewed, err := renewScript.Run(ctx, l.client, []string{l.key}, token, l.ttl.Milliseconds()).Int64()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// 下一次续期时重试，锁在 ttl 之内仍然有效
				slog.Warn("无法延长刷新锁", "key", l.key, "error", err)
				continue
			}
			if renewed == 0 {
				slog.Warn("刷新锁已经被其他实例持有", "key", l.key)
				return
			}
		}
	}
}
