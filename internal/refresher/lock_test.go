package refresher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptCall struct {
	hash string
	keys []string
	args []interface{}
}

type fakeRedis struct {
	mu      sync.Mutex
	setOK   bool
	token   string
	ttl     time.Duration
	renewed int64 // renewScript 的返回值
	calls   []scriptCall
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setOK {
		f.token = value.(string)
		f.ttl = expiration
	}
	return redis.NewBoolResult(f.setOK, nil)
}

func (f *fakeRedis) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, scriptCall{hash: sha1, keys: keys, args: args})
	if sha1 == renewScript.Hash() {
		return redis.NewCmdResult(f.renewed, nil)
	}
	return redis.NewCmdResult(int64(1), nil)
}

func (f *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return redis.NewCmdResult(nil, nil)
}

func (f *fakeRedis) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return redis.NewCmdResult(nil, nil)
}

func (f *fakeRedis) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return redis.NewCmdResult(nil, nil)
}

func (f *fakeRedis) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (f *fakeRedis) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("", nil)
}

func (f *fakeRedis) countCalls(hash string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.hash == hash {
			n++
		}
	}
	return n
}

func (f *fakeRedis) snapshot() []scriptCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]scriptCall(nil), f.calls...)
}

func TestRedisLockerRenewsWhileHeld(t *testing.T) {
	client := &fakeRedis{setOK: true, renewed: 1}
	locker := newRedisLocker(client, "refresh_lock", 30*time.Millisecond)

	unlock, ok, err := locker.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	// 持有锁的时间超过 ttl
	assert.Eventually(t, func() bool {
		return client.countCalls(renewScript.Hash()) >= 3
	}, time.Second, 5*time.Millisecond)

	unlock()
	unlock()

	calls := client.snapshot()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	assert.Equal(t, unlockScript.Hash(), last.hash)
	assert.Equal(t, []string{"refresh_lock"}, last.keys)
	assert.Equal(t, []interface{}{client.token}, last.args)
	assert.Equal(t, 1, client.countCalls(unlockScript.Hash()))

	for _, c := range calls[:len(calls)-1] {
		assert.Equal(t, renewScript.Hash(), c.hash)
		assert.Equal(t, []interface{}{client.token, int64(30)}, c.args)
	}

	// 释放后不再续期
	renewals := client.countCalls(renewScript.Hash())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, renewals, client.countCalls(renewScript.Hash()))
}

func TestRedisLockerStopsRenewingAfterLosingLock(t *testing.T) {
	client := &fakeRedis{setOK: true, renewed: 0}
	locker := newRedisLocker(client, "refresh_lock", 30*time.Millisecond)

	unlock, ok, err := locker.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	defer unlock()

	assert.Eventually(t, func() bool {
		return client.countCalls(renewScript.Hash()) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, client.countCalls(renewScript.Hash()))
}

func TestRedisLockerReportsHeldLock(t *testing.T) {
	client := &fakeRedis{setOK: false}
	locker := newRedisLocker(client, "refresh_lock", time.Minute)

	unlock, ok, err := locker.TryLock(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, unlock)
	assert.Empty(t, client.snapshot())
}
