package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"docquiz/internal/cache"
	"docquiz/internal/domain"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheAdapter_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	key := cache.PlanKey("user1")

	t.Run("Success", func(t *testing.T) {
		mock.ExpectGet(key).SetVal("Pro")
		val, err := adapter.Get(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, "Pro", val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CacheMiss", func(t *testing.T) {
		mock.ExpectGet(key).SetErr(redis.Nil)
		val, err := adapter.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
		assert.Empty(t, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("some redis error")
		mock.ExpectGet(key).SetErr(redisErr)
		val, err := adapter.Get(ctx, key)
		assert.ErrorIs(t, err, redisErr)
		assert.Empty(t, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCacheAdapter_SetDeletePing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()
	key := cache.PlanKey("user1")

	mock.ExpectSet(key, "Free", 5*time.Minute).SetVal("OK")
	assert.NoError(t, adapter.Set(ctx, key, "Free", 5*time.Minute))

	mock.ExpectDel(key).SetVal(1)
	assert.NoError(t, adapter.Delete(ctx, key))

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, adapter.Ping(ctx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func newTestRedisLocker(t *testing.T, wait time.Duration) (*RedisQuizLocker, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	l := NewRedisQuizLocker(db, time.Minute, wait)
	l.retryInterval = 5 * time.Millisecond
	l.newToken = func() string { return "token-1" }
	return l, mock
}

func TestRedisQuizLocker_AcquireAndRelease(t *testing.T) {
	l, mock := newTestRedisLocker(t, time.Second)
	key := cache.QuizLockKey("quiz1")

	mock.ExpectSetNX(key, "token-1", time.Minute).SetVal(true)
	mock.ExpectEval(releaseScript, []string{key}, "token-1").SetVal(int64(1))

	release, err := l.Acquire(context.Background(), "quiz1")
	require.NoError(t, err)
	release()
	release()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisQuizLocker_RetriesUntilFree(t *testing.T) {
	l, mock := newTestRedisLocker(t, time.Second)
	key := cache.QuizLockKey("quiz1")

	mock.ExpectSetNX(key, "token-1", time.Minute).SetVal(false)
	mock.ExpectSetNX(key, "token-1", time.Minute).SetVal(true)

	release, err := l.Acquire(context.Background(), "quiz1")
	require.NoError(t, err)
	require.NotNil(t, release)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisQuizLocker_GivesUpAfterWait(t *testing.T) {
	l, mock := newTestRedisLocker(t, 0)
	key := cache.QuizLockKey("quiz1")

	mock.ExpectSetNX(key, "token-1", time.Minute).SetVal(false)

	_, err := l.Acquire(context.Background(), "quiz1")
	assert.True(t, domain.HasCode(err, domain.CodeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisQuizLocker_RedisError(t *testing.T) {
	l, mock := newTestRedisLocker(t, time.Second)
	mock.ExpectSetNX(cache.QuizLockKey("quiz1"), "token-1", time.Minute).SetErr(errors.New("connection refused"))

	_, err := l.Acquire(context.Background(), "quiz1")
	assert.True(t, domain.HasCode(err, domain.CodeInternal))
}

func TestLocalQuizLocker_Serializes(t *testing.T) {
	l := NewLocalQuizLocker(time.Second)
	ctx := context.Background()

	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "quiz1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(2 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

func TestLocalQuizLocker_TimeoutAndIndependentQuizzes(t *testing.T) {
	l := NewLocalQuizLocker(10 * time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "quiz1")
	require.NoError(t, err)
	defer release()

	other, err := l.Acquire(ctx, "quiz2")
	require.NoError(t, err)
	other()

	_, err = l.Acquire(ctx, "quiz1")
	assert.ErrorIs(t, err, domain.ErrLockNotAcquired)
}
