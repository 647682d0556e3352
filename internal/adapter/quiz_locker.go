package adapter

import (
	"context"
	"sync"
	"time"

	"docquiz/internal/cache"
	"docquiz/internal/domain"
	"docquiz/internal/logger"
	"docquiz/internal/util"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only if it still holds our token, so a lock
// that expired and was taken by another request is left alone.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

const defaultLockRetryInterval = 200 * time.Millisecond

// RedisQuizLocker implements domain.QuizLocker with SET NX PX.
type RedisQuizLocker struct {
	client        redis.Cmdable
	ttl           time.Duration
	wait          time.Duration
	retryInterval time.Duration
	newToken      func() string
}

// NewRedisQuizLocker holds each lock for at most ttl and waits up to wait to acquire it.
func NewRedisQuizLocker(client redis.Cmdable, ttl, wait time.Duration) *RedisQuizLocker {
	return &RedisQuizLocker{
		client:        client,
		ttl:           ttl,
		wait:          wait,
		retryInterval: defaultLockRetryInterval,
		newToken:      util.NewULID,
	}
}

func (l *RedisQuizLocker) Acquire(ctx context.Context, quizID string) (func(), error) {
	key := cache.QuizLockKey(quizID)
	token := l.newToken()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, domain.NewInternalError("failed to acquire quiz lock", err)
		}
		if ok {
			return l.releaser(key, token), nil
		}
		if !time.Now().Before(deadline) {
			return nil, domain.ErrLockNotAcquired
		}

		timer := time.NewTimer(l.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisQuizLocker) releaser(key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be cancelled; release regardless.
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
				logger.Get().Warn("failed to release quiz lock", zap.String("key", key), zap.Error(err))
			}
		})
	}
}

// LocalQuizLocker serializes quizzes within a single process. It is used when
// Redis is not configured.
type LocalQuizLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
	wait time.Duration
}

func NewLocalQuizLocker(wait time.Duration) *LocalQuizLocker {
	return &LocalQuizLocker{held: make(map[string]chan struct{}), wait: wait}
}

func (l *LocalQuizLocker) Acquire(ctx context.Context, quizID string) (func(), error) {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	for {
		l.mu.Lock()
		done, busy := l.held[quizID]
		if !busy {
			done = make(chan struct{})
			l.held[quizID] = done
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, quizID)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, domain.ErrLockNotAcquired
		}
	}
}
