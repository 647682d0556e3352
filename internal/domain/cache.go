package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache defines the interface (port) for caching operations.
type Cache interface {
	// Get returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set adds an item to the cache, overwriting an existing item if one exists.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete does not fail when the key is absent.
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

// ErrLockNotAcquired is returned by a QuizLocker when the wait budget runs out.
var ErrLockNotAcquired = NewConflictError("Another generation is already running for this quiz")

// QuizLocker serializes generation runs that target the same quiz.
type QuizLocker interface {
	// Acquire blocks until the lock is held, ctx is done or the wait budget is spent.
	// The returned release function is safe to call once.
	Acquire(ctx context.Context, quizID string) (release func(), err error)
}
