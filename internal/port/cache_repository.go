package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// AcquireLock attempts a single set-if-absent with expiry, tagging the
	// key with the owner; returns false if the lock is held. Never blocks.
	AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)

	// ReleaseLock deletes the key only if it is still tagged with owner;
	// returns false when the lock had expired or belongs to someone else.
	ReleaseLock(ctx context.Context, key, owner string) (bool, error)

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// DeleteIdempotency removes an idempotency key so the guarded mutation
	// can be retried after it failed.
	DeleteIdempotency(ctx context.Context, key string) error
}
