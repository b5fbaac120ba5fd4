package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseLockScript deletes the lock only while it is still tagged with the
// caller's owner value. Doing the compare and the delete in one script
// avoids the check-then-act race where the TTL expires and another owner
// re-acquires between the two steps.
var releaseLockScript = redis.NewScript(`
local key = KEYS[1]
local owner = ARGV[1]

if redis.call('GET', key) == owner then
	redis.call('DEL', key)
	return 1
end

return 0
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// AcquireLock is a single set-if-absent with expiry; it never blocks.
func (r *RedisAdapter) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, key, owner, ttl).Result()
}

// ReleaseLock deletes the key only if still owned. Returns false when the
// lock had already expired or was re-acquired by a different owner; deleting
// it then would release someone else's lock.
func (r *RedisAdapter) ReleaseLock(ctx context.Context, key, owner string) (bool, error) {
	result, err := releaseLockScript.Run(ctx, r.client, []string{key}, owner).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// SetIdempotency sets a key for idempotency check, returns false if already exists
func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// DeleteIdempotency drops an idempotency key so the guarded mutation can be
// retried after a failure.
func (r *RedisAdapter) DeleteIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
