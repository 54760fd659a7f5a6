package repositories

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"feedbackportal/internal/models/db_models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:"

// Values are stored as "<code>:<expiresAtUnixMilli>" so expiry is judged against
// the caller's clock; the Redis TTL only reclaims memory.
var consumeScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	return 0
end
local sep = string.find(v, ":", 1, true)
if not sep then
	redis.call("DEL", KEYS[1])
	return 0
end
if string.sub(v, 1, sep - 1) ~= ARGV[1] then
	return 0
end
redis.call("DEL", KEYS[1])
if tonumber(string.sub(v, sep + 1)) <= tonumber(ARGV[2]) then
	return 0
end
return 1
`)

type redisOneTimeCodeRepository struct {
	client *redis.Client
}

func NewRedisOneTimeCodeRepository(client *redis.Client) OneTimeCodeRepository {
	return &redisOneTimeCodeRepository{client: client}
}

func otpKey(sessionID uuid.UUID, email string) string {
	return otpKeyPrefix + sessionID.String() + ":" + email
}

func (r *redisOneTimeCodeRepository) Upsert(ctx context.Context, code *db_models.OneTimeCode) error {
	ttl := code.ExpiresAt.Sub(code.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("one-time code already expired")
	}
	value := code.Code + ":" + strconv.FormatInt(code.ExpiresAt.UnixMilli(), 10)
	// The key outlives the logical expiry by a minute.
	return r.client.Set(ctx, otpKey(code.SessionID, code.Email), value, ttl+time.Minute).Err()
}

func (r *redisOneTimeCodeRepository) Consume(ctx context.Context, email string, sessionID uuid.UUID, code string, now time.Time) (bool, error) {
	n, err := consumeScript.Run(ctx, r.client, []string{otpKey(sessionID, email)}, code, now.UnixMilli()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteExpired is a no-op; Redis expires keys on its own.
func (r *redisOneTimeCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func (r *redisOneTimeCodeRepository) DeleteBySession(ctx context.Context, sessionID uuid.UUID) error {
	pattern := otpKeyPrefix + sessionID.String() + ":*"
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}
