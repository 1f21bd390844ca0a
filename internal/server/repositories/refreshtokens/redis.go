package refreshtokens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/staffkeeper/internal/common"
	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "staffkeeper:refresh:"

// hashTag pins every session key to one cluster slot, so a script may touch
// a user key and any token key together.
const hashTag = "{sessions}"

// maxSwapAttempts bounds the reread loop of Set and Delete when other
// writers keep replacing the same user's token.
const maxSwapAttempts = 16

// Two keys per user: <prefix>{sessions}:user:<id> holds the current token and
// <prefix>{sessions}:token:<token> is a hash with user_id, expires_at and
// created_at (unix seconds). Both expire with the token.
//
// swapScript writes a new token only while the user key still holds the
// expected one (ARGV[6], "" for none).
// KEYS: user key, new token key, expected token key (omitted when ARGV[6] is "").
// ARGV: token, user_id, expires_at, created_at, ttl_ms, expected token.
var swapScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1]) or ""
if current ~= ARGV[6] then
  return 0
end
if KEYS[3] then
  redis.call("DEL", KEYS[3])
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[5])
redis.call("HSET", KEYS[2], "user_id", ARGV[2], "expires_at", ARGV[3], "created_at", ARGV[4])
redis.call("PEXPIRE", KEYS[2], ARGV[5])
return 1
`)

// KEYS: user key, expected token key. ARGV: expected token.
var deleteScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1]) or ""
if current ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1], KEYS[2])
return 1
`)

// RedisRepository keeps refresh tokens in Redis. Writes are Lua scripts that
// compare the user's current token before changing anything, so rotation is
// an atomic compare and swap on the server. All keys share a hash tag and
// every key a script touches is passed in KEYS, which keeps the scripts valid
// on Redis Cluster.
type RedisRepository struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisRepository(rdb redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisRepository{rdb: rdb, prefix: prefix, now: time.Now}
}

func (r *RedisRepository) userKey(userID int64) string {
	return r.prefix + hashTag + ":user:" + strconv.FormatInt(userID, 10)
}

func (r *RedisRepository) tokenKey(token string) string {
	return r.prefix + hashTag + ":token:" + token
}

func (r *RedisRepository) current(ctx context.Context, userID int64) (string, error) {
	token, err := r.rdb.Get(ctx, r.userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis error: %w", err)
	}
	return token, nil
}

// swap replaces expected with token for userID and reports whether the user
// key still held expected.
func (r *RedisRepository) swap(ctx context.Context, userID int64, expected, token string, validity time.Duration) (bool, error) {
	if validity <= 0 {
		return false, fmt.Errorf("redis error: non-positive validity %s", validity)
	}

	keys := []string{r.userKey(userID), r.tokenKey(token)}
	if expected != "" {
		keys = append(keys, r.tokenKey(expected))
	}
	now := r.now()

	swapped, err := swapScript.Run(ctx, r.rdb, keys,
		token,
		userID,
		now.Add(validity).Unix(),
		now.Unix(),
		validity.Milliseconds(),
		expected,
	).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return swapped == 1, nil
}

func (r *RedisRepository) Set(ctx context.Context, userID int64, token string, validity time.Duration) error {
	for range maxSwapAttempts {
		prev, err := r.current(ctx, userID)
		if err != nil {
			return err
		}
		ok, err := r.swap(ctx, userID, prev, token, validity)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("redis error: token of user %d kept changing", userID)
}

func (r *RedisRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	fields, err := r.rdb.HGetAll(ctx, r.tokenKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if len(fields) == 0 {
		return nil, common.ErrorNotFound
	}

	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis error: corrupt user_id: %w", err)
	}
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis error: corrupt expires_at: %w", err)
	}
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis error: corrupt created_at: %w", err)
	}

	return &models.RefreshToken{
		UserID:    userID,
		Token:     token,
		Expires:   time.Unix(expires, 0),
		CreatedAt: time.Unix(created, 0),
	}, nil
}

func (r *RedisRepository) Rotate(ctx context.Context, userID int64, oldToken, newToken string, validity time.Duration) error {
	if oldToken == "" {
		return common.ErrRotationConflict
	}
	ok, err := r.swap(ctx, userID, oldToken, newToken, validity)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrRotationConflict
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, userID int64) error {
	for range maxSwapAttempts {
		prev, err := r.current(ctx, userID)
		if err != nil {
			return err
		}
		if prev == "" {
			return nil
		}

		keys := []string{r.userKey(userID), r.tokenKey(prev)}
		deleted, err := deleteScript.Run(ctx, r.rdb, keys, prev).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis error: %w", err)
		}
		if deleted == 1 {
			return nil
		}
	}
	return fmt.Errorf("redis error: token of user %d kept changing", userID)
}
