package refresh

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const recordVersion = 1

// takeTokenScript implements delete-and-return-if-existed in one atomic
// step. It also drops the token from its owner's index set, parsing the
// owner id out of the stored blob (byte 1 is the version, byte 2 the owner
// length).
const takeTokenScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return {0}
end
redis.call("DEL", KEYS[1])
local owner_len = string.byte(data, 2)
if owner_len and #data >= 2 + owner_len then
  local owner = string.sub(data, 3, 2 + owner_len)
  redis.call("SREM", ARGV[2] .. owner, ARGV[1])
end
return {1, data}
`

var takeTokenLua = redis.NewScript(takeTokenScript)

const deleteTokenScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return 0
end
redis.call("DEL", KEYS[1])
local owner_len = string.byte(data, 2)
if owner_len and #data >= 2 + owner_len then
  local owner = string.sub(data, 3, 2 + owner_len)
  redis.call("SREM", ARGV[2] .. owner, ARGV[1])
end
return 1
`

var deleteTokenLua = redis.NewScript(deleteTokenScript)

// RedisStore is the Redis-backed [Store]. Records carry their own TTL so
// Redis reclaims most expired entries without the sweeper; the owner index
// set tracks live tokens per owner for revoke-all.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a [RedisStore] namespaced under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisStore) tokenKey(token string) string {
	return s.prefix + ":t:" + token
}

func (s *RedisStore) ownerKeyPrefix() string {
	return s.prefix + ":o:"
}

func (s *RedisStore) ownerKey(ownerID string) string {
	return s.ownerKeyPrefix() + ownerID
}

// Insert saves the record with a TTL matching its expiry and indexes it
// under its owner. The owner set's TTL is refreshed on every insert so the
// index cannot outlive its newest token.
func (s *RedisStore) Insert(ctx context.Context, tok Token) error {
	data, err := encodeRecord(tok)
	if err != nil {
		return err
	}

	ttl := time.Until(tok.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.tokenKey(tok.Token), data, ttl)
		pipe.SAdd(ctx, s.ownerKey(tok.OwnerID), tok.Token)
		pipe.Expire(ctx, s.ownerKey(tok.OwnerID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// FindByToken returns the record without mutating any state.
func (s *RedisStore) FindByToken(ctx context.Context, token string) (Token, error) {
	data, err := s.redis.Get(ctx, s.tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Token{}, ErrNotFound
		}
		return Token{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	tok, err := decodeRecord(data)
	if err != nil {
		return Token{}, err
	}
	tok.Token = token

	return tok, nil
}

// TakeByToken atomically deletes and returns the record via a Lua script,
// so of two concurrent takes exactly one observes the record.
func (s *RedisStore) TakeByToken(ctx context.Context, token string) (Token, error) {
	result, err := takeTokenLua.Run(
		ctx,
		s.redis,
		[]string{s.tokenKey(token)},
		token,
		s.ownerKeyPrefix(),
	).Result()
	if err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return Token{}, fmt.Errorf("%w: invalid take script response", ErrStoreUnavailable)
	}

	existed, ok := parts[0].(int64)
	if !ok {
		return Token{}, fmt.Errorf("%w: invalid take script status", ErrStoreUnavailable)
	}
	if existed == 0 {
		return Token{}, ErrNotFound
	}
	if len(parts) < 2 {
		return Token{}, fmt.Errorf("%w: missing take script payload", ErrStoreUnavailable)
	}

	var blob []byte
	switch v := parts[1].(type) {
	case string:
		blob = []byte(v)
	case []byte:
		blob = v
	default:
		return Token{}, fmt.Errorf("%w: invalid take script payload", ErrStoreUnavailable)
	}

	tok, err := decodeRecord(blob)
	if err != nil {
		return Token{}, err
	}
	tok.Token = token

	return tok, nil
}

// DeleteByToken removes the record and its owner-index entry. Absent tokens
// are a no-op.
func (s *RedisStore) DeleteByToken(ctx context.Context, token string) error {
	err := deleteTokenLua.Run(
		ctx,
		s.redis,
		[]string{s.tokenKey(token)},
		token,
		s.ownerKeyPrefix(),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// DeleteByOwner removes every record indexed under the owner plus the index
// set itself.
func (s *RedisStore) DeleteByOwner(ctx context.Context, ownerID string) error {
	ownerKey := s.ownerKey(ownerID)

	tokens, err := s.redis.SMembers(ctx, ownerKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, token := range tokens {
			pipe.Del(ctx, s.tokenKey(token))
		}
		pipe.Del(ctx, ownerKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return nil
}

// DeleteExpiredBefore scans the token keyspace and removes records whose
// expiry is at or before the cutoff. Redis TTLs reclaim most entries on
// their own; this pass catches the remainder and keeps owner index sets
// honest. O(n), intended for the background sweeper, not request paths.
func (s *RedisStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	pattern := s.prefix + ":t:*"
	keyPrefixLen := len(s.prefix + ":t:")

	var (
		cursor  uint64
		removed int
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		for _, key := range keys {
			data, err := s.redis.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return removed, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}

			tok, err := decodeRecord(data)
			if err != nil {
				// Undecodable blob: remove rather than leak forever.
				if delErr := s.redis.Del(ctx, key).Err(); delErr != nil {
					return removed, fmt.Errorf("%w: %v", ErrStoreUnavailable, delErr)
				}
				removed++
				continue
			}

			if tok.ExpiresAt.After(cutoff) {
				continue
			}

			token := key[keyPrefixLen:]
			if err := s.DeleteByToken(ctx, token); err != nil {
				return removed, err
			}
			removed++
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return removed, nil
}

// Record layout: version byte, single-byte owner length, owner id bytes,
// then issuedAt and expiresAt as big-endian unix seconds.
func encodeRecord(tok Token) ([]byte, error) {
	if tok.OwnerID == "" {
		return nil, errors.New("refresh record requires owner id")
	}
	if len(tok.OwnerID) > 255 {
		return nil, errors.New("owner id exceeds 255 bytes")
	}

	buf := make([]byte, 0, 2+len(tok.OwnerID)+16)
	buf = append(buf, recordVersion)
	buf = append(buf, byte(len(tok.OwnerID)))
	buf = append(buf, tok.OwnerID...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(tok.IssuedAt.Unix()))
	buf = binary.BigEndian.AppendUint64(buf, uint64(tok.ExpiresAt.Unix()))

	return buf, nil
}

func decodeRecord(data []byte) (Token, error) {
	if len(data) < 2 || data[0] != recordVersion {
		return Token{}, errors.New("invalid refresh record")
	}

	ownerLen := int(data[1])
	if len(data) != 2+ownerLen+16 {
		return Token{}, errors.New("invalid refresh record length")
	}

	owner := string(data[2 : 2+ownerLen])
	issued := int64(binary.BigEndian.Uint64(data[2+ownerLen:]))
	expires := int64(binary.BigEndian.Uint64(data[2+ownerLen+8:]))

	return Token{
		OwnerID:   owner,
		IssuedAt:  time.Unix(issued, 0).UTC(),
		ExpiresAt: time.Unix(expires, 0).UTC(),
	}, nil
}
