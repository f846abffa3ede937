package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when the addressed session record does not exist
// or has expired.
var ErrNotFound = errors.New("session record not found")

// Store persists session records in Redis. Records live under
// "<prefix>:sr:<identity>:<session>" with a per-identity index set at
// "<prefix>:sri:<identity>".
type Store struct {
	redis  *redis.Client
	prefix string
}

// NewStore wraps an already-connected Redis client. The client's lifecycle
// (connect at startup, close at shutdown) belongs to the caller.
func NewStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "ac"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) recordKey(identityID, sessionID string) string {
	return s.prefix + ":sr:" + identityID + ":" + sessionID
}

func (s *Store) indexKey(identityID string) string {
	return s.prefix + ":sri:" + identityID
}

// Save writes a record and registers it in the identity's index. The index
// set outlives individual records by the same TTL, refreshed on every
// login.
func (s *Store) Save(ctx context.Context, r *Record, ttl time.Duration) error {
	blob, err := Encode(r)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.recordKey(r.IdentityID, r.SessionID), blob, ttl)
	pipe.SAdd(ctx, s.indexKey(r.IdentityID), r.SessionID)
	pipe.Expire(ctx, s.indexKey(r.IdentityID), ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Get loads one record.
func (s *Store) Get(ctx context.Context, identityID, sessionID string) (*Record, error) {
	blob, err := s.redis.Get(ctx, s.recordKey(identityID, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return Decode(blob)
}

// Exists reports whether the session record is still live.
func (s *Store) Exists(ctx context.Context, identityID, sessionID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.recordKey(identityID, sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns every live record for the identity, oldest first is not
// guaranteed. Index members whose record has expired are pruned
// best-effort.
func (s *Store) List(ctx context.Context, identityID string) ([]*Record, error) {
	members, err := s.redis.SMembers(ctx, s.indexKey(identityID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	records := make([]*Record, 0, len(members))
	var stale []interface{}
	for _, sid := range members {
		blob, err := s.redis.Get(ctx, s.recordKey(identityID, sid)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				stale = append(stale, sid)
				continue
			}
			return nil, err
		}

		rec, err := Decode(blob)
		if err != nil {
			stale = append(stale, sid)
			continue
		}
		records = append(records, rec)
	}

	if len(stale) > 0 {
		_ = s.redis.SRem(ctx, s.indexKey(identityID), stale...).Err()
	}

	return records, nil
}

// Delete removes one record and its index entry. Deleting an absent
// session is not an error; revocation is idempotent.
func (s *Store) Delete(ctx context.Context, identityID, sessionID string) error {
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, s.recordKey(identityID, sessionID))
	pipe.SRem(ctx, s.indexKey(identityID), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// DeleteAll removes every record for the identity plus the index itself.
func (s *Store) DeleteAll(ctx context.Context, identityID string) error {
	members, err := s.redis.SMembers(ctx, s.indexKey(identityID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}

	pipe := s.redis.TxPipeline()
	for _, sid := range members {
		pipe.Del(ctx, s.recordKey(identityID, sid))
	}
	pipe.Del(ctx, s.indexKey(identityID))
	_, err = pipe.Exec(ctx)
	return err
}
