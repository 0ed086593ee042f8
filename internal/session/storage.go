package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Record is the durable form of a session: the raw fields mirrored on every
// mutation. AdminToken is tracked separately from Token so an admin and a
// user session can coexist for the same browser; when both are present the
// admin token takes priority at hydration.
type Record struct {
	Token      string
	AdminToken string
	Role       string
	User       []byte // user profile JSON; corrupt data is treated as absent
}

// Storage persists session records. Implementations must tolerate loading a
// key that was never written by returning a zero Record.
type Storage interface {
	Load(ctx context.Context, sid string) (Record, error)
	Save(ctx context.Context, sid string, rec Record) error
	Delete(ctx context.Context, sid string) error
}

const (
	fieldToken      = "token"
	fieldAdminToken = "adminToken"
	fieldRole       = "role"
	fieldUser       = "user"
)

// RedisStorage keeps one hash per session under "session:<sid>" with a
// sliding TTL.
type RedisStorage struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStorage wraps an existing Redis client.
func NewRedisStorage(rdb *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{rdb: rdb, ttl: ttl}
}

func (s *RedisStorage) key(sid string) string { return "session:" + sid }

// Load reads the session hash. A missing key yields a zero Record.
func (s *RedisStorage) Load(ctx context.Context, sid string) (Record, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key(sid)).Result()
	if err != nil {
		return Record{}, err
	}
	return Record{
		Token:      vals[fieldToken],
		AdminToken: vals[fieldAdminToken],
		Role:       vals[fieldRole],
		User:       []byte(vals[fieldUser]),
	}, nil
}

// Save writes the full record and refreshes the TTL.
func (s *RedisStorage) Save(ctx context.Context, sid string, rec Record) error {
	key := s.key(sid)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		fieldToken, rec.Token,
		fieldAdminToken, rec.AdminToken,
		fieldRole, rec.Role,
		fieldUser, string(rec.User),
	)
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Delete removes the session hash entirely.
func (s *RedisStorage) Delete(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, s.key(sid)).Err()
}

// MemoryStorage is an in-process Storage used in tests and when no Redis is
// configured. Sessions then survive only until restart.
type MemoryStorage struct {
	mu   sync.RWMutex
	recs map[string]Record
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{recs: make(map[string]Record)}
}

func (s *MemoryStorage) Load(_ context.Context, sid string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recs[sid], nil
}

func (s *MemoryStorage) Save(_ context.Context, sid string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[sid] = rec
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, sid)
	return nil
}
