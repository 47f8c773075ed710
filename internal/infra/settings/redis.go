package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"news-aggregator/internal/repository"
)

// DefaultKeyPrefix namespaces the settings keys.
const DefaultKeyPrefix = "news-aggregator:settings:"

// RedisStore keeps the settings in Redis: the selection as a set, the theme
// as "1"/"0".
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisStore returns a store on rdb. An empty prefix selects DefaultKeyPrefix.
func NewRedisStore(rdb redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

var _ repository.SettingsRepository = (*RedisStore)(nil)

func (s *RedisStore) key(name string) string { return s.prefix + name }

// SelectedSources returns the stored set. Member order is not preserved;
// callers order by registry.
func (s *RedisStore) SelectedSources(ctx context.Context) ([]string, bool, error) {
	names, err := s.rdb.SMembers(ctx, s.key(repository.KeySelectedSources)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("SelectedSources: %w", err)
	}
	if len(names) == 0 {
		return nil, false, nil
	}
	return names, true, nil
}

// SetSelectedSources replaces the stored set in one transaction.
func (s *RedisStore) SetSelectedSources(ctx context.Context, names []string) error {
	key := s.key(repository.KeySelectedSources)
	members := make([]interface{}, len(names))
	for i, n := range names {
		members[i] = n
	}
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(members) > 0 {
			pipe.SAdd(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("SetSelectedSources: %w", err)
	}
	return nil
}

func (s *RedisStore) DarkMode(ctx context.Context) (bool, error) {
	v, err := s.rdb.Get(ctx, s.key(repository.KeyDarkMode)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("DarkMode: %w", err)
	}
	return v == "1", nil
}

func (s *RedisStore) SetDarkMode(ctx context.Context, enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	if err := s.rdb.Set(ctx, s.key(repository.KeyDarkMode), v, 0).Err(); err != nil {
		return fmt.Errorf("SetDarkMode: %w", err)
	}
	return nil
}

// Ping checks the connection for readiness checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
