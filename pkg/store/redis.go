package store

import (
	"github.com/pkg/errors"
	r "gopkg.in/redis.v5"
)

const redisPrefix = "_GEMCHAT_"

// RedisStore persists values in redis under a shared prefix. Values are
// stored without expiry; the conversation state is meant to survive until
// explicitly cleared.
type RedisStore struct {
	client *r.Client
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := r.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis URL")
	}

	return &RedisStore{
		client: r.NewClient(opts),
	}, nil
}

func (s *RedisStore) Get(key string) ([]byte, error) {
	value, err := s.client.Get(redisPrefix + key).Bytes()
	if err == r.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", key)
	}
	return value, nil
}

func (s *RedisStore) Set(key string, value []byte) error {
	return s.client.Set(redisPrefix+key, value, 0).Err()
}

func (s *RedisStore) Delete(key string) error {
	return s.client.Del(redisPrefix + key).Err()
}
