// Package redis implements a chunk store that caches a nested chunk store in Redis.
package redis

import (
	"context"
	stderrs "errors"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = &Store{}

// Store caches the chunks of a nested store in Redis.
// Writes pass through to the nested store.
// Redis failures are logged and otherwise ignored:
// the nested store remains authoritative.
type Store struct {
	s      bzz.Store
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the expiry of cache entries.
// The default of zero means entries do not expire.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithLogger sets the logger for cache failures.
// The default discards them.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New produces a new Store caching s in the Redis server reached by client.
func New(s bzz.Store, client *redis.Client, opts ...Option) *Store {
	result := &Store{
		s:      s,
		client: client,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(result)
	}
	return result
}

// Connect parses url (redis://<user>:<password>@<host>:<port>/<db>),
// checks that the server responds,
// and produces a Store caching s there.
func Connect(ctx context.Context, s bzz.Store, url string, opts ...Option) (*Store, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis URL")
	}
	client := redis.NewClient(ropts)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Wrap(err, "connecting to redis")
	}
	return New(s, client, opts...), nil
}

func cacheKey(addr bzz.Address) string {
	return "bzz:chunk:" + addr.String()
}

// Get gets the chunk data at addr,
// from the cache if possible and otherwise from the nested store.
func (s *Store) Get(ctx context.Context, addr bzz.Address) ([]byte, error) {
	data, err := s.client.Get(ctx, cacheKey(addr)).Bytes()
	switch {
	case err == nil:
		return data, nil
	case stderrs.Is(err, redis.Nil):
		// miss
	default:
		s.logger.Warn().Err(err).Str("addr", addr.String()).Msg("redis get failed")
	}

	data, err = s.s.Get(ctx, addr)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, addr, data)
	return data, nil
}

func (s *Store) fill(ctx context.Context, addr bzz.Address, data []byte) {
	if err := s.client.Set(ctx, cacheKey(addr), data, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("addr", addr.String()).Msg("redis set failed")
	}
}

// Put adds a chunk to the nested store if it wasn't already present,
// and caches it.
func (s *Store) Put(ctx context.Context, addr bzz.Address, data []byte) (bool, error) {
	added, err := s.s.Put(ctx, addr, data)
	if err != nil {
		return false, err
	}
	s.fill(ctx, addr, data)
	return added, nil
}

// ListAddrs produces all chunk addresses in the nested store, in lexicographic order.
func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	return s.s.ListAddrs(ctx, start, f)
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func init() {
	store.Register("redis", func(ctx context.Context, conf map[string]interface{}) (bzz.Store, error) {
		url, err := store.String(conf, "url")
		if err != nil {
			return nil, err
		}
		nested, err := store.Nested(ctx, conf, "nested")
		if err != nil {
			return nil, err
		}
		var opts []Option
		if ttlStr, ok := conf["ttl"].(string); ok {
			ttl, err := time.ParseDuration(ttlStr)
			if err != nil {
				return nil, errors.Wrap(err, `parsing "ttl" parameter`)
			}
			opts = append(opts, WithTTL(ttl))
		}
		return Connect(ctx, nested, url, opts...)
	})
}
