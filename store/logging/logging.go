// Package logging implements a store that delegates everything to a nested store,
// logging operations as they happen.
package logging

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"github.com/bobg/bzz"
	"github.com/bobg/bzz/store"
)

var _ bzz.Store = &Store{}

// Store logs each operation on a nested store.
// Successful operations are logged at debug level, failures at error level.
type Store struct {
	s      bzz.Store
	logger zerolog.Logger
}

// New produces a new Store logging operations on s to logger.
func New(s bzz.Store, logger zerolog.Logger) *Store {
	return &Store{s: s, logger: logger}
}

func (s *Store) Get(ctx context.Context, addr bzz.Address) ([]byte, error) {
	data, err := s.s.Get(ctx, addr)
	if err != nil {
		s.logger.Error().Err(err).Str("addr", addr.String()).Msg("get")
	} else {
		s.logger.Debug().Str("addr", addr.String()).Int("size", len(data)).Msg("get")
	}
	return data, err
}

func (s *Store) ListAddrs(ctx context.Context, start bzz.Address, f func(bzz.Address) error) error {
	s.logger.Debug().Str("start", start.String()).Msg("list addrs")
	var n int
	err := s.s.ListAddrs(ctx, start, func(addr bzz.Address) error {
		n++
		err := f(addr)
		if err != nil {
			s.logger.Error().Err(err).Str("addr", addr.String()).Msg("list addrs callback")
		}
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Int("count", n).Msg("list addrs")
	} else {
		s.logger.Debug().Int("count", n).Msg("list addrs done")
	}
	return err
}

func (s *Store) Put(ctx context.Context, addr bzz.Address, data []byte) (bool, error) {
	added, err := s.s.Put(ctx, addr, data)
	if err != nil {
		s.logger.Error().Err(err).Str("addr", addr.String()).Msg("put")
	} else {
		s.logger.Debug().Str("addr", addr.String()).Int("size", len(data)).Bool("added", added).Msg("put")
	}
	return added, err
}

func init() {
	store.Register("logging", func(ctx context.Context, conf map[string]interface{}) (bzz.Store, error) {
		nested, err := store.Nested(ctx, conf, "nested")
		if err != nil {
			return nil, err
		}
		level := zerolog.DebugLevel
		if l, ok := conf["level"].(string); ok {
			level, err = zerolog.ParseLevel(l)
			if err != nil {
				return nil, err
			}
		}
		logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
		return New(nested, logger), nil
	})
}
