package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("settings service closed")

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type Store interface {
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// Service serves platform settings from an in-memory snapshot of the
// settings table. The snapshot is reloaded on the first read after ttl has
// elapsed or after Invalidate.
type Service struct {
	store Store
	ttl   time.Duration
	clock Clock

	mu       sync.RWMutex
	values   map[string]string
	loadedAt time.Time
	loaded   bool
	closed   bool
}

func New(store Store, ttl time.Duration, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{store: store, ttl: ttl, clock: clock}
}

// Init loads the snapshot eagerly so startup fails fast on a broken store.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.reloadLocked(ctx)
}

func (s *Service) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return "", false, ErrClosed
	}
	if s.fresh() {
		v, ok := s.values[key]
		s.mu.RUnlock()
		return v, ok, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	if !s.fresh() {
		if err := s.reloadLocked(ctx); err != nil {
			return "", false, err
		}
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Service) String(ctx context.Context, key, fallback string) (string, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return fallback, nil
	}
	return v, nil
}

func (s *Service) Bool(ctx context.Context, key string, fallback bool) (bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("setting is not a boolean, using default")
		return fallback, nil
	}
	return b, nil
}

// Set writes through to the store and drops the snapshot.
func (s *Service) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	s.loaded = false
	return nil
}

func (s *Service) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.values = nil
	s.loaded = false
	return nil
}

func (s *Service) fresh() bool {
	return s.loaded && s.clock.Now().Sub(s.loadedAt) < s.ttl
}

func (s *Service) reloadLocked(ctx context.Context) error {
	values, err := s.store.All(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	s.values = values
	s.loadedAt = s.clock.Now()
	s.loaded = true
	log.Debug().Int("count", len(values)).Msg("settings loaded")
	return nil
}
