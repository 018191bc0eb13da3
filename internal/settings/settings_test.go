package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memStore struct {
	mu     sync.Mutex
	values map[string]string
	loads  int
	err    error
}

func (m *memStore) All(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func newFixture() (*Service, *memStore, *fakeClock) {
	store := &memStore{values: map[string]string{"fee_currency": "USD", "transfers_enabled": "true"}}
	clock := &fakeClock{now: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	return New(store, time.Minute, clock), store, clock
}

func TestService_ServesFromMemoryUntilTTL(t *testing.T) {
	svc, store, clock := newFixture()
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))

	store.values["fee_currency"] = "EUR"

	v, err := svc.String(ctx, "fee_currency", "XXX")
	require.NoError(t, err)
	assert.Equal(t, "USD", v, "stale until ttl")
	assert.Equal(t, 1, store.loads)

	clock.Advance(59 * time.Second)
	v, _ = svc.String(ctx, "fee_currency", "XXX")
	assert.Equal(t, "USD", v)

	clock.Advance(time.Second)
	v, _ = svc.String(ctx, "fee_currency", "XXX")
	assert.Equal(t, "EUR", v)
	assert.Equal(t, 2, store.loads)
}

func TestService_Invalidate(t *testing.T) {
	svc, store, _ := newFixture()
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))

	store.values["transfers_enabled"] = "false"
	svc.Invalidate()

	enabled, err := svc.Bool(ctx, "transfers_enabled", true)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestService_SetWritesThrough(t *testing.T) {
	svc, store, _ := newFixture()
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))

	require.NoError(t, svc.Set(ctx, "fee_currency", "XOF"))
	assert.Equal(t, "XOF", store.values["fee_currency"])

	v, err := svc.String(ctx, "fee_currency", "USD")
	require.NoError(t, err)
	assert.Equal(t, "XOF", v)
}

func TestService_Fallbacks(t *testing.T) {
	svc, store, _ := newFixture()
	store.values["transfers_enabled"] = "maybe"
	ctx := context.Background()

	enabled, err := svc.Bool(ctx, "transfers_enabled", true)
	require.NoError(t, err)
	assert.True(t, enabled, "unparseable value falls back")

	v, err := svc.String(ctx, "missing", "default")
	require.NoError(t, err)
	assert.Equal(t, "default", v)
}

func TestService_StoreError(t *testing.T) {
	svc, store, _ := newFixture()
	store.err = errors.New("relation \"settings\" does not exist")

	assert.Error(t, svc.Init(context.Background()))
	_, err := svc.String(context.Background(), "fee_currency", "USD")
	assert.Error(t, err)
}

func TestService_Close(t *testing.T) {
	svc, _, _ := newFixture()
	ctx := context.Background()
	require.NoError(t, svc.Init(ctx))
	require.NoError(t, svc.Close())

	_, err := svc.String(ctx, "fee_currency", "USD")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, svc.Set(ctx, "k", "v"), ErrClosed)
	assert.ErrorIs(t, svc.Init(ctx), ErrClosed)
}

func TestService_ConcurrentReads(t *testing.T) {
	svc, store, clock := newFixture()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%10 == 0 {
				clock.Advance(30 * time.Second)
			}
			_, err := svc.String(ctx, "fee_currency", "USD")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, store.loads, 6)
}
