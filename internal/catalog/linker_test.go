package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPresigner struct {
	calls int
	err   error
}

func (m *mockPresigner) PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return "https://bucket.test/" + key + "?X-Amz-Expires=" + expires.String(), nil
}

type memoryCache struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

func TestLinker_BaseURL(t *testing.T) {
	l := NewLinker("https://media.example.com/", nil, 0, nil, zap.NewNop().Sugar())

	u, err := l.URL(context.Background(), strp("/movies/full/a.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "https://media.example.com/movies/full/a.mp4", *u)

	u, err = l.URL(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = l.URL(context.Background(), strp(""))
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestLinker_PresignsAndCaches(t *testing.T) {
	presigner := &mockPresigner{}
	cache := newMemoryCache()
	l := NewLinker("", presigner, 10*time.Minute, cache, zap.NewNop().Sugar())

	first, err := l.URL(context.Background(), strp("movies/thumbnails/p.jpg"))
	require.NoError(t, err)
	second, err := l.URL(context.Background(), strp("movies/thumbnails/p.jpg"))
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
	assert.Equal(t, 1, presigner.calls)
	assert.Equal(t, 9*time.Minute, cache.ttls["signed:movies/thumbnails/p.jpg"])
}

func TestLinker_CacheFailureFallsBackToPresign(t *testing.T) {
	presigner := &mockPresigner{}
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	l := NewLinker("", presigner, time.Minute, cache, zap.NewNop().Sugar())

	u, err := l.URL(context.Background(), strp("movies/full/a.mp4"))

	require.NoError(t, err)
	assert.Contains(t, *u, "movies/full/a.mp4")
	assert.Equal(t, 1, presigner.calls)
}

func TestLinker_PresignError(t *testing.T) {
	l := NewLinker("", &mockPresigner{err: errors.New("no credentials")}, time.Minute, nil, zap.NewNop().Sugar())

	_, err := l.URL(context.Background(), strp("movies/full/a.mp4"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")
}
