package refrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleRate = ReferenceRate{
	RatePct:   5.75,
	AsOf:      "2026-02-07",
	Source:    "remote-json",
	FetchedAt: time.Date(2026, 2, 8, 9, 0, 0, 0, time.UTC),
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", sampleRate))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleRate, got)
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewFileCache(dir)

	_, ok, err := c.Get(ctx, "nbp:referenceRate:v1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "nbp:referenceRate:v1", sampleRate))
	assert.FileExists(t, filepath.Join(dir, "nbp_referenceRate_v1.json"))

	got, ok, err := NewFileCache(dir).Get(ctx, "nbp:referenceRate:v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleRate.RatePct, got.RatePct)
	assert.True(t, sampleRate.FetchedAt.Equal(got.FetchedAt))
}

func TestFileCacheCorruptEntryIsMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.json"), []byte(`{"ratePct":"x"}`), 0o644))

	_, ok, err := NewFileCache(dir).Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	c := NewRedisCacheFromClient(client)

	_, ok, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(context.Background(), "k", sampleRate))
}

func TestDecodeCached(t *testing.T) {
	_, ok, err := decodeCached([]byte(`{"ratePct":5.75,"asOf":"2026-02-07","source":""}`))
	require.NoError(t, err)
	assert.False(t, ok, "entries without a source are rejected")

	got, ok, err := decodeCached([]byte(`{"ratePct":5.75,"asOf":"2026-02-07","source":"nbp","fetchedAt":"2026-02-08T09:00:00Z"}`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "nbp", got.Source)
}
