package customforms

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replacy/internal/inflect"
)

// unreachable returns a client pointing at a port nothing listens on,
// for exercising the degraded paths without a Redis instance.
func unreachable(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 20 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestLookupDegradesToMiss(t *testing.T) {
	store := New(unreachable(t), 30*time.Millisecond, nil)

	form, ok := store.Lookup("extract", "VBZ")
	assert.False(t, ok)
	assert.Empty(t, form)
}

func TestLookupMissFallsThroughChain(t *testing.T) {
	store := New(unreachable(t), 30*time.Millisecond, nil)
	engine := inflect.NewEngine(nil, store)

	// Redis being down must not block built-in morphology
	res := engine.Inflect("extract", "VBZ")
	assert.Equal(t, "extracts", res.Form)
	assert.True(t, res.Verified)
}

func TestWriteErrorsSurface(t *testing.T) {
	store := New(unreachable(t), 30*time.Millisecond, nil)
	ctx := context.Background()

	require.Error(t, store.Add(ctx, "octopus", "NNS", "octopodes"))
	require.Error(t, store.Remove(ctx, "octopus", "NNS"))
	_, err := store.Forms(ctx, "octopus")
	require.Error(t, err)
}

func TestDefaultTimeout(t *testing.T) {
	store := New(unreachable(t), 0, nil)
	start := time.Now()
	_, ok := store.Lookup("extract", "VBZ")
	assert.False(t, ok)
	// the default deadline keeps a dead Redis from stalling the match path
	assert.Less(t, time.Since(start), time.Second)
}
