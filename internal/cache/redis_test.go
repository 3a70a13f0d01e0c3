package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedis(t *testing.T) *Redis {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	r, err := Dial(context.Background(), addr, "", 15, time.Minute)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

type summary struct {
	Total int    `json:"total"`
	Label string `json:"label"`
}

func TestRedis_SetGet(t *testing.T) {
	r := getRedis(t)
	ctx := context.Background()
	key := "test:summary@" + time.Now().Format(time.RFC3339Nano)

	var got summary
	ok, err := r.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, key, summary{Total: 7, Label: "x"}))
	ok, err = r.Get(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, summary{Total: 7, Label: "x"}, got)
}

func TestRedis_InvalidateBumpsGeneration(t *testing.T) {
	r := getRedis(t)
	ctx := context.Background()

	before, err := r.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, r.Invalidate(ctx))
	after, err := r.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1))
	var v int
	ok, _ := c.Get(ctx, "k", &v)
	assert.False(t, ok)
}
