package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	c := New(srv.Addr(), 0)
	t.Cleanup(func() { _ = c.Close() })

	return c, srv
}

func TestCache_SetExExpires(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetEx(ctx, "BTC", "64000.1", 5*time.Second))

	value, found, err := c.Get(ctx, "BTC")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "64000.1", value)

	srv.FastForward(5 * time.Second)

	_, found, err = c.Get(ctx, "BTC")
	require.NoError(t, err)
	require.False(t, found)
}

func TestCache_ListIsFIFO(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for _, v := range []string{"first", "second", "third"} {
		require.NoError(t, c.LPush(ctx, "q", []byte(v)))
	}

	for _, want := range []string{"first", "second", "third"} {
		got, found, err := c.RPop(ctx, "q")
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, want, string(got))
	}

	_, found, err := c.RPop(ctx, "q")
	require.NoError(t, err)
	require.False(t, found)
}

func TestCache_SubscribeReceivesPublishes(t *testing.T) {
	c, _ := newTestCache(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := c.Subscribe(ctx, "price_of_BTC")
	require.NoError(t, err)

	require.NoError(t, c.Publish(context.Background(), "price_of_BTC", "64000.1"))

	select {
	case msg := <-messages:
		require.Equal(t, "64000.1", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-messages
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCache_PingFailsWhenServerIsDown(t *testing.T) {
	c, srv := newTestCache(t)

	require.NoError(t, c.Ping(context.Background()))

	srv.Close()
	require.Error(t, c.Ping(context.Background()))
}
