package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestNewClient_PingFails(t *testing.T) {
	_, err := NewClient("127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestPublishSubscribe(t *testing.T) {
	c, _ := setupRedis(t)
	ctx := context.Background()

	sub, err := c.Subscribe(ctx, "hotel_portal_live_1")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, c.Publish(ctx, "hotel_portal_live_1", []byte(`{"type":"board_push"}`)))
	require.NoError(t, c.Publish(ctx, "hotel_portal_live_2", []byte(`other`)))

	select {
	case msg := <-sub.C():
		assert.JSONEq(t, `{"type":"board_push"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}
	select {
	case msg := <-sub.C():
		t.Fatalf("unexpected message %q", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscription_CloseStopsDelivery(t *testing.T) {
	c, mr := setupRedis(t)
	ctx := context.Background()

	sub, err := c.Subscribe(ctx, "g")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(mr.PubSubChannels("g")) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	_, open := <-sub.C()
	assert.False(t, open)
}

func TestPublish_ErrorWhenClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, c.Close())

	err := c.Publish(context.Background(), "g", []byte("x"))
	assert.Error(t, err)
}
