package stream

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func expectMessage(t *testing.T, c *Client, want string) {
	t.Helper()
	select {
	case msg := <-c.Send:
		if string(msg) != want {
			t.Fatalf("unexpected message %q, want %q", msg, want)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectSilence(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected extra message %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastLocal(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("run-1")
	other := hub.Register("run-2")
	defer hub.Unregister(client)
	defer hub.Unregister(other)

	hub.Broadcast("run-1", []byte("hello"))
	expectMessage(t, client, "hello")
	expectSilence(t, other)
}

func TestHubChannelHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch != "runs:abc:live" {
		t.Fatalf("unexpected channel %s", ch)
	}
	if sessionIDFromChannel(ch) != "abc" {
		t.Fatalf("unexpected session id")
	}
	for _, bad := range []string{"bad", "runs::live", "tracking:abc:broadcast"} {
		if sessionIDFromChannel(bad) != "" {
			t.Fatalf("expected empty session id for %q", bad)
		}
	}
}

func TestUnregisterClosesOnce(t *testing.T) {
	hub := NewHub(nil, nil)
	client := hub.Register("run-2")
	hub.Unregister(client)
	hub.Unregister(client)
	if _, ok := <-client.Send; ok {
		t.Fatalf("expected channel closed")
	}
	if hub.ClientCount("run-2") != 0 {
		t.Fatalf("client still registered")
	}
}

func TestHubRedisDeliversOnce(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()

	hub := NewHub(rdb, nil)
	defer hub.Close()
	client := hub.Register("run-redis")
	defer hub.Unregister(client)

	hub.Broadcast("run-redis", []byte("ping"))
	expectMessage(t, client, "ping")
	expectSilence(t, client)
}

func TestHubRedisForwardsOtherInstances(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer rdb.Close()

	hub := NewHub(rdb, nil)
	defer hub.Close()
	client := hub.Register("run-remote")
	defer hub.Unregister(client)

	if err := rdb.Publish(context.Background(), "runs:run-remote:live", "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	expectMessage(t, client, "pong")
}

func TestHubRedisUnavailableFallsBackToLocal(t *testing.T) {
	server := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer rdb.Close()

	hub := NewHub(rdb, nil)
	client := hub.Register("run-bad")
	defer hub.Unregister(client)

	hub.Broadcast("run-bad", []byte("ping"))
	expectMessage(t, client, "ping")
}
