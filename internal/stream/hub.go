package stream

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"backend-fitquest/internal/logging"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix  = "runs:"
	channelSuffix  = ":live"
	channelPattern = channelPrefix + "*" + channelSuffix
)

// Hub fans live run states out to websocket clients. With Redis, every
// instance publishes to runs:{id}:live and delivers what its pattern
// subscription receives, so a client sees each message exactly once whichever
// instance produced it. Without Redis, messages are delivered locally.
type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	logger  *slog.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	SessionID string
	Send      chan []byte
}

func NewHub(redisClient *redis.Client, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &Hub{
		logger:  logger,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		pubsub := redisClient.PSubscribe(ctx, channelPattern)
		// Receive blocks until the subscription is confirmed, so nothing
		// published after NewHub returns can be missed.
		if _, err := pubsub.Receive(ctx); err != nil {
			logger.Warn("redis psubscribe failed, streaming locally only", "error", err)
			_ = pubsub.Close()
		} else {
			h.redis = redisClient
			h.pubsub = pubsub
			go h.forward(pubsub.Channel())
		}
	}
	return h
}

func (h *Hub) Register(sessionID string) *Client {
	client := &Client{
		SessionID: sessionID,
		Send:      make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = map[*Client]struct{}{}
	}
	h.clients[sessionID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessionClients, ok := h.clients[client.SessionID]; ok {
		if _, registered := sessionClients[client]; !registered {
			return
		}
		delete(sessionClients, client)
		if len(sessionClients) == 0 {
			delete(h.clients, client.SessionID)
		}
		close(client.Send)
	}
}

func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Broadcast sends payload to every client watching sessionID. Slow clients drop messages.
func (h *Hub) Broadcast(sessionID string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(sessionID), payload).Err()
		if err == nil {
			return
		}
		h.logger.Warn("redis publish failed, delivering locally", "session_id", sessionID, "error", err)
	}
	h.deliver(sessionID, payload)
}

func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	return h.pubsub.Close()
}

func (h *Hub) deliver(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[sessionID] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) forward(messages <-chan *redis.Message) {
	for msg := range messages {
		sessionID := sessionIDFromChannel(msg.Channel)
		if sessionID == "" {
			continue
		}
		h.deliver(sessionID, []byte(msg.Payload))
	}
}

func redisChannel(sessionID string) string {
	return channelPrefix + sessionID + channelSuffix
}

func sessionIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) {
		return ""
	}
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
