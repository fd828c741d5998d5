package stream

import (
	"context"
	"sync"

	"github.com/bwlee-dix/h-stuido-dev-research/internal/logging"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix  = "touch:"
	channelSuffix  = ":events"
	channelPattern = channelPrefix + "*" + channelSuffix
)

// Hub fans tracker snapshots out to websocket subscribers, keyed by the
// tracker's storage key. With Redis attached every replica publishes to and
// receives from the same channels; without it delivery stays in process.
type Hub struct {
	redis   *redis.Client
	pubsub  *redis.PubSub
	log     *zap.Logger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	Key  string
	Send chan []byte
}

func NewHub(redisClient *redis.Client, log *zap.Logger) *Hub {
	h := &Hub{
		log:     logging.OrNop(log),
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		ctx := context.Background()
		pubsub := redisClient.PSubscribe(ctx, channelPattern)
		// Wait for the subscription to be confirmed so nothing published
		// right after construction is lost.
		if _, err := pubsub.Receive(ctx); err != nil {
			h.log.Warn("redis subscribe failed, delivering locally", zap.Error(err))
			_ = pubsub.Close()
		} else {
			h.redis = redisClient
			h.pubsub = pubsub
			go h.forward(pubsub.Channel())
		}
	}
	return h
}

func (h *Hub) Register(key string) *Client {
	client := &Client{
		Key:  key,
		Send: make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[key] == nil {
		h.clients[key] = map[*Client]struct{}{}
	}
	h.clients[key][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if keyClients, ok := h.clients[client.Key]; ok {
		if _, registered := keyClients[client]; !registered {
			return
		}
		delete(keyClients, client)
		if len(keyClients) == 0 {
			delete(h.clients, client.Key)
		}
		close(client.Send)
	}
}

// Broadcast delivers payload to every subscriber of key. Slow subscribers
// whose buffer is full miss the message.
func (h *Hub) Broadcast(key string, payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(key), payload).Err()
		if err == nil {
			return
		}
		h.log.Warn("redis publish failed, delivering locally", zap.String("key", key), zap.Error(err))
	}
	h.deliver(key, payload)
}

// Close stops the Redis subscription. Registered clients stay open.
func (h *Hub) Close() error {
	if h.pubsub == nil {
		return nil
	}
	return h.pubsub.Close()
}

func (h *Hub) deliver(key string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[key] {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) forward(messages <-chan *redis.Message) {
	for msg := range messages {
		key := keyFromChannel(msg.Channel)
		if key == "" {
			continue
		}
		h.deliver(key, []byte(msg.Payload))
	}
}

func redisChannel(key string) string {
	return channelPrefix + key + channelSuffix
}

func keyFromChannel(ch string) string {
	// touch:{key}:events
	if len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	if ch[:len(channelPrefix)] != channelPrefix || ch[len(ch)-len(channelSuffix):] != channelSuffix {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
