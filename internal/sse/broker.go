package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/leadflow/ingest-server/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
	clientBufferSize  = 100
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewEvent marshals payload into an Event of the given type.
func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: data}, nil
}

type Client struct {
	Topic  string
	Events chan Event
	Done   chan struct{}
}

// Broker fans out events published on a Redis channel to the local
// subscribers of the matching topic.
type Broker struct {
	redis  *redisclient.Client
	topics map[string]*topicSubscription
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// topicSubscription owns one Redis subscription. cancel stops it once the
// last local client leaves.
type topicSubscription struct {
	clients map[*Client]bool
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:  redisClient,
		topics: make(map[string]*topicSubscription),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (b *Broker) Subscribe(topic string) *Client {
	client := &Client{
		Topic:  topic,
		Events: make(chan Event, clientBufferSize),
		Done:   make(chan struct{}),
	}

	b.mu.Lock()
	sub := b.topics[topic]
	if sub == nil {
		ctx, cancel := context.WithCancel(b.ctx)
		sub = &topicSubscription{clients: make(map[*Client]bool), cancel: cancel}
		b.topics[topic] = sub
		go b.subscribeToRedis(ctx, topic, sub)
	}
	sub.clients[client] = true
	clientCount := len(sub.clients)
	b.mu.Unlock()

	log.Info().
		Str("topic", topic).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.topics[client.Topic]
	if !ok {
		return
	}
	if _, present := sub.clients[client]; !present {
		return
	}
	delete(sub.clients, client)
	close(client.Done)

	if len(sub.clients) == 0 {
		sub.cancel()
		delete(b.topics, client.Topic)
	}

	log.Info().
		Str("topic", client.Topic).
		Int("clientCount", len(sub.clients)).
		Msg("sse client unsubscribed")
}

func (b *Broker) Publish(ctx context.Context, topic string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := redisclient.TopicChannel(topic)
	return b.redis.Publish(ctx, channel, data).Err()
}

func (b *Broker) subscribeToRedis(ctx context.Context, topic string, sub *topicSubscription) {
	channel := redisclient.TopicChannel(topic)
	pubsub := b.redis.Subscribe(ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("topic", topic).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			log.Debug().
				Str("topic", topic).
				Msg("redis pubsub closed")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(topic, sub, event)
		}
	}
}

// broadcast delivers to the clients of sub only, so a subscription that is
// shutting down never reaches clients of a newer one for the same topic.
func (b *Broker) broadcast(topic string, sub *topicSubscription, event Event) {
	b.mu.RLock()
	clients := make([]*Client, 0, len(sub.clients))
	for client := range sub.clients {
		clients = append(clients, client)
	}
	b.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("topic", topic).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.topics {
		sub.cancel()
		for client := range sub.clients {
			close(client.Done)
		}
	}
	b.topics = make(map[string]*topicSubscription)
}

func (b *Broker) ClientCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sub, ok := b.topics[topic]
	if !ok {
		return 0
	}
	return len(sub.clients)
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, sub := range b.topics {
		total += len(sub.clients)
	}
	return total
}
