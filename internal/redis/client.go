package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LeadsChannel carries newly created inbound leads to every server instance.
const LeadsChannel = "leads"

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

func TopicChannel(topic string) string {
	return fmt.Sprintf("topic:%s", topic)
}

// PageViewKey identifies one page view per session, listing and UTC day (YYYY-MM-DD).
func PageViewKey(sessionID string, listingID int64, day string) string {
	return fmt.Sprintf("pageview:%s:%d:%s", sessionID, listingID, day)
}

func WebhookMessageKey(messageID string) string {
	return fmt.Sprintf("webhook:msg:%s", messageID)
}
