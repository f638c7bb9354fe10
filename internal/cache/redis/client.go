package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/classpilot/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
}

// Session is the value stored per login token.
type Session struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) SetSession(ctx context.Context, token string, session Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = c.client.Set(ctx, sessionKey(token), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	logger.Debug("Session stored", zap.String("user_id", session.UserID), zap.Duration("ttl", ttl))
	return nil
}

// GetSession returns (session, true) for a live token and (zero, false) for
// an unknown or expired one.
func (c *Client) GetSession(ctx context.Context, token string) (Session, bool, error) {
	data, err := c.client.Get(ctx, sessionKey(token)).Bytes()
	if err == redis.Nil {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("failed to get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, false, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return session, true, nil
}

func (c *Client) DeleteSession(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SetReply caches a tutor reply keyed by message+context hash. TTL zero
// disables caching at the call site; this method assumes ttl > 0.
func (c *Client) SetReply(ctx context.Context, replyHash string, reply interface{}, ttl time.Duration) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	err = c.client.Set(ctx, replyKey(replyHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set reply cache: %w", err)
	}

	logger.Debug("Reply cached", zap.String("reply_hash", replyHash), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetReply(ctx context.Context, replyHash string, reply interface{}) (bool, error) {
	data, err := c.client.Get(ctx, replyKey(replyHash)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get reply cache: %w", err)
	}

	if err := json.Unmarshal(data, reply); err != nil {
		return false, fmt.Errorf("failed to unmarshal reply: %w", err)
	}

	logger.Debug("Reply cache hit", zap.String("reply_hash", replyHash))
	return true, nil
}

// InvalidateReplies drops all cached replies. Called when a course's topics
// or materials change, since cached replies embed the old context.
func (c *Client) InvalidateReplies(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "reply:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Reply cache invalidated")
	return nil
}

func sessionKey(token string) string { return fmt.Sprintf("session:%s", token) }
func replyKey(hash string) string    { return fmt.Sprintf("reply:%s", hash) }
