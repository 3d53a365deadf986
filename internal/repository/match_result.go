package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const DefaultResultChannel = "tictactoe:results"

type MatchResultPublisher interface {
	Publish(ctx context.Context, result entity.MatchResult) error
}

type redisMatchResult struct {
	client  *redis.Client
	channel string
}

// NewMatchResultPublisher publishes finished matches on a redis channel. Nothing is stored.
func NewMatchResultPublisher(client *redis.Client, channel string) MatchResultPublisher {
	if channel == "" {
		channel = DefaultResultChannel
	}

	return &redisMatchResult{
		client:  client,
		channel: channel,
	}
}

func (that *redisMatchResult) Publish(ctx context.Context, result entity.MatchResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal match result: %w", err)
	}

	if err = that.client.Publish(ctx, that.channel, resultJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish match result: %w", err)
	}

	return nil
}

type discardMatchResult struct{}

// NewDiscardPublisher is used when no redis is configured.
func NewDiscardPublisher() MatchResultPublisher {
	return discardMatchResult{}
}

func (discardMatchResult) Publish(context.Context, entity.MatchResult) error {
	return nil
}
