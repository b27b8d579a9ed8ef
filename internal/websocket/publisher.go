package websocket

import (
	"context"
	"encoding/json"
	"fmt"

	"codeshare-backend/internal/dto"

	"github.com/go-redis/redis/v8"
)

const runsChannelPrefix = "codeshare:runs:"

// RunsChannel is the pub/sub channel carrying a room's execution results.
func RunsChannel(roomID string) string {
	return runsChannelPrefix + roomID
}

// RedisPublisher fans completed runs out to Redis so other processes can
// follow a room's output. It implements execution.ResultSink.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(ctx context.Context, addr, password string) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("websocket publisher: redis ping: %w", err)
	}
	return &RedisPublisher{client: client}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, roomID string, resp dto.ExecuteResponse) error {
	if roomID == "" {
		return fmt.Errorf("websocket publish: roomID required")
	}

	messageJSON, err := json.Marshal(dto.CodeResponse(resp))
	if err != nil {
		return fmt.Errorf("websocket publish: marshal payload: %w", err)
	}

	if err := p.client.Publish(ctx, RunsChannel(roomID), string(messageJSON)).Err(); err != nil {
		return fmt.Errorf("websocket publish: redis publish: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
