package websocket

import (
	"context"
	"net"
	"testing"
	"time"

	"codeshare-backend/internal/dto"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func TestRunsChannel(t *testing.T) {
	require.Equal(t, "codeshare:runs:abc", RunsChannel("abc"))
}

func TestRedisPublisher_RequiresRoomID(t *testing.T) {
	p := &RedisPublisher{client: redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})}
	defer p.Close()

	err := p.Publish(context.Background(), "", dto.FailedResponse("boom"))
	require.ErrorContains(t, err, "roomID required")
}

func TestNewRedisPublisher_UnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	p, err := NewRedisPublisher(ctx, addr, "")
	require.Error(t, err)
	require.Nil(t, p)
}
