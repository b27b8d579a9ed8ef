package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"

	"codeshare-backend/internal/dto"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func TestHub_EmitEncodesOnceAndSkipsUnknownIDs(t *testing.T) {
	hub := NewHub(testLogger())
	a := newClient(nil, "a", 4, testLogger())
	b := newClient(nil, "b", 4, testLogger())
	hub.Register(a)
	hub.Register(b)
	require.Equal(t, 2, hub.ClientCount())

	n := hub.Emit([]string{"a", "b", "ghost"}, dto.CodeUpdate("x = 1"))
	require.Equal(t, 2, n)

	var got dto.InboundEvent
	require.NoError(t, json.Unmarshal(<-a.Message, &got))
	require.Equal(t, dto.EventCodeUpdate, got.Name)
	require.JSONEq(t, `"x = 1"`, string(got.Data))
	require.Len(t, b.Message, 1)
}

func TestHub_EmitToNobody(t *testing.T) {
	hub := NewHub(testLogger())
	require.Zero(t, hub.Emit(nil, dto.CodeUpdate("")))
}

func TestHub_SlowConsumerIsCutOff(t *testing.T) {
	hub := NewHub(testLogger())
	slow := newClient(nil, "slow", 1, testLogger())
	hub.Register(slow)

	require.Equal(t, 1, hub.Emit([]string{"slow"}, dto.UserTyping("bob")))
	require.Zero(t, hub.Emit([]string{"slow"}, dto.UserTyping("bob")))
	require.Zero(t, hub.Emit([]string{"slow"}, dto.UserTyping("bob")))

	_, ok := <-slow.Message
	require.True(t, ok)
	_, ok = <-slow.Message
	require.False(t, ok, "send channel should be closed after overflow")
}

func TestHub_UnregisterIgnoresReplacedClient(t *testing.T) {
	hub := NewHub(testLogger())
	old := newClient(nil, "same", 1, testLogger())
	cur := newClient(nil, "same", 1, testLogger())
	hub.Register(old)
	hub.Register(cur)

	hub.Unregister(old)
	require.Equal(t, 1, hub.ClientCount())
	require.Equal(t, 1, hub.Emit([]string{"same"}, dto.CodeUpdate("")))

	hub.Unregister(cur)
	hub.Unregister(cur)
	require.Zero(t, hub.ClientCount())
}

func TestOriginChecker(t *testing.T) {
	open := originChecker([]string{"*"})
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Origin", "https://evil.example")
	require.True(t, open(r))

	strict := originChecker([]string{"https://app.example", "localhost:5173"})
	require.False(t, strict(r))

	r.Header.Set("Origin", "https://app.example")
	require.True(t, strict(r))

	r.Header.Set("Origin", "http://localhost:5173")
	require.True(t, strict(r))

	r.Header.Del("Origin")
	require.True(t, strict(r))
}
