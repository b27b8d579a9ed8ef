package room

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"codeshare-backend/internal/dto"

	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events map[string][]dto.Event
}

func newRecordingEmitter() *recordingEmitter {
	return &recordingEmitter{events: make(map[string][]dto.Event)}
}

func (e *recordingEmitter) Emit(connIDs []string, event dto.Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range connIDs {
		e.events[id] = append(e.events[id], event)
	}
	return len(connIDs)
}

// take returns and clears everything delivered to connID.
func (e *recordingEmitter) take(connID string) []dto.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.events[connID]
	delete(e.events, connID)
	return out
}

func newTestService() (*Service, *Registry, *recordingEmitter) {
	registry := NewRegistry()
	emitter := newRecordingEmitter()
	return New(registry, emitter, logs.GetLoggerFromLevel(slog.LevelDebug)), registry, emitter
}

// requireNoEmptyRooms checks that every registered room has members.
func requireNoEmptyRooms(t *testing.T, registry *Registry) {
	t.Helper()
	for _, id := range registry.IDs() {
		r, ok := registry.Get(id)
		require.True(t, ok)
		r.mu.Lock()
		require.False(t, r.empty(), "room %s is registered but empty", id)
		r.mu.Unlock()
	}
}

func TestService_AliceAndBobShareRoom(t *testing.T) {
	svc, registry, em := newTestService()
	alice, bob := NewSession("conn-a"), NewSession("conn-b")

	// alice joins room abc
	require.True(t, svc.Join(alice, dto.JoinPayload{RoomID: "abc", UserName: "alice"}))
	require.Equal(t, []dto.Event{
		dto.UserJoined([]string{"alice"}),
		dto.CodeUpdate(""),
	}, em.take(alice.ID))
	requireNoEmptyRooms(t, registry)

	// bob joins, both get the full list, only bob gets the code
	require.True(t, svc.Join(bob, dto.JoinPayload{RoomID: "abc", UserName: "bob"}))
	require.Equal(t, []dto.Event{dto.UserJoined([]string{"alice", "bob"})}, em.take(alice.ID))
	require.Equal(t, []dto.Event{
		dto.UserJoined([]string{"alice", "bob"}),
		dto.CodeUpdate(""),
	}, em.take(bob.ID))

	// alice edits, bob receives it, alice gets no echo
	svc.Edit(alice, dto.CodeChangePayload{RoomID: "abc", Code: "print(1)"})
	require.Empty(t, em.take(alice.ID))
	require.Equal(t, []dto.Event{dto.CodeUpdate("print(1)")}, em.take(bob.ID))
	snap, err := svc.Snapshot("abc")
	require.NoError(t, err)
	require.Equal(t, len("print(1)"), snap.CodeLength)

	// alice disconnects, room survives with bob
	svc.Leave(alice)
	require.Equal(t, []dto.Event{dto.UserJoined([]string{"bob"})}, em.take(bob.ID))
	require.Equal(t, 1, registry.Count())
	requireNoEmptyRooms(t, registry)

	// bob leaves, room is gone
	svc.Leave(bob)
	require.Empty(t, em.take(bob.ID))
	require.Equal(t, 0, registry.Count())
	_, err = svc.Snapshot("abc")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestService_Join_IgnoresInvalidInput(t *testing.T) {
	svc, registry, em := newTestService()
	sess := NewSession("conn-a")

	require.False(t, svc.Join(sess, dto.JoinPayload{RoomID: "", UserName: "alice"}))
	require.False(t, svc.Join(sess, dto.JoinPayload{RoomID: "abc", UserName: ""}))

	require.Empty(t, em.take(sess.ID))
	require.Equal(t, 0, registry.Count())
	_, _, ok := sess.Current()
	require.False(t, ok)
}

func TestService_Join_IsIdempotent(t *testing.T) {
	svc, registry, em := newTestService()
	sess := NewSession("conn-a")

	svc.Join(sess, dto.JoinPayload{RoomID: "abc", UserName: "alice"})
	svc.Edit(sess, dto.CodeChangePayload{RoomID: "abc", Code: "x = 1"})
	em.take(sess.ID)

	svc.Join(sess, dto.JoinPayload{RoomID: "abc", UserName: "alice"})

	require.Equal(t, []dto.Event{
		dto.UserJoined([]string{"alice"}),
		dto.CodeUpdate("x = 1"),
	}, em.take(sess.ID))
	snap, err := svc.Snapshot("abc")
	require.NoError(t, err)
	require.Equal(t, 1, snap.Connections)
	require.Equal(t, 1, registry.Count())
}

func TestService_Join_SameNameFromTwoConnections(t *testing.T) {
	svc, _, em := newTestService()
	first, second, carol := NewSession("conn-1"), NewSession("conn-2"), NewSession("conn-3")

	svc.Join(first, dto.JoinPayload{RoomID: "abc", UserName: "alice"})
	svc.Join(carol, dto.JoinPayload{RoomID: "abc", UserName: "carol"})
	svc.Join(second, dto.JoinPayload{RoomID: "abc", UserName: "alice"})
	em.take(carol.ID)

	snap, err := svc.Snapshot("abc")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "carol"}, snap.Members)
	require.Equal(t, 3, snap.Connections)

	// one alice leaving keeps the name for the other
	svc.Leave(first)
	require.Equal(t, []dto.Event{dto.UserJoined([]string{"carol", "alice"})}, em.take(carol.ID))

	svc.Leave(second)
	require.Equal(t, []dto.Event{dto.UserJoined([]string{"carol"})}, em.take(carol.ID))
}

func TestService_Join_SwitchesRooms(t *testing.T) {
	svc, registry, em := newTestService()
	alice, bob := NewSession("conn-a"), NewSession("conn-b")

	svc.Join(alice, dto.JoinPayload{RoomID: "one", UserName: "alice"})
	svc.Join(bob, dto.JoinPayload{RoomID: "one", UserName: "bob"})
	em.take(alice.ID)
	em.take(bob.ID)

	svc.Join(alice, dto.JoinPayload{RoomID: "two", UserName: "alice"})

	require.Equal(t, []dto.Event{dto.UserJoined([]string{"bob"})}, em.take(bob.ID))
	require.Equal(t, []dto.Event{
		dto.UserJoined([]string{"alice"}),
		dto.CodeUpdate(""),
	}, em.take(alice.ID))
	require.Equal(t, []string{"one", "two"}, registry.IDs())

	roomID, name, ok := alice.Current()
	require.True(t, ok)
	require.Equal(t, "two", roomID)
	require.Equal(t, "alice", name)

	// bob switching away empties and deletes room one
	svc.Join(bob, dto.JoinPayload{RoomID: "two", UserName: "bob"})
	require.Equal(t, []string{"two"}, registry.IDs())
	requireNoEmptyRooms(t, registry)
}

func TestService_Join_LateJoinerGetsCurrentCode(t *testing.T) {
	svc, _, em := newTestService()
	alice, bob := NewSession("conn-a"), NewSession("conn-b")

	svc.Join(alice, dto.JoinPayload{RoomID: "abc", UserName: "alice"})
	svc.Edit(alice, dto.CodeChangePayload{RoomID: "abc", Code: "x"})
	em.take(alice.ID)

	svc.Join(bob, dto.JoinPayload{RoomID: "abc", UserName: "bob"})

	require.Equal(t, []dto.Event{
		dto.UserJoined([]string{"alice", "bob"}),
		dto.CodeUpdate("x"),
	}, em.take(bob.ID))
	// alice sees the roster only, never a second codeUpdate
	require.Equal(t, []dto.Event{dto.UserJoined([]string{"alice", "bob"})}, em.take(alice.ID))
}

func TestService_Edit_UnknownRoomIsNoop(t *testing.T) {
	svc, registry, em := newTestService()
	sess := NewSession("conn-a")

	edits := testutil.ToFloat64(roomOperations.WithLabelValues("edit"))
	languages := testutil.ToFloat64(roomOperations.WithLabelValues("language"))

	svc.Edit(sess, dto.CodeChangePayload{RoomID: "ghost", Code: "x"})
	svc.ChangeLanguage(dto.LanguageChangePayload{RoomID: "ghost", Language: "go"})

	require.Empty(t, em.take(sess.ID))
	require.Equal(t, 0, registry.Count())
	require.Equal(t, edits, testutil.ToFloat64(roomOperations.WithLabelValues("edit")))
	require.Equal(t, languages, testutil.ToFloat64(roomOperations.WithLabelValues("language")))

	svc.Join(sess, dto.JoinPayload{RoomID: "abc", UserName: "alice"})
	svc.Edit(sess, dto.CodeChangePayload{RoomID: "abc", Code: "x"})
	require.Equal(t, edits+1, testutil.ToFloat64(roomOperations.WithLabelValues("edit")))
}

func TestService_Edit_LastWriterWins(t *testing.T) {
	svc, _, em := newTestService()
	alice, bob := NewSession("conn-a"), NewSession("conn-b")
	svc.Join(alice, dto.JoinPayload{RoomID: "abc", UserName: "alice"})
	svc.Join(bob, dto.JoinPayload{RoomID: "abc", UserName: "bob"})

	svc.Edit(alice, dto.CodeChangePayload{RoomID: "abc", Code: "first"})
	svc.Edit(bob, dto.CodeChangePayload{RoomID: "abc", Code: "second"})
	em.take(alice.ID)

	carol := NewSession("conn-c")
	svc.Join(carol, dto.JoinPayload{RoomID: "abc", UserName: "carol"})
	events := em.take(carol.ID)
	require.Equal(t, dto.CodeUpdate("second"), events[len(events)-1])
}

func TestService_Typing_ExcludesSender(t *testing.T) {
	svc, _, em := newTestService()
	alice, bob := NewSession("conn-a"), NewSession("conn-b")
	svc.Join(alice, dto.JoinPayload{RoomID: "abc", UserName: "alice"})
	svc.Join(bob, dto.JoinPayload{RoomID: "abc", UserName: "bob"})
	em.take(alice.ID)
	em.take(bob.ID)

	svc.Typing(alice, dto.TypingPayload{RoomID: "abc", UserName: "alice"})
	svc.Typing(alice, dto.TypingPayload{RoomID: "abc", UserName: "alice"})

	require.Empty(t, em.take(alice.ID))
	require.Equal(t, []dto.Event{dto.UserTyping("alice"), dto.UserTyping("alice")}, em.take(bob.ID))
}

func TestService_ChangeLanguage_EchoesToEveryone(t *testing.T) {
	svc, _, em := newTestService()
	alice, bob := NewSession("conn-a"), NewSession("conn-b")
	svc.Join(alice, dto.JoinPayload{RoomID: "abc", UserName: "alice"})
	svc.Join(bob, dto.JoinPayload{RoomID: "abc", UserName: "bob"})
	em.take(alice.ID)
	em.take(bob.ID)

	svc.ChangeLanguage(dto.LanguageChangePayload{RoomID: "abc", Language: "python"})

	require.Equal(t, []dto.Event{dto.LanguageUpdate("python")}, em.take(alice.ID))
	require.Equal(t, []dto.Event{dto.LanguageUpdate("python")}, em.take(bob.ID))
}

func TestService_Leave_WithoutRoomIsNoop(t *testing.T) {
	svc, registry, em := newTestService()
	sess := NewSession("conn-a")

	svc.Leave(sess)
	svc.Leave(sess)

	require.Empty(t, em.take(sess.ID))
	require.Equal(t, 0, registry.Count())
}

func TestService_RoomContextCancelledWhenRoomEmpties(t *testing.T) {
	svc, _, _ := newTestService()
	sess := NewSession("conn-a")
	svc.Join(sess, dto.JoinPayload{RoomID: "abc", UserName: "alice"})

	ctx, ok := svc.RoomContext("abc")
	require.True(t, ok)
	require.NoError(t, ctx.Err())

	svc.Leave(sess)
	<-ctx.Done()

	_, ok = svc.RoomContext("abc")
	require.False(t, ok)
}

func TestService_BroadcastAndRecordOutput(t *testing.T) {
	svc, _, em := newTestService()
	alice, bob := NewSession("conn-a"), NewSession("conn-b")
	svc.Join(alice, dto.JoinPayload{RoomID: "abc", UserName: "alice"})
	svc.Join(bob, dto.JoinPayload{RoomID: "abc", UserName: "bob"})
	em.take(alice.ID)
	em.take(bob.ID)

	event := dto.CodeResponse(dto.ExecuteResponse{Run: dto.RunStage{Output: "1\n"}})
	require.Equal(t, 2, svc.Broadcast("abc", event))
	require.Equal(t, 0, svc.Broadcast("ghost", event))
	svc.RecordOutput("abc", "1\n")

	require.Equal(t, []dto.Event{event}, em.take(alice.ID))
	require.Equal(t, []dto.Event{event}, em.take(bob.ID))
	snap, err := svc.Snapshot("abc")
	require.NoError(t, err)
	require.Equal(t, "1\n", snap.LastOutput)
}

func TestService_Snapshots_SortedByID(t *testing.T) {
	svc, _, _ := newTestService()
	for i, id := range []string{"zeta", "alpha", "mid"} {
		svc.Join(NewSession(fmt.Sprintf("conn-%d", i)), dto.JoinPayload{RoomID: id, UserName: "u"})
	}

	snaps := svc.Snapshots()
	require.Len(t, snaps, 3)
	require.Equal(t, "alpha", snaps[0].ID)
	require.Equal(t, "mid", snaps[1].ID)
	require.Equal(t, "zeta", snaps[2].ID)
	require.Equal(t, 3, svc.RoomCount())
}

func TestService_ConcurrentJoinEditLeave(t *testing.T) {
	svc, registry, _ := newTestService()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess := NewSession(fmt.Sprintf("conn-%d", i))
			roomID := fmt.Sprintf("room-%d", i%3)
			for j := 0; j < 20; j++ {
				svc.Join(sess, dto.JoinPayload{RoomID: roomID, UserName: fmt.Sprintf("user-%d", i)})
				svc.Edit(sess, dto.CodeChangePayload{RoomID: roomID, Code: fmt.Sprintf("%d-%d", i, j)})
				svc.Typing(sess, dto.TypingPayload{RoomID: roomID, UserName: "u"})
				svc.Leave(sess)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 0, registry.Count())
}
