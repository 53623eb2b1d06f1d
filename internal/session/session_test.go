package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/pkg/wire"
)

// gameServer is a scripted websocket peer: it hands inbound actions to the
// test and lets the test push events back.
type gameServer struct {
	srv     *httptest.Server
	actions chan wire.ClientAction
	events  chan wire.ServerEvent
}

func newGameServer(t *testing.T) *gameServer {
	t.Helper()
	gs := &gameServer{
		actions: make(chan wire.ClientAction, 16),
		events:  make(chan wire.ServerEvent, 16),
	}
	gs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctx := r.Context()
		go func() {
			for {
				_, data, err := conn.Read(ctx)
				if err != nil {
					return
				}
				var action wire.ClientAction
				if json.Unmarshal(data, &action) == nil {
					gs.actions <- action
				}
			}
		}()
		for ev := range gs.events {
			payload, _ := json.Marshal(ev)
			if conn.Write(ctx, websocket.MessageText, payload) != nil {
				return
			}
		}
	}))
	t.Cleanup(func() {
		close(gs.events) // lets the handler return so Close does not hang
		gs.srv.Close()
	})
	return gs
}

func (gs *gameServer) url() string {
	return "ws" + strings.TrimPrefix(gs.srv.URL, "http")
}

func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("snapshot channel closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvAction(t *testing.T, ch <-chan wire.ClientAction, within time.Duration) wire.ClientAction {
	t.Helper()
	select {
	case action := <-ch:
		return action
	case <-time.After(within):
		t.Fatalf("timed out waiting for action")
		return wire.ClientAction{} // unreachable
	}
}

func dialTest(t *testing.T, gs *gameServer) *Session {
	t.Helper()
	s, err := Dial(context.Background(), gs.url(), "test-token", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestEventsMergeIntoMirror(t *testing.T) {
	gs := newGameServer(t)
	s := dialTest(t, gs)

	ch, cancel := s.Subscribe()
	defer cancel()
	first := recvSnapshot(t, ch, time.Second) // initial empty state on join
	assert.Equal(t, 0, first.Version)

	gs.events <- wire.ServerEvent{Type: wire.EvtUpdate, State: &wire.GameState{
		Game: wire.GameFeud, Phase: wire.PhaseFaceoff, Round: 1,
		Teams: []wire.Team{{ID: "team-a"}, {ID: "team-b"}},
	}}
	snap := recvSnapshot(t, ch, time.Second)
	assert.Equal(t, wire.PhaseFaceoff, snap.State.Phase)
	assert.Len(t, snap.State.Teams, 2)

	// a partial update must not clobber unset groups
	gs.events <- wire.ServerEvent{Type: wire.EvtUpdate, State: &wire.GameState{Phase: wire.PhasePlay}}
	snap = recvSnapshot(t, ch, time.Second)
	assert.Equal(t, wire.PhasePlay, snap.State.Phase)
	assert.Len(t, snap.State.Teams, 2)
	assert.Greater(t, snap.Version, first.Version)
}

func TestSendStampsSeqAndIdemKey(t *testing.T) {
	gs := newGameServer(t)
	s := dialTest(t, gs)

	require.NoError(t, s.Send("buzz", map[string]string{"team": "team-a"}))
	require.NoError(t, s.Send("buzz", nil))

	first := recvAction(t, gs.actions, time.Second)
	second := recvAction(t, gs.actions, time.Second)

	assert.Equal(t, "buzz", first.Type)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.NotEmpty(t, first.IdemKey)
	assert.NotEqual(t, first.IdemKey, second.IdemKey)
}

func TestAckClearsPendingAction(t *testing.T) {
	gs := newGameServer(t)
	s := dialTest(t, gs)

	require.NoError(t, s.Send("submit_answer", map[string]string{"text": "pizza"}))
	action := recvAction(t, gs.actions, time.Second)

	require.Eventually(t, func() bool { return s.State().Pending == 1 },
		time.Second, 10*time.Millisecond)

	gs.events <- wire.ServerEvent{Type: wire.EvtAck, AckSeq: action.Seq}

	require.Eventually(t, func() bool { return s.State().Pending == 0 },
		time.Second, 10*time.Millisecond)
}

func TestGameErrorStoredNotFatal(t *testing.T) {
	gs := newGameServer(t)
	s := dialTest(t, gs)

	ch, cancel := s.Subscribe()
	defer cancel()
	recvSnapshot(t, ch, time.Second)

	gs.events <- wire.ServerEvent{Type: wire.EvtError, Error: "not your turn"}
	recvSnapshot(t, ch, time.Second)

	view := s.State()
	assert.Equal(t, "not your turn", view.LastErr)

	// the session keeps working afterwards
	gs.events <- wire.ServerEvent{Type: wire.EvtUpdate, State: &wire.GameState{Phase: wire.PhaseSteal}}
	snap := recvSnapshot(t, ch, time.Second)
	assert.Equal(t, wire.PhaseSteal, snap.State.Phase)
}

func TestEndedEventSetsPhase(t *testing.T) {
	gs := newGameServer(t)
	s := dialTest(t, gs)

	ch, cancel := s.Subscribe()
	defer cancel()
	recvSnapshot(t, ch, time.Second)

	gs.events <- wire.ServerEvent{Type: wire.EvtEnded, State: &wire.GameState{Winner: "team-b"}}
	snap := recvSnapshot(t, ch, time.Second)
	assert.Equal(t, wire.PhaseEnded, snap.State.Phase)
	assert.Equal(t, "team-b", snap.State.Winner)
}

func TestCloseDiscardsLateEvents(t *testing.T) {
	gs := newGameServer(t)
	s := dialTest(t, gs)

	ch, cancel := s.Subscribe()
	defer cancel()
	recvSnapshot(t, ch, time.Second)

	s.Close()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not shut down")
	}

	// calls after close fail cleanly instead of blocking
	assert.ErrorIs(t, s.Send("buzz", nil), ErrClosed)
	view := s.State()
	assert.Equal(t, ErrClosed.Error(), view.LastErr)

	// subscriber channel is closed, not left dangling
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed")
	}
}

func TestCountdownTicksDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deadline := time.Now().Add(2 * time.Second).UnixMilli()
	ch := Countdown(ctx, deadline)

	select {
	case remaining := <-ch:
		assert.InDelta(t, 2, remaining, 1)
	case <-time.After(time.Second):
		t.Fatal("no tick")
	}
}

func TestCountdownPastDeadlineEmitsZeroAndCloses(t *testing.T) {
	ch := Countdown(context.Background(), time.Now().Add(-time.Second).UnixMilli())

	select {
	case remaining := <-ch:
		assert.Equal(t, 0, remaining)
	case <-time.After(time.Second):
		t.Fatal("no tick")
	}
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
}
