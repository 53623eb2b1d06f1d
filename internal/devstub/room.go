package devstub

import (
	"context"

	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/pkg/wire"
)

type roomMsg interface{ isRoomMsg() }

type roomJoin struct {
	ClientID string
	Outbox   chan wire.ServerEvent
}

type roomLeave struct{ ClientID string }

type roomAction struct {
	ClientID string
	Action   wire.ClientAction
}

type roomGetState struct {
	Reply chan RoomView
}

type roomShutdown struct{}

func (roomJoin) isRoomMsg()     {}
func (roomLeave) isRoomMsg()    {}
func (roomAction) isRoomMsg()   {}
func (roomGetState) isRoomMsg() {}
func (roomShutdown) isRoomMsg() {}

type RoomView struct {
	State      wire.GameState
	NumClients int
}

// Room hosts one scripted game session: every accepted action is acked to
// its sender and advances the phase script, and the new state is broadcast
// to everyone. Duplicate idempotency keys are acked again but ignored.
type Room struct {
	inbox   chan roomMsg
	state   wire.GameState
	clients map[string]chan wire.ServerEvent
	seen    map[string]bool // idem keys already applied
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewRoom(parent context.Context, game string, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		inbox:   make(chan roomMsg, 64),
		state:   initialState(game),
		clients: make(map[string]chan wire.ServerEvent),
		seen:    make(map[string]bool),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- roomMsg { return r.inbox }

func (r *Room) Join(clientID string, outbox chan wire.ServerEvent) {
	select {
	case r.inbox <- roomJoin{ClientID: clientID, Outbox: outbox}:
	case <-r.ctx.Done():
		close(outbox)
	}
}

func (r *Room) Leave(clientID string) {
	select {
	case r.inbox <- roomLeave{ClientID: clientID}:
	case <-r.ctx.Done():
	}
}

func (r *Room) Apply(clientID string, action wire.ClientAction) {
	select {
	case r.inbox <- roomAction{ClientID: clientID, Action: action}:
	case <-r.ctx.Done():
	}
}

func (r *Room) View() RoomView {
	reply := make(chan RoomView, 1)
	select {
	case r.inbox <- roomGetState{Reply: reply}:
		return <-reply
	case <-r.ctx.Done():
		return RoomView{}
	}
}

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch m := m.(type) {
			case roomJoin:
				r.clients[m.ClientID] = m.Outbox
				// current state immediately so the mirror has something
				r.deliver(m.ClientID, m.Outbox, wire.ServerEvent{Type: wire.EvtUpdate, State: cloneState(r.state)})

			case roomLeave:
				delete(r.clients, m.ClientID)

			case roomAction:
				r.handleAction(m)

			case roomGetState:
				m.Reply <- RoomView{State: r.state, NumClients: len(r.clients)}

			case roomShutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleAction(m roomAction) {
	// ack always goes back to the sender, duplicates included
	if out := r.clients[m.ClientID]; out != nil {
		r.deliver(m.ClientID, out, wire.ServerEvent{Type: wire.EvtAck, AckSeq: m.Action.Seq})
	}
	if m.Action.IdemKey != "" {
		if r.seen[m.Action.IdemKey] {
			return
		}
		r.seen[m.Action.IdemKey] = true
	}

	evType := wire.EvtUpdate
	next, ended := nextPhase(r.state.Game, r.state.Phase)
	if ended {
		r.state.Phase = wire.PhaseEnded
		r.state.Winner = firstTeamID(r.state)
		evType = wire.EvtEnded
	} else {
		if next == wire.PhaseRoundResult {
			evType = wire.EvtRoundEnd
		}
		if r.state.Phase == wire.PhaseRoundResult {
			r.state.Round++
			evType = wire.EvtRoundStart
		}
		r.state.Phase = next
	}
	r.broadcast(wire.ServerEvent{Type: evType, State: cloneState(r.state)})
}

func (r *Room) broadcast(ev wire.ServerEvent) {
	for id, ch := range r.clients {
		r.deliver(id, ch, ev)
	}
}

func (r *Room) deliver(id string, ch chan wire.ServerEvent, ev wire.ServerEvent) {
	select {
	case ch <- ev:
	default:
		// slow or gone, drop the client
		close(ch)
		delete(r.clients, id)
	}
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}

func cloneState(s wire.GameState) *wire.GameState {
	c := s
	return &c
}

func firstTeamID(s wire.GameState) string {
	if len(s.Teams) > 0 {
		return s.Teams[0].ID
	}
	return ""
}
