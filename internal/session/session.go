// Package session mirrors one joined game session. A single goroutine owns
// the mirrored state and consumes an inbox of typed messages; a reader
// goroutine turns socket frames into inbox messages and a writer goroutine
// drains outbound actions. The server is authoritative for every rule: the
// mirror renders whatever phase arrives and never computes a transition.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/pkg/wire"
)

var ErrClosed = errors.New("session closed")

const (
	writeTimeout = 3 * time.Second
	outboxSize   = 16
	subBuffer    = 8
)

type msg interface{ isSessionMsg() }

type fromServer struct{ ev wire.ServerEvent }

type emit struct {
	actionType string
	payload    json.RawMessage
}

type join struct {
	id     int
	outbox chan Snapshot
}

type leave struct{ id int }

type getView struct{ reply chan View }

func (fromServer) isSessionMsg() {}
func (emit) isSessionMsg()       {}
func (join) isSessionMsg()       {}
func (leave) isSessionMsg()      {}
func (getView) isSessionMsg()    {}

// Snapshot is what subscribers receive after every merged event.
type Snapshot struct {
	Version int
	State   wire.GameState
}

// View reflects internal state for callers and tests.
type View struct {
	Version int
	State   wire.GameState
	Pending int
	LastErr string
}

type Session struct {
	conn   *websocket.Conn
	inbox  chan msg
	outbox chan wire.ClientAction
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// loop-owned, never touched outside it
	state   wire.GameState
	version int
	seq     int64
	pending map[int64]wire.ClientAction
	lastErr string
	subs    map[int]chan Snapshot

	subSeq int64 // atomic, allocated outside the loop
}

// Dial joins the game session behind url, authenticating with token.
func Dial(ctx context.Context, url, token string, log *zap.Logger) (*Session, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		conn:    conn,
		inbox:   make(chan msg, 64),
		outbox:  make(chan wire.ClientAction, outboxSize),
		log:     log,
		ctx:     sctx,
		cancel:  cancel,
		pending: make(map[int64]wire.ClientAction),
		subs:    make(map[int]chan Snapshot),
	}
	go s.loop()
	go s.readLoop()
	go s.writeLoop()
	return s, nil
}

// Close leaves the session. Events still in flight are discarded.
func (s *Session) Close() {
	s.cancel()
	_ = s.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Send emits a named action, fire-and-forget. The envelope carries a fresh
// idempotency key and sequence number; an ack later clears it from the
// pending set. There are no retries.
func (s *Session) Send(actionType string, payload any) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = data
	}
	select {
	case s.inbox <- emit{actionType: actionType, payload: raw}:
		return nil
	case <-s.ctx.Done():
		return ErrClosed
	}
}

// Subscribe registers for snapshots. Slow subscribers are dropped the same
// way a lobby drops slow clients.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	out := make(chan Snapshot, subBuffer)
	id := int(atomic.AddInt64(&s.subSeq, 1))
	if s.ctx.Err() != nil {
		close(out)
		return out, func() {}
	}
	select {
	case s.inbox <- join{id: id, outbox: out}:
	case <-s.ctx.Done():
		close(out)
	}
	return out, func() {
		select {
		case s.inbox <- leave{id: id}:
		case <-s.ctx.Done():
		}
	}
}

// State returns the current mirrored view.
func (s *Session) State() View {
	if s.ctx.Err() != nil {
		return View{LastErr: ErrClosed.Error()}
	}
	reply := make(chan View, 1)
	select {
	case s.inbox <- getView{reply: reply}:
	case <-s.ctx.Done():
		return View{LastErr: ErrClosed.Error()}
	}
	select {
	case v := <-reply:
		return v
	case <-s.ctx.Done():
		return View{LastErr: ErrClosed.Error()}
	}
}

// Done is closed when the session has shut down.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch m := m.(type) {
			case fromServer:
				s.handleEvent(m.ev)

			case emit:
				s.seq++
				action := wire.ClientAction{
					Type:    m.actionType,
					Seq:     s.seq,
					IdemKey: uuid.NewString(),
					Payload: m.payload,
				}
				s.pending[action.Seq] = action
				select {
				case s.outbox <- action:
				default:
					// outbox full: fire-and-forget means we drop, not block
					delete(s.pending, action.Seq)
					s.log.Warn("dropping action, outbox full", zap.String("type", action.Type))
				}

			case join:
				s.subs[m.id] = m.outbox
				m.outbox <- Snapshot{Version: s.version, State: s.state}

			case leave:
				delete(s.subs, m.id)

			case getView:
				m.reply <- View{
					Version: s.version,
					State:   s.state,
					Pending: len(s.pending),
					LastErr: s.lastErr,
				}
			}
		}
	}
}

func (s *Session) handleEvent(ev wire.ServerEvent) {
	switch ev.Type {
	case wire.EvtAck:
		delete(s.pending, ev.AckSeq)
		return

	case wire.EvtError:
		s.lastErr = ev.Error
		s.version++
		s.broadcast()
		return

	case wire.EvtUpdate, wire.EvtRoundStart, wire.EvtRoundEnd, wire.EvtEnded:
		if ev.State != nil {
			s.state.Merge(*ev.State)
		}
		if ev.Type == wire.EvtEnded && s.state.Phase == "" {
			s.state.Phase = wire.PhaseEnded
		}
		s.version++
		s.broadcast()

	default:
		s.log.Debug("ignoring unknown event", zap.String("type", ev.Type))
	}
}

func (s *Session) broadcast() {
	snap := Snapshot{Version: s.version, State: s.state}
	for id, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			close(ch)
			delete(s.subs, id)
		}
	}
}

func (s *Session) shutdown() {
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

func (s *Session) readLoop() {
	defer s.cancel()
	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if s.ctx.Err() == nil {
					s.log.Warn("socket read failed", zap.Error(err))
				}
			}
			return
		}

		var ev wire.ServerEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			s.log.Warn("dropping bad frame", zap.Error(err))
			continue
		}

		// once the session is done, late events are discarded
		select {
		case s.inbox <- fromServer{ev: ev}:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case action := <-s.outbox:
			payload, err := json.Marshal(action)
			if err != nil {
				continue
			}
			ctx, cancel := context.WithTimeout(s.ctx, writeTimeout)
			err = s.conn.Write(ctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				if s.ctx.Err() == nil {
					s.log.Warn("socket write failed", zap.Error(err))
				}
				return
			}
		}
	}
}
