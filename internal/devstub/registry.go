// Package devstub is the development stand-in for the Hearth backend: fixed
// REST fixtures plus a minimal websocket game room that acks actions and
// walks phases along a script. It exists so the client can be exercised
// end to end without the production services; it enforces no real rules.
package devstub

import (
	"context"

	"go.uber.org/zap"
)

type registryMsg interface{ isRegistryMsg() }

type ensureRoom struct {
	GameID string
	Game   string
	Reply  chan *Room
}

type getRoom struct {
	GameID string
	Reply  chan *Room
}

type removeRoom struct{ GameID string }

type shutdownRegistry struct{}

func (ensureRoom) isRegistryMsg()       {}
func (getRoom) isRegistryMsg()          {}
func (removeRoom) isRegistryMsg()       {}
func (shutdownRegistry) isRegistryMsg() {}

// Registry owns all live rooms. Single loop, message-driven.
type Registry struct {
	inbox  chan registryMsg
	rooms  map[string]*Room
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewRegistry(parent context.Context, log *zap.Logger) *Registry {
	ctx, cancel := context.WithCancel(parent)
	r := &Registry{
		inbox:  make(chan registryMsg, 64),
		rooms:  make(map[string]*Room),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go r.loop()
	return r
}

func (r *Registry) Inbox() chan<- registryMsg { return r.inbox }

// Ensure returns the room for gameID, creating it on first join.
func (r *Registry) Ensure(gameID, game string) *Room {
	reply := make(chan *Room, 1)
	select {
	case r.inbox <- ensureRoom{GameID: gameID, Game: game, Reply: reply}:
		return <-reply
	case <-r.ctx.Done():
		return nil
	}
}

func (r *Registry) Shutdown() {
	select {
	case r.inbox <- shutdownRegistry{}:
	case <-r.ctx.Done():
	}
}

func (r *Registry) loop() {
	for {
		select {
		case <-r.ctx.Done():
			return

		case m := <-r.inbox:
			switch m := m.(type) {
			case ensureRoom:
				room := r.rooms[m.GameID]
				if room == nil {
					room = NewRoom(r.ctx, m.Game, r.log.With(zap.String("game_id", m.GameID)))
					r.rooms[m.GameID] = room
				}
				m.Reply <- room

			case getRoom:
				m.Reply <- r.rooms[m.GameID] // may be nil

			case removeRoom:
				delete(r.rooms, m.GameID)

			case shutdownRegistry:
				for _, room := range r.rooms {
					room.Inbox() <- roomShutdown{}
				}
				clear(r.rooms)
				r.cancel()
			}
		}
	}
}
