package devstub

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/hearth-app/hearth-client/pkg/wire"
)

const wsWriteTimeout = 3 * time.Second

// WSHandler upgrades /ws?game=<id> and bridges the connection to its room.
func WSHandler(reg *Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := r.URL.Query().Get("game")
		if gameID == "" {
			http.Error(w, "missing game", http.StatusBadRequest)
			return
		}
		game := r.URL.Query().Get("kind")
		if game == "" {
			game = wire.GameFeud
		}

		room := reg.Ensure(gameID, game)
		if room == nil {
			http.Error(w, "server shutting down", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan wire.ServerEvent, 8)
		clientID := randID(6)
		room.Join(clientID, out)
		defer room.Leave(clientID)

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for ev := range out {
				payload, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, wsWriteTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("client read ended", zap.Error(err))
				}
				return
			}

			var action wire.ClientAction
			if err := json.Unmarshal(data, &action); err != nil {
				payload, _ := json.Marshal(wire.ServerEvent{Type: wire.EvtError, Error: "bad json"})
				_ = conn.Write(r.Context(), websocket.MessageText, payload)
				continue
			}
			room.Apply(clientID, action)
		}
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
