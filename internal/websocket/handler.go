package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades connections and runs them as Hub clients. Each
// new client first receives the messages returned by snapshot, if set.
func HandleWebSocket(hub *Hub, logger *slog.Logger, snapshot func() []Message) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // origin checks are left to CORS
		})
		if err != nil {
			logger.Error("websocket accept", "error", err)
			return
		}

		var greeting [][]byte
		if snapshot != nil {
			for _, msg := range snapshot() {
				data, err := json.Marshal(msg)
				if err != nil {
					logger.Error("marshal snapshot", "type", msg.Type, "error", err)
					continue
				}
				greeting = append(greeting, data)
			}
		}

		client := NewClient(hub, conn)
		client.Run(r.Context(), greeting...)
	}
}
