package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// Handle upgrades the request to a WebSocket and runs it as a hub
// client. onConnect, when non-nil, supplies messages sent to the new
// client before it joins the broadcast set, so a freshly opened UI
// starts from the current state instead of waiting for the next event.
func Handle(hub *Hub, logger *slog.Logger, onConnect func() []Message) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // front-end demo, any origin may connect
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		if onConnect != nil {
			for _, msg := range onConnect() {
				data, err := json.Marshal(msg)
				if err != nil {
					logger.Error("marshal initial state", "type", msg.Type, "error", err)
					continue
				}
				if err := conn.Write(r.Context(), ws.MessageText, data); err != nil {
					conn.Close(ws.StatusInternalError, "initial state write failed")
					return
				}
			}
		}

		client := NewClient(hub, conn)
		client.Run(r.Context())
	}
}
