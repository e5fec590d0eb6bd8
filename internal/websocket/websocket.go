package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rech03/CES-sub001/internal/session"
)

const writeWait = 10 * time.Second

// errorMessage is the one server→client shape that is not a session event.
type errorMessage struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

// WriteEvent sends a session event over the WebSocket with a write deadline.
func WriteEvent(conn *websocket.Conn, ev session.Event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}

// WriteError sends an error frame over the WebSocket.
func WriteError(conn *websocket.Conn, errMsg string) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(errorMessage{Event: "error", Error: errMsg})
}
