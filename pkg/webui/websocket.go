package webui

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SafeConn wraps a WebSocket connection with a write mutex and panic recovery.
type SafeConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

// NewSafeConn creates a new safe connection wrapper.
func NewSafeConn(conn *websocket.Conn) *SafeConn {
	return &SafeConn{conn: conn}
}

// WriteJSON safely writes JSON to the WebSocket connection.
func (sc *SafeConn) WriteJSON(v interface{}) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()

	if sc.closed {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("WebSocket write panic recovered: %v", r)
			sc.closed = true
		}
	}()

	return sc.conn.WriteJSON(v)
}

// Close closes the underlying connection.
func (sc *SafeConn) Close() error {
	sc.writeMu.Lock()
	sc.closed = true
	sc.writeMu.Unlock()
	return sc.conn.Close()
}

// handleWebSocket mirrors synthesis run events to a connected client.
func (ws *WebServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("WebSocket handler panic: %v", r)
		}
	}()

	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	safeConn := NewSafeConn(conn)
	defer safeConn.Close()

	sessionID := fmt.Sprintf("ws_%d", time.Now().UnixNano())

	ws.connections.Store(conn, &ConnectionInfo{
		SessionID:   sessionID,
		ConnectedAt: time.Now(),
	})
	defer ws.connections.Delete(conn)

	log.Printf("WebSocket client connected: %s", sessionID)

	safeConn.WriteJSON(map[string]interface{}{
		"type": "connection_status",
		"data": map[string]interface{}{"connected": true, "session_id": sessionID},
	})

	eventCh := ws.eventBus.Subscribe(sessionID)
	defer ws.eventBus.Unsubscribe(sessionID)

	ctx := r.Context()

	// Read goroutine keeps the connection alive and answers pings.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("WebSocket read goroutine panic recovered: %v", r)
			}
		}()

		conn.SetReadLimit(512 * 1024)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				conn.SetReadDeadline(time.Now().Add(60 * time.Second))

				var msg map[string]interface{}
				if err := conn.ReadJSON(&msg); err != nil {
					if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) ||
						websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						log.Printf("WebSocket %s closed: %v", sessionID, err)
					} else if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
						if err := safeConn.WriteJSON(map[string]interface{}{
							"type": "ping",
							"data": map[string]interface{}{"timestamp": time.Now().Unix()},
						}); err != nil {
							log.Printf("WebSocket %s ping failed: %v", sessionID, err)
							return
						}
						continue
					} else {
						log.Printf("WebSocket %s read error: %v", sessionID, err)
					}
					return
				}

				ws.handleWebSocketMessage(safeConn, msg)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Printf("WebSocket %s context cancelled", sessionID)
			return

		case event := <-eventCh:
			if err := safeConn.WriteJSON(event); err != nil {
				log.Printf("WebSocket %s write error: %v", sessionID, err)
				return
			}

		case <-readDone:
			return
		}
	}
}

// handleWebSocketMessage processes incoming WebSocket messages.
func (ws *WebServer) handleWebSocketMessage(safeConn *SafeConn, msg map[string]interface{}) {
	msgType, ok := msg["type"].(string)
	if !ok {
		return
	}

	switch msgType {
	case "ping":
		safeConn.WriteJSON(map[string]interface{}{
			"type": "pong",
			"data": map[string]interface{}{"timestamp": time.Now().Unix()},
		})

	case "request_runs":
		safeConn.WriteJSON(map[string]interface{}{
			"type": "runs",
			"data": map[string]interface{}{"runs": ws.runs.list()},
		})
	}
}
