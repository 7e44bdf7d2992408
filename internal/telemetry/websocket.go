package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielpatrickdp/tau-anchor/internal/engine"
)

// #region websocket-sink

// WebSocketSink streams records as JSON text frames to a WebSocket endpoint.
type WebSocketSink struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// DialWebSocket connects to url (ws:// or wss://).
func DialWebSocket(ctx context.Context, url string) (*WebSocketSink, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	return &WebSocketSink{conn: conn, writeTimeout: 2 * time.Second}, nil
}

// Send writes one record frame.
func (s *WebSocketSink) Send(_ context.Context, rec engine.Record) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return fmt.Errorf("websocket deadline: %w", err)
	}
	if err := s.conn.WriteJSON(FromStep(rec)); err != nil {
		return fmt.Errorf("websocket send: %w", err)
	}
	return nil
}

// Close sends a normal-closure frame and closes the connection.
func (s *WebSocketSink) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.conn.Close()
}

// #endregion websocket-sink
