package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/danielpatrickdp/tau-anchor/internal/engine"
)

// #region udp-sink

// UDPSink sends one JSON datagram per record.
type UDPSink struct {
	conn    net.Conn
	timeout time.Duration
}

// NewUDPSink connects a UDP socket to target (already validated with
// ParseUDPTarget).
func NewUDPSink(target string) (*UDPSink, error) {
	conn, err := net.Dial("udp", target)
	if err != nil {
		return nil, fmt.Errorf("udp dial %s: %w", target, err)
	}
	return &UDPSink{conn: conn, timeout: time.Second}, nil
}

// Send writes the record as a single datagram.
func (s *UDPSink) Send(ctx context.Context, rec engine.Record) error {
	data, err := json.Marshal(FromStep(rec))
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("udp deadline: %w", err)
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("udp send: %w", err)
	}
	return nil
}

// Close closes the socket.
func (s *UDPSink) Close() error {
	return s.conn.Close()
}

// #endregion udp-sink
