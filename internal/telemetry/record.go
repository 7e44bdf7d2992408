package telemetry

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/danielpatrickdp/tau-anchor/internal/engine"
)

// #region record

// Record is the wire form of one step. It is the only contract between the
// core and any transport.
type Record struct {
	T        float64 `json:"t"` // wall clock, seconds since the Unix epoch
	Step     uint64  `json:"step"`
	Anchor   string  `json:"anchor"`
	Harmonic float64 `json:"harmonic"`
}

// FromStep projects an engine record onto the wire form.
func FromStep(rec engine.Record) Record {
	var t float64
	if !rec.Timestamp.IsZero() {
		t = float64(rec.Timestamp.Unix()) + float64(rec.Timestamp.Nanosecond())/1e9
	}
	return Record{
		T:        t,
		Step:     rec.Step,
		Anchor:   rec.Anchor.String(),
		Harmonic: rec.Harmonic,
	}
}

// #endregion record

// #region sink

// Sink delivers records somewhere outside the process. Sinks are only ever
// called from the dispatcher goroutine.
type Sink interface {
	Send(ctx context.Context, rec engine.Record) error
	Close() error
}

// #endregion sink

// #region udp-target

// ParseUDPTarget validates a host:port telemetry target.
func ParseUDPTarget(target string) (string, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return "", fmt.Errorf("udp target %q must be host:port, e.g. 127.0.0.1:9999: %w", target, err)
	}
	if host == "" {
		return "", fmt.Errorf("udp target %q: empty host", target)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("udp target %q: port must be 1-65535", target)
	}
	return net.JoinHostPort(host, portStr), nil
}

// #endregion udp-target
