package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/tau-anchor/internal/engine"
)

// #region service-desc

const (
	serviceName     = "tauanchor.telemetry.v1.Telemetry"
	subscribeMethod = "/" + serviceName + "/Subscribe"
)

// telemetryHandler is the server-side contract of the Telemetry service.
type telemetryHandler interface {
	subscribe(req *emptypb.Empty, stream grpc.ServerStream) error
}

// telemetryServiceDesc describes a single server-streaming RPC:
// Subscribe(google.protobuf.Empty) returns (stream google.protobuf.Struct).
var telemetryServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*telemetryHandler)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "tauanchor/telemetry/v1/telemetry.proto",
}

func subscribeHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(telemetryHandler).subscribe(in, stream)
}

// #endregion service-desc

// #region stream-server

// StreamServer fans records out to every connected Subscribe stream. Each
// subscriber has its own bounded buffer; a slow subscriber loses records
// rather than holding up the others.
type StreamServer struct {
	server  *grpc.Server
	buffer  int
	mu      sync.Mutex
	subs    map[chan *structpb.Struct]struct{}
	dropped atomic.Uint64
}

// NewStreamServer creates the gRPC server with the Telemetry service registered.
func NewStreamServer(buffer int, opts ...grpc.ServerOption) *StreamServer {
	if buffer < 1 {
		buffer = 1
	}
	s := &StreamServer{
		server: grpc.NewServer(opts...),
		buffer: buffer,
		subs:   make(map[chan *structpb.Struct]struct{}),
	}
	s.server.RegisterService(&telemetryServiceDesc, s)
	return s
}

// Serve blocks accepting connections on lis.
func (s *StreamServer) Serve(lis net.Listener) error {
	if err := s.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Send implements Sink by publishing to all current subscribers.
func (s *StreamServer) Send(_ context.Context, rec engine.Record) error {
	msg, err := toStruct(FromStep(rec))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- msg:
		default:
			s.dropped.Add(1)
		}
	}
	return nil
}

// Subscribers reports the number of connected streams.
func (s *StreamServer) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Dropped counts records discarded for slow subscribers.
func (s *StreamServer) Dropped() uint64 { return s.dropped.Load() }

// Close stops the server and ends every open stream.
func (s *StreamServer) Close() error {
	s.server.Stop()
	return nil
}

func (s *StreamServer) subscribe(_ *emptypb.Empty, stream grpc.ServerStream) error {
	ch := make(chan *structpb.Struct, s.buffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}()

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case msg := <-ch:
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

// #endregion stream-server

// #region subscribe-client

// Subscribe opens a Telemetry stream on conn and calls fn for every record
// until the stream ends, ctx is cancelled, or fn returns an error.
func Subscribe(ctx context.Context, conn grpc.ClientConnInterface, fn func(Record) error) error {
	stream, err := conn.NewStream(ctx, &telemetryServiceDesc.Streams[0], subscribeMethod)
	if err != nil {
		return fmt.Errorf("open subscribe stream: %w", err)
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return fmt.Errorf("send subscribe request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return fmt.Errorf("close send: %w", err)
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("receive record: %w", err)
		}
		if err := fn(fromStruct(msg)); err != nil {
			return err
		}
	}
}

// #endregion subscribe-client

// #region struct-codec

func toStruct(r Record) (*structpb.Struct, error) {
	msg, err := structpb.NewStruct(map[string]interface{}{
		"t":        r.T,
		"step":     r.Step,
		"anchor":   r.Anchor,
		"harmonic": r.Harmonic,
	})
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return msg, nil
}

func fromStruct(msg *structpb.Struct) Record {
	f := msg.GetFields()
	return Record{
		T:        f["t"].GetNumberValue(),
		Step:     uint64(f["step"].GetNumberValue()),
		Anchor:   f["anchor"].GetStringValue(),
		Harmonic: f["harmonic"].GetNumberValue(),
	}
}

// #endregion struct-codec
