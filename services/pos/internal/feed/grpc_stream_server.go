package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	streamServiceName = "pos.feed.FeedStream"
	subscribeMethod   = "/" + streamServiceName + "/Subscribe"
	snapshotEvent     = "snapshot"
)

// SubscribeRequest narrows the stream to events whose name starts with one of
// Entities ("order", "ticket", "payment", "kitchen"). Empty means everything.
// On the wire it is a google.protobuf.Struct {"entities": [...]}.
type SubscribeRequest struct {
	Entities []string
}

// NewSubscribeRequest builds the wire form of a subscription.
func NewSubscribeRequest(entities ...string) (*structpb.Struct, error) {
	list := make([]any, 0, len(entities))
	for _, e := range entities {
		list = append(list, e)
	}
	return structpb.NewStruct(map[string]any{"entities": list})
}

func subscribeRequestFrom(msg *structpb.Struct) *SubscribeRequest {
	req := &SubscribeRequest{}
	for _, v := range msg.GetFields()["entities"].GetListValue().GetValues() {
		if e := v.GetStringValue(); e != "" {
			req.Entities = append(req.Entities, e)
		}
	}
	return req
}

func (r *SubscribeRequest) wants(event string) bool {
	if len(r.Entities) == 0 || event == snapshotEvent {
		return true
	}
	return slices.ContainsFunc(r.Entities, func(e string) bool {
		return strings.HasPrefix(event, e)
	})
}

// StreamEvent is one decoded message of the stream. On the wire it is a
// google.protobuf.Struct {"event": name, "data": payload}.
type StreamEvent struct {
	Event string
	Data  json.RawMessage
}

func newStreamEvent(name string, data []byte) (*structpb.Struct, error) {
	payload := &structpb.Value{}
	if err := protojson.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("cannot encode %s payload: %w", name, err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"event": structpb.NewStringValue(name),
		"data":  payload,
	}}, nil
}

// DecodeStreamEvent turns a received message back into the event name and its
// JSON payload.
func DecodeStreamEvent(msg *structpb.Struct) (StreamEvent, error) {
	fields := msg.GetFields()
	payload, ok := fields["data"]
	if !ok {
		return StreamEvent{}, errors.New("stream event has no data")
	}
	data, err := protojson.Marshal(payload)
	if err != nil {
		return StreamEvent{}, fmt.Errorf("cannot decode stream event: %w", err)
	}
	return StreamEvent{Event: fields["event"].GetStringValue(), Data: data}, nil
}

// FeedStreamService is the server side of pos.feed.FeedStream.
type FeedStreamService interface {
	Subscribe(req *SubscribeRequest, stream grpc.ServerStream) error
}

var feedStreamDesc = grpc.ServiceDesc{
	ServiceName: streamServiceName,
	HandlerType: (*FeedStreamService)(nil),
	Streams: []grpc.StreamDesc{{
		StreamName:    "Subscribe",
		Handler:       subscribeHandler,
		ServerStreams: true,
	}},
	Metadata: "pos/feed.proto",
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	msg := new(structpb.Struct)
	if err := stream.RecvMsg(msg); err != nil {
		return err
	}
	return srv.(FeedStreamService).Subscribe(subscribeRequestFrom(msg), stream)
}

// StreamServer pushes the same events as /events over a gRPC server stream.
// Each subscriber first receives the current snapshot.
type StreamServer struct {
	view        *View
	hub         *Hub
	logger      apt.Logger
	interceptor grpc.StreamServerInterceptor
}

func NewStreamServer(view *View, hub *Hub, logger apt.Logger) *StreamServer {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &StreamServer{view: view, hub: hub, logger: logger}
}

// Use runs i in front of every Subscribe call. The gRPC server is shared with
// other modules, so the interceptor is applied per service.
func (s *StreamServer) Use(i grpc.StreamServerInterceptor) {
	s.interceptor = i
}

func (s *StreamServer) RegisterGRPCService(server *grpc.Server) {
	desc := feedStreamDesc
	desc.Streams = []grpc.StreamDesc{{
		StreamName:    "Subscribe",
		Handler:       s.handleSubscribe,
		ServerStreams: true,
	}}
	server.RegisterService(&desc, s)
}

func (s *StreamServer) handleSubscribe(srv any, stream grpc.ServerStream) error {
	if s.interceptor == nil {
		return subscribeHandler(srv, stream)
	}
	info := &grpc.StreamServerInfo{FullMethod: subscribeMethod, IsServerStream: true}
	return s.interceptor(srv, stream, info, subscribeHandler)
}

func (s *StreamServer) Subscribe(req *SubscribeRequest, stream grpc.ServerStream) error {
	ctx := stream.Context()
	subscriberID := "grpc-" + uuid.NewString()

	// Subscribe before the snapshot so nothing falls in between.
	messages := s.hub.Subscribe(subscriberID)
	defer s.hub.Unsubscribe(subscriberID)

	s.logger.Info("new feed stream subscriber", "subscriber_id", subscriberID, "entities", req.Entities)

	snapshot, err := json.Marshal(s.view.Snapshot())
	if err != nil {
		return fmt.Errorf("cannot encode snapshot: %w", err)
	}
	first, err := newStreamEvent(snapshotEvent, snapshot)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(first); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("feed stream subscriber disconnected", "subscriber_id", subscriberID)
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if !req.wants(msg.Event) {
				continue
			}
			evt, err := newStreamEvent(msg.Event, msg.Data)
			if err != nil {
				s.logger.Error("dropping feed event", "subscriber_id", subscriberID, "error", err)
				continue
			}
			if err := stream.SendMsg(evt); err != nil {
				return err
			}
		}
	}
}
