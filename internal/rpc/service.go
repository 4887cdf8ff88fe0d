// Package rpc exposes editing sessions to tooling over gRPC. Messages are
// google.protobuf.Struct documents holding the same JSON the websocket
// speaks, so the service needs no generated code.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName   = "topoedit.Session"
	applyMethod   = "/" + ServiceName + "/Apply"
	watchMethod   = "/" + ServiceName + "/Watch"
	watchStreamID = 0
)

// SessionServer is the server API of topoedit.Session.
type SessionServer interface {
	// Apply runs {"session": id, "command": {...}} and returns the
	// command.Result.
	Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// Watch streams a snapshot of {"session": id} followed by every change,
	// until the client goes away or the session ends.
	Watch(req *structpb.Struct, stream grpc.ServerStream) error
}

// ServiceDesc is what protoc-gen-go-grpc would generate for topoedit.Session.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Apply", Handler: applyHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "topoedit/session.proto",
}

func RegisterSessionServer(s grpc.ServiceRegistrar, srv SessionServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func applyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServer).Apply(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: applyMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServer).Apply(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SessionServer).Watch(in, stream)
}
