package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/psidex/topoedit/internal/command"
	"github.com/psidex/topoedit/internal/topology"
)

// Client calls topoedit.Session over conn.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Apply(ctx context.Context, sessionID string, cmd command.Command, opts ...grpc.CallOption) (command.Result, error) {
	in, err := toStruct(applyRequest{Session: sessionID, Command: cmd})
	if err != nil {
		return command.Result{}, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, applyMethod, in, out, opts...); err != nil {
		return command.Result{}, err
	}
	var res command.Result
	err = fromStruct(out, &res)
	return res, err
}

// Watcher receives the changes of one session.
type Watcher struct {
	stream grpc.ClientStream
}

// Watch subscribes to sessionID and returns its current state. Cancel ctx to
// stop watching.
func (c *Client) Watch(ctx context.Context, sessionID string, opts ...grpc.CallOption) (Snapshot, *Watcher, error) {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[watchStreamID], watchMethod, opts...)
	if err != nil {
		return Snapshot{}, nil, err
	}
	in, err := toStruct(watchRequest{Session: sessionID})
	if err != nil {
		return Snapshot{}, nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return Snapshot{}, nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return Snapshot{}, nil, err
	}

	var snap Snapshot
	if err := recv(stream, &snap); err != nil {
		return Snapshot{}, nil, err
	}
	return snap, &Watcher{stream: stream}, nil
}

// Recv blocks for the next change. It returns io.EOF once the session ends.
func (w *Watcher) Recv() (topology.Change, error) {
	var c topology.Change
	err := recv(w.stream, &c)
	return c, err
}

func recv(stream grpc.ClientStream, v any) error {
	msg := new(structpb.Struct)
	if err := stream.RecvMsg(msg); err != nil {
		return err
	}
	return fromStruct(msg, v)
}
