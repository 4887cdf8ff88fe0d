package rpc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/psidex/topoedit/internal/command"
	"github.com/psidex/topoedit/internal/persona"
	"github.com/psidex/topoedit/internal/session"
	"github.com/psidex/topoedit/internal/topology"
)

const DefaultWatchBuffer = 256

type applyRequest struct {
	Session string          `json:"session"`
	Command command.Command `json:"command"`
}

type watchRequest struct {
	Session string `json:"session"`
}

// Snapshot is the first message of a Watch stream.
type Snapshot struct {
	ID    string         `json:"id"`
	Seq   uint64         `json:"seq"`
	State topology.State `json:"state"`
}

type Server struct {
	logger   *slog.Logger
	registry *session.Registry
	catalog  *persona.Catalog
	buffer   int
}

var _ SessionServer = (*Server)(nil)

func NewServer(logger *slog.Logger, registry *session.Registry, catalog *persona.Catalog) *Server {
	return &Server{
		logger:   logger,
		registry: registry,
		catalog:  catalog,
		buffer:   DefaultWatchBuffer,
	}
}

func (s *Server) Apply(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in applyRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode request: %s", err)
	}
	sess, err := s.registry.Get(in.Session)
	if err != nil {
		return nil, toStatus(err)
	}

	res, err := command.Apply(sess.Store, s.catalog, in.Command)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := toStruct(res)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %s", err)
	}
	return out, nil
}

func (s *Server) Watch(req *structpb.Struct, stream grpc.ServerStream) error {
	var in watchRequest
	if err := fromStruct(req, &in); err != nil {
		return status.Errorf(codes.InvalidArgument, "decode request: %s", err)
	}
	sess, err := s.registry.Get(in.Session)
	if err != nil {
		return toStatus(err)
	}

	w := &watcher{changes: make(chan topology.Change, s.buffer), overflow: make(chan struct{}), once: &sync.Once{}}
	unsubscribe := sess.Store.Subscribe(w)
	defer unsubscribe()

	st, seq := sess.Store.SnapshotSeq()
	if err := send(stream, Snapshot{ID: sess.ID, Seq: seq, State: st}); err != nil {
		return err
	}

	logger := s.logger.With("session", sess.ID)
	logger.Debug("gRPC watcher joined")
	defer logger.Debug("gRPC watcher left")

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sess.Done():
			return nil
		case <-w.overflow:
			return status.Error(codes.ResourceExhausted, "watcher fell too far behind")
		case c := <-w.changes:
			if c.Seq <= seq {
				continue
			}
			if err := send(stream, c); err != nil {
				return err
			}
		}
	}
}

func send(stream grpc.ServerStream, v any) error {
	msg, err := toStruct(v)
	if err != nil {
		return status.Errorf(codes.Internal, "encode: %s", err)
	}
	return stream.SendMsg(msg)
}

type watcher struct {
	changes  chan topology.Change
	overflow chan struct{}
	once     *sync.Once
}

func (w *watcher) OnChange(c topology.Change) {
	select {
	case w.changes <- c:
	default:
		w.once.Do(func() { close(w.overflow) })
	}
}

func toStatus(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, topology.ErrNodeNotFound),
		errors.Is(err, persona.ErrUnknownPersona):
		code = codes.NotFound
	case errors.Is(err, topology.ErrNoPendingEdit):
		code = codes.FailedPrecondition
	case errors.Is(err, command.ErrInvalid):
		code = codes.InvalidArgument
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

// UnaryLogger logs every unary call with its duration and status code.
func UnaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Debug("gRPC call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
