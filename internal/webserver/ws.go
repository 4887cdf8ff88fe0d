package webserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/psidex/topoedit/internal/command"
	"github.com/psidex/topoedit/internal/graphs/graphology"
	"github.com/psidex/topoedit/internal/lib"
	"github.com/psidex/topoedit/internal/session"
	"github.com/psidex/topoedit/internal/topology"
)

// Frame types the server sends. Graphology sessions get graphology messages
// instead of change frames.
const (
	FrameSession = "session"
	FrameChange  = "change"
	FrameResult  = "result"
	FrameError   = "error"
)

type Frame struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Code  int    `json:"code,omitempty"`
}

type sessionFrame struct {
	ID    string         `json:"id"`
	Seq   uint64         `json:"seq"`
	State topology.State `json:"state"`
}

var errClientTooSlow = errors.New("client too slow")

// serveWs runs one websocket client. The first
// message must be a SessionConfig. With ?session=<id> the client joins that
// session, otherwise a new one is made from the config. Every following
// message is a command.Command; results and failures are answered on the same
// socket, and every change to the session is pushed to every client on it.
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade", "err", err)
		return
	}
	ws := lib.NewThreadSafeWebSocket(c)
	ws.WriteTimeout = s.writeTimeout
	defer ws.Close()

	_, msg, err := ws.ReadMessage()
	if err != nil {
		s.logger.Debug("ws cfg read", "err", err)
		return
	}

	cfg := SessionConfig{}
	if err := json.Unmarshal(msg, &cfg); err != nil {
		s.closeWithError(ws, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	var sess *session.Session
	if id := r.URL.Query().Get("session"); id != "" {
		sess, err = s.registry.Get(id)
	} else {
		sess, err = s.newSession(cfg)
	}
	if err != nil {
		s.closeWithError(ws, err)
		return
	}

	logger := s.logger.With("session", sess.ID, "remote", r.RemoteAddr)
	logger.Info("ws client joined")
	if s.metrics != nil {
		s.metrics.ClientJoined()
		defer s.metrics.ClientLeft()
	}

	cl := &client{
		ws:       ws,
		changes:  make(chan topology.Change, s.clientBuffer),
		overflow: make(chan struct{}),
		once:     &sync.Once{},
	}
	unsubscribe := sess.Store.Subscribe(cl)
	defer unsubscribe()

	readerDone := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		err := cl.writeLoop(sess, cfg, readerDone)
		if err != nil {
			logger.Info("ws client dropped", "reason", err)
		}
		// Unblocks the reader below.
		_ = ws.Close()
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			break
		}
		// Keeps the session from being reaped while it is in use.
		if _, err := s.registry.Get(sess.ID); err != nil {
			break
		}
		var cmd command.Command
		if err := json.Unmarshal(msg, &cmd); err != nil {
			_ = ws.WriteJSON(errorFrame(fmt.Errorf("%w: %w", command.ErrInvalid, err)))
			continue
		}
		res, err := command.Apply(sess.Store, s.catalog, cmd)
		if err != nil {
			_ = ws.WriteJSON(errorFrame(err))
			continue
		}
		// createDefaultNode changes nothing so is answered directly.
		if res.Change == nil {
			_ = ws.WriteJSON(Frame{Type: FrameResult, Data: res})
		}
	}

	close(readerDone)
	<-writerDone
	logger.Info("ws client left")
}

func errorFrame(err error) Frame {
	return Frame{Type: FrameError, Error: err.Error(), Code: statusFor(err)}
}

func (s *Server) closeWithError(ws lib.ThreadSafeWebSocket, err error) {
	_ = ws.WriteJSON(errorFrame(err))
	_ = ws.WriteClose(websocket.ClosePolicyViolation, "session unavailable")
}

// client is a topology.Listener feeding one socket. OnChange never blocks the
// store, a client that falls behind by a full buffer is dropped.
type client struct {
	ws       lib.ThreadSafeWebSocket
	changes  chan topology.Change
	overflow chan struct{}
	once     *sync.Once
}

func (c *client) OnChange(ch topology.Change) {
	select {
	case c.changes <- ch:
	default:
		c.once.Do(func() { close(c.overflow) })
	}
}

func (c *client) writeLoop(sess *session.Session, cfg SessionConfig, readerDone <-chan struct{}) error {
	st, seq := sess.Store.SnapshotSeq()
	if err := c.ws.WriteJSON(Frame{Type: FrameSession, Data: sessionFrame{ID: sess.ID, Seq: seq, State: st}}); err != nil {
		return err
	}

	send := func(ch topology.Change) error {
		return c.ws.WriteJSON(Frame{Type: FrameChange, Data: ch})
	}
	if cfg.Format == "graphology" {
		var sendErr error
		stream := graphology.NewStream(st, func(m graphology.Message) {
			if sendErr == nil {
				sendErr = c.ws.WriteJSON(m)
			}
		})
		send = func(ch topology.Change) error {
			stream.OnChange(ch)
			return sendErr
		}
	}

	var expired <-chan time.Time
	if cfg.Runtime.Duration > 0 {
		timer := time.NewTimer(cfg.Runtime.Duration)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		select {
		case ch := <-c.changes:
			// Already part of the session frame.
			if ch.Seq <= seq {
				continue
			}
			if err := send(ch); err != nil {
				return err
			}
		case <-c.overflow:
			_ = c.ws.WriteClose(websocket.CloseTryAgainLater, errClientTooSlow.Error())
			return errClientTooSlow
		case <-sess.Done():
			_ = c.ws.WriteClose(websocket.CloseGoingAway, "session closed")
			return errors.New("session closed")
		case <-expired:
			_ = c.ws.WriteClose(websocket.CloseNormalClosure, "runtime elapsed")
			return nil
		case <-readerDone:
			return nil
		}
	}
}
