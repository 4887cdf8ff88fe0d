package lib

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ThreadSafeWebSocket wraps a websocket.Conn so many goroutines can read and
// write it without tracking access themselves. All writes block each other, and
// similarly for reads.
// See https://pkg.go.dev/github.com/gorilla/websocket?utm_source=godoc#hdr-Concurrency.
type ThreadSafeWebSocket struct {
	c       *websocket.Conn
	writeMu *sync.Mutex
	readMu  *sync.Mutex
	// WriteTimeout bounds every write when non-zero.
	WriteTimeout time.Duration
}

func NewThreadSafeWebSocket(c *websocket.Conn) ThreadSafeWebSocket {
	return ThreadSafeWebSocket{c: c, writeMu: &sync.Mutex{}, readMu: &sync.Mutex{}}
}

func (s ThreadSafeWebSocket) ReadMessage() (int, []byte, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()
	return s.c.ReadMessage()
}

func (s ThreadSafeWebSocket) WriteMessage(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.deadline()
	return s.c.WriteMessage(messageType, data)
}

func (s ThreadSafeWebSocket) WriteJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.deadline()
	return s.c.WriteJSON(v)
}

// WriteClose sends a close frame with code and reason.
func (s ThreadSafeWebSocket) WriteClose(code int, reason string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.c.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second),
	)
}

func (s ThreadSafeWebSocket) Close() error {
	return s.c.Close()
}

func (s ThreadSafeWebSocket) deadline() {
	if s.WriteTimeout > 0 {
		_ = s.c.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}
}
