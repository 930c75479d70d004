package fastview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Bound on any single write, data or control.
	writeWait = time.Second
	// How long a writer queues behind another before giving up.
	congestionWait = time.Second
	// Time the page is given to answer a close frame.
	closeGracePeriod = 100 * time.Millisecond
)

// ErrSockCongestion is returned when a write could not get the socket in time.
var ErrSockCongestion = errors.New("sock op failed due to congestion")

// socket guards a websocket connection, which supports one reader and one writer at a
// time. Its single reader is the client's read loop, so only writes are serialized.
type socket struct {
	// A one-slot semaphore rather than a mutex, so that waiting can time out.
	writing chan struct{}
	conn    *websocket.Conn
}

func newSocket(conn *websocket.Conn, readLimit int64) *socket {
	conn.SetReadLimit(readLimit)
	return &socket{
		writing: make(chan struct{}, 1),
		conn:    conn,
	}
}

// ReadJSON blocks for the next message. Only one goroutine may read.
func (sock *socket) ReadJSON(v interface{}) error {
	return sock.conn.ReadJSON(v)
}

// OnPong registers fn to run on each pong. Pongs are only seen while a read is pending.
func (sock *socket) OnPong(fn func()) {
	sock.conn.SetPongHandler(func(string) error {
		fn()
		return nil
	})
}

func (sock *socket) WriteJSON(ctx context.Context, v interface{}) error {
	return sock.write(ctx, func() error {
		if err := sock.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
		if err := sock.conn.WriteJSON(v); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		return nil
	})
}

func (sock *socket) Ping(ctx context.Context) error {
	return sock.write(ctx, func() error {
		if err := sock.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			return fmt.Errorf("ping: %w", err)
		}
		return nil
	})
}

// write runs fn holding the socket's write slot. A cancelled ctx skips fn.
func (sock *socket) write(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return nil
	case sock.writing <- struct{}{}:
		defer func() { <-sock.writing }()
		return fn()
	case <-time.After(congestionWait):
		return ErrSockCongestion
	}
}

// Close says goodbye to the page and closes the connection, which fails any pending read.
func (sock *socket) Close() {
	sock.writing <- struct{}{}
	defer func() { <-sock.writing }()

	_ = sock.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	time.Sleep(closeGracePeriod)
	_ = sock.conn.Close()
}

// isClosure reports whether err is the page closing the socket in an orderly way.
func isClosure(err error) bool {
	return err != nil && websocket.IsCloseError(
		err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived)
}
