package fastview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const (
	// Largest message accepted from the page.
	maxMessageSize = 8192

	heartbeat = 200 * time.Millisecond
	// Silence after which the page is considered gone: four lost heartbeats.
	silenceLimit = 4 * heartbeat
)

var upgrader = websocket.Upgrader{}

var (
	// ErrPongDeadlineExceeded is returned when the page stops answering pings.
	ErrPongDeadlineExceeded error = errors.New("client disconnect, pong deadline exceeded")
	// errClosed signals an orderly close by the page.
	errClosed = errors.New("client closed the websocket")
)

// A client syncs a single web page with the server over a websocket. Updates are
// published to the page as JSON, and messages posted by the page (button clicks, key
// strokes) are decoded as In values and passed to the inputs channel.
type client[T any, In any] struct {
	updates <-chan T
	inputs  chan<- In
	sock    *socket
	rootCtx context.Context
}

// NewClient upgrades the request to a websocket and returns a client publishing updates
// to it and forwarding the page's messages to inputs. Each update should fully specify
// the parts of the page it touches, so that a page missing older ones is still correct.
func NewClient[T any, In any](
	updates <-chan T,
	inputs chan<- In,
	w http.ResponseWriter,
	r *http.Request,
) (*client[T, In], error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied to the client.
		return nil, err
	}

	return &client[T, In]{
		updates: updates,
		inputs:  inputs,
		sock:    newSocket(conn, maxMessageSize),
		rootCtx: r.Context(),
	}, nil
}

// Sync reads, publishes and checks liveness until the page disconnects, the request
// context ends, or one of them fails; the socket is closed on return. A disconnect is
// not an error.
func (cli *client[T, In]) Sync() error {
	group, groupCtx := errgroup.WithContext(cli.rootCtx)

	// Closing is the only way to release the read loop.
	go func() {
		<-groupCtx.Done()
		cli.sock.Close()
	}()

	group.Go(func() error {
		return cli.readMessages(groupCtx)
	})
	group.Go(func() error {
		return cli.keepAlive(groupCtx)
	})
	group.Go(func() error {
		return cli.publish(groupCtx)
	})

	err := group.Wait()
	if errors.Is(err, errClosed) || cli.rootCtx.Err() != nil {
		return nil
	}
	return err
}

// keepAlive pings the page every heartbeat and fails once it has been silent too long.
func (cli *client[T, In]) keepAlive(ctx context.Context) error {
	pongs := make(chan struct{}, 1)
	cli.sock.OnPong(func() {
		select {
		case pongs <- struct{}{}:
		default:
		}
	})

	heard := time.Now()
	beats := channerics.NewTicker(ctx.Done(), heartbeat)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pongs:
			heard = time.Now()
		case <-beats:
			if time.Since(heard) > silenceLimit {
				return ErrPongDeadlineExceeded
			}
			if err := cli.sock.Ping(ctx); err != nil {
				return err
			}
		}
	}
}

// readMessages decodes the page's messages into inputs. A malformed message is skipped;
// any other read error is permanent.
func (cli *client[T, In]) readMessages(ctx context.Context) error {
	for {
		var msg In
		err := cli.sock.ReadJSON(&msg)

		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case isClosure(err):
			return errClosed
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			continue
		case err != nil && ctx.Err() != nil:
			// The read was failed by Sync closing the socket.
			return nil
		case err != nil:
			return fmt.Errorf("read: %w", err)
		}

		select {
		case cli.inputs <- msg:
		case <-ctx.Done():
			return nil
		}
	}
}

// publish writes every update to the page, in order. Coalescing is up to the producer,
// which knows which updates supersede others.
func (cli *client[T, In]) publish(ctx context.Context) error {
	for update := range channerics.OrDone(ctx.Done(), cli.updates) {
		if err := cli.sock.WriteJSON(ctx, update); err != nil {
			return err
		}
	}
	return nil
}
