package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"image"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"gridplayer/export"
	"gridplayer/models"
	"gridplayer/player"
	"gridplayer/server/cell_views"
	"gridplayer/server/fastview"
	"gridplayer/server/root_view"

	"github.com/gorilla/mux"
	channerics "github.com/niceyeti/channerics/channels"
)

const (
	// Input messages awaiting the player.
	inputBacklog    = 16
	shutdownTimeout = 5 * time.Second
)

// ErrUnknownInput is returned for input messages of no known event kind.
var ErrUnknownInput error = errors.New("unknown input kind")

// inputMessage is what the page posts over the websocket: the event kind by name,
// plus the key for key presses or the value for slider changes.
type inputMessage struct {
	Kind  string `json:"kind"`
	Key   string `json:"key,omitempty"`
	Value int    `json:"value,omitempty"`
}

func (msg inputMessage) toEvent() (player.Event, error) {
	kind, ok := player.ParseEventKind(msg.Kind)
	if !ok {
		return player.Event{}, fmt.Errorf("%w: %q", ErrUnknownInput, msg.Kind)
	}
	return player.Event{Kind: kind, Key: msg.Key, Value: msg.Value}, nil
}

// Server serves the player's page to a single client over a single websocket, and
// single frames as images. The server only translates: the page's input messages
// become player events, and the frames the player presents on the web surface
// become element updates pushed to the page.
type Server struct {
	addr     string
	episode  *models.Episode
	surface  *cell_views.WebSurface
	rootView *root_view.RootView
	messages chan inputMessage
	events   chan player.Event
	// clientSlot admits one websocket client at a time.
	clientSlot chan struct{}
	router     *mux.Router
}

// NewServer builds the page's views over the surface. The surface must be the one the
// player presents to, and ep the episode it plays. Events() is closed once ctx is done.
func NewServer(
	ctx context.Context,
	addr string,
	ep *models.Episode,
	surface *cell_views.WebSurface,
	panel image.Point,
) (*Server, error) {
	rootView, err := root_view.NewRootView(ctx, surface.Snapshots(), panel)
	if err != nil {
		return nil, err
	}

	server := &Server{
		addr:       addr,
		episode:    ep,
		surface:    surface,
		rootView:   rootView,
		messages:   make(chan inputMessage, inputBacklog),
		events:     make(chan player.Event),
		clientSlot: make(chan struct{}, 1),
	}

	router := mux.NewRouter()
	router.HandleFunc("/", server.serveIndex).Methods(http.MethodGet)
	router.HandleFunc("/ws", server.serveWebsocket)
	router.HandleFunc("/frames/{index:[0-9]+}.png", server.serveFrame).Methods(http.MethodGet)
	server.router = router

	go server.forwardInputs(ctx)
	return server, nil
}

// Events returns the player events posted by the page.
func (server *Server) Events() <-chan player.Event {
	return server.events
}

// Handler returns the server's routes.
func (server *Server) Handler() http.Handler {
	return server.router
}

// Serve listens until ctx is cancelled.
func (server *Server) Serve(ctx context.Context) (err error) {
	srv := &http.Server{
		Addr:    server.addr,
		Handler: server.router,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	log.Printf("serving on %s", server.addr)
	if err = srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// forwardInputs converts input messages to player events, dropping those of unknown kind.
func (server *Server) forwardInputs(ctx context.Context) {
	defer close(server.events)
	for msg := range channerics.OrDone(ctx.Done(), server.messages) {
		ev, err := msg.toEvent()
		if err != nil {
			log.Println("server:", err)
			continue
		}
		select {
		case server.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// serveWebsocket syncs the page with the player until the page disconnects.
// A second page is refused while one is connected.
func (server *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	select {
	case server.clientSlot <- struct{}{}:
		defer func() { <-server.clientSlot }()
	default:
		http.Error(w, "another client is connected", http.StatusConflict)
		return
	}

	cli, err := fastview.NewClient[[]fastview.EleUpdate, inputMessage](
		server.rootView.Updates(),
		server.messages,
		w,
		r)
	if err != nil {
		log.Println("upgrade:", err)
		return
	}

	// The page may be stale: redraw the current frame for it.
	select {
	case server.messages <- inputMessage{Kind: player.Refreshed.String()}:
	case <-r.Context().Done():
		return
	}

	if err = cli.Sync(); err != nil {
		log.Println("client:", err)
	}
}

// Serve the index.html main page, drawn from the current frame.
func (server *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	snapshot := server.surface.Last()
	if snapshot == nil {
		http.Error(w, "no frame presented yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	if err := renderTemplate(w, server.rootView, cell_views.Convert(snapshot)); err != nil {
		_, _ = w.Write([]byte(err.Error()))
	}
}

// serveFrame draws a single frame of the episode as a PNG.
func (server *Server) serveFrame(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index >= len(server.episode.Frames) {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err = export.FramePNG(server.episode, index, w, export.DefaultOptions); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderTemplate(
	w io.Writer,
	vc fastview.ViewComponent,
	data interface{},
) (err error) {
	t := template.New("index.html")
	var tname string
	if tname, err = vc.Parse(t); err != nil {
		return
	}
	if _, err = t.Parse(`{{ template "` + tname + `" . }}`); err != nil {
		return
	}

	err = t.Execute(w, data)
	return
}
