package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"quiz-battle-service/internal/app"
	"quiz-battle-service/internal/domain"
)

// WSOptions tunes per-connection limits.
type WSOptions struct {
	ReadLimit         int64
	PingInterval      time.Duration
	WriteWait         time.Duration
	MessagesPerSecond float64
	Burst             int
	SendBuffer        int
	AllowedOrigins    []string
}

func DefaultWSOptions() WSOptions {
	return WSOptions{
		ReadLimit:         4096,
		PingInterval:      30 * time.Second,
		WriteWait:         10 * time.Second,
		MessagesPerSecond: 5,
		Burst:             10,
		SendBuffer:        64,
	}
}

func (o WSOptions) withDefaults() WSOptions {
	d := DefaultWSOptions()
	if o.ReadLimit <= 0 {
		o.ReadLimit = d.ReadLimit
	}
	if o.PingInterval <= 0 {
		o.PingInterval = d.PingInterval
	}
	if o.WriteWait <= 0 {
		o.WriteWait = d.WriteWait
	}
	if o.MessagesPerSecond <= 0 {
		o.MessagesPerSecond = d.MessagesPerSecond
	}
	if o.Burst <= 0 {
		o.Burst = d.Burst
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = d.SendBuffer
	}
	return o
}

type WSHandler struct {
	service  *app.MatchService
	hub      *Hub
	opts     WSOptions
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.MatchService, hub *Hub, opts WSOptions) *WSHandler {
	opts = opts.withDefaults()
	return &WSHandler{
		service: service,
		hub:     hub,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

// ServeWS upgrades HTTP requests to websockets and routes frames to the match service.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	logger := log.With().Str("conn_id", connID).Logger()
	ctx := logger.WithContext(context.Background())

	send := h.hub.register(connID, h.opts.SendBuffer)
	writerDone := make(chan struct{})
	go h.writePump(conn, send, writerDone, logger)

	logger.Info().Str("remote", r.RemoteAddr).Msg("client connected")
	h.service.Connect(ctx, connID)

	pongWait := 2 * h.opts.PingInterval
	conn.SetReadLimit(h.opts.ReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	limiter := rate.NewLimiter(rate.Limit(h.opts.MessagesPerSecond), h.opts.Burst)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("ws read error")
			}
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if !limiter.Allow() {
			logger.Debug().Msg("rate limited, dropping message")
			continue
		}
		h.dispatch(ctx, connID, data)
	}

	h.service.Disconnect(ctx, connID)
	h.hub.unregister(connID)
	<-writerDone
	logger.Info().Msg("client disconnected")
}

func (h *WSHandler) dispatch(ctx context.Context, connID string, data []byte) {
	logger := zerolog.Ctx(ctx)
	typ, cmd, err := decodeCommand(data)
	if err != nil {
		if typ == msgSubmitAnswer {
			logger.Debug().Err(err).Msg("dropping invalid answer")
			return
		}
		logger.Debug().Err(err).Str("type", typ).Msg("rejecting message")
		h.sendError(connID, err)
		return
	}

	switch c := cmd.(type) {
	case *joinLobby:
		h.service.SetIdentity(ctx, connID, domain.Identity{Name: c.Name, Character: c.Character})
	case createRoom:
		if _, err := h.service.CreateRoom(ctx, connID); err != nil {
			h.sendError(connID, err)
		}
	case *joinRoom:
		if err := h.service.JoinRoom(ctx, c.RoomCode, connID); err != nil {
			h.sendError(connID, err)
		}
	case *submitAnswer:
		if err := h.service.SubmitAnswer(ctx, c.RoomCode, connID, *c.AnswerIndex); err != nil {
			logger.Debug().Err(err).Msg("answer rejected")
		}
	}
}

func (h *WSHandler) sendError(connID string, err error) {
	h.hub.Send(connID, domain.Event{Type: domain.EventError, Payload: domain.ErrorMsg{Text: errorText(err)}})
}

func (h *WSHandler) writePump(conn *websocket.Conn, send <-chan []byte, done chan<- struct{}, logger zerolog.Logger) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer func() {
		ticker.Stop()
		// Unblock the reader if the writer fails first.
		_ = conn.Close()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(h.opts.WriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug().Err(err).Msg("ws write error")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.opts.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// errorText maps join-time errors to the text clients display.
func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, domain.ErrRoomFull):
		return "Room full"
	case errors.Is(err, domain.ErrAlreadyInRoom):
		return "Already in a room"
	default:
		return err.Error()
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok || hasWildcard(set)
	}
}

func hasWildcard(set map[string]struct{}) bool {
	_, ok := set["*"]
	return ok
}
