// Package websocket carries room intents and match events over websocket connections.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

const (
	resultQueueSize = 64
	publishTimeout  = 5 * time.Second
)

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrMalformedFrame = errors.New("malformed message")
)

type matchCoordinator interface {
	Quickplay(connID, name string) ([]usecase.Outbound, error)
	CreateRoom(connID, name string) ([]usecase.Outbound, error)
	JoinRoom(connID, roomID, name string) ([]usecase.Outbound, error)
	SetReady(connID, roomID string, ready bool) ([]usecase.Outbound, error)
	PlayMove(connID, roomID string, index int) ([]usecase.Outbound, error)
	Rematch(connID, roomID string) ([]usecase.Outbound, error)
	LeaveRoom(connID, roomID string) ([]usecase.Outbound, error)
	Disconnect(connID string) []usecase.Outbound
}

type resultPublisher interface {
	Publish(ctx context.Context, result entity.MatchResult) error
}

type handlerFunc func(connID string, payload json.RawMessage) ([]usecase.Outbound, error)

// Server upgrades HTTP requests and funnels every connection's traffic through one dispatcher goroutine,
// so the coordinator and its rooms are never touched concurrently.
type Server struct {
	logger      *slog.Logger
	coordinator matchCoordinator
	publisher   resultPublisher
	options     config.Socket
	upgrader    websocket.Upgrader
	validate    *validator.Validate

	handlers map[string]handlerFunc
	clients  map[string]*Client

	register   chan *Client
	unregister chan *Client
	inbox      chan inbound
	results    chan entity.MatchResult
	done       chan struct{}
}

func New(
	logger *slog.Logger,
	coordinator matchCoordinator,
	publisher resultPublisher,
	options config.Socket,
	allowedOrigins []string,
) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		coordinator: coordinator,
		publisher:   publisher,
		options:     options,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		validate: validator.New(),

		handlers: make(map[string]handlerFunc),
		clients:  make(map[string]*Client),

		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan inbound),
		results:    make(chan entity.MatchResult, resultQueueSize),
		done:       make(chan struct{}),
	}

	server.handlers[usecase.ActionQuickplay] = server.handleQuickplay
	server.handlers[usecase.ActionCreateRoom] = server.handleCreateRoom
	server.handlers[usecase.ActionJoinRoom] = server.handleJoinRoom
	server.handlers[usecase.ActionSetReady] = server.handleSetReady
	server.handlers[usecase.ActionPlayMove] = server.handlePlayMove
	server.handlers[usecase.ActionRematch] = server.handleRematch
	server.handlers[usecase.ActionLeaveRoom] = server.handleLeaveRoom

	return server
}

// Run is the dispatcher loop. It must be called once; it returns after ctx is canceled
// and every connection has been told to close.
func (that *Server) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		that.publishResults()
	}()

	defer func() {
		close(that.done)

		for id, client := range that.clients {
			close(client.egress)
			delete(that.clients, id)
		}

		close(that.results)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("dispatcher stopped")
			return nil
		case client := <-that.register:
			that.clients[client.ID] = client
			client.logger.Debug("client connected")
		case client := <-that.unregister:
			that.removeClient(client.ID)
		case in := <-that.inbox:
			that.dispatch(in)
		}
	}
}

// ServeHTTP upgrades the request and starts the connection's pumps.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(uuid.NewString(), conn, that)

	select {
	case that.register <- client:
	case <-that.done:
		_ = conn.Close()
		return
	}

	go client.writeMessages()
	go client.readMessages()
}

func (that *Server) submit(in inbound) bool {
	select {
	case that.inbox <- in:
		return true
	case <-that.done:
		return false
	}
}

func (that *Server) unregisterClient(client *Client) {
	select {
	case that.unregister <- client:
	case <-that.done:
	}
}

func (that *Server) dispatch(in inbound) {
	connID := in.client.ID
	log := in.client.logger.With("method", "dispatch", "action", in.message.Action)

	if _, ok := that.clients[connID]; !ok {
		return
	}

	if in.err != nil {
		log.Debug("failed to decode message", "error", in.err)
		that.replyError(connID, ErrMalformedFrame)
		return
	}

	handler, ok := that.handlers[in.message.Action]
	if !ok {
		that.replyError(connID, fmt.Errorf("%w: %q", ErrUnknownAction, in.message.Action))
		return
	}

	out, err := handler(connID, in.message.Payload)
	if err != nil {
		log.Debug("intent rejected", "error", err)
		that.replyError(connID, err)
		return
	}

	that.deliver(out)
}

func (that *Server) replyError(connID string, err error) {
	reply := usecase.Outbound{
		Action:  usecase.ActionErrorMsg,
		To:      []string{connID},
		Payload: usecase.ErrorPayload{Error: err.Error()},
	}

	if apperror.IsMoveRejection(err) {
		reply.Action = usecase.ActionInvalidMove
		reply.Payload = usecase.InvalidMovePayload{Reason: err.Error()}
	}

	that.deliver([]usecase.Outbound{reply})
}

// deliver queues messages on the recipients' egress. A recipient whose buffer is full is dropped.
func (that *Server) deliver(out []usecase.Outbound) {
	log := that.logger.With("method", "deliver")

	var slow []string

	for _, msg := range out {
		if payload, ok := msg.Payload.(usecase.GameOverPayload); ok {
			that.queueResult(payload.MatchResult(time.Now().UTC()))
		}

		frame, err := json.Marshal(outgoingMessage{Action: msg.Action, Payload: msg.Payload})
		if err != nil {
			log.Error("failed to marshal message", "action", msg.Action, "error", err)
			continue
		}

		for _, id := range msg.To {
			client, ok := that.clients[id]
			if !ok {
				continue
			}

			select {
			case client.egress <- frame:
			default:
				log.Warn("egress buffer full, dropping client", "connID", id)
				slow = append(slow, id)
			}
		}
	}

	for _, id := range lo.Uniq(slow) {
		that.removeClient(id)
	}
}

func (that *Server) removeClient(connID string) {
	client, ok := that.clients[connID]
	if !ok {
		return
	}

	delete(that.clients, connID)
	close(client.egress)

	client.logger.Debug("client disconnected")

	that.deliver(that.coordinator.Disconnect(connID))
}

func (that *Server) queueResult(result entity.MatchResult) {
	select {
	case that.results <- result:
	default:
		that.logger.Warn("result queue full, dropping match result", "roomID", result.RoomID)
	}
}

func (that *Server) publishResults() {
	log := that.logger.With("method", "publishResults")

	for result := range that.results {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)

		if err := that.publisher.Publish(ctx, result); err != nil {
			log.Error("failed to publish match result", "roomID", result.RoomID, "error", err)
		}

		cancel()
	}
}

func checkOrigin(allowed []string) func(req *http.Request) bool {
	return func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		if origin == "" {
			return true
		}

		return lo.Contains(allowed, "*") || lo.Contains(allowed, origin)
	}
}
