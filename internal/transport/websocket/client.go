package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

type inbound struct {
	client  *Client
	message Message
	err     error
}

// Client is one websocket connection. The dispatcher owns its egress channel and is the only one closing it.
type Client struct {
	ID string

	logger     *slog.Logger
	server     *Server
	connection *websocket.Conn
	egress     chan []byte
}

func newClient(id string, conn *websocket.Conn, server *Server) *Client {
	return &Client{
		ID:         id,
		logger:     server.logger.With("connID", id),
		server:     server,
		connection: conn,
		egress:     make(chan []byte, server.options.EgressBuffer),
	}
}

// readMessages feeds decoded frames to the dispatcher until the connection fails.
func (that *Client) readMessages() {
	log := that.logger.With("method", "readMessages")

	defer func() {
		that.server.unregisterClient(that)
	}()

	that.connection.SetReadLimit(that.server.options.MaxMessageSize)

	if err := that.connection.SetReadDeadline(time.Now().Add(that.server.options.PongWait)); err != nil {
		log.Error("failed to set read deadline", "error", err)
		return
	}

	that.connection.SetPongHandler(func(string) error {
		return that.connection.SetReadDeadline(time.Now().Add(that.server.options.PongWait))
	})

	for {
		_, payload, err := that.connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected socket closure", "error", err)
			}
			return
		}

		var message Message
		err = json.Unmarshal(payload, &message)

		if !that.server.submit(inbound{client: that, message: message, err: err}) {
			return
		}
	}
}

// writeMessages drains egress and keeps the peer alive with pings. It closes the connection on exit.
func (that *Client) writeMessages() {
	log := that.logger.With("method", "writeMessages")

	ticker := time.NewTicker(that.server.options.PingPeriod())

	defer func() {
		ticker.Stop()
		_ = that.connection.Close()
	}()

	for {
		select {
		case message, ok := <-that.egress:
			if err := that.connection.SetWriteDeadline(time.Now().Add(that.server.options.WriteWait)); err != nil {
				log.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				err := that.connection.WriteMessage(websocket.CloseMessage, []byte{})
				if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
					log.Debug("failed to send close frame", "error", err)
				}
				return
			}

			if err := that.connection.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			if err := that.connection.SetWriteDeadline(time.Now().Add(that.server.options.WriteWait)); err != nil {
				log.Error("failed to set write deadline", "error", err)
				return
			}

			if err := that.connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}
