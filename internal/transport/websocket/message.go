package websocket

import "encoding/json"

// Message is the envelope of every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outgoingMessage struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

type namePayload struct {
	Name string `json:"name"`
}

type joinRoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	Name   string `json:"name"`
}

type setReadyPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	Ready  *bool  `json:"ready" validate:"required"`
}

type playMovePayload struct {
	RoomID string       `json:"roomId" validate:"required"`
	Index  *json.Number `json:"index" validate:"required"`
}

type roomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}
