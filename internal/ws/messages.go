package ws

import (
	"encoding/json"
	"errors"

	"github.com/liaptui/backend/internal/game"
)

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type DeclareData struct {
	Value int `json:"value"`
}

type PlayData struct {
	Indices []int `json:"indices"`
}

type RedealData struct {
	Accept bool `json:"accept"`
}

// EventMessage carries one room event to a client
type EventMessage struct {
	Type      string         `json:"type"`
	RoomID    string         `json:"room_id"`
	EventType game.EventType `json:"event_type"`
	Payload   interface{}    `json:"payload"`
	Seq       uint64         `json:"sequence_number"`
}

// SnapshotMessage carries the full personalized state on (re)connect or on request
type SnapshotMessage struct {
	Type    string        `json:"type"`
	RoomID  string        `json:"room_id"`
	Seq     uint64        `json:"sequence_number"`
	Payload game.Snapshot `json:"payload"`
}

// ErrorMessage is sent only to the client whose action failed
type ErrorMessage struct {
	Type     string        `json:"type"`
	Code     string        `json:"code"`
	Category game.Category `json:"category,omitempty"`
	Message  string        `json:"message"`
}

func eventMessage(ev game.Event) EventMessage {
	return EventMessage{Type: "event", RoomID: ev.RoomID, EventType: ev.Type, Payload: ev.Payload, Seq: ev.Seq}
}

func snapshotMessage(snap game.Snapshot) SnapshotMessage {
	return SnapshotMessage{Type: "snapshot", RoomID: snap.RoomID, Seq: snap.Seq, Payload: snap}
}

func errorMessage(err error) ErrorMessage {
	var ge *game.Error
	if errors.As(err, &ge) {
		return ErrorMessage{Type: "error", Code: ge.Code, Category: ge.Category, Message: ge.Message}
	}
	return ErrorMessage{Type: "error", Code: "INTERNAL", Message: err.Error()}
}
