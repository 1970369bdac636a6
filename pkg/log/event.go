package log

import (
	"time"

	"github.com/goje-timer/goje-go/pkg/timer"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies the stream connection or API client (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the server URL.
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Stream and API layers
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Connection/stream state
	ControlMsg  *ControlMsgEvent  `cbor:"13,keyasint,omitempty"` // SSE comments, retry, reconnect
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates data received from the server.
	DirectionIn Direction = 0
	// DirectionOut indicates data sent to the server.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerTransport is the HTTP/SSE layer (raw bytes).
	LayerTransport Layer = 0
	// LayerStream is the snapshot synchronisation layer.
	LayerStream Layer = 1
	// LayerAPI is the command API layer.
	LayerAPI Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerStream:
		return "STREAM"
	case LayerAPI:
		return "API"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates an event, request or response.
	CategoryMessage Category = 0
	// CategoryControl indicates an SSE control line or reconnect.
	CategoryControl Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one dispatched server-sent event or HTTP body.
type FrameEvent struct {
	// Size is the payload size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the payload (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`

	// EventName is the SSE event field ("message" when absent).
	EventName string `cbor:"4,keyasint,omitempty"`

	// EventID is the SSE id field.
	EventID string `cbor:"5,keyasint,omitempty"`
}

// MessageEvent captures a decoded snapshot or command exchange.
type MessageEvent struct {
	// Type distinguishes stream events from requests and responses.
	Type MessageType `cbor:"1,keyasint"`

	// RequestID correlates request/response pairs (empty for stream events).
	RequestID string `cbor:"2,keyasint,omitempty"`

	// Name is the SSE event name for stream events.
	Name string `cbor:"3,keyasint,omitempty"`

	// Method and Path identify the HTTP call.
	Method string `cbor:"4,keyasint,omitempty"`
	Path   string `cbor:"5,keyasint,omitempty"`

	// StatusCode is the HTTP status of a response.
	StatusCode int `cbor:"6,keyasint,omitempty"`

	// Snapshot is the decoded timer state carried by the message.
	Snapshot *timer.Snapshot `cbor:"7,keyasint,omitempty"`

	// Latency is the round trip time of a response.
	// Stored as nanoseconds.
	Latency *time.Duration `cbor:"8,keyasint,omitempty"`
}

// MessageType distinguishes stream events from command traffic.
type MessageType uint8

const (
	// MessageTypeEvent indicates a pushed stream event.
	MessageTypeEvent MessageType = 0
	// MessageTypeRequest indicates a command request.
	MessageTypeRequest MessageType = 1
	// MessageTypeResponse indicates a command response.
	MessageTypeResponse MessageType = 2
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeEvent:
		return "EVENT"
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures connection and stream lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a transport connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityStream indicates a Pending/Connected/Disconnected change.
	StateEntityStream StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityStream:
		return "STREAM"
	default:
		return "UNKNOWN"
	}
}

// ControlMsgEvent captures SSE control traffic.
type ControlMsgEvent struct {
	// Type of control message.
	Type ControlMsgType `cbor:"1,keyasint"`

	// Text is the comment text for comments.
	Text string `cbor:"2,keyasint,omitempty"`

	// Delay is the reconnection delay for retry and reconnect messages.
	Delay *time.Duration `cbor:"3,keyasint,omitempty"`
}

// ControlMsgType indicates the type of control message.
type ControlMsgType uint8

const (
	// ControlMsgComment indicates an SSE comment line (often a keep-alive).
	ControlMsgComment ControlMsgType = 0
	// ControlMsgRetry indicates an SSE retry field.
	ControlMsgRetry ControlMsgType = 1
	// ControlMsgReconnect indicates a scheduled reconnection attempt.
	ControlMsgReconnect ControlMsgType = 2
)

// String returns the control message type name.
func (c ControlMsgType) String() string {
	switch c {
	case ControlMsgComment:
		return "COMMENT"
	case ControlMsgRetry:
		return "RETRY"
	case ControlMsgReconnect:
		return "RECONNECT"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Code is the HTTP status code (if applicable).
	Code *int `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
