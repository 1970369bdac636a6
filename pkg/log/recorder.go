package log

import (
	"time"

	"github.com/goje-timer/goje-go/pkg/timer"
)

// MaxFrameDataSize is the largest payload copied into a FrameEvent.
// Longer payloads are truncated and flagged.
const MaxFrameDataSize = 4096

// Recorder stamps events for one connection and forwards them to a Logger.
// The zero value and a nil *Recorder discard everything.
type Recorder struct {
	logger     Logger
	connID     string
	remoteAddr string
	now        func() time.Time
}

// NewRecorder creates a Recorder for the connection connID to remoteAddr.
func NewRecorder(logger Logger, connID, remoteAddr string) *Recorder {
	return &Recorder{
		logger:     logger,
		connID:     connID,
		remoteAddr: remoteAddr,
		now:        time.Now,
	}
}

// ConnectionID returns the identifier stamped on every event.
func (r *Recorder) ConnectionID() string {
	if r == nil {
		return ""
	}
	return r.connID
}

func (r *Recorder) emit(e Event) {
	if r == nil || r.logger == nil {
		return
	}
	if r.now != nil {
		e.Timestamp = r.now()
	} else {
		e.Timestamp = time.Now()
	}
	e.ConnectionID = r.connID
	e.RemoteAddr = r.remoteAddr
	r.logger.Log(e)
}

// Frame records a raw SSE event or HTTP body.
func (r *Recorder) Frame(dir Direction, name, id string, data []byte) {
	fe := &FrameEvent{Size: len(data), EventName: name, EventID: id}
	if len(data) > MaxFrameDataSize {
		fe.Data = append([]byte(nil), data[:MaxFrameDataSize]...)
		fe.Truncated = true
	} else if len(data) > 0 {
		fe.Data = append([]byte(nil), data...)
	}
	r.emit(Event{
		Direction: dir,
		Layer:     LayerTransport,
		Category:  CategoryMessage,
		Frame:     fe,
	})
}

// Message records a decoded stream event or command exchange.
func (r *Recorder) Message(dir Direction, layer Layer, msg MessageEvent) {
	r.emit(Event{
		Direction: dir,
		Layer:     layer,
		Category:  CategoryMessage,
		Message:   &msg,
	})
}

// StreamEvent records a decoded snapshot delivered under the event name.
func (r *Recorder) StreamEvent(name string, s timer.Snapshot) {
	r.Message(DirectionIn, LayerStream, MessageEvent{
		Type:     MessageTypeEvent,
		Name:     name,
		Snapshot: &s,
	})
}

// StateChange records a lifecycle transition.
func (r *Recorder) StateChange(layer Layer, entity StateEntity, from, to, reason string) {
	r.emit(Event{
		Direction: DirectionIn,
		Layer:     layer,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   entity,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}

// Control records SSE control traffic. delay may be zero.
func (r *Recorder) Control(typ ControlMsgType, text string, delay time.Duration) {
	c := &ControlMsgEvent{Type: typ, Text: text}
	if delay > 0 {
		c.Delay = &delay
	}
	r.emit(Event{
		Direction:  DirectionIn,
		Layer:      LayerTransport,
		Category:   CategoryControl,
		ControlMsg: c,
	})
}

// Error records err at layer. code is an HTTP status or 0.
func (r *Recorder) Error(layer Layer, context string, err error, code int) {
	if err == nil {
		return
	}
	data := &ErrorEventData{Layer: layer, Message: err.Error(), Context: context}
	if code != 0 {
		data.Code = &code
	}
	r.emit(Event{
		Direction: DirectionIn,
		Layer:     layer,
		Category:  CategoryError,
		Error:     data,
	})
}
