package transport

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goje-timer/goje-go/pkg/log"
)

// DefaultEventName is the event type of messages without an event field.
const DefaultEventName = "message"

// DefaultMaxEventSize is the default limit on the data of a single event.
const DefaultMaxEventSize = 1 << 20

// ErrEventTooLarge is returned when an event's data exceeds the size limit.
var ErrEventTooLarge = errors.New("event exceeds maximum size")

// Message is one dispatched server-sent event.
type Message struct {
	// Event is the event type, DefaultEventName when unset.
	Event string

	// Data is the event payload with data lines joined by "\n".
	Data []byte

	// ID is the last event ID seen on the stream, which persists across
	// events that carry no id field.
	ID string
}

// Decoder reads server-sent events from a stream.
type Decoder struct {
	r       *bufio.Reader
	maxSize int

	lastID string
	skipLF bool

	// OnComment is called for every comment line.
	OnComment func(text string)

	// OnRetry is called for every valid retry field.
	OnRetry func(d time.Duration)

	// OnLine is called after every line read, including blank ones.
	OnLine func()

	rec *log.Recorder
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderWithMaxSize(r, DefaultMaxEventSize)
}

// NewDecoderWithMaxSize creates a Decoder with a custom event size limit.
func NewDecoderWithMaxSize(r io.Reader, maxSize int) *Decoder {
	if maxSize <= 0 {
		maxSize = DefaultMaxEventSize
	}
	return &Decoder{r: bufio.NewReader(r), maxSize: maxSize}
}

// SetRecorder records every dispatched event and control line.
func (d *Decoder) SetRecorder(rec *log.Recorder) {
	d.rec = rec
}

// SetLastEventID seeds the ID carried by events, as when resuming a stream.
func (d *Decoder) SetLastEventID(id string) {
	d.lastID = id
}

// LastEventID returns the current last event ID.
func (d *Decoder) LastEventID() string {
	return d.lastID
}

// Next blocks until the next event is dispatched. It returns io.EOF when the
// stream ends; a partially received event is discarded.
func (d *Decoder) Next() (Message, error) {
	var (
		event   string
		data    strings.Builder
		hasData bool
	)

	for {
		line, err := d.readLine()
		if err != nil {
			return Message{}, err
		}
		if d.OnLine != nil {
			d.OnLine()
		}

		if line == "" {
			if !hasData {
				event = ""
				continue
			}
			msg := Message{
				Event: event,
				Data:  []byte(strings.TrimSuffix(data.String(), "\n")),
				ID:    d.lastID,
			}
			if msg.Event == "" {
				msg.Event = DefaultEventName
			}
			d.rec.Frame(log.DirectionIn, msg.Event, msg.ID, msg.Data)
			return msg, nil
		}

		if strings.HasPrefix(line, ":") {
			text := strings.TrimPrefix(line[1:], " ")
			d.rec.Control(log.ControlMsgComment, text, 0)
			if d.OnComment != nil {
				d.OnComment(text)
			}
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event = value
		case "data":
			if data.Len()+len(value)+1 > d.maxSize {
				return Message{}, ErrEventTooLarge
			}
			data.WriteString(value)
			data.WriteByte('\n')
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				d.lastID = value
			}
		case "retry":
			ms, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				continue
			}
			delay := time.Duration(ms) * time.Millisecond
			d.rec.Control(log.ControlMsgRetry, "", delay)
			if d.OnRetry != nil {
				d.OnRetry(delay)
			}
		}
	}
}

// readLine returns the next line without its terminator. "\r\n", "\n" and
// a lone "\r" all end a line; a final line without a terminator is
// returned before io.EOF.
func (d *Decoder) readLine() (string, error) {
	var line []byte
	for {
		c, err := d.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				return string(line), nil
			}
			return "", err
		}

		// The "\n" of a "\r\n" pair may arrive after the line was returned.
		if d.skipLF {
			d.skipLF = false
			if c == '\n' {
				continue
			}
		}

		switch c {
		case '\n':
			return string(line), nil
		case '\r':
			d.skipLF = true
			return string(line), nil
		}
		if len(line) >= d.maxSize {
			return "", ErrEventTooLarge
		}
		line = append(line, c)
	}
}
