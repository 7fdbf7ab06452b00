package events

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// JSONEvent is the newline-delimited wire format for events on stdout,
// consumed by tools driving the engine programmatically.
type JSONEvent struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Review    string         `json:"review,omitempty"`
	Stage     string         `json:"stage,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// wireEvent maps an internal Event onto the wire format. Scalar payloads
// are wrapped in a {"value": ...} object so the payload field is always
// a JSON object.
func wireEvent(e Event) JSONEvent {
	out := JSONEvent{
		Type:      string(e.Type),
		Timestamp: e.Time,
		Review:    e.Review,
		Stage:     e.Stage,
		Error:     e.Error,
	}
	switch p := e.Payload.(type) {
	case nil:
	case map[string]any:
		out.Payload = p
	default:
		out.Payload = map[string]any{"value": p}
	}
	return out
}

// IsJSONMode reports whether event output should be JSON: either forced
// by flag, or because stdout is not a terminal.
func IsJSONMode(forceJSON bool) bool {
	if forceJSON || os.Stdout == nil {
		return true
	}
	return !term.IsTerminal(int(os.Stdout.Fd()))
}

// JSONEmitter serializes events to a writer, one JSON object per line.
type JSONEmitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONEmitter creates an emitter over w.
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{enc: json.NewEncoder(w)}
}

// Emit writes one event. Safe for concurrent use.
func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(wireEvent(event))
}

// JSONEmitterHandler adapts an emitter to the bus Handler signature,
// logging emit failures since handlers cannot return errors.
func JSONEmitterHandler(emitter *JSONEmitter) Handler {
	return func(e Event) {
		if err := emitter.Emit(e); err != nil {
			log.Printf("WARN: emit JSON event: %v", err)
		}
	}
}
