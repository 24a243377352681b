package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// EventType names the five stream events, plus the step keepalive.
type EventType string

const (
	EventSearching EventType = "searching"
	EventMessage   EventType = "message"
	EventResults   EventType = "results"
	EventDone      EventType = "done"
	EventError     EventType = "error"

	// EventStep marks a finished retrieval step that produced no new results.
	// It carries no payload for the client; transports use it to detect a dropped peer.
	EventStep EventType = "step"
)

// Event is one frame of a streamed turn. Only the fields of its type are serialized.
type Event struct {
	Type     EventType
	Query    string
	ThreadID string
	Text     string
	Archives []ArchiveView
	Total    int
	Message  string
}

func (e Event) MarshalJSON() ([]byte, error) {
	payload := map[string]interface{}{"type": e.Type}

	switch e.Type {
	case EventSearching:
		payload["query"] = e.Query
		payload["thread_id"] = e.ThreadID
	case EventMessage:
		payload["message"] = e.Text
	case EventResults:
		payload["archives"] = nonNil(e.Archives)
		payload["total"] = e.Total
	case EventDone:
		payload["archives"] = nonNil(e.Archives)
		payload["total"] = e.Total
		payload["query"] = e.Query
		if e.Message != "" {
			payload["message"] = e.Message
		}
	case EventError:
		payload["message"] = e.Message
	case EventStep:
		payload["label"] = e.Text
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}

	return json.Marshal(payload)
}

// Terminal reports whether no event may follow this one.
func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}

func nonNil(views []ArchiveView) []ArchiveView {
	if views == nil {
		return []ArchiveView{}
	}
	return views
}

// WriteSSE writes one event as a server-sent-events frame: "data: <json>\n\n".
// A step event becomes a comment frame, which EventSource clients ignore.
func WriteSSE(w io.Writer, e Event) error {
	if e.Type == EventStep {
		_, err := fmt.Fprintf(w, ": step %s\n\n", e.Text)
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

// ============================================================
// SEQUENCER
// ============================================================

var (
	ErrStreamClosed = errors.New("stream already terminated")
	ErrOutOfOrder   = errors.New("stream event out of order")
)

type phase int

const (
	phaseNew phase = iota
	phaseStarted
	phaseReplied
	phaseResults
	phaseClosed
)

// Sequencer is the only way the search service writes to a stream. It enforces the event order
// searching → (message | results*) → done|error, a strictly increasing results total, and a
// single terminal event.
type Sequencer struct {
	emit      func(Event) error
	phase     phase
	lastTotal int
	observe   func(EventType)
}

// NewSequencer wraps emit. observe may be nil.
func NewSequencer(emit func(Event) error, observe func(EventType)) *Sequencer {
	return &Sequencer{emit: emit, observe: observe}
}

func (s *Sequencer) send(e Event) error {
	if err := s.emit(e); err != nil {
		return err
	}
	if s.observe != nil && e.Type != EventStep {
		s.observe(e.Type)
	}
	return nil
}

// Searching must be the first event of every turn.
func (s *Sequencer) Searching(query, threadID string) error {
	if s.phase != phaseNew {
		return ErrOutOfOrder
	}
	s.phase = phaseStarted
	return s.send(Event{Type: EventSearching, Query: query, ThreadID: threadID})
}

// Message carries a non-search reply. It cannot be mixed with results in one turn.
func (s *Sequencer) Message(text string) error {
	switch s.phase {
	case phaseClosed:
		return ErrStreamClosed
	case phaseStarted, phaseReplied:
	default:
		return ErrOutOfOrder
	}
	s.phase = phaseReplied
	return s.send(Event{Type: EventMessage, Text: text})
}

// Results emits only when the accepted total grows; otherwise it is a no-op and reports false.
func (s *Sequencer) Results(archives []ArchiveView) (bool, error) {
	switch s.phase {
	case phaseClosed:
		return false, ErrStreamClosed
	case phaseStarted, phaseResults:
	default:
		return false, ErrOutOfOrder
	}
	total := len(archives)
	if total <= s.lastTotal {
		return false, nil
	}
	s.phase = phaseResults
	s.lastTotal = total
	return true, s.send(Event{Type: EventResults, Archives: archives, Total: total})
}

// Step reports a retrieval step that added nothing. It leaves the event order untouched.
func (s *Sequencer) Step(label string) error {
	switch s.phase {
	case phaseClosed:
		return ErrStreamClosed
	case phaseStarted, phaseResults:
	default:
		return ErrOutOfOrder
	}
	return s.send(Event{Type: EventStep, Text: label})
}

// Done closes the stream normally.
func (s *Sequencer) Done(query string, archives []ArchiveView, message string) error {
	if err := s.close(); err != nil {
		return err
	}
	return s.send(Event{Type: EventDone, Query: query, Archives: archives, Total: len(archives), Message: message})
}

// Error closes the stream with a failure. No done event follows.
func (s *Sequencer) Error(message string) error {
	if err := s.close(); err != nil {
		return err
	}
	return s.send(Event{Type: EventError, Message: message})
}

func (s *Sequencer) close() error {
	switch s.phase {
	case phaseClosed:
		return ErrStreamClosed
	case phaseNew:
		return ErrOutOfOrder
	}
	s.phase = phaseClosed
	return nil
}

// Closed reports whether a terminal event was sent.
func (s *Sequencer) Closed() bool {
	return s.phase == phaseClosed
}
