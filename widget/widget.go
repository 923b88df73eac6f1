// Package widget is the chat widget state machine.
//
// State transitions are pure: Update takes a State and an Event and returns
// the next State and an Effect describing any network call to make. Callers
// perform the call with Exchange and feed the resulting Event back into
// Update.
package widget

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/portfolio-chat/portfoliochat/models"
)

// Apology is shown when a chat request fails for any reason.
const Apology = "Sorry, something went wrong. Please try again later."

type EntryKind int

const (
	EntryGreeting EntryKind = iota
	EntryUser
	EntryAssistant
	EntryError
)

// Entry is a rendered line of the transcript. The transcript is display-only.
type Entry struct {
	Kind    EntryKind
	Content string
}

type State struct {
	Open    bool
	Focused bool
	Pending bool
	Input   string
	// History is sent to the relay. It only ever grows by append.
	History    []models.Message
	Transcript []Entry
}

// New returns the initial state, with the greeting in the transcript.
func New(greeting string) State {
	var s State
	if greeting != "" {
		s.Transcript = []Entry{{Kind: EntryGreeting, Content: greeting}}
	}
	return s
}

type Event interface {
	isEvent()
}

// Toggle flips the panel visibility. Opening focuses the input.
type Toggle struct{}

// Close hides the panel.
type Close struct{}

// InputChanged replaces the input text.
type InputChanged struct {
	Text string
}

// Submit sends the current input.
type Submit struct{}

// ReplyReceived is the outcome of a successful exchange.
type ReplyReceived struct {
	Response string
}

// ReplyFailed is the outcome of a failed exchange. Network errors, non-2xx
// responses and malformed bodies are not distinguished.
type ReplyFailed struct {
	Err error
}

func (Toggle) isEvent() {}
func (Close) isEvent() {}
func (InputChanged) isEvent() {}
func (Submit) isEvent() {}
func (ReplyReceived) isEvent() {}
func (ReplyFailed) isEvent() {}

// Effect is the side effect requested by a transition. A nil Request means no
// network call.
type Effect struct {
	Request *models.ChatPostRequest
	// Rejected is set when a Submit was ignored because a request is in flight.
	Rejected bool
}

// Update applies e to s. s is not modified.
func Update(s State, e Event) (State, Effect) {
	switch e := e.(type) {
	case Toggle:
		s.Open = !s.Open
		s.Focused = s.Open
		return s, Effect{}
	case Close:
		s.Open = false
		s.Focused = false
		return s, Effect{}
	case InputChanged:
		s.Input = e.Text
		return s, Effect{}
	case Submit:
		return submit(s)
	case ReplyReceived:
		s.Transcript = appendEntry(s.Transcript, Entry{Kind: EntryAssistant, Content: e.Response})
		s.History = appendMessage(s.History, models.Message{Role: models.RoleAssistant, Content: e.Response})
		s.Pending = false
		return s, Effect{}
	case ReplyFailed:
		s.Transcript = appendEntry(s.Transcript, Entry{Kind: EntryError, Content: Apology})
		s.Pending = false
		return s, Effect{}
	}
	return s, Effect{}
}

func submit(s State) (State, Effect) {
	text := strings.TrimSpace(s.Input)
	if text == "" {
		return s, Effect{}
	}
	if s.Pending {
		return s, Effect{Rejected: true}
	}
	req := &models.ChatPostRequest{
		Message:             text,
		ConversationHistory: slices.Clone(s.History),
	}
	s.Transcript = appendEntry(s.Transcript, Entry{Kind: EntryUser, Content: text})
	s.History = appendMessage(s.History, models.Message{Role: models.RoleUser, Content: text})
	s.Input = ""
	s.Pending = true
	return s, Effect{Request: req}
}

// The append helpers always copy, so states returned by Update never share
// backing arrays with their inputs.
func appendEntry(entries []Entry, e Entry) []Entry {
	return append(slices.Clip(entries), e)
}

func appendMessage(msgs []models.Message, m models.Message) []models.Message {
	return append(slices.Clip(msgs), m)
}

// ErrMalformedResponse is returned for 2xx responses that do not report success.
var ErrMalformedResponse = errors.New("widget: malformed chat response")

type Chatter interface {
	Chat(ctx context.Context, req models.ChatPostRequest) (models.ChatPostResponse, error)
}

// Exchange sends req and converts the outcome into an Event.
func Exchange(ctx context.Context, c Chatter, req models.ChatPostRequest) Event {
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return ReplyFailed{Err: err}
	}
	if !resp.Success {
		return ReplyFailed{Err: ErrMalformedResponse}
	}
	return ReplyReceived{Response: resp.Response}
}
