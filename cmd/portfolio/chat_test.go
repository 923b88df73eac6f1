package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/portfolio-chat/portfoliochat/models"
	"github.com/portfolio-chat/portfoliochat/widget"
)

type fakeChatter struct {
	calls []models.ChatPostRequest
	err   error
}

func (f *fakeChatter) Chat(ctx context.Context, req models.ChatPostRequest) (models.ChatPostResponse, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return models.ChatPostResponse{}, f.err
	}
	return models.ChatPostResponse{Success: true, Response: "reply to " + req.Message}, nil
}

func newTestModel(c widget.Chatter) model {
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return newModel(context.Background(), log, c, "Hello!")
}

func press(t *testing.T, m model, key tea.KeyMsg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("expected model, got %T", next)
	}
	return nm, cmd
}

func TestChatModelStartsOpen(t *testing.T) {
	m := newTestModel(&fakeChatter{})
	if !m.state.Open || !m.textarea.Focused() {
		t.Error("expected the chat to start open with a focused input")
	}
}

func TestChatModelEnterSendsOnce(t *testing.T) {
	c := &fakeChatter{}
	m := newTestModel(c)
	m.textarea.SetValue("What are her skills?")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command to send the message")
	}
	if !m.state.Pending {
		t.Error("expected pending to be set")
	}
	if m.textarea.Value() != "" {
		t.Errorf("expected the input to be cleared, got %q", m.textarea.Value())
	}

	// A second enter while the reply is pending does not send again.
	m.textarea.SetValue("Another question")
	m, second := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if second != nil {
		t.Error("expected no command while a reply is pending")
	}

	msg := cmd()
	if _, ok := msg.(widget.ReplyReceived); !ok {
		t.Fatalf("expected ReplyReceived, got %T", msg)
	}
	next, _ := m.Update(msg)
	m = next.(model)

	if len(c.calls) != 1 {
		t.Fatalf("expected exactly 1 call, got %d", len(c.calls))
	}
	if m.state.Pending {
		t.Error("expected pending to be cleared")
	}
	if len(m.state.History) != 2 {
		t.Errorf("expected 2 history entries, got %d", len(m.state.History))
	}
	if m.textarea.Value() != "Another question" {
		t.Errorf("expected the rejected input to be kept, got %q", m.textarea.Value())
	}
}

func TestChatModelFailureShowsApology(t *testing.T) {
	c := &fakeChatter{err: errors.New("connection refused")}
	m := newTestModel(c)
	m.textarea.SetValue("hello")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	next, _ := m.Update(cmd())
	m = next.(model)

	if len(m.state.History) != 1 {
		t.Errorf("expected only the user message in history, got %d entries", len(m.state.History))
	}
	last := m.state.Transcript[len(m.state.Transcript)-1]
	if last.Kind != widget.EntryError || last.Content != widget.Apology {
		t.Errorf("expected the apology, got %+v", last)
	}
}

func TestChatModelToggle(t *testing.T) {
	c := &fakeChatter{}
	m := newTestModel(c)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.state.Open || m.textarea.Focused() {
		t.Error("expected ctrl+t to hide the chat and blur the input")
	}

	m.textarea.SetValue("hidden")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || len(c.calls) != 0 {
		t.Error("expected enter to do nothing while the chat is hidden")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	if !m.state.Open || !m.textarea.Focused() {
		t.Error("expected ctrl+t to reopen the chat and focus the input")
	}
}

func TestChatModelIgnoresBlankInput(t *testing.T) {
	m := newTestModel(&fakeChatter{})
	m.textarea.SetValue("   ")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("expected no command for blank input")
	}
	if m.state.Pending || len(m.state.History) != 0 {
		t.Errorf("expected state to be unchanged, got %+v", m.state)
	}
}
