package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/jsonapi"
	"github.com/google/go-cmp/cmp"
	"github.com/portfolio-chat/portfoliochat/models"
)

func TestChat(t *testing.T) {
	var received models.ChatPostRequest
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(models.ChatPostResponse{
			Success:   true,
			Response:  "echo: " + received.Message,
			Timestamp: "2024-01-01T00:00:00.000Z",
		})
	}))
	defer s.Close()

	req := models.ChatPostRequest{
		Message: "hello",
		ConversationHistory: []models.Message{
			{Role: models.RoleUser, Content: "hi"},
			{Role: models.RoleAssistant, Content: "hey"},
		},
	}
	resp, err := New(s.URL).Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(req, received); diff != "" {
		t.Errorf("unexpected request (-want +got):\n%s", diff)
	}
	if resp.Response != "echo: hello" {
		t.Errorf("expected %q, got %q", "echo: hello", resp.Response)
	}
}

func TestChatErrorStatus(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "quota"})
	}))
	defer s.Close()

	_, err := New(s.URL).Chat(context.Background(), models.ChatPostRequest{Message: "hello"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestHealth(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(models.HealthGetResponse{Status: "ok", Timestamp: "2024-01-01T00:00:00.000Z", Service: "test"})
	}))
	defer s.Close()

	resp, err := New(s.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := models.HealthGetResponse{Status: "ok", Timestamp: "2024-01-01T00:00:00.000Z", Service: "test"}
	if diff := cmp.Diff(expected, resp); diff != "" {
		t.Errorf("unexpected response (-want +got):\n%s", diff)
	}
}

func TestHealthErrorStatus(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer s.Close()

	_, err := New(s.URL).Health(context.Background())
	var ise jsonapi.InvalidStatusError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStatusError, got %v", err)
	}
	if ise.Status != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, ise.Status)
	}
}

func TestInvalidBaseURL(t *testing.T) {
	if _, err := New("").Chat(context.Background(), models.ChatPostRequest{Message: "hi"}); !errors.Is(err, jsonapi.ErrEmptyURL) {
		t.Errorf("expected ErrEmptyURL, got %v", err)
	}
}
