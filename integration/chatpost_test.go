package integration

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/a-h/jsonapi"
	"github.com/portfolio-chat/portfoliochat/client"
	"github.com/portfolio-chat/portfoliochat/models"
)

func TestChatPostWithoutMessage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	_, err := client.New(serverURL).Chat(context.Background(), models.ChatPostRequest{})
	var ise jsonapi.InvalidStatusError
	if !errors.As(err, &ise) {
		t.Fatalf("expected an invalid status error, got %v", err)
	}
	if ise.Status != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, ise.Status)
	}
}

func TestChatPost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	resp, err := client.New(serverURL).Chat(context.Background(), models.ChatPostRequest{
		Message: "What is her GPA?",
	})
	if err != nil {
		var ise jsonapi.InvalidStatusError
		if errors.As(err, &ise) && (ise.Status == http.StatusUnauthorized || ise.Status == http.StatusPaymentRequired) {
			t.Skipf("completion provider is not available: %v", err)
		}
		t.Fatalf("failed to chat: %v", err)
	}
	if !resp.Success || resp.Response == "" {
		t.Errorf("expected a successful reply, got %+v", resp)
	}
}
