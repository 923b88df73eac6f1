package integration

import (
	"context"
	"testing"

	"github.com/portfolio-chat/portfoliochat/client"
)

const serverURL = "http://localhost:3001"

func TestHealth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	resp, err := client.New(serverURL).Health(context.Background())
	if err != nil {
		t.Fatalf("failed to get health: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("expected status %q, got %q", "ok", resp.Status)
	}
}
