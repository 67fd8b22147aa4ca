package notifier

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/davinwzy/growth-lab/internal/config"
	"github.com/davinwzy/growth-lab/internal/gamification"
	"github.com/davinwzy/growth-lab/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, enabled bool) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&config.NotifierConfig{
		WebhookURL: srv.URL,
		Channel:    "classroom",
		Enabled:    enabled,
	}, logger.New("error", "json", "stdout"))
}

func TestClient_SendMessage(t *testing.T) {
	var received Message
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}, true)

	if err := c.SendSimpleMessage("hello"); err != nil {
		t.Fatalf("SendSimpleMessage() failed: %v", err)
	}

	if received.Text != "hello" {
		t.Errorf("Expected text 'hello', got %q", received.Text)
	}
	if received.Channel != "classroom" {
		t.Errorf("Expected default channel, got %q", received.Channel)
	}
}

func TestClient_SendMessage_DisabledIsNoop(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, false)

	if err := c.SendSimpleMessage("hello"); err != nil {
		t.Fatalf("SendSimpleMessage() failed: %v", err)
	}
	if called {
		t.Error("Expected no webhook call when disabled")
	}
}

func TestClient_SendMessage_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, true)

	if err := c.SendSimpleMessage("hello"); err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestClient_SendEngineEvents(t *testing.T) {
	var received Message
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}, true)

	events := []gamification.Event{
		{
			Type: gamification.EventLevelUp,
			Data: gamification.EventData{NewLevel: 2, LevelEmoji: "⚔️", LevelName: "学徒"},
		},
		{
			Type: gamification.EventBadgeEarned,
			Data: gamification.EventData{BadgeID: "first-score", BadgeEmoji: "🌟", BadgeName: "First Score"},
		},
	}

	if err := c.SendEngineEvents("Alice", events); err != nil {
		t.Fatalf("SendEngineEvents() failed: %v", err)
	}

	if !strings.Contains(received.Text, "level 2") {
		t.Errorf("Expected level-up line in message, got %q", received.Text)
	}
	if !strings.Contains(received.Text, "First Score") {
		t.Errorf("Expected badge line in message, got %q", received.Text)
	}
}

func TestClient_SendEngineEvents_EmptyIsNoop(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, true)

	if err := c.SendEngineEvents("Alice", nil); err != nil {
		t.Fatalf("SendEngineEvents() failed: %v", err)
	}
	if called {
		t.Error("Expected no webhook call for empty event slice")
	}
}

func TestClient_SendDailyDigest(t *testing.T) {
	var received Message
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}, true)

	entries := []DigestEntry{
		{Rank: 1, StudentName: "Alice", XP: 120, Level: 2},
		{Rank: 2, StudentName: "Bob", XP: 80, Level: 2},
	}

	if err := c.SendDailyDigest("Class 3B", entries); err != nil {
		t.Fatalf("SendDailyDigest() failed: %v", err)
	}

	if !strings.Contains(received.Text, "Class 3B") || !strings.Contains(received.Text, "🥇") {
		t.Errorf("Unexpected digest text: %q", received.Text)
	}
}
