// Package notifier provides a webhook client for pushing classroom events to
// a chat channel (badge unlocks, level ups, daily digests).
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/davinwzy/growth-lab/internal/config"
	"github.com/davinwzy/growth-lab/internal/gamification"
	"github.com/davinwzy/growth-lab/pkg/logger"
)

// Client handles webhook notifications.
type Client struct {
	webhookURL string
	channel    string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new webhook client.
func NewClient(cfg *config.NotifierConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		channel:    cfg.Channel,
		enabled:    cfg.Enabled,
		httpClient: http.DefaultClient,
		log:        log,
	}
}

// Message represents a webhook message payload.
type Message struct {
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text,omitempty"`
	IconURL  string `json:"icon_url,omitempty"`
}

// SendMessage sends a message to the webhook.
func (c *Client) SendMessage(msg *Message) error {
	if !c.enabled {
		c.log.Debug().Msg("Notifier is disabled, skipping message")
		return nil
	}

	if msg.Channel == "" {
		msg.Channel = c.channel
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	c.log.Debug().
		Str("channel", msg.Channel).
		Msg("Sent webhook message")

	return nil
}

// SendSimpleMessage sends a simple text message.
func (c *Client) SendSimpleMessage(text string) error {
	return c.SendMessage(&Message{
		Text: text,
	})
}

// SendEngineEvents announces the events produced by a scoring operation.
// Only celebratory events are pushed; an empty slice sends nothing.
func (c *Client) SendEngineEvents(studentName string, events []gamification.Event) error {
	if !c.enabled || len(events) == 0 {
		return nil
	}

	text := ""
	for _, ev := range events {
		switch ev.Type {
		case gamification.EventLevelUp:
			text += fmt.Sprintf("⬆️ **%s** reached level %d: %s %s\n",
				studentName, ev.Data.NewLevel, ev.Data.LevelEmoji, ev.Data.LevelName)
		case gamification.EventBadgeEarned:
			text += fmt.Sprintf("🏅 **%s** earned the badge %s %s\n",
				studentName, ev.Data.BadgeEmoji, ev.Data.BadgeName)
		case gamification.EventStreakMilestone:
			text += fmt.Sprintf("🔥 **%s** hit a %d-day streak!\n",
				studentName, ev.Data.StreakDays)
		}
	}

	if text == "" {
		return nil
	}
	return c.SendSimpleMessage(text)
}

// DigestEntry is one leaderboard row for the daily digest.
type DigestEntry struct {
	Rank        int
	StudentName string
	XP          int
	Level       int
}

// SendDailyDigest sends a classroom summary with the top students.
func (c *Client) SendDailyDigest(classroomName string, entries []DigestEntry) error {
	if len(entries) == 0 {
		c.log.Debug().Msg("No leaderboard entries, skipping daily digest")
		return nil
	}

	text := fmt.Sprintf("### 🌟 Daily Summary: %s\n\n", classroomName)
	for _, e := range entries {
		medal := "•"
		switch e.Rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}
		text += fmt.Sprintf("%s **%s** — %d XP (level %d)\n", medal, e.StudentName, e.XP, e.Level)
	}

	return c.SendMessage(&Message{
		Username: "Growth Lab",
		Text:     text,
	})
}
