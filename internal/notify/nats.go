// Package notify announces finished pipeline runs on a NATS subject.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/contentbuilder/internal/logfields"
)

// RunCompletedEvent is published once per run after the post-render steps.
type RunCompletedEvent struct {
	RunID        string    `json:"run_id"`
	Outcome      string    `json:"outcome"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	TrackedFiles int       `json:"tracked_files"`
	MediaFiles   int       `json:"media_files"`
	Entities     int       `json:"entities"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	Skipped      int       `json:"skipped"`
	Manifest     string    `json:"manifest,omitempty"`
	ManifestHash string    `json:"manifest_hash,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Conn is the part of a NATS connection the notifier uses.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Notifier publishes run events.
type Notifier struct {
	conn    Conn
	subject string
	timeout time.Duration
}

// Connect dials url and returns a Notifier publishing on subject.
func Connect(url, subject string) (*Notifier, error) {
	conn, err := nats.Connect(url,
		nats.Name("contentbuilder"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return New(conn, subject), nil
}

// New wraps an existing connection.
func New(conn Conn, subject string) *Notifier {
	return &Notifier{conn: conn, subject: subject, timeout: 5 * time.Second}
}

// PublishRunCompleted publishes event and waits for the server to
// acknowledge the flush.
func (n *Notifier) PublishRunCompleted(event *RunCompletedEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := n.conn.FlushTimeout(n.timeout); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}

	slog.Debug("Published run completed event",
		logfields.RunID(event.RunID),
		slog.String("subject", n.subject),
		slog.String("outcome", event.Outcome))
	return nil
}

// Close closes the connection.
func (n *Notifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
