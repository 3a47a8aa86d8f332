package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/flyover/internal/core/domain"
)

const (
	sessionStream   = "MAP_SESSIONS"
	sessionSubjects = "flyover.session.>"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure the session stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("flyover-api"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream(nats.PublishAsyncMaxPending(1024))
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:       sessionStream,
		Subjects:   []string{sessionSubjects},
		Retention:  nats.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Storage:    nats.FileStorage,
		Duplicates: 2 * time.Minute,
	}
	if _, err := js.AddStream(cfg); err != nil {
		// Stream may already exist
		if _, err := js.UpdateStream(cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// Subject returns the subject an event is published on.
func Subject(e *domain.SessionEvent) string {
	return "flyover.session." + string(e.Type)
}

// MsgID identifies an event for JetStream de-duplication. A session never
// emits two events of one type at the same instant.
func MsgID(e *domain.SessionEvent) string {
	return e.SessionID + ":" + string(e.Type) + ":" + strconv.FormatInt(e.OccurredAt.UnixNano(), 10)
}

// PublishSessionEvent publishes without waiting for the stream ack, so it is
// safe to call from a session loop.
func (p *Publisher) PublishSessionEvent(_ context.Context, e *domain.SessionEvent) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(Subject(e))
	msg.Data = data
	msg.Header.Set("Flyover-Session", e.SessionID)
	msg.Header.Set(nats.MsgIdHdr, MsgID(e))
	_, err = p.js.PublishMsgAsync(msg)
	return err
}

// Connected reports whether the connection is up.
func (p *Publisher) Connected() bool {
	return p.conn.IsConnected()
}

// Close flushes pending acks, then drains and closes the connection.
func (p *Publisher) Close() {
	select {
	case <-p.js.PublishAsyncComplete():
	case <-time.After(2 * time.Second):
	}
	_ = p.conn.Drain()
}
