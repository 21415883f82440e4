package realtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"docgen"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const progressSubjects = "docgen.batch.*.progress"

// NATSBridge forwards batch progress published on NATS into the Hub.
type NATSBridge struct {
	conn   *nats.Conn
	hub    *Hub
	sub    *nats.Subscription
	logger zerolog.Logger
}

func NewNATSBridge(conn *nats.Conn, hub *Hub) *NATSBridge {
	return &NATSBridge{conn: conn, hub: hub, logger: docgen.Logger}
}

// Subscribe listens on docgen.batch.*.progress.
func (b *NATSBridge) Subscribe() error {
	sub, err := b.conn.Subscribe(progressSubjects, b.handle)
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", progressSubjects, err)
	}
	b.sub = sub
	b.logger.Info().Str("subject", progressSubjects).Msg("NATS bridge subscribed")
	return nil
}

func (b *NATSBridge) handle(msg *nats.Msg) {
	batchID, err := parseBatchIDFromSubject(msg.Subject)
	if err != nil {
		b.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("Ignoring progress message")
		return
	}

	data, err := json.Marshal(outgoingMsg{
		Type:    "batch.progress",
		BatchID: batchID.String(),
		Payload: json.RawMessage(msg.Data),
	})
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to encode progress envelope")
		return
	}
	if !b.hub.Publish(batchID, data) {
		b.logger.Debug().Str("batchId", batchID.String()).Msg("Hub stopped, progress dropped")
	}
}

// Close drains the subscription.
func (b *NATSBridge) Close() {
	if b.sub == nil {
		return
	}
	if err := b.sub.Drain(); err != nil {
		b.logger.Warn().Err(err).Msg("NATS drain failed")
	}
}

// parseBatchIDFromSubject extracts the id from "docgen.batch.<id>.progress".
func parseBatchIDFromSubject(subject string) (uuid.UUID, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 4 || parts[0] != "docgen" || parts[1] != "batch" || parts[3] != "progress" {
		return uuid.Nil, fmt.Errorf("unexpected subject %q", subject)
	}
	id, err := uuid.Parse(parts[2])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid batch id %q: %w", parts[2], err)
	}
	return id, nil
}
