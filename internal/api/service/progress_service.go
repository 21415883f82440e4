package service

import (
	"encoding/json"
	"fmt"

	"docgen"
	"docgen/internal/batch"
	"docgen/internal/generate"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// ProgressMessage is published for every state change of a batch item.
type ProgressMessage struct {
	BatchID      string `json:"batchId"`
	Index        int    `json:"index"`
	Worker       string `json:"worker"`
	TemplateName string `json:"templateName"`
	Status       string `json:"status"`
	OutputPath   string `json:"outputPath,omitempty"`
	Kind         string `json:"kind,omitempty"`
	Message      string `json:"message,omitempty"`
}

// ProgressService publishes batch progress on NATS. Without a connection
// it only logs.
type ProgressService struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

func NewProgressService() *ProgressService {
	return &ProgressService{conn: docgen.Nats, logger: docgen.Logger}
}

func ProgressSubject(batchID uuid.UUID) string {
	return fmt.Sprintf("docgen.batch.%s.progress", batchID)
}

func NewProgressMessage(batchID uuid.UUID, ev batch.Event) ProgressMessage {
	msg := ProgressMessage{
		BatchID:      batchID.String(),
		Index:        ev.Index,
		Worker:       ev.Worker,
		TemplateName: ev.Request.TemplateName,
		Status:       string(ev.Status),
		OutputPath:   ev.Result.OutputPath,
	}
	if ev.Err != nil {
		msg.Kind = generate.KindOf(ev.Err).String()
		msg.Message = ev.Err.Error()
	}
	return msg
}

func (slf *ProgressService) Publish(batchID uuid.UUID, ev batch.Event) {
	msg := NewProgressMessage(batchID, ev)
	if slf.conn == nil {
		slf.logger.Debug().
			Str("batchId", msg.BatchID).
			Int("index", msg.Index).
			Str("status", msg.Status).
			Msg("Batch progress")
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to encode progress message")
		return
	}
	if err := slf.conn.Publish(ProgressSubject(batchID), data); err != nil {
		slf.logger.Warn().Err(err).Str("batchId", msg.BatchID).Msg("Failed to publish progress")
	}
}

// Observer binds the publisher to one batch.
func (slf *ProgressService) Observer(batchID uuid.UUID) batch.Observer {
	return batch.ObserverFunc(func(ev batch.Event) {
		slf.Publish(batchID, ev)
	})
}
