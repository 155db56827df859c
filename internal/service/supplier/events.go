package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Additional-Code/fornecedor/internal/entity"
	"github.com/Additional-Code/fornecedor/internal/messaging"
)

// EventType names a supplier lifecycle change.
type EventType string

const (
	EventCreated EventType = "supplier.created"
	EventUpdated EventType = "supplier.updated"
	EventDeleted EventType = "supplier.deleted"
)

// SupplierEvent is published after every successful write.
type SupplierEvent struct {
	ID           string              `json:"id"`
	Type         EventType           `json:"type"`
	SupplierID   int64               `json:"supplier_id"`
	Document     string              `json:"document"`
	DocumentType entity.DocumentType `json:"document_type"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// EventKey is the message key used for a supplier's events.
func EventKey(id int64) []byte {
	return []byte(fmt.Sprintf("supplier-%d", id))
}

func (s *Service) publish(ctx context.Context, kind EventType, supplier *entity.Supplier) {
	if !s.messaging.enabled || s.publisher == nil || supplier == nil {
		return
	}
	event := SupplierEvent{
		ID:           uuid.NewString(),
		Type:         kind,
		SupplierID:   supplier.ID,
		Document:     supplier.Document,
		DocumentType: supplier.DocumentType,
		OccurredAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal supplier event", zap.String("type", string(kind)), zap.Error(err))
		return
	}
	msg := messaging.Message{
		Key:   EventKey(supplier.ID),
		Value: payload,
		Headers: map[string]string{
			messaging.HeaderEventType:   string(kind),
			messaging.HeaderContentType: "application/json",
		},
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("publish supplier event",
			zap.String("type", string(kind)),
			zap.Int64("id", supplier.ID),
			zap.String("topic", s.messaging.topic),
			zap.Error(err),
		)
	}
}
