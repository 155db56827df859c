package supplier

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/fornecedor/internal/cache"
	"github.com/Additional-Code/fornecedor/internal/config"
	"github.com/Additional-Code/fornecedor/internal/messaging"
	suppliersvc "github.com/Additional-Code/fornecedor/internal/service/supplier"
	"github.com/Additional-Code/fornecedor/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/fornecedor/worker/supplier")

// Module registers supplier event handlers.
var Module = fx.Module("worker_supplier",
	fx.Provide(
		fx.Annotate(
			NewEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewEventHandler consumes supplier events. Every event drops the cached record so
// replicas sharing the cache never serve a stale supplier.
func NewEventHandler(logger *zap.Logger, cfg config.Config, store cache.Store) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.suppliers.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
			attribute.String("messaging.event_type", msg.Header(messaging.HeaderEventType)),
		))
		defer span.End()

		var event suppliersvc.SupplierEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode supplier event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(
			attribute.String("supplier.event", string(event.Type)),
			attribute.Int64("supplier.id", event.SupplierID),
		)

		if err := store.Delete(ctx, suppliersvc.CacheKey(event.SupplierID)); err != nil {
			logger.Warn("supplier cache eviction failed", zap.Int64("id", event.SupplierID), zap.Error(err))
		}

		logger.Info("supplier event processed",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Int64("id", event.SupplierID),
			zap.String("document_type", string(event.DocumentType)),
			zap.String("document", event.Document),
		)

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
