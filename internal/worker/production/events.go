package production

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/millflow/internal/config"
	"github.com/Additional-Code/millflow/internal/messaging"
	"github.com/Additional-Code/millflow/internal/notify"
	"github.com/Additional-Code/millflow/internal/tracking"
	"github.com/Additional-Code/millflow/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/millflow/worker/production")

// Module registers production event handlers with the worker engine.
var Module = fx.Module("worker_production",
	fx.Provide(
		fx.Annotate(
			NewEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewEventHandler decodes published production events and forwards them to
// the notifier. Undecodable messages are logged and skipped.
func NewEventHandler(logger *zap.Logger, cfg config.Config, notifier notify.Notifier) worker.HandlerRegistration {
	logger = logger.Named("production-events")
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.production.event", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.String("messaging.key", string(msg.Key)),
		))
		defer span.End()

		var ev tracking.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			logger.Error("failed to decode production event", zap.Error(err), zap.Int64("offset", msg.Offset))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return nil
		}
		span.SetAttributes(attribute.String("event.type", string(ev.Type)))

		if err := notifier.Notify(ctx, ev); err != nil {
			logger.Warn("notify failed",
				zap.String("event.type", string(ev.Type)),
				zap.String("order.id", ev.OrderID),
				zap.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "notify error")
			return err
		}
		logger.Debug("production event processed",
			zap.String("event.type", string(ev.Type)),
			zap.String("order.number", ev.OrderNumber),
		)
		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
