package eventrouter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	eventhandlers "github.com/Black-And-White-Club/discord-event-bot/app/event/watermill/handlers"
	eventevents "github.com/Black-And-White-Club/discord-event-bot/app/events/event"
	guildevents "github.com/Black-And-White-Club/discord-event-bot/app/events/guild"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/eventbus"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// EventRouter consumes the domain events published by the Discord handlers.
type EventRouter struct {
	logger     *slog.Logger
	Router     *message.Router
	subscriber eventbus.EventBus
	wmLogger   watermill.LoggerAdapter
	tracer     trace.Tracer
}

// NewEventRouter creates a new EventRouter. A nil tracer is replaced by a
// no-op.
func NewEventRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	wmLogger watermill.LoggerAdapter,
	tracer trace.Tracer,
) *EventRouter {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	return &EventRouter{
		logger:     logger,
		Router:     router,
		subscriber: subscriber,
		wmLogger:   wmLogger,
		tracer:     tracer,
	}
}

// Configure sets up the router. extra middlewares run inside the tracing
// span.
func (r *EventRouter) Configure(ctx context.Context, handlers eventhandlers.Handlers, extra ...message.HandlerMiddleware) error {
	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
		traceHandler(r.tracer),
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			Logger:          r.wmLogger,
		}.Middleware,
	)
	r.Router.AddMiddleware(extra...)

	if err := r.RegisterHandlers(ctx, handlers); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}
	return nil
}

// RegisterHandlers registers event handlers.
func (r *EventRouter) RegisterHandlers(ctx context.Context, handlers eventhandlers.Handlers) error {
	r.logger.InfoContext(ctx, "Registering Event Handlers")

	eventsToHandlers := map[string]message.NoPublishHandlerFunc{
		eventevents.EventCreatedTopic:    handlers.HandleEventCreated,
		eventevents.EventSignupTopic:     handlers.HandleEventSignup,
		eventevents.EventUpdatedTopic:    handlers.HandleEventUpdated,
		guildevents.GuildSetupEventTopic: handlers.HandleGuildSetup,
	}

	for topic, handlerFunc := range eventsToHandlers {
		handlerName := fmt.Sprintf("discord-event.%s", topic)
		r.Router.AddNoPublisherHandler(
			handlerName,
			topic,
			r.subscriber,
			func(msg *message.Message) error {
				if err := handlerFunc(msg); err != nil {
					r.logger.ErrorContext(msg.Context(), "Error processing event message",
						attr.String("handler", handlerName),
						attr.String("message_id", msg.UUID),
						attr.String("correlation_id", middleware.MessageCorrelationID(msg)),
						attr.Error(err),
					)
					return err
				}
				return nil
			},
		)
	}

	r.logger.InfoContext(ctx, "Event router configured successfully",
		attr.Int("registered_handlers", len(eventsToHandlers)))
	return nil
}

// Close gracefully shuts down the router
func (r *EventRouter) Close() error {
	if r.Router != nil {
		return r.Router.Close()
	}
	return nil
}

func traceHandler(tracer trace.Tracer) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			ctx, span := tracer.Start(msg.Context(), message.HandlerNameFromCtx(msg.Context()),
				trace.WithSpanKind(trace.SpanKindConsumer),
				trace.WithAttributes(
					attribute.String("messaging.message.id", msg.UUID),
					attribute.String("messaging.destination.name", message.SubscribeTopicFromCtx(msg.Context())),
				))
			defer span.End()
			msg.SetContext(ctx)

			out, err := h(msg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return out, err
		}
	}
}
