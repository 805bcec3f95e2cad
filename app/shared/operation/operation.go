// Package operation wraps handler work with a trace span, a duration log,
// panic recovery and request metrics.
package operation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Metrics records operation outcomes.
type Metrics interface {
	RecordAPIRequestDuration(ctx context.Context, operation string, duration time.Duration)
	RecordAPIError(ctx context.Context, operation string, errorType string)
	RecordAPIRequest(ctx context.Context, operation string)
}

type NoOpMetrics struct{}

func (NoOpMetrics) RecordAPIRequestDuration(context.Context, string, time.Duration) {}
func (NoOpMetrics) RecordAPIError(context.Context, string, string)                 {}
func (NoOpMetrics) RecordAPIRequest(context.Context, string)                       {}

// Result is what an operation produced. Error carries a user-facing failure
// that is not a transport error, for example a validation problem.
type Result struct {
	Success any
	Failure any
	Error   error
}

// Runner runs named operations.
type Runner struct {
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics Metrics
}

// NewRunner builds a Runner. A nil tracer or metrics is replaced by a no-op.
func NewRunner(logger *slog.Logger, tracer trace.Tracer, metrics Metrics) *Runner {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if metrics == nil {
		metrics = NoOpMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger, tracer: tracer, metrics: metrics}
}

// Run executes fn inside a span named operationName. A panic in fn is
// converted to an error.
func (r *Runner) Run(ctx context.Context, operationName string, fn func(ctx context.Context) (Result, error)) (result Result, err error) {
	if fn == nil {
		return Result{}, errors.New("operation function is nil")
	}

	ctx, span := r.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		duration := time.Since(start)
		r.logger.InfoContext(ctx, fmt.Sprintf("Completed %s", operationName),
			attr.String("duration_sec", fmt.Sprintf("%.2f", duration.Seconds())),
		)
		r.metrics.RecordAPIRequestDuration(ctx, operationName, duration)
	}()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, rec)
			r.logger.ErrorContext(ctx, "Recovered from panic", attr.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			r.metrics.RecordAPIError(ctx, operationName, "panic")
		}
	}()

	result, err = fn(ctx)
	if err != nil {
		wrapped := fmt.Errorf("%s operation error: %w", operationName, err)
		r.logger.ErrorContext(ctx, fmt.Sprintf("Error in %s", operationName), attr.Error(wrapped))
		span.RecordError(wrapped)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.RecordAPIError(ctx, operationName, "operation_error")
		return Result{}, wrapped
	}

	if result.Error != nil {
		span.RecordError(result.Error)
		r.metrics.RecordAPIError(ctx, operationName, "result_error")
	} else {
		r.metrics.RecordAPIRequest(ctx, operationName)
	}
	return result, nil
}
