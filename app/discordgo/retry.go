package discord

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/bwmarrin/discordgo"
)

// Discord JSON error codes for interaction token problems.
const (
	errCodeUnknownInteraction             = 10062
	errCodeInteractionAlreadyAcknowledged = 40060
)

const (
	maxDiscordAPIRetryAttempts = 5
	discordAPIBaseRetryDelay   = 200 * time.Millisecond
	discordAPIMaxRetryDelay    = 3 * time.Second
)

// RetryDiscordAPI retries transient Discord API failures with exponential backoff and jitter.
// Only idempotent calls such as message edits should be retried; initial
// interaction responses are never passed through here.
func RetryDiscordAPI(ctx context.Context, logger *slog.Logger, operation string, fn func() error) error {
	return retry(ctx, logger, operation, fn, IsRetryableDiscordError)
}

// ErrMaybeSent marks a failed send that Discord may still have processed.
var ErrMaybeSent = errors.New("discord may have processed the request")

// RetryRateLimited retries fn only when Discord rejected it with 429, which
// means the request was not processed. Use it for calls that create messages,
// where a retry after a 5xx or a timeout could post twice. Such failures are
// returned wrapped in ErrMaybeSent.
func RetryRateLimited(ctx context.Context, logger *slog.Logger, operation string, fn func() error) error {
	err := retry(ctx, logger, operation, fn, IsRateLimited)
	if err != nil && !IsRateLimited(err) && IsRetryableDiscordError(err) {
		return fmt.Errorf("%w: %w", ErrMaybeSent, err)
	}
	return err
}

func retry(ctx context.Context, logger *slog.Logger, operation string, fn func() error, retryable func(error) bool) error {
	delay := discordAPIBaseRetryDelay
	var lastErr error

	for attempt := 1; attempt <= maxDiscordAPIRetryAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == maxDiscordAPIRetryAttempts || !retryable(err) {
			return err
		}

		wait := delay + randomJitter(delay/2)
		if logger != nil {
			logger.WarnContext(ctx, "Retrying transient Discord API failure",
				attr.String("operation", operation),
				attr.Int("attempt", attempt),
				attr.Duration("retry_in", wait),
				attr.Error(err),
			)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}

		delay *= 2
		if delay > discordAPIMaxRetryDelay {
			delay = discordAPIMaxRetryDelay
		}
	}

	return lastErr
}

// IsRetryableDiscordError reports whether err is a rate limit, a 5xx or a network timeout.
func IsRetryableDiscordError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Response != nil {
			status := restErr.Response.StatusCode
			if status == http.StatusTooManyRequests || status >= 500 {
				return true
			}
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// IsRateLimited reports whether Discord answered 429 Too Many Requests.
func IsRateLimited(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil &&
		restErr.Response.StatusCode == http.StatusTooManyRequests
}

// IsUnknownInteraction reports whether Discord rejected the call because the
// interaction token expired or was already acknowledged.
func IsUnknownInteraction(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return false
	}
	return restErr.Message.Code == errCodeUnknownInteraction ||
		restErr.Message.Code == errCodeInteractionAlreadyAcknowledged
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	n, err := rand.Int(rand.Reader, big.NewInt(max.Nanoseconds()+1))
	if err != nil {
		return 0
	}
	return time.Duration(n.Int64())
}
