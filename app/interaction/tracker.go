package interaction

import (
	"log/slog"
	"time"

	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/bwmarrin/discordgo"
)

// Tracker wraps inbound interactions and owns the registry they are indexed in.
type Tracker struct {
	session        discord.Session
	logger         *slog.Logger
	registry       *Registry
	metrics        Metrics
	strictFollowUp bool
	now            func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithRegistry replaces the default registry.
func WithRegistry(r *Registry) Option {
	return func(t *Tracker) { t.registry = r }
}

func WithMetrics(m Metrics) Option {
	return func(t *Tracker) { t.metrics = m }
}

// WithStrictFollowUp refuses FollowUp before any acknowledgment instead of
// upgrading it to Reply.
func WithStrictFollowUp() Option {
	return func(t *Tracker) { t.strictFollowUp = true }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(session discord.Session, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		session: session,
		logger:  logger,
		metrics: NoOpMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.registry == nil {
		t.registry = NewRegistry(DefaultMaxEntries, TokenLifetime, WithRegistryClock(t.now), WithRegistryLogger(logger))
	}
	t.registry.metrics = t.metrics
	return t
}

func (t *Tracker) Registry() *Registry { return t.registry }

// Wrap parses ic and wraps the resulting event.
func (t *Tracker) Wrap(ic *discordgo.InteractionCreate) (*Tracked, error) {
	ev, err := Parse(ic)
	if err != nil {
		return nil, err
	}
	return t.WrapEvent(ev), nil
}

// WrapEvent registers ev. A redelivered event id returns the instance
// already registered for it, so its acknowledgment state is shared.
func (t *Tracker) WrapEvent(ev Event) *Tracked {
	tracked := newTracked(t, ev)
	if existing, inserted := t.registry.setIfAbsent(tracked); !inserted {
		t.logger.Debug("interaction already tracked", attr.InteractionID(ev.Common().ID))
		return existing
	}
	return tracked
}
