// Package collector lets a handler suspend until a correlated follow-up event
// arrives: a component click, a modal submit or a file upload. The router
// offers every inbound event to the Hub before normal dispatch; the first
// matching subscription takes it.
package collector

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/bwmarrin/discordgo"
)

// DefaultTimeout applies when a non-positive timeout is passed.
const DefaultTimeout = 5 * time.Minute

// Outcome is how a wait resolved.
type Outcome int

const (
	Collected Outcome = iota + 1
	TimedOut
	Cancelled
	Stopped
)

func (o Outcome) String() string {
	switch o {
	case Collected:
		return "collected"
	case TimedOut:
		return "timed_out"
	case Cancelled:
		return "cancelled"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Result is the single resolution of a wait. Exactly one of Tracked or
// Upload is set when Outcome is Collected. The receiver owns Tracked and
// must dispose it.
type Result struct {
	Outcome Outcome
	Tracked *interaction.Tracked
	Upload  *Upload
}

func (r Result) Collected() bool { return r.Outcome == Collected }

// Upload is a message carrying a matching attachment.
type Upload struct {
	Message    *discordgo.Message
	Attachment *discordgo.MessageAttachment
}

// Filter selects interactions. Zero fields match anything, except that slash
// commands are only collected when Kinds names KindCommand.
type Filter struct {
	ActorID        string
	CustomID       string
	CustomIDPrefix string
	Kinds          []interaction.Kind
	MessageID      string
	Match          func(interaction.Event) bool
}

func (f Filter) Matches(ev interaction.Event) bool {
	if ev == nil {
		return false
	}
	if len(f.Kinds) > 0 {
		if !slices.Contains(f.Kinds, ev.Kind()) {
			return false
		}
	} else if ev.Kind() == interaction.KindCommand {
		return false
	}
	if f.ActorID != "" && ev.Common().ActorID != f.ActorID {
		return false
	}
	customID := interaction.CustomID(ev)
	if f.CustomID != "" && customID != f.CustomID {
		return false
	}
	if f.CustomIDPrefix != "" && !strings.HasPrefix(customID, f.CustomIDPrefix) {
		return false
	}
	if f.MessageID != "" && interaction.MessageID(ev) != f.MessageID {
		return false
	}
	if f.Match != nil && !f.Match(ev) {
		return false
	}
	return true
}

// UploadFilter selects a message with an attachment. ContentTypes are
// prefixes such as "image/"; empty accepts any attachment.
type UploadFilter struct {
	ActorID      string
	ChannelID    string
	ContentTypes []string
}

// match returns the first acceptable attachment of m, or nil.
func (f UploadFilter) match(m *discordgo.Message) *discordgo.MessageAttachment {
	if m == nil || m.Author == nil || m.Author.Bot {
		return nil
	}
	if f.ActorID != "" && m.Author.ID != f.ActorID {
		return nil
	}
	if f.ChannelID != "" && m.ChannelID != f.ChannelID {
		return nil
	}
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		if len(f.ContentTypes) == 0 {
			return a
		}
		for _, prefix := range f.ContentTypes {
			if strings.HasPrefix(a.ContentType, prefix) {
				return a
			}
		}
	}
	return nil
}

type delivery struct {
	tracked *interaction.Tracked
	upload  *Upload
}

// subscription is one registered wait. Exactly one of once, listener or
// mailbox is set.
type subscription struct {
	filter   *Filter
	uploads  *UploadFilter
	once     chan delivery // buffered 1
	listener *Listener
	mailbox  *Mailbox
}

// Hub holds the active subscriptions in registration order.
type Hub struct {
	mu      sync.Mutex
	subs    []*subscription
	logger  *slog.Logger
	metrics Metrics
}

// HubOption configures a Hub.
type HubOption func(*Hub)

func WithMetrics(m Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Hub{logger: logger, metrics: NoOpMetrics{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Len is the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Await waits for one interaction matching f.
func (h *Hub) Await(ctx context.Context, f Filter, timeout time.Duration) Result {
	return h.await(ctx, &subscription{filter: &f}, timeout)
}

// AwaitUpload waits for one message with an attachment matching f.
func (h *Hub) AwaitUpload(ctx context.Context, f UploadFilter, timeout time.Duration) Result {
	return h.await(ctx, &subscription{uploads: &f}, timeout)
}

// AwaitEither waits for whichever comes first: an interaction matching f or an
// upload matching uf. Only one of them is taken.
func (h *Hub) AwaitEither(ctx context.Context, f Filter, uf UploadFilter, timeout time.Duration) Result {
	return h.await(ctx, &subscription{filter: &f, uploads: &uf}, timeout)
}

func (h *Hub) await(ctx context.Context, sub *subscription, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	sub.once = make(chan delivery, 1)
	h.add(sub)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	outcome := TimedOut
	select {
	case d := <-sub.once:
		return h.collected(d)
	case <-timer.C:
	case <-ctx.Done():
		outcome = Cancelled
	}

	if !h.remove(sub) {
		// Offer already took the subscription and buffered its delivery.
		return h.collected(<-sub.once)
	}
	h.metrics.RecordWait(outcome)
	h.logger.DebugContext(ctx, "collector wait ended", attr.String("outcome", outcome.String()), attr.Duration("timeout", timeout))
	return Result{Outcome: outcome}
}

func (h *Hub) collected(d delivery) Result {
	h.metrics.RecordWait(Collected)
	return Result{Outcome: Collected, Tracked: d.tracked, Upload: d.upload}
}

// Offer hands tr to the first subscription whose filter matches. It returns
// false when nothing was waiting, in which case the caller keeps ownership.
func (h *Hub) Offer(tr *interaction.Tracked) bool {
	if tr == nil {
		return false
	}
	ev := tr.Event()

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subs {
		if sub.filter == nil || !sub.filter.Matches(ev) {
			continue
		}
		h.deliverLocked(i, sub, delivery{tracked: tr})
		h.logger.Debug("collector took interaction",
			attr.InteractionID(tr.ID()),
			attr.CustomID(interaction.CustomID(ev)),
		)
		return true
	}
	return false
}

// OfferMessage hands an upload to the first matching upload subscription.
func (h *Hub) OfferMessage(m *discordgo.MessageCreate) bool {
	if m == nil || m.Message == nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subs {
		if sub.uploads == nil {
			continue
		}
		att := sub.uploads.match(m.Message)
		if att == nil {
			continue
		}
		h.deliverLocked(i, sub, delivery{upload: &Upload{Message: m.Message, Attachment: att}})
		h.logger.Debug("collector took upload",
			attr.UserID(m.Author.ID),
			attr.ChannelID(m.ChannelID),
			attr.String("attachment", att.Filename),
		)
		return true
	}
	return false
}

func (h *Hub) deliverLocked(i int, sub *subscription, d delivery) {
	switch {
	case sub.listener != nil:
		sub.listener.enqueue(d.tracked)
		return
	case sub.mailbox != nil:
		sub.mailbox.enqueue(d)
		return
	}
	h.subs = slices.Delete(h.subs, i, i+1)
	h.metrics.RecordActive(len(h.subs))
	sub.once <- d
}

func (h *Hub) add(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, sub)
	h.metrics.RecordActive(len(h.subs))
}

// remove reports whether sub was still registered.
func (h *Hub) remove(sub *subscription) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := slices.Index(h.subs, sub)
	if i < 0 {
		return false
	}
	h.subs = slices.Delete(h.subs, i, i+1)
	h.metrics.RecordActive(len(h.subs))
	return true
}
