package interaction

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/bwmarrin/discordgo"
)

// Tracked wraps one interaction and enforces the acknowledgment protocol.
// Illegal calls are refused with (false, nil) and a warning; legal calls make
// exactly one platform call. A mutex is held across the state check and the
// platform call, so concurrent callers can never both win the first response.
type Tracked struct {
	tracker   *Tracker
	event     Event
	createdAt time.Time
	activity  atomic.Int64

	mu        sync.Mutex
	flags     Flags
	history   []HistoryEntry
	messageID string
	disposed  bool
}

func newTracked(tr *Tracker, ev Event) *Tracked {
	now := tr.now()
	t := &Tracked{tracker: tr, event: ev, createdAt: now}
	t.activity.Store(now.UnixNano())
	return t
}

func (t *Tracked) Event() Event { return t.event }

func (t *Tracked) ID() string { return t.event.Common().ID }

// CreatedAt is when the interaction was wrapped.
func (t *Tracked) CreatedAt() time.Time { return t.createdAt }

// LastActivity is the time of the most recent call into t.
func (t *Tracked) LastActivity() time.Time {
	return time.Unix(0, t.activity.Load())
}

// Expired reports whether the interaction token is past its lifetime at now.
func (t *Tracked) Expired(now time.Time) bool {
	return now.Sub(t.event.Common().CreatedAt) > TokenLifetime
}

func (t *Tracked) Flags() Flags {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flags
}

func (t *Tracked) Phase() Phase { return t.Flags().Phase() }

// History returns a copy of every call recorded so far.
func (t *Tracked) History() []HistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]HistoryEntry, len(t.history))
	copy(out, t.history)
	return out
}

// ResponseMessageID is the id of the message produced by the last reply or edit, if known.
func (t *Tracked) ResponseMessageID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.messageID
}

func (t *Tracked) Disposed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disposed
}

// DeferReply acknowledges with a "thinking" placeholder that is later edited.
func (t *Tracked) DeferReply(ctx context.Context, opts ...CallOption) (bool, error) {
	o := collectOptions(opts)
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.newEntry(ActionDeferReply, o, callsite(1))

	if t.flags.Acknowledged() {
		return t.refuse(ctx, entry, "interaction already acknowledged")
	}
	err := t.session().InteractionRespond(t.raw(), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: messageFlags(o.ephemeral)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return t.fail(ctx, entry, err)
	}
	t.flags.DeferredReply = true
	return t.succeed(ctx, entry, "deferred")
}

// Reply sends the visible response. After DeferReply it edits the deferred
// placeholder. With ForceFollowUp it posts a follow-up once acknowledged.
func (t *Tracked) Reply(ctx context.Context, p Payload, opts ...CallOption) (bool, error) {
	o := collectOptions(opts)
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.newEntry(ActionReply, o, callsite(1))

	switch {
	case t.flags.ModalShown:
		return t.refuse(ctx, entry, "a modal was shown; the interaction has no message to reply with")
	case !t.flags.Acknowledged():
		return t.respondLocked(ctx, entry, p, o, "replied")
	case o.forceFollowUp:
		return t.followUpLocked(ctx, entry, p, o, "posted follow-up")
	case t.flags.Replied:
		return t.refuse(ctx, entry, "already replied; use EditReply or FollowUp")
	case t.flags.updateFamily():
		return t.refuse(ctx, entry, "mixed protocol: interaction was acknowledged with an update")
	default:
		return t.editLocked(ctx, entry, p, "edited deferred reply")
	}
}

// EditReply edits the original response, or the originating message after DeferUpdate.
func (t *Tracked) EditReply(ctx context.Context, p Payload, opts ...CallOption) (bool, error) {
	o := collectOptions(opts)
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.newEntry(ActionEditReply, o, callsite(1))

	switch {
	case t.flags.ModalShown:
		return t.refuse(ctx, entry, "a modal was shown; there is no response to edit")
	case !t.flags.Acknowledged():
		return t.refuse(ctx, entry, "nothing to edit: interaction not acknowledged")
	case t.flags.Updated && !t.flags.DeferredUpdate:
		return t.refuse(ctx, entry, "update already completed the response")
	default:
		return t.editLocked(ctx, entry, p, "edited")
	}
}

// FollowUp posts an additional message. Before any acknowledgment it is
// upgraded to Reply unless the tracker is strict.
func (t *Tracked) FollowUp(ctx context.Context, p Payload, opts ...CallOption) (bool, error) {
	o := collectOptions(opts)
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.newEntry(ActionFollowUp, o, callsite(1))

	switch {
	case t.flags.ModalShown:
		return t.refuse(ctx, entry, "a modal was shown; follow-ups are not possible")
	case !t.flags.Acknowledged() && t.tracker.strictFollowUp:
		return t.refuse(ctx, entry, "follow-up before any acknowledgment")
	case !t.flags.Acknowledged():
		return t.respondLocked(ctx, entry, p, o, "upgraded to reply: interaction not yet acknowledged")
	default:
		return t.followUpLocked(ctx, entry, p, o, "posted follow-up")
	}
}

// DeferUpdate acknowledges a component interaction without changing its message yet.
func (t *Tracked) DeferUpdate(ctx context.Context, opts ...CallOption) (bool, error) {
	o := collectOptions(opts)
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.newEntry(ActionDeferUpdate, o, callsite(1))

	if ok, reason := t.canUpdate(); !ok {
		return t.refuse(ctx, entry, reason)
	}
	err := t.session().InteractionRespond(t.raw(), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return t.fail(ctx, entry, err)
	}
	t.flags.DeferredUpdate = true
	return t.succeed(ctx, entry, "deferred update")
}

// Update replaces the originating message as the first and final response.
func (t *Tracked) Update(ctx context.Context, p Payload, opts ...CallOption) (bool, error) {
	o := collectOptions(opts)
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.newEntry(ActionUpdate, o, callsite(1))

	if ok, reason := t.canUpdate(); !ok {
		return t.refuse(ctx, entry, reason)
	}
	err := t.session().InteractionRespond(t.raw(), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: p.responseData(false),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return t.fail(ctx, entry, err)
	}
	t.flags.Updated = true
	return t.succeed(ctx, entry, "updated message")
}

// ShowModal opens a form. It must be the first response and is terminal.
func (t *Tracked) ShowModal(ctx context.Context, m Modal, opts ...CallOption) (bool, error) {
	o := collectOptions(opts)
	t.mu.Lock()
	defer t.mu.Unlock()
	entry := t.newEntry(ActionShowModal, o, callsite(1))

	if _, isSubmit := t.event.(*ModalSubmit); isSubmit {
		return t.refuse(ctx, entry, "a modal submit cannot open another modal")
	}
	if t.flags.Acknowledged() {
		return t.refuse(ctx, entry, "a modal must be the first response")
	}
	err := t.session().InteractionRespond(t.raw(), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   m.CustomID,
			Title:      m.Title,
			Components: m.Components,
		},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return t.fail(ctx, entry, err)
	}
	t.flags.ModalShown = true
	return t.succeed(ctx, entry, "modal "+m.CustomID)
}

// Dispose removes t from the registry. Calls after Dispose still work and are recorded.
func (t *Tracked) Dispose() {
	t.mu.Lock()
	entry := t.newEntry(ActionDispose, callOptions{}, callsite(1))
	entry.Legal = true
	if t.disposed {
		entry.Outcome = "already disposed"
	} else {
		entry.Outcome = "disposed"
	}
	t.disposed = true
	t.history = append(t.history, entry)
	t.mu.Unlock()

	t.tracker.registry.Delete(t.ID())
}

func (t *Tracked) canUpdate() (bool, string) {
	switch {
	case !supportsUpdate(t.event):
		return false, "update family requires a component interaction or a modal opened from one"
	case t.flags.replyFamily():
		return false, "mixed protocol: interaction was acknowledged with a reply"
	case t.flags.Acknowledged():
		return false, "interaction already acknowledged"
	default:
		return true, ""
	}
}

func (t *Tracked) respondLocked(ctx context.Context, entry HistoryEntry, p Payload, o callOptions, outcome string) (bool, error) {
	err := t.session().InteractionRespond(t.raw(), &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: p.responseData(o.ephemeral),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return t.fail(ctx, entry, err)
	}
	t.flags.Replied = true
	return t.succeed(ctx, entry, outcome)
}

func (t *Tracked) editLocked(ctx context.Context, entry HistoryEntry, p Payload, outcome string) (bool, error) {
	msg, err := t.session().InteractionResponseEdit(t.raw(), p.webhookEdit(), discordgo.WithContext(ctx))
	if err != nil {
		return t.fail(ctx, entry, err)
	}
	if msg != nil {
		t.messageID = msg.ID
	}
	if t.flags.updateFamily() {
		t.flags.Updated = true
	} else {
		t.flags.Replied = true
	}
	return t.succeed(ctx, entry, outcome)
}

func (t *Tracked) followUpLocked(ctx context.Context, entry HistoryEntry, p Payload, o callOptions, outcome string) (bool, error) {
	if _, err := t.session().FollowupMessageCreate(t.raw(), true, p.webhookParams(o.ephemeral), discordgo.WithContext(ctx)); err != nil {
		return t.fail(ctx, entry, err)
	}
	return t.succeed(ctx, entry, outcome)
}

// newEntry stamps a history entry. Callers hold t.mu so entry times follow
// append order.
func (t *Tracked) newEntry(action Action, o callOptions, site string) HistoryEntry {
	now := t.tracker.now()
	t.activity.Store(now.UnixNano())
	return HistoryEntry{
		Time:     now,
		Action:   action,
		Tag:      o.tag,
		Note:     o.note,
		Callsite: site,
	}
}

func (t *Tracked) refuse(ctx context.Context, entry HistoryEntry, reason string) (bool, error) {
	entry.Legal = false
	entry.Outcome = reason
	t.history = append(t.history, entry)

	meta := t.event.Common()
	t.tracker.logger.WarnContext(ctx, "Refused illegal interaction call",
		attr.InteractionID(meta.ID),
		attr.UserID(meta.ActorID),
		attr.GuildID(meta.GuildID),
		attr.String("kind", t.event.Kind().String()),
		attr.String("action", string(entry.Action)),
		attr.String("reason", reason),
		attr.String("flags", t.flags.String()),
		attr.String("tag", entry.Tag),
		attr.String("note", entry.Note),
		attr.String("callsite", entry.Callsite),
	)
	t.tracker.metrics.RecordProtocolViolation(entry.Action, t.event.Kind())
	return false, nil
}

func (t *Tracked) fail(ctx context.Context, entry HistoryEntry, err error) (bool, error) {
	entry.Legal = true
	entry.Outcome = "platform error"
	entry.Err = err
	t.history = append(t.history, entry)

	meta := t.event.Common()
	t.tracker.logger.ErrorContext(ctx, "Interaction call failed",
		attr.InteractionID(meta.ID),
		attr.UserID(meta.ActorID),
		attr.String("action", string(entry.Action)),
		attr.Bool("unknown_interaction", discord.IsUnknownInteraction(err)),
		attr.String("callsite", entry.Callsite),
		attr.Error(err),
	)
	t.tracker.metrics.RecordPlatformError(entry.Action, t.event.Kind())
	return false, fmt.Errorf("%s on interaction %s: %w", entry.Action, meta.ID, err)
}

func (t *Tracked) succeed(ctx context.Context, entry HistoryEntry, outcome string) (bool, error) {
	entry.Legal = true
	entry.Outcome = outcome
	t.history = append(t.history, entry)

	t.tracker.logger.DebugContext(ctx, "Interaction call succeeded",
		attr.InteractionID(t.ID()),
		attr.String("action", string(entry.Action)),
		attr.String("outcome", outcome),
		attr.String("phase", string(t.flags.Phase())),
	)
	t.tracker.metrics.RecordAcknowledgment(entry.Action, t.event.Kind())
	return true, nil
}

func (t *Tracked) session() discord.Session { return t.tracker.session }

func (t *Tracked) raw() *discordgo.Interaction { return t.event.Common().Raw }
