// Package wizard runs multi-step forms on top of one ephemeral message:
// render a step, await the user's answer, fold it, repeat.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/collector"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// Prefix starts every wizard custom id.
const Prefix = "wizard|"

const (
	TimedOutMessage  = "⏱️ Timed out, nothing changed."
	CancelledMessage = "Cancelled, nothing changed."
	ExpiredMessage   = "This form has expired."
)

// ErrRenderRefused is returned when the wizard message can no longer be edited.
var ErrRenderRefused = errors.New("wizard message could not be edited")

// Session is one in-progress wizard. It is used from the goroutine of the
// command that started it. From New until Close every component of the
// session is queued in its mailbox, so answers given while a step is still
// rendering are not lost.
type Session struct {
	ID      string
	ActorID string

	owner     *interaction.Tracked
	responder *interaction.Tracked
	mailbox   *collector.Mailbox
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time
	collected []*interaction.Tracked
}

// New starts a session owned by the command interaction owner, which must
// already be acknowledged with DeferReply.
func New(owner *interaction.Tracked, hub *collector.Hub, timeout time.Duration, logger *slog.Logger) *Session {
	if timeout <= 0 {
		timeout = collector.DefaultTimeout
	}
	s := &Session{
		ID:      uuid.NewString(),
		ActorID: owner.Event().Common().ActorID,
		owner:   owner,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
	s.mailbox = hub.Open(collector.Filter{
		ActorID:        s.ActorID,
		CustomIDPrefix: s.prefix(),
	})
	return s
}

// Owner is the command interaction that started the session.
func (s *Session) Owner() *interaction.Tracked { return s.owner }

func (s *Session) prefix() string { return Prefix + s.ID + "|" }

// CustomID builds a component id scoped to this session.
func (s *Session) CustomID(parts ...string) string {
	return s.prefix() + strings.Join(parts, "|")
}

// Action returns the part of a collected custom id after the session prefix.
func (s *Session) Action(tr *interaction.Tracked) string {
	return strings.TrimPrefix(interaction.CustomID(tr.Event()), s.prefix())
}

// Adopt makes tr, a component or modal interaction on the wizard message
// acknowledged with DeferUpdate, the one that edits the message from now on.
// Its token is fresher than the command's.
func (s *Session) Adopt(tr *interaction.Tracked) {
	if tr.Flags().DeferredUpdate {
		s.responder = tr
	}
}

func (s *Session) editor() *interaction.Tracked {
	if s.responder != nil && !s.responder.Expired(s.now()) {
		return s.responder
	}
	return s.owner
}

// Render replaces the wizard message with p.
func (s *Session) Render(ctx context.Context, p interaction.Payload, step string) error {
	ok, err := s.editor().EditReply(ctx, p, interaction.Tag(step))
	if err != nil {
		return fmt.Errorf("failed to render wizard step %s: %w", step, err)
	}
	if !ok {
		return fmt.Errorf("%w: step %s", ErrRenderRefused, step)
	}
	return nil
}

// Await waits for one of the session's components. Without kinds it accepts
// buttons, selects and modal submits. Components of other kinds are
// acknowledged and skipped.
func (s *Session) Await(ctx context.Context, kinds ...interaction.Kind) collector.Result {
	return s.AwaitWithin(ctx, s.timeout, kinds...)
}

// AwaitWithin is Await with a custom timeout.
func (s *Session) AwaitWithin(ctx context.Context, timeout time.Duration, kinds ...interaction.Kind) collector.Result {
	res := s.next(ctx, timeout, kinds, false)
	s.track(res)
	return res
}

// AwaitUploadOrComponent races an image upload by the actor in the wizard's
// channel against the session's components.
func (s *Session) AwaitUploadOrComponent(ctx context.Context, timeout time.Duration) collector.Result {
	s.mailbox.AcceptUploads(&collector.UploadFilter{
		ActorID:      s.ActorID,
		ChannelID:    s.owner.Event().Common().ChannelID,
		ContentTypes: []string{"image/"},
	})
	defer s.mailbox.AcceptUploads(nil)
	res := s.next(ctx, timeout, nil, true)
	s.track(res)
	return res
}

func (s *Session) next(ctx context.Context, timeout time.Duration, kinds []interaction.Kind, uploads bool) collector.Result {
	if timeout <= 0 {
		timeout = s.timeout
	}
	deadline := s.now().Add(timeout)
	for {
		remaining := deadline.Sub(s.now())
		if remaining <= 0 {
			return collector.Result{Outcome: collector.TimedOut}
		}
		res := s.mailbox.Next(ctx, remaining)
		switch {
		case !res.Collected():
			return res
		case res.Upload != nil:
			if uploads {
				return res
			}
			s.logger.DebugContext(ctx, "Wizard ignored a late upload", attr.String("session_id", s.ID))
		case len(kinds) == 0 || slices.Contains(kinds, res.Tracked.Event().Kind()):
			return res
		default:
			s.skip(ctx, res.Tracked)
		}
	}
}

// skip acknowledges a component the current step does not use.
func (s *Session) skip(ctx context.Context, tr *interaction.Tracked) {
	defer tr.Dispose()
	if _, err := tr.DeferUpdate(ctx, interaction.Tag("skip")); err != nil {
		s.logger.WarnContext(ctx, "Failed to acknowledge skipped wizard component",
			attr.String("session_id", s.ID),
			attr.InteractionID(tr.ID()),
			attr.Error(err))
	}
}

func (s *Session) track(res collector.Result) {
	if res.Tracked != nil {
		s.collected = append(s.collected, res.Tracked)
	}
	if !res.Collected() {
		s.logger.Debug("Wizard wait ended without input",
			attr.String("session_id", s.ID),
			attr.UserID(s.ActorID),
			attr.String("outcome", res.Outcome.String()))
	}
}

// Abandon replaces the wizard message with message and removes its components.
func (s *Session) Abandon(ctx context.Context, message string) {
	if message == "" {
		message = TimedOutMessage
	}
	p := interaction.Payload{Content: message, Components: []discordgo.MessageComponent{}}
	if err := s.Render(ctx, p, "abandon"); err != nil {
		s.logger.WarnContext(ctx, "Failed to close abandoned wizard",
			attr.String("session_id", s.ID),
			attr.Error(err))
	}
}

// Close stops queueing the session's components, answers the ones nobody
// read as expired and disposes every interaction the session collected.
func (s *Session) Close() {
	for _, tr := range s.mailbox.Close() {
		if _, err := tr.Reply(context.Background(), interaction.Text(ExpiredMessage), interaction.Ephemeral(), interaction.Tag("expired")); err != nil {
			s.logger.Warn("Failed to answer expired wizard component",
				attr.String("session_id", s.ID),
				attr.InteractionID(tr.ID()),
				attr.Error(err))
		}
		tr.Dispose()
	}
	for _, tr := range s.collected {
		tr.Dispose()
	}
	s.collected = nil
	s.responder = nil
}
