package announce

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/collector"
	"github.com/Black-And-White-Club/discord-event-bot/app/event/discord/eventui"
	eventevents "github.com/Black-And-White-Club/discord-event-bot/app/events/event"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/operation"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	messagecreator "github.com/Black-And-White-Club/discord-event-bot/app/shared/utils"
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

const (
	MessageAlreadySignedUp = "You're already signed up."
	MessageFull            = "Sorry, this event is full."
	MessageGone            = "This event no longer exists."
	MessageNotCreator      = "Only the person who created this event can edit it."
	MessageEditClosed      = "Editing is closed for this event."
	MessageFormExpired     = "This form has expired."
	MessageUpdated         = "Event updated."
	messageApology         = "Sorry, something went wrong. Please try again."
)

func (m *announceManager) HandleComponent(ctx context.Context, tracked *interaction.Tracked) error {
	return m.handle(ctx, tracked, false)
}

// handle serves one announcement component. live is set while the event's
// listener is running, which is what keeps editing open.
func (m *announceManager) handle(ctx context.Context, tr *interaction.Tracked, live bool) error {
	eventID, action, ok := eventui.ParseComponentID(interaction.CustomID(tr.Event()))
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownComponent, interaction.CustomID(tr.Event()))
	}

	switch action {
	case eventui.ActionSignup:
		return m.signUp(ctx, tr, eventID)
	case eventui.ActionEdit:
		if !live {
			return reply(ctx, tr, MessageEditClosed)
		}
		return m.beginEdit(ctx, tr, eventID)
	case eventui.ActionForm:
		return reply(ctx, tr, MessageFormExpired)
	default:
		return fmt.Errorf("%w: action %s", errUnknownComponent, action)
	}
}

func (m *announceManager) signUp(ctx context.Context, tr *interaction.Tracked, eventID string) error {
	ok, err := tr.DeferReply(ctx, interaction.Ephemeral(), interaction.Tag("signup"))
	if err != nil {
		return fmt.Errorf("failed to acknowledge signup: %w", err)
	}
	if !ok {
		return nil
	}
	userID := tr.Event().Common().ActorID

	result, err := m.runner.Run(ctx, "event_signup", func(ctx context.Context) (operation.Result, error) {
		count, err := m.store.SignUp(ctx, eventID, userID)
		switch {
		case errors.Is(err, storage.ErrAlreadySignedUp):
			return operation.Result{Failure: MessageAlreadySignedUp, Error: err}, nil
		case errors.Is(err, storage.ErrEventFull):
			return operation.Result{Failure: MessageFull, Error: err}, nil
		case errors.Is(err, storage.ErrNotFound):
			return operation.Result{Failure: MessageGone, Error: err}, nil
		case err != nil:
			return operation.Result{}, err
		}
		return operation.Result{Success: count}, nil
	})
	if err != nil {
		return err
	}
	if result.Error != nil {
		_, err := tr.EditReply(ctx, interaction.Text(result.Failure.(string)), interaction.Tag("signup"))
		return err
	}

	count := result.Success.(int)
	if _, err := tr.EditReply(ctx, interaction.Text(fmt.Sprintf("✅ You're signed up! %d going.", count)), interaction.Tag("signup")); err != nil {
		return err
	}

	msg, err := messagecreator.BuildMessageFromInteraction(eventevents.EventSignupTopic, eventevents.EventSignupPayload{
		EventID: eventID,
		GuildID: tr.Event().Common().GuildID,
		UserID:  userID,
		Count:   count,
	}, tr)
	if err == nil {
		err = m.publisher.Publish(eventevents.EventSignupTopic, msg)
	}
	if err != nil {
		m.logger.WarnContext(ctx, "Failed to publish signup",
			attr.String("event_id", eventID),
			attr.Error(err))
	}
	return nil
}

// beginEdit opens the edit form for the creator. The submission is awaited
// in the background so the event's other buttons keep working meanwhile.
func (m *announceManager) beginEdit(ctx context.Context, tr *interaction.Tracked, eventID string) error {
	ev, err := m.store.GetEvent(ctx, eventID)
	if errors.Is(err, storage.ErrNotFound) {
		return reply(ctx, tr, MessageGone)
	}
	if err != nil {
		return fmt.Errorf("failed to load event %s: %w", eventID, err)
	}
	actorID := tr.Event().Common().ActorID
	if actorID != ev.CreatorID {
		return reply(ctx, tr, MessageNotCreator)
	}

	formID := eventui.ComponentID(ev.ID, eventui.ActionForm, uuid.NewString()[:8])
	ok, err := tr.ShowModal(ctx, eventui.DetailsModal(formID, "Edit event", eventui.DetailsFrom(ev)), interaction.Tag("edit"))
	if err != nil {
		return fmt.Errorf("failed to open edit form: %w", err)
	}
	if !ok {
		return nil
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.awaitEdit(m.baseCtx, ev.ID, actorID, formID)
	}()
	return nil
}

func (m *announceManager) awaitEdit(ctx context.Context, eventID, actorID, formID string) {
	res := m.hub.Await(ctx, collector.Filter{
		ActorID:  actorID,
		CustomID: formID,
		Kinds:    []interaction.Kind{interaction.KindModalSubmit},
	}, m.config.FormTimeout)
	if !res.Collected() {
		m.logger.DebugContext(ctx, "Edit form was not submitted",
			attr.String("event_id", eventID),
			attr.String("outcome", res.Outcome.String()))
		return
	}
	tr := res.Tracked
	defer tr.Dispose()

	if err := m.applyEdit(ctx, tr, eventID); err != nil {
		m.logger.ErrorContext(ctx, "Event edit failed",
			attr.String("event_id", eventID),
			attr.InteractionID(tr.ID()),
			attr.Error(err))
		apologize(ctx, tr)
	}
}

// applyEdit validates the submitted form and stores it. The submission came
// from the announcement's Edit button, so its update edits the announcement.
func (m *announceManager) applyEdit(ctx context.Context, tr *interaction.Tracked, eventID string) error {
	submit, ok := tr.Event().(*interaction.ModalSubmit)
	if !ok {
		return fmt.Errorf("%w: expected a modal submit", errUnknownComponent)
	}
	if _, err := tr.DeferUpdate(ctx, interaction.Tag("edit")); err != nil {
		return fmt.Errorf("failed to acknowledge edit: %w", err)
	}

	details, problems := eventui.ParseDetails(submit.Fields, m.parser)
	signups, err := m.store.Signups(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load signups for event %s: %w", eventID, err)
	}
	if details.Capacity > 0 && details.Capacity < len(signups) {
		problems = append(problems, fmt.Sprintf("%d people are already signed up, so the capacity can't be lower.", len(signups)))
	}
	if len(problems) > 0 {
		_, err := tr.FollowUp(ctx, interaction.Text("Nothing changed.\n"+eventui.Problems(problems)), interaction.Ephemeral(), interaction.Tag("edit"))
		return err
	}

	updated, err := m.store.UpdateEvent(ctx, eventID, func(ev *storage.Event) error {
		ev.Title = details.Title
		ev.Description = details.Description
		ev.StartsAt = details.StartsAt
		ev.Capacity = details.Capacity
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", eventID, err)
	}

	view := interaction.Payload{
		Content:    announcementContent(updated),
		Embeds:     []*discordgo.MessageEmbed{eventui.Embed(updated, len(signups))},
		Components: eventui.AnnouncementComponents(updated, len(signups)),
	}
	if _, err := tr.EditReply(ctx, view, interaction.Tag("edit")); err != nil {
		return err
	}
	if _, err := tr.FollowUp(ctx, interaction.Text(MessageUpdated), interaction.Ephemeral(), interaction.Tag("edit")); err != nil {
		return err
	}

	msg, err := messagecreator.BuildMessageFromInteraction(eventevents.EventUpdatedTopic, eventevents.EventUpdatedPayload{
		EventID:   eventID,
		GuildID:   updated.GuildID,
		UpdatedBy: tr.Event().Common().ActorID,
		UpdatedAt: time.Now().UTC(),
	}, tr)
	if err == nil {
		err = m.publisher.Publish(eventevents.EventUpdatedTopic, msg)
	}
	if err != nil {
		m.logger.WarnContext(ctx, "Failed to publish event update",
			attr.String("event_id", eventID),
			attr.Error(err))
	}
	return nil
}

func reply(ctx context.Context, tr *interaction.Tracked, content string) error {
	_, err := tr.Reply(ctx, interaction.Text(content), interaction.Ephemeral())
	return err
}

func apologize(ctx context.Context, tr *interaction.Tracked) {
	switch flags := tr.Flags(); {
	case flags.ModalShown:
	case !flags.Acknowledged():
		_, _ = tr.Reply(ctx, interaction.Text(messageApology), interaction.Ephemeral(), interaction.Tag("apology"))
	default:
		_, _ = tr.FollowUp(ctx, interaction.Text(messageApology), interaction.Ephemeral(), interaction.Tag("apology"))
	}
}
