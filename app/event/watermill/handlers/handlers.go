package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/event/discord/announce"
	eventevents "github.com/Black-And-White-Club/discord-event-bot/app/events/event"
	guildevents "github.com/Black-And-White-Club/discord-event-bot/app/events/guild"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	messagecreator "github.com/Black-And-White-Club/discord-event-bot/app/shared/utils"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bwmarrin/discordgo"
)

// Handlers consumes event lifecycle messages.
type Handlers interface {
	HandleEventCreated(msg *message.Message) error
	HandleEventSignup(msg *message.Message) error
	HandleEventUpdated(msg *message.Message) error
	HandleGuildSetup(msg *message.Message) error
}

// SetupConfirmation is posted in a newly configured event channel.
const SetupConfirmation = "✅ New events will be announced in this channel."

// EventHandlers handles event lifecycle messages.
type EventHandlers struct {
	Logger    *slog.Logger
	Announcer announce.AnnounceManager
	Session   discord.Session
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(logger *slog.Logger, announcer announce.AnnounceManager, session discord.Session) Handlers {
	return &EventHandlers{
		Logger:    logger,
		Announcer: announcer,
		Session:   session,
	}
}

// decode reads msg into out. Malformed messages are logged and dropped since
// retrying them cannot help.
func decode[T any](h *EventHandlers, msg *message.Message, out *T) bool {
	if err := messagecreator.Decode(msg, out); err != nil {
		h.Logger.ErrorContext(msg.Context(), "Dropping malformed message",
			attr.String("message_id", msg.UUID),
			attr.Error(err))
		return false
	}
	return true
}

func (h *EventHandlers) HandleEventCreated(msg *message.Message) error {
	var payload eventevents.EventCreatedPayload
	if !decode(h, msg, &payload) {
		return nil
	}
	if payload.EventID == "" {
		return errors.New("event created message without event id")
	}
	err := h.Announcer.Announce(msg.Context(), payload.EventID)
	if errors.Is(err, discord.ErrMaybeSent) {
		h.Logger.ErrorContext(msg.Context(), "Not retrying an announcement that may have been posted",
			attr.String("event_id", payload.EventID),
			attr.Error(err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to announce event %s: %w", payload.EventID, err)
	}
	return nil
}

// HandleEventSignup redraws the attendance of the announcement.
func (h *EventHandlers) HandleEventSignup(msg *message.Message) error {
	var payload eventevents.EventSignupPayload
	if !decode(h, msg, &payload) {
		return nil
	}
	if err := h.Announcer.Refresh(msg.Context(), payload.EventID); err != nil {
		return fmt.Errorf("failed to refresh event %s: %w", payload.EventID, err)
	}
	return nil
}

// HandleEventUpdated records the edit. The announcement was already redrawn
// by the edit itself.
func (h *EventHandlers) HandleEventUpdated(msg *message.Message) error {
	var payload eventevents.EventUpdatedPayload
	if !decode(h, msg, &payload) {
		return nil
	}
	h.Logger.InfoContext(msg.Context(), "Event updated",
		attr.String("event_id", payload.EventID),
		attr.GuildID(payload.GuildID),
		attr.UserID(payload.UpdatedBy),
		attr.Time("updated_at", payload.UpdatedAt))
	return nil
}

func (h *EventHandlers) HandleGuildSetup(msg *message.Message) error {
	var payload guildevents.GuildSetupEvent
	if !decode(h, msg, &payload) {
		return nil
	}
	if payload.EventChannelID == "" {
		return nil
	}
	ctx := msg.Context()
	return h.confirmSetup(ctx, payload)
}

func (h *EventHandlers) confirmSetup(ctx context.Context, payload guildevents.GuildSetupEvent) error {
	send := &discordgo.MessageSend{
		Content:         SetupConfirmation,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	err := discord.RetryRateLimited(ctx, h.Logger, "confirm_setup", func() error {
		_, sendErr := h.Session.ChannelMessageSendComplex(payload.EventChannelID, send)
		return sendErr
	})
	if errors.Is(err, discord.ErrMaybeSent) {
		h.Logger.ErrorContext(ctx, "Not retrying a setup confirmation that may have been posted",
			attr.GuildID(payload.GuildID),
			attr.Error(err))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to confirm setup in channel %s: %w", payload.EventChannelID, err)
	}
	h.Logger.InfoContext(ctx, "Guild setup confirmed",
		attr.GuildID(payload.GuildID),
		attr.ChannelID(payload.EventChannelID),
		attr.UserID(payload.AdminUserID))
	return nil
}
