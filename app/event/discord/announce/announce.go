// Package announce posts created events to the guild's event channel and
// serves the Sign up and Edit buttons under them.
package announce

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/collector"
	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/event/discord/eventui"
	"github.com/Black-And-White-Club/discord-event-bot/app/guildconfig"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/operation"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/Black-And-White-Club/discord-event-bot/app/timeparse"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bwmarrin/discordgo"
)

// AnnounceManager owns the announcement message of every event.
type AnnounceManager interface {
	// Announce posts the event and watches its buttons for the edit window.
	// Announcing an event twice is a no-op.
	Announce(ctx context.Context, eventID string) error
	// Refresh redraws the announcement from the stored event.
	Refresh(ctx context.Context, eventID string) error
	// HandleComponent serves announcement components nobody is watching.
	HandleComponent(ctx context.Context, tracked *interaction.Tracked) error
	Watching(eventID string) bool
	Stop()
}

// Config bounds the announcement collectors.
type Config struct {
	// EditWindow is how long after announcing the creator can edit the event.
	EditWindow time.Duration
	// FormTimeout is how long an opened edit form is waited for.
	FormTimeout time.Duration
}

type announceManager struct {
	session   discord.Session
	store     storage.Store
	resolver  guildconfig.GuildConfigResolver
	hub       *collector.Hub
	publisher message.Publisher
	parser    *timeparse.Parser
	runner    *operation.Runner
	logger    *slog.Logger
	config    Config
	baseCtx   context.Context

	mu        sync.Mutex
	listeners map[string]*collector.Listener
	wg        sync.WaitGroup
}

// NewAnnounceManager creates an AnnounceManager. Listeners and edit forms
// run under ctx.
func NewAnnounceManager(
	ctx context.Context,
	session discord.Session,
	store storage.Store,
	resolver guildconfig.GuildConfigResolver,
	hub *collector.Hub,
	publisher message.Publisher,
	parser *timeparse.Parser,
	runner *operation.Runner,
	logger *slog.Logger,
	cfg Config,
) AnnounceManager {
	if runner == nil {
		runner = operation.NewRunner(logger, nil, nil)
	}
	if cfg.FormTimeout <= 0 {
		cfg.FormTimeout = collector.DefaultTimeout
	}
	return &announceManager{
		session:   session,
		store:     store,
		resolver:  resolver,
		hub:       hub,
		publisher: publisher,
		parser:    parser,
		runner:    runner,
		logger:    logger,
		config:    cfg,
		baseCtx:   ctx,
		listeners: make(map[string]*collector.Listener),
	}
}

func (m *announceManager) Announce(ctx context.Context, eventID string) error {
	ev, err := m.store.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load event %s: %w", eventID, err)
	}
	if ev.AnnounceMessage != "" {
		m.logger.InfoContext(ctx, "Event already announced", attr.String("event_id", ev.ID))
		return nil
	}

	channelID := ev.ChannelID
	cfg, err := m.resolver.GetGuildConfigWithContext(ctx, ev.GuildID)
	switch {
	case err == nil && cfg.IsConfigured():
		channelID = cfg.EventChannelID
	case err != nil && !guildconfig.IsConfigNotFound(err):
		return fmt.Errorf("failed to resolve event channel for guild %s: %w", ev.GuildID, err)
	}

	send := &discordgo.MessageSend{
		Content:         announcementContent(ev),
		Embeds:          []*discordgo.MessageEmbed{eventui.Embed(ev, 0)},
		Components:      eventui.AnnouncementComponents(ev, 0),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	var msg *discordgo.Message
	err = discord.RetryRateLimited(ctx, m.logger, "announce_event", func() error {
		var sendErr error
		msg, sendErr = m.session.ChannelMessageSendComplex(channelID, send)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("failed to post announcement for event %s: %w", ev.ID, err)
	}

	if err := m.store.SetAnnouncement(ctx, ev.ID, channelID, msg.ID); err != nil {
		return fmt.Errorf("failed to record announcement for event %s: %w", ev.ID, err)
	}
	ev.AnnounceChannel, ev.AnnounceMessage = channelID, msg.ID

	m.logger.InfoContext(ctx, "Event announced",
		attr.String("event_id", ev.ID),
		attr.ChannelID(channelID),
		attr.String("message_id", msg.ID))
	m.watch(ev)
	return nil
}

// watch listens for the event's buttons until the edit window closes.
// Edit form submissions are awaited separately.
func (m *announceManager) watch(ev *storage.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listeners[ev.ID]; ok {
		return
	}

	filter := collector.Filter{
		CustomIDPrefix: eventui.ComponentPrefix + ev.ID + "|",
		Kinds:          []interaction.Kind{interaction.KindButton},
	}
	l := m.hub.Listen(m.baseCtx, filter, m.config.EditWindow, func(ctx context.Context, tr *interaction.Tracked) {
		if err := m.handle(ctx, tr, true); err != nil {
			m.logger.ErrorContext(ctx, "Announcement interaction failed",
				attr.String("event_id", ev.ID),
				attr.InteractionID(tr.ID()),
				attr.Error(err))
			apologize(ctx, tr)
		}
	})
	m.listeners[ev.ID] = l

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		<-l.Done()
		m.mu.Lock()
		if m.listeners[ev.ID] == l {
			delete(m.listeners, ev.ID)
		}
		m.mu.Unlock()
		m.logger.Info("Stopped watching event",
			attr.String("event_id", ev.ID),
			attr.String("reason", l.Reason().String()))
	}()
}

func (m *announceManager) Watching(eventID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.listeners[eventID]
	return ok
}

// Stop ends every listener and waits for them and for open edit forms.
// Cancel the manager's context first to abandon the forms.
func (m *announceManager) Stop() {
	m.mu.Lock()
	for _, l := range m.listeners {
		l.Stop()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *announceManager) Refresh(ctx context.Context, eventID string) error {
	ev, err := m.store.GetEvent(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load event %s: %w", eventID, err)
	}
	if ev.AnnounceMessage == "" {
		return nil
	}
	signups, err := m.store.Signups(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to load signups for event %s: %w", eventID, err)
	}

	embeds := []*discordgo.MessageEmbed{eventui.Embed(ev, len(signups))}
	components := eventui.AnnouncementComponents(ev, len(signups))
	edit := &discordgo.MessageEdit{
		Channel:    ev.AnnounceChannel,
		ID:         ev.AnnounceMessage,
		Embeds:     &embeds,
		Components: &components,
	}
	err = discord.RetryDiscordAPI(ctx, m.logger, "refresh_announcement", func() error {
		_, editErr := m.session.ChannelMessageEditComplex(edit)
		return editErr
	})
	if err != nil {
		return fmt.Errorf("failed to refresh announcement for event %s: %w", eventID, err)
	}
	return nil
}

var errUnknownComponent = errors.New("unknown announcement component")

func announcementContent(ev *storage.Event) string {
	return fmt.Sprintf("📣 New event by <@%s>", ev.CreatorID)
}
