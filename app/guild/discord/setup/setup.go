// Package setup serves the /setup command that configures a guild.
package setup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	guildevents "github.com/Black-And-White-Club/discord-event-bot/app/events/guild"
	"github.com/Black-And-White-Club/discord-event-bot/app/guildconfig"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	messagecreator "github.com/Black-And-White-Club/discord-event-bot/app/shared/utils"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bwmarrin/discordgo"
)

const (
	MessageGuildOnly      = "Setup can only be run in a server."
	MessageMissingChannel = "Pick the channel where events should be announced."
	MessageUnknownCommand = "Unknown setup command."
)

// SetupManager stores guild configuration.
type SetupManager interface {
	HandleSetupCommand(ctx context.Context, tracked *interaction.Tracked) error
}

type setupManager struct {
	resolver  guildconfig.GuildConfigResolver
	publisher message.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewSetupManager creates a SetupManager.
func NewSetupManager(resolver guildconfig.GuildConfigResolver, publisher message.Publisher, logger *slog.Logger) SetupManager {
	return &setupManager{
		resolver:  resolver,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *setupManager) HandleSetupCommand(ctx context.Context, tr *interaction.Tracked) error {
	cmd, ok := tr.Event().(*interaction.Command)
	if !ok {
		return fmt.Errorf("%w: setup expects a command", interaction.ErrUnsupportedInteraction)
	}
	if cmd.GuildID == "" {
		return reply(ctx, tr, MessageGuildOnly)
	}
	if cmd.Subcommand != "event-channel" {
		return reply(ctx, tr, MessageUnknownCommand)
	}

	channelID := channelOption(cmd, "channel")
	if channelID == "" {
		return reply(ctx, tr, MessageMissingChannel)
	}

	ok, err := tr.DeferReply(ctx, interaction.Ephemeral(), interaction.Tag("setup"))
	if err != nil {
		return fmt.Errorf("failed to acknowledge setup: %w", err)
	}
	if !ok {
		return nil
	}

	cfg := &storage.GuildConfig{GuildID: cmd.GuildID, EventChannelID: channelID, UpdatedAt: s.now().UTC()}
	if err := s.resolver.SaveGuildConfig(ctx, cfg); err != nil {
		return fmt.Errorf("failed to save guild config for %s: %w", cmd.GuildID, err)
	}
	s.logger.InfoContext(ctx, "Guild configured",
		attr.GuildID(cmd.GuildID),
		attr.ChannelID(channelID),
		attr.UserID(cmd.ActorID))

	if _, err := tr.EditReply(ctx, interaction.Text(fmt.Sprintf("✅ Events will be announced in <#%s>.", channelID)), interaction.Tag("setup")); err != nil {
		return err
	}

	msg, err := messagecreator.BuildMessageFromInteraction(guildevents.GuildSetupEventTopic, guildevents.GuildSetupEvent{
		GuildID:          cmd.GuildID,
		AdminUserID:      cmd.ActorID,
		EventChannelID:   channelID,
		SetupCompletedAt: cfg.UpdatedAt,
	}, tr)
	if err == nil {
		err = s.publisher.Publish(guildevents.GuildSetupEventTopic, msg)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish guild setup",
			attr.GuildID(cmd.GuildID),
			attr.Error(err))
	}
	return nil
}

func channelOption(cmd *interaction.Command, name string) string {
	opt, ok := cmd.Options[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionChannel {
		return ""
	}
	id, _ := opt.Value.(string)
	return id
}

func reply(ctx context.Context, tr *interaction.Tracked, content string) error {
	_, err := tr.Reply(ctx, interaction.Text(content), interaction.Ephemeral())
	return err
}
