package discord

import (
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/bwmarrin/discordgo"
)

// Slash command names routed by the interaction router.
const (
	CommandEvent  = "event"
	CommandCookie = "cookie"
	CommandSetup  = "setup"
	CommandDebug  = "debug"
)

var (
	manageGuildPermission   int64 = discordgo.PermissionManageServer
	administratorPermission int64 = discordgo.PermissionAdministrator
	minDumpLimit                  = 1.0
)

// Commands returns the application command definitions.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandEvent,
			Description: "Plan events",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Start the event creation wizard",
				},
			},
		},
		{
			Name:        CommandCookie,
			Description: "Cookies!",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "give",
					Description: "Give someone a cookie",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "user",
							Description: "Who gets the cookie",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "balance",
					Description: "Show your cookie balance",
				},
			},
		},
		{
			Name:                     CommandSetup,
			Description:              "Configure the bot for this server",
			DefaultMemberPermissions: &manageGuildPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "event-channel",
					Description: "Channel where new events are announced",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionChannel,
							Name:         "channel",
							Description:  "Announcement channel",
							Required:     true,
							ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
						},
					},
				},
			},
		},
		{
			Name:                     CommandDebug,
			Description:              "Operator diagnostics",
			DefaultMemberPermissions: &administratorPermission,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "interactions",
					Description: "Dump the most recently tracked interactions",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "limit",
							Description: "How many entries to show",
							MinValue:    &minDumpLimit,
							MaxValue:    25,
						},
					},
				},
			},
		},
	}
}

// RegisterCommands registers the bot's slash commands with Discord, creating
// only the commands that do not exist yet.
func RegisterCommands(s Session, logger *slog.Logger, guildID string) error {
	appUser, err := s.GetBotUser()
	if err != nil {
		return fmt.Errorf("failed to retrieve bot user: %w", err)
	}

	existing := map[string]bool{}
	current, err := s.ApplicationCommands(appUser.ID, guildID)
	if err != nil {
		logger.Warn("Failed to list existing commands, creating all", attr.Error(err))
	}
	for _, cmd := range current {
		if cmd != nil && cmd.Name != "" {
			existing[cmd.Name] = true
		}
	}

	for _, cmd := range Commands() {
		if existing[cmd.Name] {
			logger.Debug("command already registered", attr.String("command", cmd.Name))
			continue
		}
		if _, err := s.ApplicationCommandCreate(appUser.ID, guildID, cmd); err != nil {
			logger.Error("Failed to create command", attr.String("command", cmd.Name), attr.Error(err))
			return fmt.Errorf("failed to create '/%s' command: %w", cmd.Name, err)
		}
		logger.Info("registered command", attr.String("command", cmd.Name))
	}
	return nil
}
