package setup

import (
	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/interactions"
)

// RegisterHandlers routes /setup to the manager. Only admins may run it.
func RegisterHandlers(router *interactions.Router, manager SetupManager) {
	router.RegisterHandlerWithPermissions(discord.CommandSetup, manager.HandleSetupCommand, interactions.AdminRequired, false)
}
