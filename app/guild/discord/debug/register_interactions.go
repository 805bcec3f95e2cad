package debug

import (
	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/interactions"
)

// RegisterHandlers routes /debug to the manager. Only admins may run it.
func RegisterHandlers(router *interactions.Router, manager DebugManager) {
	router.RegisterHandlerWithPermissions(discord.CommandDebug, manager.HandleDebugCommand, interactions.AdminRequired, false)
}
