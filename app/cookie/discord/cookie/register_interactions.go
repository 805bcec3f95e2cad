package cookie

import (
	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/interactions"
)

// RegisterHandlers routes /cookie to the manager.
func RegisterHandlers(router *interactions.Router, manager CookieManager) {
	router.RegisterHandler(discord.CommandCookie, manager.HandleCookieCommand)
}
