package createevent

import (
	"context"
	"log/slog"

	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/interactions"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/Black-And-White-Club/discord-event-bot/app/wizard"
)

// RegisterHandlers routes /event to the wizard. Wizard components only live
// while their session waits, so unclaimed ones are answered as expired.
func RegisterHandlers(router *interactions.Router, manager CreateEventManager) {
	router.RegisterHandlerWithPermissions(discord.CommandEvent, func(ctx context.Context, tracked *interaction.Tracked) error {
		slog.Info("Handling /event command", attr.InteractionID(tracked.ID()))
		return manager.HandleCreateCommand(ctx, tracked)
	}, interactions.NoPermissionRequired, true)

	router.RegisterExpired(wizard.Prefix)
}
