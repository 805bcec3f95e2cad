package announce

import (
	"context"

	"github.com/Black-And-White-Club/discord-event-bot/app/event/discord/eventui"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/interactions"
)

// RegisterHandlers routes announcement components that no listener took,
// such as clicks after the edit window or after a restart.
func RegisterHandlers(router *interactions.Router, manager AnnounceManager) {
	router.RegisterHandler(eventui.ComponentPrefix, func(ctx context.Context, tracked *interaction.Tracked) error {
		return manager.HandleComponent(ctx, tracked)
	})
}
