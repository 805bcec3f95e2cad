package guildconfig

import (
	"context"

	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
)

// GuildConfigResolver defines the interface for guild config resolution and caching.
type GuildConfigResolver interface {
	GetGuildConfigWithContext(ctx context.Context, guildID string) (*storage.GuildConfig, error)
	IsGuildSetupComplete(ctx context.Context, guildID string) bool
	SaveGuildConfig(ctx context.Context, cfg *storage.GuildConfig) error
}
