package guildconfig

import (
	"context"

	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
)

// FakeGuildConfigResolver provides a programmable stub for the GuildConfigResolver interface.
type FakeGuildConfigResolver struct {
	GetGuildConfigWithContextFunc func(ctx context.Context, guildID string) (*storage.GuildConfig, error)
	IsGuildSetupCompleteFunc      func(ctx context.Context, guildID string) bool
	SaveGuildConfigFunc           func(ctx context.Context, cfg *storage.GuildConfig) error
}

func (f *FakeGuildConfigResolver) GetGuildConfigWithContext(ctx context.Context, guildID string) (*storage.GuildConfig, error) {
	if f.GetGuildConfigWithContextFunc != nil {
		return f.GetGuildConfigWithContextFunc(ctx, guildID)
	}
	return nil, NewConfigNotFoundError(guildID, "fake resolver has no config")
}

func (f *FakeGuildConfigResolver) IsGuildSetupComplete(ctx context.Context, guildID string) bool {
	if f.IsGuildSetupCompleteFunc != nil {
		return f.IsGuildSetupCompleteFunc(ctx, guildID)
	}
	return false
}

func (f *FakeGuildConfigResolver) SaveGuildConfig(ctx context.Context, cfg *storage.GuildConfig) error {
	if f.SaveGuildConfigFunc != nil {
		return f.SaveGuildConfigFunc(ctx, cfg)
	}
	return nil
}

var _ GuildConfigResolver = (*FakeGuildConfigResolver)(nil)
