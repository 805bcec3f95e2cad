package guildevents

import (
	"time"
)

// Topic constants for guild events
const (
	GuildSetupEventTopic = "guild.setup"
)

// GuildSetupEvent is published when an admin configures the guild.
type GuildSetupEvent struct {
	GuildID          string    `json:"guild_id"`
	AdminUserID      string    `json:"admin_user_id"`
	EventChannelID   string    `json:"event_channel_id"`
	SetupCompletedAt time.Time `json:"setup_completed_at"`
}
