package eventevents

import "time"

// Topic constants for event lifecycle messages
const (
	EventCreatedTopic = "event.created"
	EventUpdatedTopic = "event.updated"
	EventSignupTopic  = "event.signup"
)

// EventCreatedPayload is published once the creation wizard has stored an event.
type EventCreatedPayload struct {
	EventID   string    `json:"event_id"`
	GuildID   string    `json:"guild_id"`
	ChannelID string    `json:"channel_id"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EventUpdatedPayload is published after the creator edits an announced event.
type EventUpdatedPayload struct {
	EventID   string    `json:"event_id"`
	GuildID   string    `json:"guild_id"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventSignupPayload is published for every accepted signup.
type EventSignupPayload struct {
	EventID string `json:"event_id"`
	GuildID string `json:"guild_id"`
	UserID  string `json:"user_id"`
	Count   int    `json:"count"`
}
