// Package storage persists events, signups, cookie wallets and guild
// configuration. Every multi-row mutation runs in one transaction.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientCookies = errors.New("insufficient cookies")
	ErrSelfTransfer        = errors.New("cannot give cookies to yourself")
	ErrAlreadySignedUp     = errors.New("already signed up")
	ErrEventFull           = errors.New("event is full")
)

// StarterCookies is the balance a wallet opens with.
const StarterCookies = 5

// EventType is the kind of event chosen in the creation wizard.
type EventType string

const (
	EventTypeGame   EventType = "game"
	EventTypeMeetup EventType = "meetup"
	EventTypeWatch  EventType = "watch"
	EventTypeOther  EventType = "other"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeGame, EventTypeMeetup, EventTypeWatch, EventTypeOther:
		return true
	default:
		return false
	}
}

// Event is a planned guild event.
type Event struct {
	ID              string
	GuildID         string
	ChannelID       string
	CreatorID       string
	Title           string
	Description     string
	Type            EventType
	StartsAt        time.Time
	ReminderMinutes int
	Capacity        int // 0 is unlimited
	Details         map[string]string
	BannerURL       string
	AnnounceChannel string
	AnnounceMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// GuildConfig is the per-guild bot configuration.
type GuildConfig struct {
	GuildID        string    `json:"guild_id"`
	EventChannelID string    `json:"event_channel_id"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsConfigured reports whether the guild has finished setup.
func (c *GuildConfig) IsConfigured() bool {
	return c != nil && c.EventChannelID != ""
}

//go:generate mockgen -source=storage.go -destination=mocks/mock_store.go -package=mocks

// Store is the persistence boundary used by handlers.
type Store interface {
	CreateEvent(ctx context.Context, ev *Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	UpdateEvent(ctx context.Context, id string, mutate func(*Event) error) (*Event, error)
	SetAnnouncement(ctx context.Context, id, channelID, messageID string) error

	SignUp(ctx context.Context, eventID, userID string) (int, error)
	Signups(ctx context.Context, eventID string) ([]string, error)

	GiveCookie(ctx context.Context, guildID, fromUserID, toUserID string) (fromBalance, toBalance int, err error)
	CookieBalance(ctx context.Context, guildID, userID string) (int, error)

	GetGuildConfig(ctx context.Context, guildID string) (*GuildConfig, error)
	SaveGuildConfig(ctx context.Context, cfg *GuildConfig) error

	Ping(ctx context.Context) error
	Close() error
}
