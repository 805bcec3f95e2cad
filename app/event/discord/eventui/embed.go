// Package eventui builds the event embeds, buttons and forms shared by the
// creation wizard and the announcement.
package eventui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/bwmarrin/discordgo"
)

// ComponentPrefix starts the custom id of every announcement component:
// "event|<event id>|<action>".
const ComponentPrefix = "event|"

const (
	ActionSignup = "signup"
	ActionEdit   = "edit"
	ActionForm   = "form"
)

const embedColor = 0x5865F2

// ComponentID builds an announcement custom id.
func ComponentID(eventID, action string, extra ...string) string {
	parts := append([]string{eventID, action}, extra...)
	return ComponentPrefix + strings.Join(parts, "|")
}

// ParseComponentID splits an announcement custom id into event id and action.
func ParseComponentID(customID string) (eventID, action string, ok bool) {
	rest, found := strings.CutPrefix(customID, ComponentPrefix)
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "|")
	if len(parts) < 2 || parts[0] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// TypeLabel is the display name of an event type.
func TypeLabel(t storage.EventType) string {
	switch t {
	case storage.EventTypeGame:
		return "🎮 Game night"
	case storage.EventTypeMeetup:
		return "📍 Meetup"
	case storage.EventTypeWatch:
		return "🍿 Watch party"
	case storage.EventTypeOther:
		return "✨ Other"
	default:
		return string(t)
	}
}

// ReminderOptions are the selectable reminder offsets in minutes.
var ReminderOptions = []int{0, 15, 60, 1440}

func ReminderLabel(minutes int) string {
	switch {
	case minutes <= 0:
		return "No reminder"
	case minutes%1440 == 0:
		return fmt.Sprintf("%d day(s) before", minutes/1440)
	case minutes%60 == 0:
		return fmt.Sprintf("%d hour(s) before", minutes/60)
	default:
		return fmt.Sprintf("%d minutes before", minutes)
	}
}

// Timestamp renders t with Discord's localized timestamp markup.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:f> (<t:%d:R>)", t.Unix(), t.Unix())
}

// Embed renders ev. signups is the number of people going; a negative value
// hides the attendance field, as in previews before the event exists.
func Embed(ev *storage.Event, signups int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("**%s**", ev.Title),
		Description: ev.Description,
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📅 When", Value: Timestamp(ev.StartsAt)},
			{Name: "Type", Value: TypeLabel(ev.Type), Inline: true},
			{Name: "⏰ Reminder", Value: ReminderLabel(ev.ReminderMinutes), Inline: true},
		},
		Timestamp: ev.StartsAt.Format(time.RFC3339),
	}

	for _, f := range detailFields(ev.Type) {
		if v := ev.Details[f.Key]; v != "" {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Label, Value: v, Inline: true})
		}
	}
	// Details not described by the type's form, sorted for a stable layout.
	var extra []string
	for k := range ev.Details {
		if !hasDetailField(ev.Type, k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: k, Value: ev.Details[k], Inline: true})
	}

	if signups >= 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "✅ Going", Value: Attendance(signups, ev.Capacity)})
	} else if ev.Capacity > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "👥 Capacity", Value: fmt.Sprintf("%d", ev.Capacity), Inline: true})
	}
	if ev.BannerURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: ev.BannerURL}
	}
	if ev.CreatorID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Host", Value: fmt.Sprintf("<@%s>", ev.CreatorID), Inline: true})
	}
	return embed
}

// Attendance renders "3 / 10" or "3" for unlimited events.
func Attendance(count, capacity int) string {
	if capacity > 0 {
		return fmt.Sprintf("%d / %d", count, capacity)
	}
	return fmt.Sprintf("%d", count)
}

// AnnouncementComponents are the buttons under an announced event. Sign up
// is disabled once the event is full.
func AnnouncementComponents(ev *storage.Event, signups int) []discordgo.MessageComponent {
	full := ev.Capacity > 0 && signups >= ev.Capacity
	label := "Sign up"
	if full {
		label = "Full"
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    label,
					Style:    discordgo.SuccessButton,
					CustomID: ComponentID(ev.ID, ActionSignup),
					Disabled: full,
				},
				discordgo.Button{
					Label:    "Edit",
					Style:    discordgo.SecondaryButton,
					CustomID: ComponentID(ev.ID, ActionEdit),
				},
			},
		},
	}
}
