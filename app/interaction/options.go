package interaction

import (
	"github.com/bwmarrin/discordgo"
)

// CallOption adjusts a single acknowledgment call.
type CallOption func(*callOptions)

type callOptions struct {
	ephemeral     bool
	forceFollowUp bool
	tag           string
	note          string
}

func collectOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Ephemeral makes a reply or deferred reply visible only to the invoking user.
func Ephemeral() CallOption {
	return func(o *callOptions) { o.ephemeral = true }
}

// ForceFollowUp makes Reply post a follow-up message once the interaction is
// already acknowledged, instead of refusing.
func ForceFollowUp() CallOption {
	return func(o *callOptions) { o.forceFollowUp = true }
}

// Tag labels the history entry, e.g. with the wizard step issuing the call.
func Tag(tag string) CallOption {
	return func(o *callOptions) { o.tag = tag }
}

// Note attaches free text to the history entry.
func Note(note string) CallOption {
	return func(o *callOptions) { o.note = note }
}

// Payload is the message content for replies, edits, follow-ups and updates.
// An edit replaces the whole view: nil Embeds or Components clear them.
type Payload struct {
	Content         string
	Embeds          []*discordgo.MessageEmbed
	Components      []discordgo.MessageComponent
	Files           []*discordgo.File
	AllowedMentions *discordgo.MessageAllowedMentions
}

// Text is a content-only payload.
func Text(content string) Payload {
	return Payload{Content: content}
}

// Modal is the form opened by ShowModal.
type Modal struct {
	CustomID   string
	Title      string
	Components []discordgo.MessageComponent
}

func messageFlags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}

func (p Payload) responseData(ephemeral bool) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Content:         p.Content,
		Embeds:          p.Embeds,
		Components:      p.Components,
		Files:           p.Files,
		AllowedMentions: p.AllowedMentions,
		Flags:           messageFlags(ephemeral),
	}
}

func (p Payload) webhookEdit() *discordgo.WebhookEdit {
	content := p.Content
	embeds := p.Embeds
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	components := p.Components
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return &discordgo.WebhookEdit{
		Content:         &content,
		Embeds:          &embeds,
		Components:      &components,
		Files:           p.Files,
		AllowedMentions: p.AllowedMentions,
	}
}

func (p Payload) webhookParams(ephemeral bool) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Content:         p.Content,
		Embeds:          p.Embeds,
		Components:      p.Components,
		Files:           p.Files,
		AllowedMentions: p.AllowedMentions,
		Flags:           messageFlags(ephemeral),
	}
}
