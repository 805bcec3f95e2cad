// Package interaction owns the acknowledgment protocol for inbound Discord
// interactions. Every interaction is parsed into one Event variant, wrapped in
// a Tracked state machine by a Tracker and indexed in a Registry for
// diagnostics. Handlers respond only through Tracked, which refuses (and logs)
// any call the platform would reject for protocol reasons.
package interaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Platform validity windows for an interaction token.
const (
	AckDeadline   = 3 * time.Second
	TokenLifetime = 15 * time.Minute
)

// ErrUnsupportedInteraction is returned by Parse for interaction types the
// bot does not handle (pings, autocomplete, unknown component types).
var ErrUnsupportedInteraction = errors.New("unsupported interaction")

// Kind identifies the Event variant.
type Kind int

const (
	KindCommand Kind = iota + 1
	KindButton
	KindSelect
	KindModalSubmit
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindButton:
		return "button"
	case KindSelect:
		return "select"
	case KindModalSubmit:
		return "modal_submit"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Meta holds the fields every interaction carries.
type Meta struct {
	ID        string
	ActorID   string
	GuildID   string
	ChannelID string
	CreatedAt time.Time
	Raw       *discordgo.Interaction
}

// Event is one inbound interaction. The concrete type is one of *Command,
// *Button, *Select or *ModalSubmit.
type Event interface {
	Kind() Kind
	Common() *Meta
	isEvent()
}

// Command is a slash command invocation.
type Command struct {
	Meta
	Name       string
	Subcommand string
	Options    map[string]*discordgo.ApplicationCommandInteractionDataOption
}

// Button is a button click on a message component.
type Button struct {
	Meta
	CustomID  string
	MessageID string
}

// Select is a select menu choice on a message component.
type Select struct {
	Meta
	CustomID  string
	MessageID string
	Values    []string
}

// ModalSubmit is a submitted modal form. MessageID is set when the modal was
// opened from a message component, which is what allows the update family.
type ModalSubmit struct {
	Meta
	CustomID  string
	MessageID string
	Fields    map[string]string
}

func (*Command) Kind() Kind     { return KindCommand }
func (*Button) Kind() Kind      { return KindButton }
func (*Select) Kind() Kind      { return KindSelect }
func (*ModalSubmit) Kind() Kind { return KindModalSubmit }

func (e *Command) Common() *Meta     { return &e.Meta }
func (e *Button) Common() *Meta      { return &e.Meta }
func (e *Select) Common() *Meta      { return &e.Meta }
func (e *ModalSubmit) Common() *Meta { return &e.Meta }

func (*Command) isEvent()     {}
func (*Button) isEvent()      {}
func (*Select) isEvent()      {}
func (*ModalSubmit) isEvent() {}

// CustomID returns the component or modal custom id, or "" for commands.
func CustomID(ev Event) string {
	switch e := ev.(type) {
	case *Button:
		return e.CustomID
	case *Select:
		return e.CustomID
	case *ModalSubmit:
		return e.CustomID
	default:
		return ""
	}
}

// MessageID returns the id of the message the interaction originated from, if any.
func MessageID(ev Event) string {
	switch e := ev.(type) {
	case *Button:
		return e.MessageID
	case *Select:
		return e.MessageID
	case *ModalSubmit:
		return e.MessageID
	default:
		return ""
	}
}

// Describe returns a short human-readable label, e.g. "command /event create".
func Describe(ev Event) string {
	switch e := ev.(type) {
	case *Command:
		if e.Subcommand != "" {
			return fmt.Sprintf("command /%s %s", e.Name, e.Subcommand)
		}
		return "command /" + e.Name
	case *Button:
		return "button " + e.CustomID
	case *Select:
		return "select " + e.CustomID
	case *ModalSubmit:
		return "modal " + e.CustomID
	default:
		return "unknown"
	}
}

// supportsUpdate reports whether the update family may acknowledge ev.
func supportsUpdate(ev Event) bool {
	switch e := ev.(type) {
	case *Button, *Select:
		return true
	case *ModalSubmit:
		return e.MessageID != ""
	default:
		return false
	}
}

// Parse converts a gateway payload into its Event variant.
func Parse(ic *discordgo.InteractionCreate) (Event, error) {
	if ic == nil || ic.Interaction == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrUnsupportedInteraction)
	}
	i := ic.Interaction
	if i.ID == "" {
		return nil, fmt.Errorf("%w: missing interaction id", ErrUnsupportedInteraction)
	}

	meta := Meta{
		ID:        i.ID,
		ActorID:   actorID(i),
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		CreatedAt: createdAt(i.ID),
		Raw:       i,
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data, ok := i.Data.(discordgo.ApplicationCommandInteractionData)
		if !ok {
			return nil, fmt.Errorf("%w: command without command data", ErrUnsupportedInteraction)
		}
		cmd := &Command{Meta: meta, Name: data.Name, Options: map[string]*discordgo.ApplicationCommandInteractionDataOption{}}
		flattenOptions(cmd, data.Options)
		return cmd, nil

	case discordgo.InteractionMessageComponent:
		data, ok := i.Data.(discordgo.MessageComponentInteractionData)
		if !ok {
			return nil, fmt.Errorf("%w: component without component data", ErrUnsupportedInteraction)
		}
		messageID := ""
		if i.Message != nil {
			messageID = i.Message.ID
		}
		switch data.ComponentType {
		case discordgo.ButtonComponent:
			return &Button{Meta: meta, CustomID: data.CustomID, MessageID: messageID}, nil
		case discordgo.SelectMenuComponent,
			discordgo.UserSelectMenuComponent,
			discordgo.RoleSelectMenuComponent,
			discordgo.MentionableSelectMenuComponent,
			discordgo.ChannelSelectMenuComponent:
			return &Select{Meta: meta, CustomID: data.CustomID, MessageID: messageID, Values: data.Values}, nil
		default:
			return nil, fmt.Errorf("%w: component type %d", ErrUnsupportedInteraction, data.ComponentType)
		}

	case discordgo.InteractionModalSubmit:
		data, ok := i.Data.(discordgo.ModalSubmitInteractionData)
		if !ok {
			return nil, fmt.Errorf("%w: modal without modal data", ErrUnsupportedInteraction)
		}
		if data.CustomID == "" {
			return nil, fmt.Errorf("%w: modal submit without custom id", ErrUnsupportedInteraction)
		}
		messageID := ""
		if i.Message != nil {
			messageID = i.Message.ID
		}
		return &ModalSubmit{Meta: meta, CustomID: data.CustomID, MessageID: messageID, Fields: modalFields(data.Components)}, nil

	default:
		return nil, fmt.Errorf("%w: interaction type %d", ErrUnsupportedInteraction, i.Type)
	}
}

func actorID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func createdAt(id string) time.Time {
	ts, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Now()
	}
	return ts
}

func flattenOptions(cmd *Command, options []*discordgo.ApplicationCommandInteractionDataOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		switch opt.Type {
		case discordgo.ApplicationCommandOptionSubCommandGroup, discordgo.ApplicationCommandOptionSubCommand:
			if cmd.Subcommand == "" {
				cmd.Subcommand = opt.Name
			} else {
				cmd.Subcommand += " " + opt.Name
			}
			flattenOptions(cmd, opt.Options)
		default:
			cmd.Options[opt.Name] = opt
		}
	}
}

func modalFields(components []discordgo.MessageComponent) map[string]string {
	fields := map[string]string{}
	for _, c := range components {
		var children []discordgo.MessageComponent
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			children = row.Components
		case discordgo.ActionsRow:
			children = row.Components
		default:
			continue
		}
		for _, child := range children {
			switch input := child.(type) {
			case *discordgo.TextInput:
				fields[input.CustomID] = input.Value
			case discordgo.TextInput:
				fields[input.CustomID] = input.Value
			}
		}
	}
	return fields
}
