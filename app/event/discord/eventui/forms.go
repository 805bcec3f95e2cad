package eventui

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/Black-And-White-Club/discord-event-bot/app/timeparse"
	"github.com/bwmarrin/discordgo"
)

// Modal field ids of the details form.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldWhen        = "when"
	FieldCapacity    = "capacity"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 1000
	maxCapacity          = 1000
)

// Details are the answers of the details form.
type Details struct {
	Title       string
	Description string
	When        string
	StartsAt    time.Time
	Capacity    int
}

// DetailsFrom prefills the details form from a stored event.
func DetailsFrom(ev *storage.Event) Details {
	d := Details{
		Title:       ev.Title,
		Description: ev.Description,
		StartsAt:    ev.StartsAt,
		Capacity:    ev.Capacity,
	}
	if !ev.StartsAt.IsZero() {
		d.When = ev.StartsAt.Format("2006-01-02 15:04")
	}
	return d
}

// DetailsModal is the form asking for the event's title, description, date
// and capacity. current prefills it.
func DetailsModal(customID, heading string, current Details) interaction.Modal {
	capacity := ""
	if current.Capacity > 0 {
		capacity = strconv.Itoa(current.Capacity)
	}
	return interaction.Modal{
		CustomID: customID,
		Title:    heading,
		Components: []discordgo.MessageComponent{
			textRow(discordgo.TextInput{
				CustomID:    FieldTitle,
				Label:       "Title",
				Style:       discordgo.TextInputShort,
				Placeholder: "Friday board games",
				Value:       current.Title,
				Required:    true,
				MaxLength:   maxTitleLength,
			}),
			textRow(discordgo.TextInput{
				CustomID:    FieldDescription,
				Label:       "Description",
				Style:       discordgo.TextInputParagraph,
				Placeholder: "What are we doing? (optional)",
				Value:       current.Description,
				Required:    false,
				MaxLength:   maxDescriptionLength,
			}),
			textRow(discordgo.TextInput{
				CustomID:    FieldWhen,
				Label:       "When",
				Style:       discordgo.TextInputShort,
				Placeholder: "2026-11-02 19:30, or next friday 7pm",
				Value:       current.When,
				Required:    true,
				MaxLength:   50,
			}),
			textRow(discordgo.TextInput{
				CustomID:    FieldCapacity,
				Label:       "Capacity (empty for unlimited)",
				Style:       discordgo.TextInputShort,
				Placeholder: "10",
				Value:       capacity,
				Required:    false,
				MaxLength:   4,
			}),
		},
	}
}

func textRow(input discordgo.TextInput) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}}
}

// ParseDetails validates a submitted details form. The returned problems are
// user-facing; Details holds whatever was submitted either way so the form
// can be reopened with it.
func ParseDetails(fields map[string]string, parser *timeparse.Parser) (Details, []string) {
	d := Details{
		Title:       strings.TrimSpace(fields[FieldTitle]),
		Description: strings.TrimSpace(fields[FieldDescription]),
		When:        strings.TrimSpace(fields[FieldWhen]),
	}
	var problems []string

	switch n := utf8.RuneCountInString(d.Title); {
	case n == 0:
		problems = append(problems, "The event needs a title.")
	case n > maxTitleLength:
		problems = append(problems, fmt.Sprintf("The title can be at most %d characters.", maxTitleLength))
	}
	if utf8.RuneCountInString(d.Description) > maxDescriptionLength {
		problems = append(problems, fmt.Sprintf("The description can be at most %d characters.", maxDescriptionLength))
	}

	startsAt, err := parser.Parse(d.When)
	switch {
	case err == nil:
		d.StartsAt = startsAt
	case errors.Is(err, timeparse.ErrEmpty):
		problems = append(problems, "Please tell me when the event starts.")
	case errors.Is(err, timeparse.ErrInPast):
		problems = append(problems, "That date is in the past.")
	default:
		problems = append(problems, fmt.Sprintf("I couldn't understand the date %q. Try 2026-11-02 19:30 or \"next friday 7pm\".", d.When))
	}

	if raw := strings.TrimSpace(fields[FieldCapacity]); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxCapacity {
			problems = append(problems, fmt.Sprintf("Capacity must be a whole number between 0 and %d.", maxCapacity))
		} else {
			d.Capacity = n
		}
	}
	return d, problems
}

// DetailField is one input of a type-specific form.
type DetailField struct {
	Key      string
	Label    string
	Required bool
	URL      bool
}

func detailFields(t storage.EventType) []DetailField {
	switch t {
	case storage.EventTypeGame:
		return []DetailField{
			{Key: "game", Label: "Game", Required: true},
			{Key: "platform", Label: "Platform"},
		}
	case storage.EventTypeMeetup:
		return []DetailField{{Key: "location", Label: "Location", Required: true}}
	case storage.EventTypeWatch:
		return []DetailField{{Key: "link", Label: "Stream link", Required: true, URL: true}}
	default:
		return nil
	}
}

func hasDetailField(t storage.EventType, key string) bool {
	for _, f := range detailFields(t) {
		if f.Key == key {
			return true
		}
	}
	return false
}

// HasTypeForm reports whether events of type t ask for extra details.
func HasTypeForm(t storage.EventType) bool { return len(detailFields(t)) > 0 }

// TypeModal is the form for the type-specific details of t.
func TypeModal(customID string, t storage.EventType, current map[string]string) interaction.Modal {
	var rows []discordgo.MessageComponent
	for _, f := range detailFields(t) {
		rows = append(rows, textRow(discordgo.TextInput{
			CustomID:  f.Key,
			Label:     f.Label,
			Style:     discordgo.TextInputShort,
			Value:     current[f.Key],
			Required:  f.Required,
			MaxLength: 200,
		}))
	}
	return interaction.Modal{
		CustomID:   customID,
		Title:      TypeLabel(t) + " details",
		Components: rows,
	}
}

// ParseTypeDetails validates a submitted type-specific form.
func ParseTypeDetails(t storage.EventType, fields map[string]string) (map[string]string, []string) {
	details := make(map[string]string)
	var problems []string
	for _, f := range detailFields(t) {
		v := strings.TrimSpace(fields[f.Key])
		switch {
		case v == "" && f.Required:
			problems = append(problems, fmt.Sprintf("%s is required.", f.Label))
		case v != "" && f.URL && !isWebURL(v):
			problems = append(problems, fmt.Sprintf("%s must be an http(s) link.", f.Label))
		}
		if v != "" {
			details[f.Key] = v
		}
	}
	return details, problems
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Problems renders validation problems as a bullet list.
func Problems(problems []string) string {
	if len(problems) == 0 {
		return ""
	}
	return "⚠️ " + strings.Join(problems, "\n⚠️ ")
}
