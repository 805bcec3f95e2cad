package createevent

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Black-And-White-Club/discord-event-bot/app/event/discord/eventui"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/Black-And-White-Club/discord-event-bot/app/wizard"
	"github.com/bwmarrin/discordgo"
)

const totalSteps = 5

func header(n int, title string) string {
	return fmt.Sprintf("**Create an event** · step %d/%d · %s", n, totalSteps, title)
}

func withProblems(content string, problems []string) string {
	if len(problems) == 0 {
		return content
	}
	return content + "\n\n" + eventui.Problems(problems)
}

func cancelButton(s *wizard.Session) discordgo.Button {
	return discordgo.Button{Label: "Cancel", Style: discordgo.DangerButton, CustomID: s.CustomID(actionCancel)}
}

func buttonRow(buttons ...discordgo.Button) discordgo.ActionsRow {
	row := discordgo.ActionsRow{}
	for _, b := range buttons {
		row.Components = append(row.Components, b)
	}
	return row
}

func detailsView(s *wizard.Session, problems []string) interaction.Payload {
	return interaction.Payload{
		Content: withProblems(header(1, "Details")+"\nWhat is the event called and when does it start?", problems),
		Components: []discordgo.MessageComponent{
			buttonRow(
				discordgo.Button{Label: "Enter details", Style: discordgo.PrimaryButton, CustomID: s.CustomID(actionDetails)},
				cancelButton(s),
			),
		},
	}
}

func choicesView(s *wizard.Session, d *draft, pending *wizard.Pending) interaction.Payload {
	typeOptions := make([]discordgo.SelectMenuOption, 0, 4)
	for _, t := range []storage.EventType{storage.EventTypeGame, storage.EventTypeMeetup, storage.EventTypeWatch, storage.EventTypeOther} {
		typeOptions = append(typeOptions, discordgo.SelectMenuOption{
			Label:   eventui.TypeLabel(t),
			Value:   string(t),
			Default: d.eventType == t,
		})
	}
	reminderSet := !slices.Contains(pending.Remaining(), actionReminder)
	reminderOptions := make([]discordgo.SelectMenuOption, 0, len(eventui.ReminderOptions))
	for _, minutes := range eventui.ReminderOptions {
		reminderOptions = append(reminderOptions, discordgo.SelectMenuOption{
			Label:   eventui.ReminderLabel(minutes),
			Value:   strconv.Itoa(minutes),
			Default: reminderSet && d.reminder == minutes,
		})
	}

	content := header(2, "Choices") + "\nPick the kind of event and when to remind people."
	if remaining := pending.Remaining(); len(remaining) > 0 {
		content += "\nStill needed: " + strings.Join(remaining, ", ")
	}
	return interaction.Payload{
		Content: content,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    s.CustomID(actionType),
					Placeholder: "Event type",
					Options:     typeOptions,
				},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					MenuType:    discordgo.StringSelectMenu,
					CustomID:    s.CustomID(actionReminder),
					Placeholder: "Reminder",
					Options:     reminderOptions,
				},
			}},
			buttonRow(cancelButton(s)),
		},
	}
}

func typeView(s *wizard.Session, d *draft, problems []string) interaction.Payload {
	return interaction.Payload{
		Content: withProblems(header(3, eventui.TypeLabel(d.eventType))+"\nA few more details for this kind of event.", problems),
		Components: []discordgo.MessageComponent{
			buttonRow(
				discordgo.Button{Label: "Add details", Style: discordgo.PrimaryButton, CustomID: s.CustomID(actionTypeForm)},
				cancelButton(s),
			),
		},
	}
}

func bannerView(s *wizard.Session) interaction.Payload {
	return interaction.Payload{
		Content: header(4, "Banner") + "\nUpload an image in this channel to use as the banner, or skip.",
		Components: []discordgo.MessageComponent{
			buttonRow(
				discordgo.Button{Label: "Skip", Style: discordgo.SecondaryButton, CustomID: s.CustomID(actionSkip)},
				cancelButton(s),
			),
		},
	}
}

func confirmView(s *wizard.Session, ev *storage.Event) interaction.Payload {
	return interaction.Payload{
		Content: header(5, "Confirm") + "\nThis is how the event will look.",
		Embeds:  []*discordgo.MessageEmbed{eventui.Embed(ev, -1)},
		Components: []discordgo.MessageComponent{
			buttonRow(
				discordgo.Button{Label: "Create", Style: discordgo.SuccessButton, CustomID: s.CustomID(actionCreate)},
				cancelButton(s),
			),
		},
	}
}

func createdView(ev *storage.Event) interaction.Payload {
	return interaction.Payload{
		Content:    fmt.Sprintf("✅ **%s** is created and will be announced shortly.", ev.Title),
		Embeds:     []*discordgo.MessageEmbed{eventui.Embed(ev, -1)},
		Components: []discordgo.MessageComponent{},
	}
}
