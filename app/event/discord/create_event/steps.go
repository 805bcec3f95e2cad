package createevent

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Black-And-White-Club/discord-event-bot/app/collector"
	"github.com/Black-And-White-Club/discord-event-bot/app/event/discord/eventui"
	eventevents "github.com/Black-And-White-Club/discord-event-bot/app/events/event"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/operation"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	messagecreator "github.com/Black-And-White-Club/discord-event-bot/app/shared/utils"
	"github.com/Black-And-White-Club/discord-event-bot/app/wizard"
)

const (
	stepDetails     = "details"
	stepChoices     = "choices"
	stepTypeDetails = "type_details"
	stepBanner      = "banner"
	stepConfirm     = "confirm"
)

// Component actions, the part of a custom id after the session prefix.
const (
	actionDetails  = "details"
	actionType     = "type"
	actionReminder = "reminder"
	actionTypeForm = "type_details"
	actionSkip     = "skip"
	actionCreate   = "create"
	actionCancel   = "cancel"
	formSuffix     = "form"
)

// draft accumulates answers. It lives only as long as the wizard.
type draft struct {
	details     eventui.Details
	eventType   storage.EventType
	reminder    int
	typeDetails map[string]string
	bannerURL   string
}

func newDraft() *draft {
	return &draft{typeDetails: make(map[string]string)}
}

func (d *draft) event(meta *interaction.Meta) *storage.Event {
	details := make(map[string]string, len(d.typeDetails))
	for k, v := range d.typeDetails {
		details[k] = v
	}
	return &storage.Event{
		GuildID:         meta.GuildID,
		ChannelID:       meta.ChannelID,
		CreatorID:       meta.ActorID,
		Title:           d.details.Title,
		Description:     d.details.Description,
		Type:            d.eventType,
		StartsAt:        d.details.StartsAt,
		ReminderMinutes: d.reminder,
		Capacity:        d.details.Capacity,
		Details:         details,
		BannerURL:       d.bannerURL,
	}
}

func (m *createEventManager) detailsStep(ctx context.Context, s *wizard.Session, d *draft) (outcome, error) {
	var problems []string
	for {
		if err := s.Render(ctx, detailsView(s, problems), stepDetails); err != nil {
			return abandoned, err
		}
		submit, out, err := m.awaitForm(ctx, s, actionDetails, func(formID string) interaction.Modal {
			return eventui.DetailsModal(formID, "Event details", d.details)
		})
		if err != nil || out == abandoned {
			return out, err
		}
		d.details, problems = eventui.ParseDetails(submit.Fields, m.parser)
		if len(problems) == 0 {
			return proceed, nil
		}
	}
}

func (m *createEventManager) choicesStep(ctx context.Context, s *wizard.Session, d *draft) (outcome, error) {
	pending := wizard.NewPending(actionType, actionReminder)
	for !pending.Done() {
		if err := s.Render(ctx, choicesView(s, d, pending), stepChoices); err != nil {
			return abandoned, err
		}
		res := s.Await(ctx, interaction.KindSelect, interaction.KindButton)
		if !res.Collected() {
			return m.timedOut(ctx, s, res), nil
		}
		tr := res.Tracked
		if s.Action(tr) == actionCancel {
			return m.cancel(ctx, s, tr)
		}
		if err := acknowledge(ctx, s, tr, stepChoices); err != nil {
			return abandoned, err
		}

		sel, ok := tr.Event().(*interaction.Select)
		if !ok || len(sel.Values) == 0 {
			continue
		}
		switch s.Action(tr) {
		case actionType:
			if t := storage.EventType(sel.Values[0]); t.Valid() {
				d.eventType = t
				pending.Satisfy(actionType)
			}
		case actionReminder:
			if n, err := strconv.Atoi(sel.Values[0]); err == nil && n >= 0 {
				d.reminder = n
				pending.Satisfy(actionReminder)
			}
		}
	}
	return proceed, nil
}

func (m *createEventManager) typeStep(ctx context.Context, s *wizard.Session, d *draft) (outcome, error) {
	if !eventui.HasTypeForm(d.eventType) {
		return proceed, nil
	}
	var problems []string
	for {
		if err := s.Render(ctx, typeView(s, d, problems), stepTypeDetails); err != nil {
			return abandoned, err
		}
		submit, out, err := m.awaitForm(ctx, s, actionTypeForm, func(formID string) interaction.Modal {
			return eventui.TypeModal(formID, d.eventType, d.typeDetails)
		})
		if err != nil || out == abandoned {
			return out, err
		}
		d.typeDetails, problems = eventui.ParseTypeDetails(d.eventType, submit.Fields)
		if len(problems) == 0 {
			return proceed, nil
		}
	}
}

// bannerStep races an image upload in the channel against the Skip button.
func (m *createEventManager) bannerStep(ctx context.Context, s *wizard.Session, d *draft) (outcome, error) {
	if err := s.Render(ctx, bannerView(s), stepBanner); err != nil {
		return abandoned, err
	}
	for {
		res := s.AwaitUploadOrComponent(ctx, m.uploadTimeout)
		if !res.Collected() {
			return m.timedOut(ctx, s, res), nil
		}
		if res.Upload != nil {
			d.bannerURL = res.Upload.Attachment.URL
			m.logger.DebugContext(ctx, "Banner uploaded",
				attr.String("session_id", s.ID),
				attr.String("content_type", res.Upload.Attachment.ContentType))
			return proceed, nil
		}

		tr := res.Tracked
		switch s.Action(tr) {
		case actionCancel:
			return m.cancel(ctx, s, tr)
		case actionSkip:
			return proceed, acknowledge(ctx, s, tr, stepBanner)
		default:
			if err := acknowledge(ctx, s, tr, stepBanner); err != nil {
				return abandoned, err
			}
		}
	}
}

func (m *createEventManager) confirmStep(ctx context.Context, s *wizard.Session, d *draft) (outcome, error) {
	owner := s.Owner()
	ev := d.event(owner.Event().Common())
	if err := s.Render(ctx, confirmView(s, ev), stepConfirm); err != nil {
		return abandoned, err
	}

	for {
		res := s.Await(ctx, interaction.KindButton)
		if !res.Collected() {
			return m.timedOut(ctx, s, res), nil
		}
		tr := res.Tracked
		switch s.Action(tr) {
		case actionCancel:
			return m.cancel(ctx, s, tr)
		case actionCreate:
			if err := acknowledge(ctx, s, tr, stepConfirm); err != nil {
				return abandoned, err
			}
			return proceed, m.create(ctx, s, tr, ev)
		default:
			if err := acknowledge(ctx, s, tr, stepConfirm); err != nil {
				return abandoned, err
			}
		}
	}
}

// create stores the event in one transaction and announces it on the bus.
func (m *createEventManager) create(ctx context.Context, s *wizard.Session, tr *interaction.Tracked, ev *storage.Event) error {
	result, err := m.runner.Run(ctx, "create_event", func(ctx context.Context) (operation.Result, error) {
		if err := m.store.CreateEvent(ctx, ev); err != nil {
			return operation.Result{}, fmt.Errorf("failed to store event: %w", err)
		}
		payload := eventevents.EventCreatedPayload{
			EventID:   ev.ID,
			GuildID:   ev.GuildID,
			ChannelID: ev.ChannelID,
			CreatorID: ev.CreatorID,
			CreatedAt: ev.CreatedAt,
		}
		msg, err := messagecreator.BuildMessageFromInteraction(eventevents.EventCreatedTopic, payload, tr)
		if err != nil {
			return operation.Result{Success: ev, Error: err}, nil
		}
		if err := m.publisher.Publish(eventevents.EventCreatedTopic, msg); err != nil {
			return operation.Result{Success: ev, Error: fmt.Errorf("failed to publish %s: %w", eventevents.EventCreatedTopic, err)}, nil
		}
		return operation.Result{Success: ev}, nil
	})
	if err != nil {
		s.Abandon(ctx, "Something went wrong saving the event, nothing changed.")
		return err
	}
	if result.Error != nil {
		m.logger.ErrorContext(ctx, "Event stored but not announced",
			attr.String("event_id", ev.ID),
			attr.Error(result.Error))
	}

	m.logger.InfoContext(ctx, "Event created",
		attr.String("event_id", ev.ID),
		attr.String("session_id", s.ID),
		attr.UserID(ev.CreatorID),
		attr.GuildID(ev.GuildID))
	return s.Render(ctx, createdView(ev), "created")
}

// awaitForm waits on the current step's view until the user opens the form
// through the action button and submits it. Clicking the button again
// reopens the form.
func (m *createEventManager) awaitForm(ctx context.Context, s *wizard.Session, action string, modal func(formID string) interaction.Modal) (*interaction.ModalSubmit, outcome, error) {
	formID := s.CustomID(action, formSuffix)
	for {
		res := s.Await(ctx, interaction.KindButton, interaction.KindModalSubmit, interaction.KindSelect)
		if !res.Collected() {
			return nil, m.timedOut(ctx, s, res), nil
		}
		tr := res.Tracked

		switch ev := tr.Event().(type) {
		case *interaction.Button:
			switch s.Action(tr) {
			case actionCancel:
				out, err := m.cancel(ctx, s, tr)
				return nil, out, err
			case action:
				if _, err := tr.ShowModal(ctx, modal(formID), interaction.Tag(action)); err != nil {
					return nil, abandoned, fmt.Errorf("failed to open %s form: %w", action, err)
				}
				continue
			}
		case *interaction.ModalSubmit:
			if ev.CustomID == formID {
				return ev, proceed, acknowledge(ctx, s, tr, action)
			}
		}
		// A component from an earlier step; acknowledge it and keep waiting.
		if err := acknowledge(ctx, s, tr, action); err != nil {
			return nil, abandoned, err
		}
	}
}

// acknowledge defers the update of tr and lets it edit the wizard message.
func acknowledge(ctx context.Context, s *wizard.Session, tr *interaction.Tracked, step string) error {
	ok, err := tr.DeferUpdate(ctx, interaction.Tag(step))
	if err != nil {
		return fmt.Errorf("failed to acknowledge %s: %w", step, err)
	}
	if ok {
		s.Adopt(tr)
	}
	return nil
}

func (m *createEventManager) cancel(ctx context.Context, s *wizard.Session, tr *interaction.Tracked) (outcome, error) {
	if err := acknowledge(ctx, s, tr, "cancel"); err != nil {
		return abandoned, err
	}
	s.Abandon(ctx, wizard.CancelledMessage)
	return abandoned, nil
}

func (m *createEventManager) timedOut(ctx context.Context, s *wizard.Session, res collector.Result) outcome {
	msg := wizard.TimedOutMessage
	if res.Outcome == collector.Cancelled {
		msg = wizard.CancelledMessage
	}
	s.Abandon(context.WithoutCancel(ctx), msg)
	return abandoned
}
