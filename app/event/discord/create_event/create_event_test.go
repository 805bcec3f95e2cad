package createevent

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/collector"
	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	eventevents "github.com/Black-And-White-Club/discord-event-bot/app/events/event"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/interactions"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage/mocks"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/testutils"
	messagecreator "github.com/Black-And-White-Club/discord-event-bot/app/shared/utils"
	"github.com/Black-And-White-Club/discord-event-bot/app/timeparse"
	"github.com/Black-And-White-Club/discord-event-bot/app/wizard"
	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	seq  atomic.Int64
	base = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
)

func nextID() string { return strconv.FormatInt(1700000000000000000+seq.Add(1), 10) }

type fixture struct {
	session   *discord.FakeSession
	tracker   *interaction.Tracker
	hub       *collector.Hub
	store     *mocks.MockStore
	publisher *testutils.FakePublisher
	manager   CreateEventManager

	// latency delays every acknowledgment and edit.
	latency atomic.Int64

	mu      sync.Mutex
	edits   []*discordgo.WebhookEdit
	modals  []*discordgo.InteractionResponseData
	replies []string
	prefix  string
}

func newFixture(t *testing.T, stepTimeout time.Duration) *fixture {
	t.Helper()
	logger := testutils.NoOpLogger()
	f := &fixture{
		session:   discord.NewFakeSession(),
		hub:       collector.NewHub(logger),
		store:     mocks.NewMockStore(gomock.NewController(t)),
		publisher: &testutils.FakePublisher{},
	}
	f.session.InteractionRespondFunc = func(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
		time.Sleep(time.Duration(f.latency.Load()))
		f.mu.Lock()
		defer f.mu.Unlock()
		switch resp.Type {
		case discordgo.InteractionResponseModal:
			f.modals = append(f.modals, resp.Data)
		case discordgo.InteractionResponseChannelMessageWithSource:
			f.replies = append(f.replies, resp.Data.Content)
		}
		return nil
	}
	f.session.InteractionResponseEditFunc = func(_ *discordgo.Interaction, e *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
		time.Sleep(time.Duration(f.latency.Load()))
		f.mu.Lock()
		f.edits = append(f.edits, e)
		f.mu.Unlock()
		return &discordgo.Message{ID: "wizard-msg"}, nil
	}
	f.tracker = interaction.NewTracker(f.session, logger)

	parser := timeparse.New(time.UTC).WithClock(func() time.Time { return base })
	f.manager = NewCreateEventManager(f.hub, f.store, f.publisher, parser, nil, logger, Config{
		StepTimeout:   stepTimeout,
		UploadTimeout: stepTimeout,
	})
	return f
}

func (f *fixture) start(t *testing.T) <-chan error {
	t.Helper()
	id := nextID()
	owner := f.tracker.WrapEvent(&interaction.Command{
		Meta: interaction.Meta{ID: id, ActorID: "u1", GuildID: "g1", ChannelID: "c1", CreatedAt: time.Now(),
			Raw: &discordgo.Interaction{ID: id, Token: "owner-token"}},
		Name: "event", Subcommand: "create",
	})
	done := make(chan error, 1)
	go func() { done <- f.manager.HandleCreateCommand(context.Background(), owner) }()

	require.Eventually(t, func() bool { return f.lastContent() != "" }, time.Second, time.Millisecond)
	f.mu.Lock()
	defer f.mu.Unlock()
	first := (*f.edits[0].Components)[0].(discordgo.ActionsRow).Components[0].(discordgo.Button).CustomID
	parts := strings.SplitN(first, "|", 3)
	f.prefix = parts[0] + "|" + parts[1] + "|"
	return done
}

func (f *fixture) lastContent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 || f.edits[len(f.edits)-1].Content == nil {
		return ""
	}
	return *f.edits[len(f.edits)-1].Content
}

func (f *fixture) meta() interaction.Meta {
	id := nextID()
	return interaction.Meta{ID: id, ActorID: "u1", GuildID: "g1", ChannelID: "c1", CreatedAt: time.Now(),
		Raw: &discordgo.Interaction{ID: id, Token: "component-" + id}}
}

// offer hands tr to the wizard, which takes its components from the moment
// it starts.
func (f *fixture) offer(t *testing.T, tr *interaction.Tracked) {
	t.Helper()
	require.True(t, f.hub.Offer(tr), "wizard did not take %s", interaction.CustomID(tr.Event()))
}

func (f *fixture) selectIC(action, value string) *discordgo.InteractionCreate {
	id := nextID()
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        id,
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   "g1",
		ChannelID: "c1",
		Token:     "component-" + id,
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u1"}},
		Message:   &discordgo.Message{ID: "wizard-msg"},
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      f.prefix + action,
			ComponentType: discordgo.SelectMenuComponent,
			Values:        []string{value},
		},
	}}
}

func (f *fixture) click(t *testing.T, action string) {
	f.offer(t, f.tracker.WrapEvent(&interaction.Button{Meta: f.meta(), CustomID: f.prefix + action, MessageID: "wizard-msg"}))
}

func (f *fixture) choose(t *testing.T, action, value string) {
	f.offer(t, f.tracker.WrapEvent(&interaction.Select{Meta: f.meta(), CustomID: f.prefix + action, MessageID: "wizard-msg", Values: []string{value}}))
}

func (f *fixture) submit(t *testing.T, action string, fields map[string]string) {
	f.offer(t, f.tracker.WrapEvent(&interaction.ModalSubmit{Meta: f.meta(), CustomID: f.prefix + action + "|" + formSuffix, MessageID: "wizard-msg", Fields: fields}))
}

func (f *fixture) upload(t *testing.T, url string) {
	t.Helper()
	// Uploads are only taken once the banner step waits for one.
	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		ID: nextID(), ChannelID: "c1", Author: &discordgo.User{ID: "u1"},
		Attachments: []*discordgo.MessageAttachment{{URL: url, ContentType: "image/png"}},
	}}
	require.Eventually(t, func() bool { return f.hub.OfferMessage(m) }, time.Second, time.Millisecond)
}

func (f *fixture) waitForContent(t *testing.T, substr string) {
	t.Helper()
	require.Eventually(t, func() bool { return strings.Contains(f.lastContent(), substr) }, time.Second, time.Millisecond,
		"never rendered %q, last content %q", substr, f.lastContent())
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("wizard did not finish")
		return nil
	}
}

func TestCreateEvent_HappyPath(t *testing.T) {
	f := newFixture(t, 2*time.Second)

	var stored *storage.Event
	f.store.EXPECT().CreateEvent(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev *storage.Event) error {
		ev.ID = "ev-1"
		ev.CreatedAt = base
		stored = ev
		return nil
	})

	done := f.start(t)
	f.click(t, actionDetails)
	f.submit(t, actionDetails, map[string]string{"title": "Board games", "when": "2026-11-02 19:30", "capacity": "8"})

	// Selects may arrive in any order.
	f.waitForContent(t, "step 2/5")
	f.choose(t, actionReminder, "60")
	require.Eventually(t, func() bool { return strings.HasSuffix(f.lastContent(), "Still needed: type") }, time.Second, time.Millisecond)
	f.choose(t, actionType, "game")

	f.waitForContent(t, "step 3/5")
	f.click(t, actionTypeForm)
	f.submit(t, actionTypeForm, map[string]string{"game": "Catan", "platform": "Table"})

	f.waitForContent(t, "step 4/5")
	f.upload(t, "https://cdn.example.com/banner.png")

	f.waitForContent(t, "step 5/5")
	f.click(t, actionCreate)

	require.NoError(t, wait(t, done))
	require.Contains(t, f.lastContent(), "is created")

	want := &storage.Event{
		ID:              "ev-1",
		GuildID:         "g1",
		ChannelID:       "c1",
		CreatorID:       "u1",
		Title:           "Board games",
		Type:            storage.EventTypeGame,
		StartsAt:        time.Date(2026, 11, 2, 19, 30, 0, 0, time.UTC),
		ReminderMinutes: 60,
		Capacity:        8,
		Details:         map[string]string{"game": "Catan", "platform": "Table"},
		BannerURL:       "https://cdn.example.com/banner.png",
		CreatedAt:       base,
	}
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Fatalf("stored event mismatch (-want +got):\n%s", diff)
	}

	published := f.publisher.Published(eventevents.EventCreatedTopic)
	require.Len(t, published, 1)
	var payload eventevents.EventCreatedPayload
	require.NoError(t, messagecreator.Decode(published[0], &payload))
	require.Equal(t, "ev-1", payload.EventID)
	require.Equal(t, "g1", payload.GuildID)

	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.modals, 2)
	require.Equal(t, f.prefix+actionDetails+"|"+formSuffix, f.modals[0].CustomID)
}

func TestCreateEvent_QuickSelectsThroughRouterAreNotLost(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	router := interactions.NewRouter(f.tracker, f.hub, nil, testutils.NoOpLogger())
	RegisterHandlers(router, f.manager)

	done := f.start(t)
	f.click(t, actionDetails)
	f.submit(t, actionDetails, map[string]string{"title": "Movie night", "when": "2026-11-02 19:30"})
	f.waitForContent(t, "step 2/5")

	f.latency.Store(int64(50 * time.Millisecond))
	router.Dispatch(context.Background(), f.selectIC(actionType, "watch"))
	time.Sleep(10 * time.Millisecond)
	router.Dispatch(context.Background(), f.selectIC(actionReminder, "60"))

	require.Eventually(t, func() bool { return strings.Contains(f.lastContent(), "step 3/5") }, 2*time.Second, time.Millisecond,
		"second select was lost, last content %q", f.lastContent())
	f.mu.Lock()
	require.Empty(t, f.replies, "no wizard component may be answered as expired")
	f.mu.Unlock()

	f.latency.Store(0)
	f.click(t, actionCancel)
	require.NoError(t, wait(t, done))
	require.Equal(t, wizard.CancelledMessage, f.lastContent())
}

func TestCreateEvent_TimeoutAbandonsWithoutWriting(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)

	done := f.start(t)
	require.NoError(t, wait(t, done))

	require.Equal(t, wizard.TimedOutMessage, f.lastContent())
	f.mu.Lock()
	last := f.edits[len(f.edits)-1]
	f.mu.Unlock()
	require.NotNil(t, last.Components)
	require.Empty(t, *last.Components)
	require.Empty(t, f.publisher.Published(eventevents.EventCreatedTopic))
}

func TestCreateEvent_InvalidDetailsAreReRendered(t *testing.T) {
	f := newFixture(t, 2*time.Second)

	done := f.start(t)
	f.click(t, actionDetails)
	f.submit(t, actionDetails, map[string]string{"title": "", "when": "banana pancakes"})

	f.waitForContent(t, "The event needs a title.")
	require.Contains(t, f.lastContent(), "couldn't understand the date")
	require.Contains(t, f.lastContent(), "step 1/5")

	f.click(t, actionDetails)
	f.submit(t, actionDetails, map[string]string{"title": "Picnic", "when": "2026-10-20 12:00"})
	f.waitForContent(t, "step 2/5")

	f.click(t, actionCancel)
	require.NoError(t, wait(t, done))
	require.Equal(t, wizard.CancelledMessage, f.lastContent())
	require.Empty(t, f.publisher.Published(eventevents.EventCreatedTopic))
}

func TestCreateEvent_OtherTypeSkipsTypeFormAndBanner(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	f.store.EXPECT().CreateEvent(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev *storage.Event) error {
		require.Equal(t, storage.EventTypeOther, ev.Type)
		require.Empty(t, ev.BannerURL)
		require.Empty(t, ev.Details)
		ev.ID = "ev-2"
		return nil
	})

	done := f.start(t)
	f.click(t, actionDetails)
	f.submit(t, actionDetails, map[string]string{"title": "Hangout", "when": "2026-10-20 12:00"})
	f.choose(t, actionType, "other")
	f.choose(t, actionReminder, "0")

	f.waitForContent(t, "step 4/5")
	f.click(t, actionSkip)
	f.waitForContent(t, "step 5/5")
	f.click(t, actionCreate)

	require.NoError(t, wait(t, done))
	require.Len(t, f.publisher.Published(eventevents.EventCreatedTopic), 1)
}

func TestCreateEvent_StoreFailureIsReturned(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	f.store.EXPECT().CreateEvent(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	done := f.start(t)
	f.click(t, actionDetails)
	f.submit(t, actionDetails, map[string]string{"title": "Hangout", "when": "2026-10-20 12:00"})
	f.choose(t, actionType, "other")
	f.choose(t, actionReminder, "15")
	f.waitForContent(t, "step 4/5")
	f.click(t, actionSkip)
	f.waitForContent(t, "step 5/5")
	f.click(t, actionCreate)

	err := wait(t, done)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
	require.Contains(t, f.lastContent(), "nothing changed")
	require.Empty(t, f.publisher.Published(eventevents.EventCreatedTopic))
}

func TestCreateEvent_UnknownSubcommand(t *testing.T) {
	f := newFixture(t, time.Second)
	id := nextID()
	tr := f.tracker.WrapEvent(&interaction.Command{
		Meta: interaction.Meta{ID: id, ActorID: "u1", CreatedAt: time.Now(), Raw: &discordgo.Interaction{ID: id}},
		Name: "event", Subcommand: "delete",
	})
	require.NoError(t, f.manager.HandleCreateCommand(context.Background(), tr))
	require.Equal(t, interaction.PhaseReplied, tr.Phase())
}
