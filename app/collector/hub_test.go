package collector

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
)

var seq atomic.Int64

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTracker() *interaction.Tracker {
	return interaction.NewTracker(discord.NewFakeSession(), testLogger())
}

func button(tr *interaction.Tracker, actor, customID string) *interaction.Tracked {
	id := strconv.FormatInt(1400000000000000000+seq.Add(1), 10)
	return tr.WrapEvent(&interaction.Button{
		Meta:      interaction.Meta{ID: id, ActorID: actor, Raw: &discordgo.Interaction{ID: id}},
		CustomID:  customID,
		MessageID: "m1",
	})
}

func command(tr *interaction.Tracker, actor string) *interaction.Tracked {
	id := strconv.FormatInt(1400000000000000000+seq.Add(1), 10)
	return tr.WrapEvent(&interaction.Command{
		Meta: interaction.Meta{ID: id, ActorID: actor, Raw: &discordgo.Interaction{ID: id}},
		Name: "event",
	})
}

func upload(actor, channel, contentType string) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "msg-" + actor,
		ChannelID: channel,
		Author:    &discordgo.User{ID: actor},
		Attachments: []*discordgo.MessageAttachment{
			{ID: "a1", Filename: "banner.png", ContentType: contentType, URL: "https://cdn.example/banner.png"},
		},
	}}
}

// waitForSubscribers blocks until n subscriptions are registered.
func waitForSubscribers(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Len() == n }, time.Second, time.Millisecond)
}

func TestHub_AwaitCollectsMatchingInteraction(t *testing.T) {
	h := NewHub(testLogger())
	tr := newTracker()

	got := make(chan Result, 1)
	go func() {
		got <- h.Await(context.Background(), Filter{ActorID: "u1", CustomIDPrefix: "wizard|s1|"}, time.Second)
	}()
	waitForSubscribers(t, h, 1)

	require.False(t, h.Offer(button(tr, "u2", "wizard|s1|next")), "other actor must not match")
	require.False(t, h.Offer(button(tr, "u1", "wizard|s2|next")), "other session must not match")
	want := button(tr, "u1", "wizard|s1|next")
	require.True(t, h.Offer(want))

	res := <-got
	require.Equal(t, Collected, res.Outcome)
	require.Same(t, want, res.Tracked)
	require.Zero(t, h.Len())
	require.False(t, h.Offer(button(tr, "u1", "wizard|s1|next")), "await resolves only once")
}

func TestHub_AwaitTimesOut(t *testing.T) {
	h := NewHub(testLogger())
	start := time.Now()
	res := h.Await(context.Background(), Filter{CustomID: "never"}, 20*time.Millisecond)

	require.Equal(t, TimedOut, res.Outcome)
	require.Nil(t, res.Tracked)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	require.Zero(t, h.Len(), "timed out subscription must be removed")
}

func TestHub_AwaitCancelled(t *testing.T) {
	h := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := h.Await(ctx, Filter{}, time.Minute)
	require.Equal(t, Cancelled, res.Outcome)
}

// A delivery that lands while the timer fires is never lost.
func TestHub_DeliveryRacingTimeoutWins(t *testing.T) {
	tr := newTracker()
	for i := 0; i < 200; i++ {
		h := NewHub(testLogger())
		got := make(chan Result, 1)
		go func() { got <- h.Await(context.Background(), Filter{ActorID: "u1"}, time.Millisecond) }()

		tracked := button(tr, "u1", "b")
		time.Sleep(time.Millisecond)
		taken := h.Offer(tracked)

		res := <-got
		if taken {
			require.Equal(t, Collected, res.Outcome, "iteration %d: taken delivery must be returned", i)
			require.Same(t, tracked, res.Tracked)
		} else {
			require.Equal(t, TimedOut, res.Outcome)
		}
	}
}

func TestHub_CommandsOnlyCollectedWhenAsked(t *testing.T) {
	h := NewHub(testLogger())
	tr := newTracker()

	go h.Await(context.Background(), Filter{ActorID: "u1"}, 2*time.Second)
	waitForSubscribers(t, h, 1)
	require.False(t, h.Offer(command(tr, "u1")))

	got := make(chan Result, 1)
	go func() {
		got <- h.Await(context.Background(), Filter{ActorID: "u1", Kinds: []interaction.Kind{interaction.KindCommand}}, time.Second)
	}()
	waitForSubscribers(t, h, 2)
	require.True(t, h.Offer(command(tr, "u1")))
	require.Equal(t, Collected, (<-got).Outcome)
}

func TestHub_FirstRegisteredWins(t *testing.T) {
	h := NewHub(testLogger())
	tr := newTracker()
	first := make(chan Result, 1)
	second := make(chan Result, 1)

	go func() { first <- h.Await(context.Background(), Filter{ActorID: "u1"}, time.Second) }()
	waitForSubscribers(t, h, 1)
	go func() { second <- h.Await(context.Background(), Filter{ActorID: "u1"}, 200*time.Millisecond) }()
	waitForSubscribers(t, h, 2)

	require.True(t, h.Offer(button(tr, "u1", "x")))
	require.Equal(t, Collected, (<-first).Outcome)
	require.Equal(t, TimedOut, (<-second).Outcome)
}

func TestHub_AwaitUpload(t *testing.T) {
	h := NewHub(testLogger())
	got := make(chan Result, 1)
	go func() {
		got <- h.AwaitUpload(context.Background(), UploadFilter{ActorID: "u1", ChannelID: "c1", ContentTypes: []string{"image/"}}, time.Second)
	}()
	waitForSubscribers(t, h, 1)

	require.False(t, h.OfferMessage(upload("u1", "c1", "application/pdf")))
	require.False(t, h.OfferMessage(upload("u1", "c2", "image/png")))
	bot := upload("u1", "c1", "image/png")
	bot.Author.Bot = true
	require.False(t, h.OfferMessage(bot))
	require.True(t, h.OfferMessage(upload("u1", "c1", "image/png")))

	res := <-got
	require.Equal(t, Collected, res.Outcome)
	require.NotNil(t, res.Upload)
	require.Equal(t, "banner.png", res.Upload.Attachment.Filename)
}

func TestHub_AwaitEitherTakesOnlyOne(t *testing.T) {
	h := NewHub(testLogger())
	tr := newTracker()
	got := make(chan Result, 1)
	go func() {
		got <- h.AwaitEither(context.Background(), Filter{ActorID: "u1", CustomID: "skip"}, UploadFilter{ActorID: "u1"}, time.Second)
	}()
	waitForSubscribers(t, h, 1)

	require.True(t, h.OfferMessage(upload("u1", "c1", "image/png")))
	require.False(t, h.Offer(button(tr, "u1", "skip")), "the button arrived after the upload won")

	res := <-got
	require.NotNil(t, res.Upload)
	require.Nil(t, res.Tracked)
}

func TestHub_ListenHandlesBurstConcurrently(t *testing.T) {
	h := NewHub(testLogger())
	tr := newTracker()

	const clicks = 10
	var (
		mu       sync.Mutex
		handled  []string
		running  atomic.Int32
		peak     atomic.Int32
		finished atomic.Int32
	)
	l := h.Listen(context.Background(), Filter{CustomIDPrefix: "signup|"}, time.Minute, func(ctx context.Context, tracked *interaction.Tracked) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
		mu.Lock()
		handled = append(handled, interaction.CustomID(tracked.Event()))
		mu.Unlock()
		running.Add(-1)
		finished.Add(1)
	})

	var offered []*interaction.Tracked
	started := time.Now()
	for i := 0; i < clicks; i++ {
		tracked := button(tr, "u"+strconv.Itoa(i), "signup|"+strconv.Itoa(i))
		offered = append(offered, tracked)
		require.True(t, h.Offer(tracked))
	}
	require.False(t, h.Offer(button(tr, "u1", "other")))

	require.Eventually(t, func() bool { return finished.Load() == clicks }, 2*time.Second, time.Millisecond)
	require.Less(t, time.Since(started), clicks*100*time.Millisecond, "a burst must not be handled one click at a time")
	require.Greater(t, peak.Load(), int32(1))
	require.LessOrEqual(t, peak.Load(), int32(MaxConcurrentHandlers))

	l.Stop()
	<-l.Done()

	require.ElementsMatch(t, []string{
		"signup|0", "signup|1", "signup|2", "signup|3", "signup|4",
		"signup|5", "signup|6", "signup|7", "signup|8", "signup|9",
	}, handled)
	require.Equal(t, Stopped, l.Reason())
	require.Zero(t, h.Len())
	for _, tracked := range offered {
		require.True(t, tracked.Disposed(), "delivered interactions are disposed after handling")
	}
}

func TestHub_ListenDoneWaitsForRunningHandlers(t *testing.T) {
	h := NewHub(testLogger())
	tr := newTracker()

	release := make(chan struct{})
	entered := make(chan struct{})
	l := h.Listen(context.Background(), Filter{}, time.Minute, func(context.Context, *interaction.Tracked) {
		close(entered)
		<-release
	})
	tracked := button(tr, "u1", "x")
	require.True(t, h.Offer(tracked))
	<-entered

	l.Stop()
	select {
	case <-l.Done():
		t.Fatal("Done closed while a handler was still running")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	<-l.Done()
	require.True(t, tracked.Disposed())
}

func TestHub_ListenTimesOutAndRecoversPanics(t *testing.T) {
	h := NewHub(testLogger())
	tr := newTracker()
	calls := atomic.Int32{}
	l := h.Listen(context.Background(), Filter{}, 30*time.Millisecond, func(context.Context, *interaction.Tracked) {
		calls.Add(1)
		panic("boom")
	})
	require.True(t, h.Offer(button(tr, "u1", "x")))
	require.True(t, h.Offer(button(tr, "u1", "y")))

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("listener did not time out")
	}
	require.Equal(t, TimedOut, l.Reason())
	require.EqualValues(t, 2, calls.Load())
}

func TestMailbox_QueuesUntilRead(t *testing.T) {
	h := NewHub(testLogger())
	tr := newTracker()
	m := h.Open(Filter{ActorID: "u1", CustomIDPrefix: "wizard|s1|"})
	require.Equal(t, 1, h.Len())

	first := button(tr, "u1", "wizard|s1|type")
	second := button(tr, "u1", "wizard|s1|reminder")
	require.True(t, h.Offer(first))
	require.True(t, h.Offer(second))
	require.False(t, h.Offer(button(tr, "u2", "wizard|s1|type")))

	res := m.Next(context.Background(), time.Second)
	require.Same(t, first, res.Tracked)
	res = m.Next(context.Background(), time.Second)
	require.Same(t, second, res.Tracked)

	res = m.Next(context.Background(), 10*time.Millisecond)
	require.Equal(t, TimedOut, res.Outcome)
	require.Equal(t, 1, h.Len(), "a timed out read keeps the mailbox open")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Equal(t, Cancelled, m.Next(ctx, time.Second).Outcome)

	left := button(tr, "u1", "wizard|s1|late")
	require.True(t, h.Offer(left))
	require.Equal(t, []*interaction.Tracked{left}, m.Close())
	require.Zero(t, h.Len())
	require.Nil(t, m.Close())
	require.False(t, h.Offer(button(tr, "u1", "wizard|s1|type")))
}

func TestMailbox_AcceptUploads(t *testing.T) {
	h := NewHub(testLogger())
	m := h.Open(Filter{ActorID: "u1"})
	defer m.Close()

	require.False(t, h.OfferMessage(upload("u1", "c1", "image/png")))
	m.AcceptUploads(&UploadFilter{ActorID: "u1", ChannelID: "c1", ContentTypes: []string{"image/"}})
	require.True(t, h.OfferMessage(upload("u1", "c1", "image/png")))

	res := m.Next(context.Background(), time.Second)
	require.True(t, res.Collected())
	require.NotNil(t, res.Upload)
	require.Nil(t, res.Tracked)

	m.AcceptUploads(nil)
	require.False(t, h.OfferMessage(upload("u1", "c1", "image/png")))
}
