package interaction

import (
	"context"
	"strings"
	"testing"
	"time"

	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
)

func TestRegistry_BoundedEvictsOldest(t *testing.T) {
	clock := newFakeClock()
	reg := NewRegistry(3, 0, WithRegistryClock(clock.Now))
	tr := NewTracker(discord.NewFakeSession(), discardLogger(), WithRegistry(reg), WithClock(clock.Now))

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, tr.WrapEvent(commandEvent()).ID())
		clock.Advance(time.Second)
	}

	if reg.Len() != 3 {
		t.Fatalf("len = %d, want 3", reg.Len())
	}
	for _, id := range ids[:2] {
		if _, ok := reg.Get(id); ok {
			t.Fatalf("oldest entry %s should have been evicted", id)
		}
	}
	for _, id := range ids[2:] {
		if _, ok := reg.Get(id); !ok {
			t.Fatalf("entry %s missing", id)
		}
	}
}

func TestRegistry_SweepRemovesIdleEntries(t *testing.T) {
	clock := newFakeClock()
	reg := NewRegistry(0, 10*time.Minute, WithRegistryClock(clock.Now))
	tr := NewTracker(discord.NewFakeSession(), discardLogger(), WithRegistry(reg), WithClock(clock.Now))

	idle := tr.WrapEvent(commandEvent())
	active := tr.WrapEvent(commandEvent())

	clock.Advance(8 * time.Minute)
	_, _ = active.DeferReply(context.Background())
	clock.Advance(5 * time.Minute)

	if n := reg.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, ok := reg.Get(idle.ID()); ok {
		t.Fatal("idle entry should be gone")
	}
	if _, ok := reg.Get(active.ID()); !ok {
		t.Fatal("recently used entry should remain")
	}
}

func TestRegistry_DumpRecent(t *testing.T) {
	clock := newFakeClock()
	reg := NewRegistry(10, 0, WithRegistryClock(clock.Now))
	tr := NewTracker(discord.NewFakeSession(), discardLogger(), WithRegistry(reg), WithClock(clock.Now))
	ctx := context.Background()

	first := tr.WrapEvent(commandEvent())
	_, _ = first.DeferReply(ctx)
	clock.Advance(time.Second)
	second := tr.WrapEvent(buttonEvent("wizard|s|details"))
	_, _ = second.Reply(ctx, Text("x"))
	_, _ = second.Reply(ctx, Text("y"))
	clock.Advance(time.Second)
	third := tr.WrapEvent(commandEvent())

	snaps := reg.DumpRecent(2)
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots", len(snaps))
	}
	if snaps[0].ID != third.ID() || snaps[1].ID != second.ID() {
		t.Fatalf("expected newest first, got %s, %s", snaps[0].ID, snaps[1].ID)
	}
	if snaps[0].Last != nil || snaps[0].Calls != 0 {
		t.Fatalf("untouched interaction should have no history: %+v", snaps[0])
	}
	if snaps[1].Last == nil || snaps[1].Last.Legal || snaps[1].Calls != 2 {
		t.Fatalf("second snapshot should end with the refused reply: %+v", snaps[1])
	}

	out := reg.FormatRecent(0)
	for _, want := range []string{first.ID(), "button wizard|s|details", "reply refused", "deferred_reply"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatRecent missing %q:\n%s", want, out)
		}
	}
}

func TestRegistry_FormatRecentEmpty(t *testing.T) {
	if got := NewRegistry(1, 0).FormatRecent(5); got != "No tracked interactions." {
		t.Fatalf("got %q", got)
	}
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	reg := NewRegistry(1, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
