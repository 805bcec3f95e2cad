package eventui

import (
	"strings"
	"testing"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/Black-And-White-Club/discord-event-bot/app/timeparse"
	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
)

var base = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

func parser() *timeparse.Parser {
	return timeparse.New(time.UTC).WithClock(func() time.Time { return base })
}

func TestParseDetails(t *testing.T) {
	tests := []struct {
		name         string
		fields       map[string]string
		wantProblems int
		want         Details
	}{
		{
			name:   "valid",
			fields: map[string]string{FieldTitle: " Board games ", FieldWhen: "2026-11-02 19:30", FieldCapacity: "8"},
			want:   Details{Title: "Board games", When: "2026-11-02 19:30", StartsAt: time.Date(2026, 11, 2, 19, 30, 0, 0, time.UTC), Capacity: 8},
		},
		{
			name:   "unlimited capacity",
			fields: map[string]string{FieldTitle: "Movie", FieldWhen: "2026-11-02 19:30"},
			want:   Details{Title: "Movie", When: "2026-11-02 19:30", StartsAt: time.Date(2026, 11, 2, 19, 30, 0, 0, time.UTC)},
		},
		{
			name:         "missing title and date",
			fields:       map[string]string{},
			wantProblems: 2,
			want:         Details{},
		},
		{
			name:         "past date and bad capacity",
			fields:       map[string]string{FieldTitle: "Late", FieldWhen: "2026-01-01 10:00", FieldCapacity: "lots"},
			wantProblems: 2,
			want:         Details{Title: "Late", When: "2026-01-01 10:00"},
		},
		{
			name:         "title too long",
			fields:       map[string]string{FieldTitle: strings.Repeat("x", 101), FieldWhen: "2026-11-02 19:30"},
			wantProblems: 1,
			want:         Details{Title: strings.Repeat("x", 101), When: "2026-11-02 19:30", StartsAt: time.Date(2026, 11, 2, 19, 30, 0, 0, time.UTC)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, problems := ParseDetails(tt.fields, parser())
			if len(problems) != tt.wantProblems {
				t.Fatalf("expected %d problems, got %v", tt.wantProblems, problems)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("details mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTypeDetails(t *testing.T) {
	details, problems := ParseTypeDetails(storage.EventTypeWatch, map[string]string{"link": "not a link"})
	if len(problems) != 1 {
		t.Fatalf("expected one problem, got %v", problems)
	}
	if details["link"] != "not a link" {
		t.Fatalf("expected the submitted value to be kept, got %v", details)
	}

	details, problems = ParseTypeDetails(storage.EventTypeGame, map[string]string{"game": "Catan", "platform": " "})
	if len(problems) != 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if diff := cmp.Diff(map[string]string{"game": "Catan"}, details); diff != "" {
		t.Fatalf("details mismatch (-want +got):\n%s", diff)
	}

	if HasTypeForm(storage.EventTypeOther) {
		t.Fatalf("other events have no type form")
	}
}

func TestComponentIDRoundTrip(t *testing.T) {
	id := ComponentID("ev-1", ActionForm, "abc")
	eventID, action, ok := ParseComponentID(id)
	if !ok || eventID != "ev-1" || action != ActionForm {
		t.Fatalf("unexpected parse of %q: %q %q %v", id, eventID, action, ok)
	}
	for _, bad := range []string{"wizard|x|y", "event|", "event||signup", "event|only"} {
		if _, _, ok := ParseComponentID(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestAnnouncementComponentsDisableSignupWhenFull(t *testing.T) {
	ev := &storage.Event{ID: "ev-1", Capacity: 2}

	buttons := func(signups int) []discordgo.MessageComponent {
		return AnnouncementComponents(ev, signups)[0].(discordgo.ActionsRow).Components
	}
	if b := buttons(1)[0].(discordgo.Button); b.Disabled || b.CustomID != "event|ev-1|signup" {
		t.Fatalf("unexpected open signup button: %+v", b)
	}
	if b := buttons(2)[0].(discordgo.Button); !b.Disabled {
		t.Fatalf("expected the signup button to be disabled when full")
	}
}

func TestEmbedFields(t *testing.T) {
	ev := &storage.Event{
		ID:        "ev-1",
		Title:     "Movie night",
		Type:      storage.EventTypeWatch,
		StartsAt:  time.Date(2026, 11, 2, 19, 30, 0, 0, time.UTC),
		Capacity:  10,
		Details:   map[string]string{"link": "https://example.com/stream"},
		BannerURL: "https://cdn.example.com/banner.png",
		CreatorID: "u1",
	}
	embed := Embed(ev, 3)

	values := map[string]string{}
	for _, f := range embed.Fields {
		values[f.Name] = f.Value
	}
	if values["✅ Going"] != "3 / 10" {
		t.Fatalf("unexpected attendance: %q", values["✅ Going"])
	}
	if values["Stream link"] != "https://example.com/stream" {
		t.Fatalf("expected the stream link field, got %v", values)
	}
	if embed.Image == nil || embed.Image.URL != ev.BannerURL {
		t.Fatalf("expected the banner image")
	}

	preview := Embed(ev, -1)
	for _, f := range preview.Fields {
		if f.Name == "✅ Going" {
			t.Fatalf("preview must not show attendance")
		}
	}
}
