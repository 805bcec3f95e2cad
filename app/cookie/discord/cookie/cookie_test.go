package cookie

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage/mocks"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/testutils"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var seq atomic.Int64

type recorder struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	edits     []string
	followups []*discordgo.WebhookParams
}

func (r *recorder) session() *discord.FakeSession {
	s := discord.NewFakeSession()
	s.InteractionRespondFunc = func(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.responses = append(r.responses, resp)
		return nil
	}
	s.InteractionResponseEditFunc = func(_ *discordgo.Interaction, e *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.edits = append(r.edits, *e.Content)
		return &discordgo.Message{ID: "reply"}, nil
	}
	s.FollowupMessageCreateFunc = func(_ *discordgo.Interaction, _ bool, p *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.followups = append(r.followups, p)
		return &discordgo.Message{ID: "followup"}, nil
	}
	return s
}

func command(tracker *interaction.Tracker, guildID, sub string, options map[string]*discordgo.ApplicationCommandInteractionDataOption) *interaction.Tracked {
	id := strconv.FormatInt(1900000000000000000+seq.Add(1), 10)
	if options == nil {
		options = map[string]*discordgo.ApplicationCommandInteractionDataOption{}
	}
	return tracker.WrapEvent(&interaction.Command{
		Meta:       interaction.Meta{ID: id, ActorID: "u1", GuildID: guildID, CreatedAt: time.Now(), Raw: &discordgo.Interaction{ID: id, Token: "t-" + id}},
		Name:       discord.CommandCookie,
		Subcommand: sub,
		Options:    options,
	})
}

func userOpt(id string) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	return map[string]*discordgo.ApplicationCommandInteractionDataOption{
		"user": {Name: "user", Type: discordgo.ApplicationCommandOptionUser, Value: id},
	}
}

func TestHandleCookieCommand_Give(t *testing.T) {
	tests := []struct {
		name          string
		target        string
		setup         func(store *mocks.MockStore)
		wantReply     string
		wantEdit      string
		wantFollowUps int
		wantErr       bool
	}{
		{
			name:   "transfer succeeds",
			target: "u2",
			setup: func(store *mocks.MockStore) {
				store.EXPECT().GiveCookie(gomock.Any(), "g1", "u1", "u2").Return(4, 6, nil)
			},
			wantEdit:      "Sent! You have 4 🍪 left.",
			wantFollowUps: 1,
		},
		{
			name:   "out of cookies",
			target: "u2",
			setup: func(store *mocks.MockStore) {
				store.EXPECT().GiveCookie(gomock.Any(), "g1", "u1", "u2").Return(0, 0, storage.ErrInsufficientCookies)
			},
			wantEdit: MessageOutOfCookies,
		},
		{
			name:      "self transfer is refused before touching the store",
			target:    "u1",
			wantReply: MessageSelfTransfer,
		},
		{
			name:      "missing target",
			target:    "",
			wantReply: MessageMissingUser,
		},
		{
			name:   "store failure",
			target: "u2",
			setup: func(store *mocks.MockStore) {
				store.EXPECT().GiveCookie(gomock.Any(), "g1", "u1", "u2").Return(0, 0, errors.New("disk I/O error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStore(ctrl)
			if tt.setup != nil {
				tt.setup(store)
			}
			rec := &recorder{}
			tracker := interaction.NewTracker(rec.session(), testutils.NoOpLogger())
			manager := NewCookieManager(store, nil, testutils.NoOpLogger())

			var opts map[string]*discordgo.ApplicationCommandInteractionDataOption
			if tt.target != "" {
				opts = userOpt(tt.target)
			}
			err := manager.HandleCookieCommand(context.Background(), command(tracker, "g1", "give", opts))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.wantReply != "" {
				require.Len(t, rec.responses, 1)
				require.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, rec.responses[0].Type)
				require.Equal(t, tt.wantReply, rec.responses[0].Data.Content)
			}
			if tt.wantEdit != "" {
				require.Equal(t, []string{tt.wantEdit}, rec.edits)
			}
			require.Len(t, rec.followups, tt.wantFollowUps)
			if tt.wantFollowUps > 0 {
				require.Contains(t, rec.followups[0].Content, "<@u1> gave <@u2> a cookie")
				require.Equal(t, []string{"u2"}, rec.followups[0].AllowedMentions.Users)
				require.Zero(t, rec.followups[0].Flags&discordgo.MessageFlagsEphemeral)
			}
		})
	}
}

func TestHandleCookieCommand_Balance(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().CookieBalance(gomock.Any(), "g1", "u1").Return(storage.StarterCookies, nil)

	rec := &recorder{}
	tracker := interaction.NewTracker(rec.session(), testutils.NoOpLogger())
	manager := NewCookieManager(store, nil, testutils.NoOpLogger())

	require.NoError(t, manager.HandleCookieCommand(context.Background(), command(tracker, "g1", "balance", nil)))
	require.Len(t, rec.responses, 1)
	require.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, rec.responses[0].Type)
	require.Equal(t, discordgo.MessageFlagsEphemeral, rec.responses[0].Data.Flags)
	require.Equal(t, []string{"You have 5 🍪."}, rec.edits)
}

func TestHandleCookieCommand_GuildOnly(t *testing.T) {
	rec := &recorder{}
	tracker := interaction.NewTracker(rec.session(), testutils.NoOpLogger())
	manager := NewCookieManager(mocks.NewMockStore(gomock.NewController(t)), nil, testutils.NoOpLogger())

	require.NoError(t, manager.HandleCookieCommand(context.Background(), command(tracker, "", "balance", nil)))
	require.Len(t, rec.responses, 1)
	require.Equal(t, MessageGuildOnly, rec.responses[0].Data.Content)
}
