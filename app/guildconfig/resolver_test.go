package guildconfig

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage/mocks"
	"go.uber.org/mock/gomock"
)

func newTestResolver(t *testing.T, store storage.Store) *Resolver {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cache, err := storage.NewGuildConfigCache(ctx, time.Minute)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	r, err := NewResolver(store, cache, DefaultResolverConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestNewResolver_ReturnsErrorOnInvalidConfig(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache, err := storage.NewGuildConfigCache(context.Background(), time.Minute)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	defer cache.Close()

	_, err = NewResolver(mocks.NewMockStore(ctrl), cache, &ResolverConfig{}, nil)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	_, err = NewResolver(nil, cache, nil, nil)
	if err == nil {
		t.Fatalf("expected error for missing store")
	}
}

func TestResolver_CachesAfterFirstLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().
		GetGuildConfig(gomock.Any(), "g1").
		Return(&storage.GuildConfig{GuildID: "g1", EventChannelID: "c1"}, nil).
		Times(1)

	r := newTestResolver(t, store)
	for i := 0; i < 3; i++ {
		cfg, err := r.GetGuildConfigWithContext(context.Background(), "g1")
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if cfg.EventChannelID != "c1" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
	}
	if !r.IsGuildSetupComplete(context.Background(), "g1") {
		t.Fatalf("configured guild should report setup complete")
	}
}

func TestResolver_ConcurrentLookupsShareOneRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	release := make(chan struct{})
	store.EXPECT().
		GetGuildConfig(gomock.Any(), "g1").
		DoAndReturn(func(ctx context.Context, guildID string) (*storage.GuildConfig, error) {
			<-release
			return &storage.GuildConfig{GuildID: guildID, EventChannelID: "c1"}, nil
		}).
		Times(1)

	r := newTestResolver(t, store)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.GetGuildConfigWithContext(context.Background(), "g1")
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestResolver_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		storeErr  error
		permanent bool
		errType   string
	}{
		{"never set up", storage.ErrNotFound, true, "not_found"},
		{"store down", errors.New("disk I/O error"), false, "store"},
		{"timeout", context.DeadlineExceeded, false, "timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStore(ctrl)
			store.EXPECT().GetGuildConfig(gomock.Any(), "g1").Return(nil, tc.storeErr)

			r := newTestResolver(t, store)
			_, err := r.GetGuildConfigWithContext(context.Background(), "g1")
			if got := IsConfigNotFound(err); got != tc.permanent {
				t.Fatalf("IsConfigNotFound(%v) = %v, want %v", err, got, tc.permanent)
			}
			if got := IsConfigTemporaryError(err); got == tc.permanent {
				t.Fatalf("IsConfigTemporaryError(%v) = %v", err, got)
			}
			if m := r.GetErrorMetrics(); m.ErrorsByType[tc.errType] != 1 || m.ErrorsByGuild["g1"] != 1 {
				t.Fatalf("unexpected metrics: %+v", m)
			}
		})
	}
}

func TestResolver_CancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := newTestResolver(t, mocks.NewMockStore(ctrl))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.GetGuildConfigWithContext(ctx, "g1")
	if !IsConfigTemporaryError(err) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected temporary cancellation error, got %v", err)
	}
	if r.IsGuildSetupComplete(ctx, "g1") {
		t.Fatalf("failed lookups must not report setup complete")
	}
}

func TestResolver_SaveRefreshesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().SaveGuildConfig(gomock.Any(), gomock.Any()).Return(nil)

	r := newTestResolver(t, store)
	if err := r.SaveGuildConfig(context.Background(), &storage.GuildConfig{GuildID: "g1", EventChannelID: "c7"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	// Served from cache; the mock would fail on an unexpected GetGuildConfig.
	cfg, err := r.GetGuildConfigWithContext(context.Background(), "g1")
	if err != nil || cfg.EventChannelID != "c7" {
		t.Fatalf("got %+v, %v", cfg, err)
	}

	store.EXPECT().SaveGuildConfig(gomock.Any(), gomock.Any()).Return(errors.New("locked"))
	if err := r.SaveGuildConfig(context.Background(), &storage.GuildConfig{GuildID: "g1"}); err == nil {
		t.Fatalf("expected store error")
	}
}
