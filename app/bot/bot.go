package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/collector"
	"github.com/Black-And-White-Club/discord-event-bot/app/cookie/discord/cookie"
	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/event/discord/announce"
	createevent "github.com/Black-And-White-Club/discord-event-bot/app/event/discord/create_event"
	eventrouter "github.com/Black-And-White-Club/discord-event-bot/app/event/watermill"
	eventhandlers "github.com/Black-And-White-Club/discord-event-bot/app/event/watermill/handlers"
	"github.com/Black-And-White-Club/discord-event-bot/app/guild/discord/debug"
	"github.com/Black-And-White-Club/discord-event-bot/app/guild/discord/setup"
	"github.com/Black-And-White-Club/discord-event-bot/app/guildconfig"
	"github.com/Black-And-White-Club/discord-event-bot/app/health"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/interactions"
	"github.com/Black-And-White-Club/discord-event-bot/app/metrics"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/operation"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/Black-And-White-Club/discord-event-bot/app/timeparse"
	"github.com/Black-And-White-Club/discord-event-bot/config"
	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const metricsNamespace = "eventbot"

type DiscordBot struct {
	Session  discord.Session
	Logger   *slog.Logger
	Config   *config.Config
	Store    storage.Store
	EventBus *eventbus.Bus
	Metrics  *metrics.Metrics

	commandRegistrar func(s discord.Session, logger *slog.Logger, guildID string) error
	// ready is closed once the Discord session is open.
	ready chan struct{}
}

func NewDiscordBot(session discord.Session, cfg *config.Config, logger *slog.Logger, store storage.Store, bus *eventbus.Bus, m *metrics.Metrics) *DiscordBot {
	logger.Info("Creating DiscordBot")
	return &DiscordBot{
		Session:          session,
		Logger:           logger,
		Config:           cfg,
		Store:            store,
		EventBus:         bus,
		Metrics:          m,
		commandRegistrar: discord.RegisterCommands,
		ready:            make(chan struct{}),
	}
}

// Ready is closed once the bot is connected.
func (bot *DiscordBot) Ready() <-chan struct{} { return bot.ready }

// Run wires every module, connects to Discord and blocks until ctx is
// cancelled or a component fails.
func (bot *DiscordBot) Run(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	cfg := bot.Config
	tracer := otel.Tracer(cfg.Service.Name)

	cache, err := storage.NewGuildConfigCache(ctx, cfg.Storage.GuildCacheWindow)
	if err != nil {
		return fmt.Errorf("failed to create guild config cache: %w", err)
	}
	defer cache.Close()
	resolver, err := guildconfig.NewResolver(bot.Store, cache, nil, bot.Logger)
	if err != nil {
		return err
	}

	registry := interaction.NewRegistry(cfg.Interactions.RegistryMaxEntries, cfg.Interactions.IdleTTL, interaction.WithRegistryLogger(bot.Logger))
	trackerOpts := []interaction.Option{interaction.WithRegistry(registry), interaction.WithMetrics(bot.Metrics)}
	if cfg.Interactions.StrictFollowUp {
		trackerOpts = append(trackerOpts, interaction.WithStrictFollowUp())
	}
	tracker := interaction.NewTracker(bot.Session, bot.Logger, trackerOpts...)
	hub := collector.NewHub(bot.Logger, collector.WithMetrics(bot.Metrics))
	runner := operation.NewRunner(bot.Logger, tracer, bot.Metrics)
	parser := timeparse.New(time.UTC)

	router := interactions.NewRouter(tracker, hub, resolver, bot.Logger, interactions.WithBaseContext(ctx))
	announcer := announce.NewAnnounceManager(ctx, bot.Session, bot.Store, resolver, hub, bot.EventBus, parser, runner, bot.Logger, announce.Config{
		EditWindow:  cfg.Wizard.EditWindow,
		FormTimeout: cfg.Wizard.StepTimeout,
	})
	defer func() {
		cancel()
		announcer.Stop()
	}()

	createevent.RegisterHandlers(router, createevent.NewCreateEventManager(hub, bot.Store, bot.EventBus, parser, runner, bot.Logger, createevent.Config{
		StepTimeout:   cfg.Wizard.StepTimeout,
		UploadTimeout: cfg.Wizard.UploadTimeout,
	}))
	announce.RegisterHandlers(router, announcer)
	cookie.RegisterHandlers(router, cookie.NewCookieManager(bot.Store, runner, bot.Logger))
	setup.RegisterHandlers(router, setup.NewSetupManager(resolver, bot.EventBus, bot.Logger))
	debug.RegisterHandlers(router, debug.NewDebugManager(registry, bot.Logger))
	bot.Logger.InfoContext(ctx, "Interaction routes registered", attr.String("routes", router.String()))

	messages := interactions.NewMessageRegistry(ctx, bot.Logger)
	messages.RegisterMessageCreateHandler(func(_ context.Context, _ discord.Session, m *discordgo.MessageCreate) {
		hub.OfferMessage(m)
	})

	busRouter, err := bot.EventBus.NewRouter()
	if err != nil {
		return err
	}
	bot.Metrics.AddRouterMetrics(busRouter, metricsNamespace)
	eventRouter := eventrouter.NewEventRouter(bot.Logger, busRouter, bot.EventBus, bot.EventBus.Logger(), tracer)
	if err := eventRouter.Configure(ctx, eventhandlers.NewEventHandlers(bot.Logger, announcer, bot.Session)); err != nil {
		return err
	}

	healthHandler := health.NewHandler(cfg.Service.Version, map[string]health.Pinger{"store": bot.Store}, bot.Metrics.Handler(), bot.Logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		registry.Run(gctx, cfg.Interactions.JanitorInterval)
		return nil
	})
	g.Go(func() error {
		return busRouter.Run(gctx)
	})
	g.Go(func() error {
		return healthHandler.Run(gctx, cfg.Observability.HealthAddr)
	})
	g.Go(func() error {
		select {
		case <-busRouter.Running():
		case <-gctx.Done():
			return nil
		}
		if err := bot.connect(gctx, router, messages); err != nil {
			return err
		}
		<-gctx.Done()
		bot.Logger.Info("Shutting down Discord bot...")
		if err := bot.Session.Close(); err != nil {
			bot.Logger.Error("Failed to close Discord session", attr.Error(err))
		}
		return nil
	})

	err = g.Wait()
	if closeErr := eventRouter.Close(); closeErr != nil {
		bot.Logger.Error("Failed to close event router", attr.Error(closeErr))
	}
	return err
}

// connect registers the slash commands, subscribes the routers and opens the
// gateway connection. Events published before the bus router runs would be
// dropped, so it waits for the router first.
func (bot *DiscordBot) connect(ctx context.Context, router *interactions.Router, messages *interactions.MessageRegistry) error {
	if err := bot.commandRegistrar(bot.Session, bot.Logger, bot.Config.Discord.GuildID); err != nil {
		bot.Logger.ErrorContext(ctx, "Failed to register slash commands", attr.Error(err))
		return err
	}
	bot.Logger.InfoContext(ctx, "Slash commands registered successfully.")

	bot.Session.AddHandler(router.HandleInteraction)
	messages.RegisterWithSession(bot.Session, bot.Session)
	bot.Session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		bot.Logger.Info("Discord bot is connected and ready.", attr.Int("guilds", len(r.Guilds)))
	})

	if err := bot.Session.Open(); err != nil {
		bot.Logger.ErrorContext(ctx, "Error opening discord connection", attr.Error(err))
		return err
	}
	close(bot.ready)
	bot.Logger.InfoContext(ctx, "Discord bot is now running.")
	return nil
}

// Close releases the bus. The session is closed by Run.
func (bot *DiscordBot) Close() {
	bot.Logger.Info("Closing bot")
	if err := bot.EventBus.Close(); err != nil {
		bot.Logger.Error("Failed to close EventBus", attr.Error(err))
	}
	if err := bot.Store.Close(); err != nil {
		bot.Logger.Error("Failed to close store", attr.Error(err))
	}
}
