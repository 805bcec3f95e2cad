package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Black-And-White-Club/discord-event-bot/app/bot"
	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/metrics"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/logging"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/redaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/Black-And-White-Club/discord-event-bot/config"
	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "discord-event-bot",
	Short:         "Discord bot for creating and announcing community events",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to Discord and serve interactions",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema and exit",
	RunE:  runMigrate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "discord-event-bot", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
	// Running the binary without a subcommand serves.
	rootCmd.RunE = runServe
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Service.Version == "dev" {
		cfg.Service.Version = version
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.Service.Name)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer closer.Close()

	logger.Info("Starting discord-event-bot",
		attr.String("version", cfg.Service.Version),
		attr.String("token", redaction.RedactBotToken(cfg.Discord.Token)),
		attr.GuildID(cfg.Discord.GuildID),
		attr.String("health_addr", cfg.Observability.HealthAddr))

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	m, err := metrics.New("eventbot")
	if err != nil {
		store.Close()
		return err
	}

	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	// Attachments of wizard uploads arrive with message content.
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	b := bot.NewDiscordBot(discord.NewDiscordSession(dg, logger), cfg, logger, store, eventbus.New(logger, 0), m)
	defer b.Close()

	if err := b.Run(cmd.Context()); err != nil {
		logger.Error("Bot stopped with error", attr.Error(err))
		return err
	}
	logger.Info("Graceful shutdown complete.")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Migrate(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
	return nil
}
