// Package cookie serves the /cookie command.
package cookie

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/operation"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/bwmarrin/discordgo"
)

const (
	MessageGuildOnly      = "Cookies can only be given in a server."
	MessageSelfTransfer   = "You can't give a cookie to yourself."
	MessageOutOfCookies   = "You're out of cookies!"
	MessageMissingUser    = "Tell me who gets the cookie."
	MessageUnknownCommand = "Unknown cookie command."
)

// CookieManager handles cookie transfers.
type CookieManager interface {
	HandleCookieCommand(ctx context.Context, tracked *interaction.Tracked) error
}

type cookieManager struct {
	store  storage.Store
	runner *operation.Runner
	logger *slog.Logger
}

type transfer struct {
	fromBalance int
	toBalance   int
}

// NewCookieManager creates a CookieManager. A nil runner gets a default.
func NewCookieManager(store storage.Store, runner *operation.Runner, logger *slog.Logger) CookieManager {
	if runner == nil {
		runner = operation.NewRunner(logger, nil, nil)
	}
	return &cookieManager{store: store, runner: runner, logger: logger}
}

func (m *cookieManager) HandleCookieCommand(ctx context.Context, tr *interaction.Tracked) error {
	cmd, ok := tr.Event().(*interaction.Command)
	if !ok {
		return fmt.Errorf("%w: cookie expects a command", interaction.ErrUnsupportedInteraction)
	}
	if cmd.GuildID == "" {
		return reply(ctx, tr, MessageGuildOnly)
	}

	switch cmd.Subcommand {
	case "give":
		return m.give(ctx, tr, cmd)
	case "balance":
		return m.balance(ctx, tr, cmd)
	default:
		return reply(ctx, tr, MessageUnknownCommand)
	}
}

func (m *cookieManager) give(ctx context.Context, tr *interaction.Tracked, cmd *interaction.Command) error {
	toID := userOption(cmd, "user")
	switch {
	case toID == "":
		return reply(ctx, tr, MessageMissingUser)
	case toID == cmd.ActorID:
		return reply(ctx, tr, MessageSelfTransfer)
	}

	ok, err := tr.DeferReply(ctx, interaction.Ephemeral(), interaction.Tag("cookie_give"))
	if err != nil {
		return fmt.Errorf("failed to acknowledge cookie transfer: %w", err)
	}
	if !ok {
		return nil
	}

	result, err := m.runner.Run(ctx, "give_cookie", func(ctx context.Context) (operation.Result, error) {
		from, to, err := m.store.GiveCookie(ctx, cmd.GuildID, cmd.ActorID, toID)
		switch {
		case errors.Is(err, storage.ErrSelfTransfer):
			return operation.Result{Failure: MessageSelfTransfer, Error: err}, nil
		case errors.Is(err, storage.ErrInsufficientCookies):
			return operation.Result{Failure: MessageOutOfCookies, Error: err}, nil
		case err != nil:
			return operation.Result{}, err
		}
		return operation.Result{Success: transfer{fromBalance: from, toBalance: to}}, nil
	})
	if err != nil {
		return err
	}
	if result.Error != nil {
		_, err := tr.EditReply(ctx, interaction.Text(result.Failure.(string)), interaction.Tag("cookie_give"))
		return err
	}

	t := result.Success.(transfer)
	m.logger.InfoContext(ctx, "Cookie given",
		attr.GuildID(cmd.GuildID),
		attr.UserID(cmd.ActorID),
		attr.String("to_user_id", toID),
		attr.Int("from_balance", t.fromBalance))

	if _, err := tr.EditReply(ctx, interaction.Text(fmt.Sprintf("Sent! You have %d 🍪 left.", t.fromBalance)), interaction.Tag("cookie_give")); err != nil {
		return err
	}
	_, err = tr.FollowUp(ctx, interaction.Payload{
		Content:         fmt.Sprintf("🍪 <@%s> gave <@%s> a cookie! They now have %d.", cmd.ActorID, toID, t.toBalance),
		AllowedMentions: &discordgo.MessageAllowedMentions{Users: []string{toID}},
	}, interaction.Tag("cookie_give"))
	return err
}

func (m *cookieManager) balance(ctx context.Context, tr *interaction.Tracked, cmd *interaction.Command) error {
	ok, err := tr.DeferReply(ctx, interaction.Ephemeral(), interaction.Tag("cookie_balance"))
	if err != nil {
		return fmt.Errorf("failed to acknowledge balance: %w", err)
	}
	if !ok {
		return nil
	}
	balance, err := m.store.CookieBalance(ctx, cmd.GuildID, cmd.ActorID)
	if err != nil {
		return fmt.Errorf("failed to load cookie balance: %w", err)
	}
	_, err = tr.EditReply(ctx, interaction.Text(fmt.Sprintf("You have %d 🍪.", balance)), interaction.Tag("cookie_balance"))
	return err
}

func userOption(cmd *interaction.Command, name string) string {
	opt, ok := cmd.Options[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionUser {
		return ""
	}
	if id, ok := opt.Value.(string); ok {
		return id
	}
	return ""
}

func reply(ctx context.Context, tr *interaction.Tracked, content string) error {
	_, err := tr.Reply(ctx, interaction.Text(content), interaction.Ephemeral())
	return err
}
