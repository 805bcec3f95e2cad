// Package debug serves operator diagnostics.
package debug

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/bwmarrin/discordgo"
)

const (
	defaultLimit = 10
	// Discord rejects message content over 2000 characters.
	maxContent = 2000
)

// DebugManager answers /debug commands.
type DebugManager interface {
	HandleDebugCommand(ctx context.Context, tracked *interaction.Tracked) error
}

type debugManager struct {
	registry *interaction.Registry
	logger   *slog.Logger
}

func NewDebugManager(registry *interaction.Registry, logger *slog.Logger) DebugManager {
	return &debugManager{registry: registry, logger: logger}
}

func (d *debugManager) HandleDebugCommand(ctx context.Context, tr *interaction.Tracked) error {
	cmd, ok := tr.Event().(*interaction.Command)
	if !ok {
		return fmt.Errorf("%w: debug expects a command", interaction.ErrUnsupportedInteraction)
	}
	if cmd.Subcommand != "interactions" {
		_, err := tr.Reply(ctx, interaction.Text("Unknown debug command."), interaction.Ephemeral())
		return err
	}

	limit := defaultLimit
	if opt, ok := cmd.Options["limit"]; ok && opt.Type == discordgo.ApplicationCommandOptionInteger {
		limit = int(opt.IntValue())
	}
	d.logger.InfoContext(ctx, "Dumping tracked interactions",
		attr.UserID(cmd.ActorID),
		attr.Int("limit", limit))

	_, err := tr.Reply(ctx, interaction.Text(codeBlock(d.registry.FormatRecent(limit))), interaction.Ephemeral(), interaction.Tag("debug"))
	return err
}

// codeBlock fences text, cutting it at a line break to fit one message.
func codeBlock(text string) string {
	const fence = "```"
	room := maxContent - 2*len(fence) - 2
	if len(text) > room {
		cut := text[:room]
		for i := len(cut) - 1; i > 0; i-- {
			if cut[i] == '\n' {
				cut = cut[:i]
				break
			}
		}
		text = cut
	}
	return fence + "\n" + text + "\n" + fence
}
