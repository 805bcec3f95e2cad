package createevent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/collector"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/operation"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/storage"
	"github.com/Black-And-White-Club/discord-event-bot/app/timeparse"
	"github.com/Black-And-White-Club/discord-event-bot/app/wizard"
	"github.com/ThreeDotsLabs/watermill/message"
)

// CreateEventManager runs the /event create wizard.
type CreateEventManager interface {
	HandleCreateCommand(ctx context.Context, tracked *interaction.Tracked) error
}

// Config bounds how long the wizard waits for the user.
type Config struct {
	StepTimeout   time.Duration
	UploadTimeout time.Duration
}

type createEventManager struct {
	hub           *collector.Hub
	store         storage.Store
	publisher     message.Publisher
	parser        *timeparse.Parser
	runner        *operation.Runner
	logger        *slog.Logger
	stepTimeout   time.Duration
	uploadTimeout time.Duration
}

// NewCreateEventManager creates a new CreateEventManager.
func NewCreateEventManager(
	hub *collector.Hub,
	store storage.Store,
	publisher message.Publisher,
	parser *timeparse.Parser,
	runner *operation.Runner,
	logger *slog.Logger,
	cfg Config,
) CreateEventManager {
	if runner == nil {
		runner = operation.NewRunner(logger, nil, nil)
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = cfg.StepTimeout
	}
	return &createEventManager{
		hub:           hub,
		store:         store,
		publisher:     publisher,
		parser:        parser,
		runner:        runner,
		logger:        logger,
		stepTimeout:   cfg.StepTimeout,
		uploadTimeout: cfg.UploadTimeout,
	}
}

type outcome int

const (
	proceed outcome = iota
	abandoned
)

type step struct {
	name string
	run  func(ctx context.Context, s *wizard.Session, d *draft) (outcome, error)
}

// HandleCreateCommand acknowledges the command with an ephemeral deferred
// reply and walks the user through the steps on that message. Nothing is
// stored unless the user confirms.
func (m *createEventManager) HandleCreateCommand(ctx context.Context, tracked *interaction.Tracked) error {
	cmd, ok := tracked.Event().(*interaction.Command)
	if !ok || cmd.Subcommand != "create" {
		_, err := tracked.Reply(ctx, interaction.Text("Unknown event command."), interaction.Ephemeral())
		return err
	}

	ok, err := tracked.DeferReply(ctx, interaction.Ephemeral(), interaction.Tag("create_event"))
	if err != nil {
		return fmt.Errorf("failed to acknowledge event create: %w", err)
	}
	if !ok {
		return nil
	}

	s := wizard.New(tracked, m.hub, m.stepTimeout, m.logger)
	defer s.Close()

	m.logger.InfoContext(ctx, "Event creation started",
		attr.String("session_id", s.ID),
		attr.UserID(s.ActorID),
		attr.GuildID(cmd.GuildID))

	d := newDraft()
	steps := []step{
		{stepDetails, m.detailsStep},
		{stepChoices, m.choicesStep},
		{stepTypeDetails, m.typeStep},
		{stepBanner, m.bannerStep},
		{stepConfirm, m.confirmStep},
	}
	for _, st := range steps {
		out, err := st.run(ctx, s, d)
		if err != nil {
			return fmt.Errorf("event creation step %s failed: %w", st.name, err)
		}
		if out == abandoned {
			m.logger.InfoContext(ctx, "Event creation abandoned",
				attr.String("session_id", s.ID),
				attr.String("step", st.name))
			return nil
		}
	}
	return nil
}
