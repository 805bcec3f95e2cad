package interactions

import (
	"context"
	"log/slog"
	"runtime/debug"

	discord "github.com/Black-And-White-Club/discord-event-bot/app/discordgo"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/bwmarrin/discordgo"
)

type discordgoAdder interface {
	AddHandler(handler interface{}) func()
}

// MessageHandlerCreate handles one MessageCreate event.
type MessageHandlerCreate func(ctx context.Context, s discord.Session, m *discordgo.MessageCreate)

// MessageRegistry fans MessageCreate events out to its handlers in
// registration order.
type MessageRegistry struct {
	messageCreateHandlers []MessageHandlerCreate
	logger                *slog.Logger
	baseCtx               context.Context
}

func NewMessageRegistry(ctx context.Context, logger *slog.Logger) *MessageRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageRegistry{logger: logger, baseCtx: ctx}
}

func (r *MessageRegistry) RegisterMessageCreateHandler(handler MessageHandlerCreate) {
	r.messageCreateHandlers = append(r.messageCreateHandlers, handler)
}

// RegisterWithSession subscribes the registry to session.
func (r *MessageRegistry) RegisterWithSession(session discordgoAdder, wrapperSession discord.Session) {
	session.AddHandler(func(s *discordgo.Session, e *discordgo.MessageCreate) {
		var selfID string
		if s != nil && s.State != nil && s.State.User != nil {
			selfID = s.State.User.ID
		}
		r.Handle(wrapperSession, selfID, e)
	})
}

// Handle dispatches e, skipping empty events and the bot's own messages.
func (r *MessageRegistry) Handle(wrapperSession discord.Session, selfID string, e *discordgo.MessageCreate) {
	if e == nil || e.Message == nil {
		r.logger.Warn("Ignoring MessageCreate event with nil payload")
		return
	}
	if e.Author == nil {
		r.logger.Warn("Ignoring MessageCreate event with nil author",
			attr.ChannelID(e.ChannelID),
			attr.String("message_id", e.ID))
		return
	}
	if selfID != "" && e.Author.ID == selfID {
		return
	}

	ctx := r.baseCtx
	r.logger.DebugContext(ctx, "Processing MessageCreate handlers",
		attr.String("author_id", e.Author.ID),
		attr.ChannelID(e.ChannelID),
		attr.String("message_id", e.ID))

	for idx, handler := range r.messageCreateHandlers {
		r.runMessageCreateHandler(ctx, wrapperSession, e, idx, handler)
	}
}

func (r *MessageRegistry) runMessageCreateHandler(ctx context.Context, wrapperSession discord.Session, e *discordgo.MessageCreate, index int, handler MessageHandlerCreate) {
	if handler == nil {
		r.logger.Warn("Skipping nil MessageCreate handler", attr.Int("handler_index", index))
		return
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("Recovered panic from MessageCreate handler",
				attr.Int("handler_index", index),
				attr.ChannelID(e.ChannelID),
				attr.String("message_id", e.ID),
				attr.Any("panic", recovered),
				attr.String("stack_trace", string(debug.Stack())))
		}
	}()

	handler(ctx, wrapperSession, e)
}
