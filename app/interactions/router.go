package interactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"strings"
	"sync"

	"github.com/Black-And-White-Club/discord-event-bot/app/collector"
	"github.com/Black-And-White-Club/discord-event-bot/app/guildconfig"
	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"github.com/bwmarrin/discordgo"
)

// Handler serves one routed interaction. A returned error is logged and
// answered with an apology.
type Handler func(ctx context.Context, tracked *interaction.Tracked) error

// PermissionLevel is what a member needs to run a handler.
type PermissionLevel int

const (
	NoPermissionRequired PermissionLevel = iota
	AdminRequired
)

const (
	MessageExpired    = "This form has expired."
	MessageApology    = "Sorry, something went wrong. Please try again."
	MessageNoAdmin    = "You need the Manage Server permission to do that."
	MessageGuildOnly  = "This only works inside a server."
	MessageNeedsSetup = "This server has not been set up yet. An admin can run `/setup event-channel`."
)

const adminPermissions = discordgo.PermissionAdministrator | discordgo.PermissionManageServer

type route struct {
	id            string
	handler       Handler
	permission    PermissionLevel
	requiresSetup bool
}

// Router parses inbound interactions, hands them to waiting collectors and
// otherwise dispatches them by command name or custom id. Exact ids win over
// prefixes; among prefixes the longest wins.
type Router struct {
	tracker  *interaction.Tracker
	hub      *collector.Hub
	resolver guildconfig.GuildConfigResolver
	logger   *slog.Logger
	baseCtx  context.Context

	mu       sync.RWMutex
	routes   map[string]route
	prefixes []string
	expired  []string
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithBaseContext sets the context every handler context derives from.
func WithBaseContext(ctx context.Context) RouterOption {
	return func(r *Router) { r.baseCtx = ctx }
}

func NewRouter(tracker *interaction.Tracker, hub *collector.Hub, resolver guildconfig.GuildConfigResolver, logger *slog.Logger, opts ...RouterOption) *Router {
	r := &Router{
		tracker:  tracker,
		hub:      hub,
		resolver: resolver,
		logger:   logger,
		baseCtx:  context.Background(),
		routes:   make(map[string]route),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterHandler routes id to h with no permission checks.
func (r *Router) RegisterHandler(id string, h Handler) {
	r.RegisterHandlerWithPermissions(id, h, NoPermissionRequired, false)
}

// RegisterHandlerWithPermissions routes id to h. id matches a command name
// or custom id exactly, or as a prefix of a custom id.
func (r *Router) RegisterHandlerWithPermissions(id string, h Handler, permission PermissionLevel, requiresSetup bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.routes[id]; !exists {
		r.prefixes = append(r.prefixes, id)
		sort.Slice(r.prefixes, func(i, j int) bool { return len(r.prefixes[i]) > len(r.prefixes[j]) })
	}
	r.routes[id] = route{id: id, handler: h, permission: permission, requiresSetup: requiresSetup}
}

// RegisterExpired marks a custom id prefix whose components only live as
// long as a collector. An unclaimed click on one of them is answered with
// MessageExpired.
func (r *Router) RegisterExpired(prefix string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = append(r.expired, prefix)
}

// HandleInteraction is the discordgo InteractionCreate handler.
func (r *Router) HandleInteraction(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	r.Dispatch(r.baseCtx, ic)
}

// Dispatch wraps ic and runs it to completion.
func (r *Router) Dispatch(ctx context.Context, ic *discordgo.InteractionCreate) {
	tracked, err := r.tracker.Wrap(ic)
	if err != nil {
		if errors.Is(err, interaction.ErrUnsupportedInteraction) {
			r.logger.DebugContext(ctx, "Ignoring unsupported interaction", attr.Error(err))
			return
		}
		r.logger.WarnContext(ctx, "Failed to parse interaction", attr.Error(err))
		return
	}

	if r.hub != nil && r.hub.Offer(tracked) {
		return
	}
	defer tracked.Dispose()

	ev := tracked.Event()
	key := routeKey(ev)
	rt, ok := r.lookup(key)
	if !ok {
		if r.isExpired(key) {
			r.respond(ctx, tracked, MessageExpired, "expired")
			return
		}
		r.logger.DebugContext(ctx, "No handler for interaction",
			attr.InteractionID(tracked.ID()),
			attr.String("route_key", key))
		return
	}

	if !r.allowed(ctx, tracked, rt) {
		return
	}
	r.run(ctx, tracked, rt)
}

func (r *Router) run(ctx context.Context, tracked *interaction.Tracked, rt route) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "Recovered panic from interaction handler",
				attr.String("route", rt.id),
				attr.InteractionID(tracked.ID()),
				attr.Any("panic", rec),
				attr.String("stack_trace", string(debug.Stack())))
			r.apologize(ctx, tracked)
		}
	}()

	if err := rt.handler(ctx, tracked); err != nil {
		r.logger.ErrorContext(ctx, "Interaction handler failed",
			attr.String("route", rt.id),
			attr.InteractionID(tracked.ID()),
			attr.UserID(tracked.Event().Common().ActorID),
			attr.Error(err))
		r.apologize(ctx, tracked)
	}
}

func (r *Router) allowed(ctx context.Context, tracked *interaction.Tracked, rt route) bool {
	if rt.permission == NoPermissionRequired && !rt.requiresSetup {
		return true
	}
	meta := tracked.Event().Common()
	if meta.GuildID == "" {
		r.respond(ctx, tracked, MessageGuildOnly, "guild_only")
		return false
	}
	if rt.permission == AdminRequired && !isAdmin(meta.Raw) {
		r.logger.InfoContext(ctx, "Denied interaction for missing permission",
			attr.String("route", rt.id),
			attr.UserID(meta.ActorID),
			attr.GuildID(meta.GuildID))
		r.respond(ctx, tracked, MessageNoAdmin, "permission_denied")
		return false
	}
	if rt.requiresSetup && (r.resolver == nil || !r.resolver.IsGuildSetupComplete(ctx, meta.GuildID)) {
		r.respond(ctx, tracked, MessageNeedsSetup, "needs_setup")
		return false
	}
	return true
}

// apologize tells the user something failed through whichever response
// the interaction still allows.
func (r *Router) apologize(ctx context.Context, tracked *interaction.Tracked) {
	r.respond(ctx, tracked, MessageApology, "apology")
}

func (r *Router) respond(ctx context.Context, tracked *interaction.Tracked, content, tag string) {
	var err error
	switch flags := tracked.Flags(); {
	case flags.ModalShown:
		return
	case !flags.Acknowledged():
		_, err = tracked.Reply(ctx, interaction.Text(content), interaction.Ephemeral(), interaction.Tag(tag))
	default:
		_, err = tracked.FollowUp(ctx, interaction.Text(content), interaction.Ephemeral(), interaction.Tag(tag))
	}
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to send router response",
			attr.InteractionID(tracked.ID()),
			attr.String("tag", tag),
			attr.Error(err))
	}
}

func (r *Router) lookup(key string) (route, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rt, ok := r.routes[key]; ok {
		return rt, true
	}
	for _, prefix := range r.prefixes {
		if prefix != "" && strings.HasPrefix(key, prefix) {
			return r.routes[prefix], true
		}
	}
	return route{}, false
}

func (r *Router) isExpired(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, prefix := range r.expired {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// routeKey is the command name for slash commands and the custom id for
// components and modals.
func routeKey(ev interaction.Event) string {
	if cmd, ok := ev.(*interaction.Command); ok {
		return cmd.Name
	}
	return interaction.CustomID(ev)
}

func isAdmin(i *discordgo.Interaction) bool {
	if i == nil || i.Member == nil {
		return false
	}
	return i.Member.Permissions&adminPermissions != 0
}

// String lists the registered routes, for startup logs.
func (r *Router) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.routes))
	for id := range r.routes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return fmt.Sprintf("routes=%v expired=%v", ids, r.expired)
}
