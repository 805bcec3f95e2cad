package interaction

import (
	"container/list"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
)

// DefaultMaxEntries bounds a registry created without an explicit size.
const DefaultMaxEntries = 5000

// Registry indexes live Tracked interactions by id for diagnostics. It is
// bounded (the oldest entry is evicted on overflow) and entries idle longer
// than the idle TTL are removed by Sweep.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is the most recently created

	maxEntries int
	idleTTL    time.Duration
	now        func() time.Time
	logger     *slog.Logger
	metrics    Metrics
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry creates a registry holding at most maxEntries interactions.
// maxEntries <= 0 means unbounded; idleTTL <= 0 disables sweeping.
func NewRegistry(maxEntries int, idleTTL time.Duration, opts ...RegistryOption) *Registry {
	r := &Registry{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		idleTTL:    idleTTL,
		now:        time.Now,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    NoOpMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Set inserts t, replacing any entry with the same id.
func (r *Registry) Set(t *Tracked) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.entries[t.ID()]; ok {
		r.order.Remove(el)
	}
	r.insertLocked(t)
}

func (r *Registry) setIfAbsent(t *Tracked) (*Tracked, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.entries[t.ID()]; ok {
		return el.Value.(*Tracked), false
	}
	r.insertLocked(t)
	return t, true
}

func (r *Registry) insertLocked(t *Tracked) {
	r.entries[t.ID()] = r.order.PushFront(t)
	for r.maxEntries > 0 && r.order.Len() > r.maxEntries {
		oldest := r.order.Back()
		r.order.Remove(oldest)
		delete(r.entries, oldest.Value.(*Tracked).ID())
	}
	r.metrics.RecordRegistrySize(r.order.Len())
}

func (r *Registry) Get(id string) (*Tracked, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*Tracked), true
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.entries[id]; ok {
		r.order.Remove(el)
		delete(r.entries, id)
		r.metrics.RecordRegistrySize(r.order.Len())
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}

// Sweep removes entries idle for longer than the idle TTL and returns how many it removed.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for el := r.order.Back(); el != nil; {
		prev := el.Prev()
		t := el.Value.(*Tracked)
		if t.LastActivity().Before(cutoff) {
			r.order.Remove(el)
			delete(r.entries, t.ID())
			removed++
		}
		el = prev
	}
	if removed > 0 {
		r.metrics.RecordRegistrySize(r.order.Len())
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Info("Evicted idle interactions", attr.Int("evicted", n), attr.Int("remaining", r.Len()))
			}
		}
	}
}

// Snapshot is the diagnostic view of one tracked interaction.
type Snapshot struct {
	ID        string
	Kind      Kind
	Label     string
	ActorID   string
	GuildID   string
	CreatedAt time.Time
	Flags     Flags
	Calls     int
	Last      *HistoryEntry
	Disposed  bool
}

// Snapshot captures t's current state.
func (t *Tracked) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	meta := t.event.Common()
	s := Snapshot{
		ID:        meta.ID,
		Kind:      t.event.Kind(),
		Label:     Describe(t.event),
		ActorID:   meta.ActorID,
		GuildID:   meta.GuildID,
		CreatedAt: t.createdAt,
		Flags:     t.flags,
		Calls:     len(t.history),
		Disposed:  t.disposed,
	}
	if n := len(t.history); n > 0 {
		last := t.history[n-1]
		s.Last = &last
	}
	return s
}

// DumpRecent returns snapshots of the most recently created entries, newest
// first. limit <= 0 returns all of them.
func (r *Registry) DumpRecent(limit int) []Snapshot {
	r.mu.Lock()
	tracked := make([]*Tracked, 0, r.order.Len())
	for el := r.order.Front(); el != nil; el = el.Next() {
		if limit > 0 && len(tracked) == limit {
			break
		}
		tracked = append(tracked, el.Value.(*Tracked))
	}
	r.mu.Unlock()

	// Snapshots take each entry's own lock, so they are collected outside r.mu.
	out := make([]Snapshot, 0, len(tracked))
	for _, t := range tracked {
		out = append(out, t.Snapshot())
	}
	return out
}

// FormatRecent renders DumpRecent as plain text, one line per interaction.
func (r *Registry) FormatRecent(limit int) string {
	snaps := r.DumpRecent(limit)
	if len(snaps) == 0 {
		return "No tracked interactions."
	}
	now := r.now()
	var b strings.Builder
	for i, s := range snaps {
		fmt.Fprintf(&b, "%d. %s %s by %s, %s, %d call(s), %s ago",
			i+1, s.ID, s.Label, s.ActorID, s.Flags.Phase(), s.Calls, now.Sub(s.CreatedAt).Round(time.Second))
		if s.Last != nil {
			fmt.Fprintf(&b, "\n   last: %s", s.Last.String())
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
