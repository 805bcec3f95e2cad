package collector

import (
	"context"
	"sync"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
)

// Mailbox is a standing subscription that queues every match until it is
// read with Next. Nothing matching it is lost between two reads.
type Mailbox struct {
	hub *Hub
	sub *subscription

	mu     sync.Mutex
	queue  []delivery
	wake   chan struct{}
	closed bool
}

// Open registers a mailbox for interactions matching f. Close it when done.
func (h *Hub) Open(f Filter) *Mailbox {
	m := &Mailbox{hub: h, wake: make(chan struct{}, 1)}
	m.sub = &subscription{filter: &f, mailbox: m}
	h.add(m.sub)
	return m
}

// AcceptUploads starts queueing uploads matching uf as well. A nil uf stops it.
func (m *Mailbox) AcceptUploads(uf *UploadFilter) {
	m.hub.mu.Lock()
	defer m.hub.mu.Unlock()
	m.sub.uploads = uf
}

func (m *Mailbox) enqueue(d delivery) {
	m.mu.Lock()
	m.queue = append(m.queue, d)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Mailbox) pop() (delivery, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return delivery{}, false
	}
	d := m.queue[0]
	m.queue[0] = delivery{}
	m.queue = m.queue[1:]
	return d, true
}

// Next returns the oldest queued match, waiting up to timeout for one. A
// match queued before the deadline is returned even if the timer fired.
func (m *Mailbox) Next(ctx context.Context, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if d, ok := m.pop(); ok {
			return m.hub.collected(d)
		}
		outcome := TimedOut
		select {
		case <-m.wake:
			continue
		case <-timer.C:
		case <-ctx.Done():
			outcome = Cancelled
		}
		if d, ok := m.pop(); ok {
			return m.hub.collected(d)
		}
		m.hub.metrics.RecordWait(outcome)
		m.hub.logger.DebugContext(ctx, "collector mailbox wait ended", attr.String("outcome", outcome.String()), attr.Duration("timeout", timeout))
		return Result{Outcome: outcome}
	}
}

// Close unregisters the mailbox and returns the interactions still queued.
// The caller owns them.
func (m *Mailbox) Close() []*interaction.Tracked {
	m.hub.remove(m.sub)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	var left []*interaction.Tracked
	for _, d := range m.queue {
		if d.tracked != nil {
			left = append(left, d.tracked)
		}
	}
	m.queue = nil
	return left
}
