package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/Black-And-White-Club/discord-event-bot/app/shared/attr"
	"golang.org/x/sync/semaphore"
)

// HandlerFunc processes one collected interaction.
type HandlerFunc func(ctx context.Context, tr *interaction.Tracked)

// MaxConcurrentHandlers bounds how many matches one listener handles at once.
const MaxConcurrentHandlers = 16

// Listener is a continuous subscription. Matches are dispatched in delivery
// order, each to its own goroutine, so handlers must be safe for concurrent use.
type Listener struct {
	hub      *Hub
	sub      *subscription
	fn       HandlerFunc
	sem      *semaphore.Weighted
	handlers sync.WaitGroup

	mu     sync.Mutex
	queue  []*interaction.Tracked
	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
	reason Outcome
}

// Listen starts a listener for interactions matching f until Stop, ctx
// cancellation or the timeout. Each delivered Tracked is disposed after fn returns.
func (h *Hub) Listen(ctx context.Context, f Filter, timeout time.Duration, fn HandlerFunc) *Listener {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	l := &Listener{
		hub:  h,
		fn:   fn,
		sem:  semaphore.NewWeighted(MaxConcurrentHandlers),
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	l.sub = &subscription{filter: &f, listener: l}
	h.add(l.sub)
	go l.run(ctx, timeout)
	return l
}

// Stop ends the listener. Interactions already taken are still handled.
func (l *Listener) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// Done is closed once the listener has finished handling every taken interaction.
func (l *Listener) Done() <-chan struct{} { return l.done }

// Reason is why the listener ended; valid after Done is closed.
func (l *Listener) Reason() Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reason
}

func (l *Listener) enqueue(tr *interaction.Tracked) {
	l.mu.Lock()
	l.queue = append(l.queue, tr)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Listener) next() *interaction.Tracked {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil
	}
	tr := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return tr
}

func (l *Listener) run(ctx context.Context, timeout time.Duration) {
	defer close(l.done)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	reason := TimedOut
loop:
	for {
		select {
		case <-l.wake:
			l.drain(ctx, true)
		case <-timer.C:
			break loop
		case <-l.stop:
			reason = Stopped
			break loop
		case <-ctx.Done():
			reason = Cancelled
			break loop
		}
	}

	l.hub.remove(l.sub)
	l.mu.Lock()
	l.reason = reason
	l.mu.Unlock()

	// Anything taken before removal is still handled, unless shutting down.
	l.drain(ctx, reason != Cancelled)
	l.handlers.Wait()
	l.hub.metrics.RecordWait(reason)
	l.hub.logger.DebugContext(ctx, "collector listener ended", attr.String("outcome", reason.String()))
}

func (l *Listener) drain(ctx context.Context, handle bool) {
	for tr := l.next(); tr != nil; tr = l.next() {
		if !handle || l.sem.Acquire(ctx, 1) != nil {
			tr.Dispose()
			continue
		}
		l.handlers.Add(1)
		go func() {
			defer l.handlers.Done()
			defer l.sem.Release(1)
			defer tr.Dispose()
			l.invoke(ctx, tr)
		}()
	}
}

func (l *Listener) invoke(ctx context.Context, tr *interaction.Tracked) {
	defer func() {
		if r := recover(); r != nil {
			l.hub.logger.ErrorContext(ctx, "Recovered from panic in collector listener",
				attr.InteractionID(tr.ID()),
				attr.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	l.fn(ctx, tr)
}
