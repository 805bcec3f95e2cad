package testutils

import (
	"io"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
)

func NoOpLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FakePublisher is a programmable watermill publisher that records what it
// was asked to publish.
type FakePublisher struct {
	PublishFunc func(topic string, messages ...*message.Message) error

	mu        sync.Mutex
	published map[string][]*message.Message
}

func (f *FakePublisher) Publish(topic string, messages ...*message.Message) error {
	f.mu.Lock()
	if f.published == nil {
		f.published = make(map[string][]*message.Message)
	}
	f.published[topic] = append(f.published[topic], messages...)
	f.mu.Unlock()

	if f.PublishFunc != nil {
		return f.PublishFunc(topic, messages...)
	}
	return nil
}

func (f *FakePublisher) Close() error { return nil }

// Published returns the messages published to topic.
func (f *FakePublisher) Published(topic string) []*message.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*message.Message(nil), f.published[topic]...)
}

var _ message.Publisher = (*FakePublisher)(nil)
