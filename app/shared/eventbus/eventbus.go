// Package eventbus provides the in-process watermill bus that carries domain
// events between the Discord handlers and their consumers.
package eventbus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventBus publishes and subscribes to topics.
type EventBus interface {
	message.Publisher
	message.Subscriber
}

// Bus is the gochannel-backed EventBus.
type Bus struct {
	*gochannel.GoChannel
	logger watermill.LoggerAdapter
}

var _ EventBus = (*Bus)(nil)

// New creates a bus. Messages published to a topic with no subscribers are
// dropped.
func New(logger *slog.Logger, outputBuffer int64) *Bus {
	if outputBuffer <= 0 {
		outputBuffer = 64
	}
	wmLogger := watermill.NewSlogLogger(logger)
	return &Bus{
		GoChannel: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: outputBuffer}, wmLogger),
		logger:    wmLogger,
	}
}

// Logger is the watermill adapter the bus logs through.
func (b *Bus) Logger() watermill.LoggerAdapter { return b.logger }

// NewRouter creates a message router logging through the bus logger.
func (b *Bus) NewRouter() (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, b.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create message router: %w", err)
	}
	return router, nil
}
