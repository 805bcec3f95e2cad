package messagecreator

import (
	"encoding/json"
	"fmt"

	"github.com/Black-And-White-Club/discord-event-bot/app/interaction"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// BuildMessage marshals payload into a watermill message for topic.
func BuildMessage(topic string, payload interface{}) (*message.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("topic", topic)
	msg.Metadata.Set("domain", "discord")
	return msg, nil
}

// BuildMessageFromInteraction is BuildMessage plus metadata identifying the
// interaction that caused it. The interaction token is never copied.
func BuildMessageFromInteraction(topic string, payload interface{}, tracked *interaction.Tracked) (*message.Message, error) {
	msg, err := BuildMessage(topic, payload)
	if err != nil {
		return nil, err
	}
	msg.Metadata.Set("handler_name", "discord")
	if tracked != nil {
		meta := tracked.Event().Common()
		msg.Metadata.Set("interaction_id", meta.ID)
		msg.Metadata.Set("guild_id", meta.GuildID)
		msg.Metadata.Set("user_id", meta.ActorID)
	}
	return msg, nil
}

// Decode unmarshals msg's payload into out.
func Decode(msg *message.Message, out interface{}) error {
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		return fmt.Errorf("failed to unmarshal message %s: %w", msg.UUID, err)
	}
	return nil
}
