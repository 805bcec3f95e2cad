// Package attr provides the slog attribute helpers shared by every package
// so that log keys stay consistent across handlers.
package attr

import (
	"log/slog"
	"time"
)

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Time(key string, value time.Time) slog.Attr { return slog.Time(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

// Error logs err under the "error" key. A nil error is logged as an empty string.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func UserID(id string) slog.Attr { return slog.String("user_id", id) }

func GuildID(id string) slog.Attr { return slog.String("guild_id", id) }

func ChannelID(id string) slog.Attr { return slog.String("channel_id", id) }

func InteractionID(id string) slog.Attr { return slog.String("interaction_id", id) }

func CustomID(id string) slog.Attr { return slog.String("custom_id", id) }
