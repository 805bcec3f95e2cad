package redaction

import "strings"

const redactedValue = "[redacted]"

// RedactSecret returns a fixed placeholder for non-empty secrets.
func RedactSecret(secret string) string {
	if secret == "" {
		return ""
	}
	return redactedValue
}

// RedactBotToken keeps the first dot-separated segment of a Discord bot
// token, which only encodes the bot's user id, and hides the rest.
func RedactBotToken(token string) string {
	head, _, found := strings.Cut(token, ".")
	if !found || head == "" {
		return RedactSecret(token)
	}
	return head + "." + redactedValue
}
