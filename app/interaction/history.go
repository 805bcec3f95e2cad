package interaction

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"
)

// HistoryEntry is one call made into a Tracked interaction, legal or not.
type HistoryEntry struct {
	Time     time.Time
	Action   Action
	Tag      string
	Note     string
	Callsite string
	Legal    bool
	Outcome  string
	Err      error
}

func (h HistoryEntry) String() string {
	status := "ok"
	switch {
	case !h.Legal:
		status = "refused"
	case h.Err != nil:
		status = "error"
	}
	s := fmt.Sprintf("%s %s", h.Action, status)
	if h.Tag != "" {
		s += " [" + h.Tag + "]"
	}
	if h.Outcome != "" {
		s += ": " + h.Outcome
	}
	if h.Err != nil {
		s += " (" + h.Err.Error() + ")"
	}
	if h.Callsite != "" {
		s += " @ " + h.Callsite
	}
	return s
}

// callsite returns "file.go:line" for the frame skip levels above its caller.
func callsite(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}
