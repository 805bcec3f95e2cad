package interaction

import (
	"fmt"
)

// Flags records which acknowledgment calls have succeeded on one interaction.
type Flags struct {
	DeferredReply  bool
	Replied        bool
	DeferredUpdate bool
	Updated        bool
	ModalShown     bool
}

// Acknowledged reports whether any first response has been sent.
func (f Flags) Acknowledged() bool {
	return f.DeferredReply || f.Replied || f.DeferredUpdate || f.Updated || f.ModalShown
}

func (f Flags) replyFamily() bool  { return f.DeferredReply || f.Replied }
func (f Flags) updateFamily() bool { return f.DeferredUpdate || f.Updated }

// Phase collapses the flags into the furthest state reached.
func (f Flags) Phase() Phase {
	switch {
	case f.ModalShown:
		return PhaseModalShown
	case f.Updated:
		return PhaseUpdated
	case f.DeferredUpdate:
		return PhaseDeferredUpdate
	case f.Replied:
		return PhaseReplied
	case f.DeferredReply:
		return PhaseDeferredReply
	default:
		return PhaseUnacknowledged
	}
}

func (f Flags) String() string {
	return fmt.Sprintf("deferredReply=%t replied=%t deferredUpdate=%t updated=%t modalShown=%t",
		f.DeferredReply, f.Replied, f.DeferredUpdate, f.Updated, f.ModalShown)
}

// Phase is a named acknowledgment state.
type Phase string

const (
	PhaseUnacknowledged Phase = "unacknowledged"
	PhaseDeferredReply  Phase = "deferred_reply"
	PhaseReplied        Phase = "replied"
	PhaseDeferredUpdate Phase = "deferred_update"
	PhaseUpdated        Phase = "updated"
	PhaseModalShown     Phase = "modal_shown"
)

// Action names one operation on a Tracked interaction.
type Action string

const (
	ActionDeferReply  Action = "deferReply"
	ActionReply       Action = "reply"
	ActionEditReply   Action = "editReply"
	ActionFollowUp    Action = "followUp"
	ActionDeferUpdate Action = "deferUpdate"
	ActionUpdate      Action = "update"
	ActionShowModal   Action = "showModal"
	ActionDispose     Action = "dispose"
)
