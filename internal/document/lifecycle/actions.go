package lifecycle

import (
	"strings"

	dErrors "docutrack/pkg/domain-errors"
)

// Action is a user-initiated lifecycle operation.
type Action string

const (
	ActionSend           Action = "send"
	ActionReceive        Action = "receive"
	ActionForward        Action = "forward"
	ActionApprove        Action = "approve"
	ActionComplete       Action = "complete"
	ActionReturnToSender Action = "return_to_sender"
	ActionCancel         Action = "cancel"
	ActionRelease        Action = "release"
	ActionFinish         Action = "finish"
)

var allActions = []Action{
	ActionSend, ActionReceive, ActionForward, ActionApprove, ActionComplete,
	ActionReturnToSender, ActionCancel, ActionRelease, ActionFinish,
}

// Actions lists every action the engine knows about.
func Actions() []Action {
	out := make([]Action, len(allActions))
	copy(out, allActions)
	return out
}

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range allActions {
		if a == known {
			return a, nil
		}
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown action "+s)
}

// RequiresTarget reports whether the action routes to a caller-chosen office.
func (a Action) RequiresTarget() bool {
	return transitions[a].route == routeTarget
}
