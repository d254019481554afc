package workflow

import (
	"fmt"
	"strings"
)

// Action is something a user does to a payment request.
type Action string

const (
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionReturn   Action = "return"
	ActionSubmit   Action = "submit"
	ActionMarkPaid Action = "mark_paid"

	// ActionStatusUpdate is recorded for administrative status overrides.
	ActionStatusUpdate Action = "status_update"
)

var actionLabels = map[Action]string{
	ActionApprove:      "Approved",
	ActionReject:       "Rejected",
	ActionReturn:       "Returned",
	ActionSubmit:       "Submitted",
	ActionMarkPaid:     "Paid",
	ActionStatusUpdate: "Status Updated",
}

// ParseAction accepts the canonical action names in any case.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_"))
	if _, ok := actionLabels[a]; !ok || a == ActionStatusUpdate {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
	}
	return a, nil
}

// RequiresNotes reports whether the action must carry a reviewer note.
func (a Action) RequiresNotes() bool {
	return a == ActionReject || a == ActionReturn
}

// Label is the past-tense form shown in the approval history.
func (a Action) Label() string {
	if l, ok := actionLabels[a]; ok {
		return l
	}
	return string(a)
}
