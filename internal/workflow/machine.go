package workflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotesRequired     = errors.New("notes are required for this action")
	ErrNoApprovalLevels  = errors.New("no approval levels configured")
	ErrUnknownAction     = errors.New("unknown approval action")
)

// Level is one step of the approval chain.
type Level struct {
	ID       uint
	Name     string
	RoleID   uint
	Sequence int
}

// Chain is the ordered list of approval levels a request walks through.
type Chain []Level

// NewChain orders levels by sequence, then by id.
func NewChain(levels []Level) Chain {
	c := make(Chain, len(levels))
	copy(c, levels)
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Sequence != c[j].Sequence {
			return c[i].Sequence < c[j].Sequence
		}
		return c[i].ID < c[j].ID
	})
	return c
}

func (c Chain) First() (Level, bool) {
	if len(c) == 0 {
		return Level{}, false
	}
	return c[0], true
}

func (c Chain) Find(id uint) (Level, bool) {
	for _, l := range c {
		if l.ID == id {
			return l, true
		}
	}
	return Level{}, false
}

// Next returns the level after id, or false when id is the last one.
func (c Chain) Next(id uint) (Level, bool) {
	for i, l := range c {
		if l.ID == id && i+1 < len(c) {
			return c[i+1], true
		}
	}
	return Level{}, false
}

// Viewer is the user looking at or acting on a request.
type Viewer struct {
	UserID uint
	RoleID uint
	Caps   Capabilities
}

func (v Viewer) Can(p Privilege) bool {
	return v.Caps != nil && v.Caps.Can(p)
}

// Snapshot is the part of a payment request the rules look at.
type Snapshot struct {
	Status       Status
	SubmitterID  uint
	CurrentLevel *Level
}

// Outcome is where a request lands after an action.
type Outcome struct {
	Status  Status
	LevelID *uint
}

// CanView reports whether the viewer may see a request submitted by submitterID.
func CanView(v Viewer, submitterID uint) bool {
	return v.UserID == submitterID || v.Can(PrivPaymentRequestRead)
}

// IsCurrentApprover reports whether the viewer's role owns the pending level.
func IsCurrentApprover(v Viewer, s Snapshot) bool {
	return s.Status == StatusPendingReview && s.CurrentLevel != nil && v.RoleID == s.CurrentLevel.RoleID
}

// AvailableActions lists what the viewer may do to the request right now.
func AvailableActions(v Viewer, s Snapshot) []Action {
	switch s.Status {
	case StatusPendingReview:
		if IsCurrentApprover(v, s) && v.Can(PrivPaymentRequestUpdate) {
			return []Action{ActionApprove, ActionReject, ActionReturn}
		}
	case StatusApprovedForPayment:
		if v.Can(PrivPaymentDetailsCreate) {
			return []Action{ActionMarkPaid}
		}
	case StatusReturned:
		if v.UserID == s.SubmitterID && v.Can(PrivPaymentRequestCreate) {
			return []Action{ActionSubmit}
		}
	}
	return []Action{}
}

// Allowed reports whether action is among the viewer's available actions.
func Allowed(v Viewer, s Snapshot, action Action) bool {
	for _, a := range AvailableActions(v, s) {
		if a == action {
			return true
		}
	}
	return false
}

// Initial is the state of a freshly submitted request.
func Initial(chain Chain) (Outcome, error) {
	first, ok := chain.First()
	if !ok {
		return Outcome{}, ErrNoApprovalLevels
	}
	id := first.ID
	return Outcome{Status: StatusPendingReview, LevelID: &id}, nil
}

// Transition applies action to the request and returns its next state.
func Transition(chain Chain, s Snapshot, action Action) (Outcome, error) {
	invalid := fmt.Errorf("%w: cannot %s a request that is %s", ErrInvalidTransition, action, s.Status)

	switch action {
	case ActionApprove:
		if s.Status != StatusPendingReview || s.CurrentLevel == nil {
			return Outcome{}, invalid
		}
		if next, ok := chain.Next(s.CurrentLevel.ID); ok {
			id := next.ID
			return Outcome{Status: StatusPendingReview, LevelID: &id}, nil
		}
		return Outcome{Status: StatusApprovedForPayment}, nil
	case ActionReject:
		if s.Status != StatusPendingReview {
			return Outcome{}, invalid
		}
		return Outcome{Status: StatusRejected}, nil
	case ActionReturn:
		if s.Status != StatusPendingReview {
			return Outcome{}, invalid
		}
		return Outcome{Status: StatusReturned}, nil
	case ActionSubmit:
		if s.Status != StatusReturned {
			return Outcome{}, invalid
		}
		return Initial(chain)
	case ActionMarkPaid:
		if s.Status != StatusApprovedForPayment {
			return Outcome{}, invalid
		}
		return Outcome{Status: StatusPaid}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// ResolveNotes trims the reviewer's notes. Approvals without notes get a
// default note naming the level; rejections and returns must have notes.
func ResolveNotes(action Action, notes, levelName string) (string, error) {
	notes = strings.TrimSpace(notes)
	if notes != "" {
		return notes, nil
	}
	if action.RequiresNotes() {
		return "", ErrNotesRequired
	}
	if action == ActionApprove {
		return "Approved by " + levelName, nil
	}
	return "", nil
}
