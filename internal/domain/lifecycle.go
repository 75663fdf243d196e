package domain

import (
	"errors"
	"strings"
)

// Lifecycle rule violations. The service layer maps these onto the
// wire-level error taxonomy.
var (
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrAssigneeRequired       = errors.New("transition to IN_PROGRESS requires an assignee")
	ErrResolutionNoteRequired = errors.New("transition to RESOLVED requires a resolution note")
)

// allowedTransitions is the full lifecycle: OPEN → IN_PROGRESS →
// RESOLVED → CLOSED, with REJECTED reachable from the two non-terminal
// working states. CLOSED and REJECTED are terminal.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusRejected},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusRejected},
	TicketStatusResolved:   {TicketStatusClosed},
	TicketStatusClosed:     {},
	TicketStatusRejected:   {},
}

// ValidTransition reports whether the edge current → next exists,
// ignoring guard conditions.
func ValidTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the given status.
func IsTerminal(status TicketStatus) bool {
	return len(allowedTransitions[status]) == 0
}

// TransitionGuard carries the facts guard conditions are evaluated
// against: whether an assignee is (or will be) set, and the resolution
// note accompanying the request.
type TransitionGuard struct {
	HasAssignee    bool
	ResolutionNote string
}

// CheckTransition validates the edge and its guard conditions. The
// ticket is not modified; callers apply the change only after a nil
// return.
func CheckTransition(current, target TicketStatus, guard TransitionGuard) error {
	if !ValidTransition(current, target) {
		return ErrInvalidTransition
	}
	switch target {
	case TicketStatusInProgress:
		if !guard.HasAssignee {
			return ErrAssigneeRequired
		}
	case TicketStatusResolved:
		if strings.TrimSpace(guard.ResolutionNote) == "" {
			return ErrResolutionNoteRequired
		}
	}
	return nil
}
