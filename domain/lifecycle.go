package domain

import "fmt"

var transitions = map[EvidenceStatus][]EvidenceStatus{
	StatusPending:   {StatusApproved, StatusArchived},
	StatusApproved:  {StatusPublished, StatusArchived},
	StatusPublished: {StatusArchived},
}

// CanTransition reports whether an operator may move evidence from one
// status to another. Archived is terminal.
func CanTransition(from, to EvidenceStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (e *Evidence) TransitionTo(to EvidenceStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	if !CanTransition(e.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.Status, to)
	}
	e.Status = to
	return nil
}
