package models

import (
	apperrors "trading-journal/internal/errors"
)

// Checklist is the pre-trade rule checklist. It is a value type: every
// mutation returns a new Checklist and leaves the receiver untouched.
type Checklist struct {
	Completed RulesFollowed `json:"completed"`
}

// NewChecklist returns a checklist with the given flags.
func NewChecklist(flags RulesFollowed) Checklist {
	return Checklist{Completed: flags}
}

// Toggle sets rule i to checked and leaves every other rule unchanged.
func (c Checklist) Toggle(i int, checked bool) (Checklist, error) {
	if i < 0 || i >= RuleCount {
		return c, apperrors.NewValidationError("rule", i+1, "rule number must be between 1 and 5", apperrors.ErrInvalidValue)
	}
	next := c
	next.Completed[i] = checked
	return next, nil
}

// AllCompleted reports whether every rule is checked.
func (c Checklist) AllCompleted() bool {
	for _, ok := range c.Completed {
		if !ok {
			return false
		}
	}
	return true
}

// CompletedCount returns the number of checked rules.
func (c Checklist) CompletedCount() int {
	return c.Completed.Count()
}

// Reset returns an all-unchecked checklist.
func (c Checklist) Reset() Checklist {
	return Checklist{}
}

// Snapshot returns a copy of the flags for storing on a trade.
func (c Checklist) Snapshot() RulesFollowed {
	return c.Completed
}
