package services

import (
	"errors"
	"fmt"
)

// Error classes callers can branch on with errors.Is. Store-level errors
// (connectivity, constraint violations) are returned unwrapped so a duplicate
// settlement-number violation is never mistaken for a benign conflict.
var (
	ErrNotFound   = errors.New("not_found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation_failed")
)

// RuleConfigError reports a deduction rule whose calculationType disagrees
// with its populated value fields. The rule is skipped for the run but the
// error is surfaced so the misconfiguration stays visible.
type RuleConfigError struct {
	RuleID uint
	Name   string
	Reason string
}

func (e *RuleConfigError) Error() string {
	return fmt.Sprintf("deduction rule %d (%s) misconfigured: %s", e.RuleID, e.Name, e.Reason)
}
