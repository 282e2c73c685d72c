package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInfeasibleSlot is reported when a coverage minimum could not be met
	ErrInfeasibleSlot = errors.New("infeasible slot")

	// ErrComplianceViolation blocks publication of a roster with violations
	ErrComplianceViolation = errors.New("compliance violation")

	// ErrConcurrentGeneration is returned when a generation for the same key is in flight
	ErrConcurrentGeneration = errors.New("concurrent generation conflict")

	// ErrInvalidConfig is returned before any scheduling work when a config is unusable
	ErrInvalidConfig = errors.New("invalid generation config")

	ErrRosterNotFound = errors.New("roster period not found")
	ErrRosterNotDraft = errors.New("roster period is not a draft")
	ErrMemberNotFound = errors.New("member not found")
	ErrAlertNotFound  = errors.New("publication alert not found")
)

// ConfigError lists the reasons a GenerationConfig was rejected
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// ComplianceError carries the violations that blocked a publish
type ComplianceError struct {
	RosterID   string
	Violations []ComplianceIssue
}

func (e *ComplianceError) Error() string {
	return fmt.Sprintf("%s: roster %s has %d violation(s)", ErrComplianceViolation, e.RosterID, len(e.Violations))
}

func (e *ComplianceError) Unwrap() error {
	return ErrComplianceViolation
}
