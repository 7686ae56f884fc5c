package report

import "errors"

var (
	// ErrNotFound covers missing therapy requests, sessions, profiles,
	// report sessions and report records.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when creating a report record for a
	// (session, report type) pair that already has one.
	ErrConflict = errors.New("report already exists")
	// ErrLocked is returned on any write to a locked report.
	ErrLocked = errors.New("report is locked")
	// ErrValidation covers caller-supplied fields failing shape checks
	// before they reach the merge engine.
	ErrValidation = errors.New("validation failed")
	// ErrDataCorruption is returned when stored report metadata fails to
	// parse. It is never silently defaulted over.
	ErrDataCorruption = errors.New("report metadata is corrupt")
)
