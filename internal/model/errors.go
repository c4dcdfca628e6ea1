package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input. No state was changed.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// Invalid builds a ValidationError from a single problem.
func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Problems: []string{fmt.Sprintf(format, args...)}}
}

// validation collects problems while checking a record.
type validation struct {
	problems []string
}

func (v *validation) check(ok bool, problem string) {
	if !ok {
		v.problems = append(v.problems, problem)
	}
}

func (v *validation) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// AvailabilityError is returned when the requested quantity cannot be
// reserved for the requested range.
type AvailabilityError struct {
	EquipmentID int64
	Requested   int
	Free        int
	Conflicts   []int64
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("equipment %d: requested %d, only %d free for the requested period",
		e.EquipmentID, e.Requested, e.Free)
}

// InvalidStateError is returned when an operation is not allowed in the
// rental's current status.
type InvalidStateError struct {
	RentalID int64
	Status   string
	Op       string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s rental %d: status is %s", e.Op, e.RentalID, e.Status)
}

// PersistenceError wraps a storage failure. Any in-memory change made for the
// operation has been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
