package session

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange              = errors.New("session: index out of range")
	ErrCannotCloseLastDocument = errors.New("session: cannot close the last document")
	ErrUserCancelled           = errors.New("session: cancelled by user")
	ErrDecodeFailure           = errors.New("session: image decode failure")
	ErrInvalidPosition         = errors.New("session: invalid text position")
	ErrImageNotFound           = errors.New("session: image not found")
	ErrNoPath                  = errors.New("session: no file path")
	ErrIO                      = errors.New("session: i/o failure")
)

// DecodeError describes one image that could not be decoded or encoded. Tab
// is -1 outside project loads.
type DecodeError struct {
	Tab   int
	Index int
	Name  string
	Err   error
}

func (e *DecodeError) Error() string {
	where := fmt.Sprintf("image[%d]", e.Index)
	if e.Tab >= 0 {
		where = fmt.Sprintf("tab[%d] %s", e.Tab, where)
	}
	if e.Name != "" {
		where += " (" + e.Name + ")"
	}
	return fmt.Sprintf("%s: %v", where, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecodeFailure, e.Err}
}

// LoadReport collects the non-fatal problems met while loading.
type LoadReport struct {
	Warnings []error
}

func (r *LoadReport) add(err error) {
	r.Warnings = append(r.Warnings, err)
}

func (r LoadReport) OK() bool {
	return len(r.Warnings) == 0
}
