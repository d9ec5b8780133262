/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE', which is part of this source code package.
 */

package pdfshrink

import (
	"errors"
	"fmt"

	"github.com/khawkins98/pdfshrink/core"
)

// ErrorKind classifies engine failures. Only UnreadableInput surfaces as a
// returned error; the other conditions are reflected in the Report
// (per-pass error entries, content_guard, size_guard) without failing the
// run.
type ErrorKind int

const (
	// UnreadableInput: the input cannot be parsed as an unencrypted PDF.
	UnreadableInput ErrorKind = iota
	// PassFailure: a single pass raised during execution.
	PassFailure
	// IntegrityViolation: the post-pipeline check found dangling content
	// references.
	IntegrityViolation
	// NoImprovement: the serialized output was not smaller than the input.
	NoImprovement
)

func (k ErrorKind) String() string {
	switch k {
	case UnreadableInput:
		return "unreadable input"
	case PassFailure:
		return "pass failure"
	case IntegrityViolation:
		return "integrity violation"
	case NoImprovement:
		return "no improvement"
	default:
		return "unknown"
	}
}

// Error is the engine's error type: a kind plus a message and an optional
// wrapped cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// wrapParseError maps core.Parse failures to an UnreadableInput Error.
func wrapParseError(err error) error {
	if errors.Is(err, core.ErrUnreadableInput) {
		return &Error{Kind: UnreadableInput, Msg: "cannot parse input", Err: err}
	}
	return &Error{Kind: UnreadableInput, Msg: "unexpected parse failure", Err: err}
}
