package subtitle

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTranscript   = errors.New("transcript has no segments")
	ErrMalformedSubtitle = errors.New("malformed subtitle document")
)

// FormatError reports a timestamp that does not have the HH:MM:SS,mmm shape.
type FormatError struct {
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid timestamp %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid timestamp %q", e.Value)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// MalformedError is returned by the parser with the 1-based line number of
// the offending block. It matches ErrMalformedSubtitle with errors.Is.
type MalformedError struct {
	Line   int
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	msg := fmt.Sprintf("%v at line %d: %s", ErrMalformedSubtitle, e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedSubtitle
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
