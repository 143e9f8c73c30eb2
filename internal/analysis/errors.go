package analysis

import (
	"errors"
	"fmt"
)

// ErrCapabilityUnavailable marks a call to a capability the engine does not
// implement. It is a feature toggle, not a failure.
var ErrCapabilityUnavailable = errors.New("analysis capability unavailable")

// ParseError reports malformed or unparsable source. It is expected, frequent
// and recoverable; a cycle that hits one leaves all cached derived views
// untouched.
type ParseError struct {
	Position int
	Msg      string
}

func (e *ParseError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("parse error at offset %d: %s", e.Position, e.Msg)
	}
	return fmt.Sprintf("parse error: %s", e.Msg)
}

// FetchError reports that one derived view could not be computed even though
// the parse succeeded. It aborts only that view's update.
type FetchError struct {
	View string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.View, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is a ParseError anywhere in its chain.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
