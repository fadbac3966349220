package pattern

import "fmt"

// InvalidPatternError reports a matcher that cannot be compiled.
type InvalidPatternError struct {
	Pattern string
	Reason  string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid pattern %q: %s: %v", e.Pattern, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid pattern %q: %s", e.Pattern, e.Reason)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}

func invalid(pattern, reason string) *InvalidPatternError {
	return &InvalidPatternError{Pattern: pattern, Reason: reason}
}
