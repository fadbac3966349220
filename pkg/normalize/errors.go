package normalize

import "fmt"

// MalformedConfigurationError reports a persisted value that could not be
// decoded at all. Decoding degrades to an empty configuration set.
type MalformedConfigurationError struct {
	Stage string // decode step that gave up
	Err   error
}

func (e *MalformedConfigurationError) Error() string {
	return fmt.Sprintf("malformed configuration at %s: %v", e.Stage, e.Err)
}

func (e *MalformedConfigurationError) Unwrap() error {
	return e.Err
}
