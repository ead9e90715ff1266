package feed

import "fmt"

// SourceError wraps errors from feed sources with provider context
type SourceError struct {
	Source    string
	Operation string
	Err       error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Source, e.Operation, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new SourceError
func NewSourceError(source, operation string, err error) *SourceError {
	return &SourceError{
		Source:    source,
		Operation: operation,
		Err:       err,
	}
}
