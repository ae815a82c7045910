package loader

import "fmt"

// SourceError reports a source that could not be read or parsed.
type SourceError struct {
	Source string
	Record int // 1-based statement position, 0 when the source did not open
	Err    error
}

func (e *SourceError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("source %s: statement %d: %v", e.Source, e.Record, e.Err)
	}
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// WriteError reports a failure writing parsed statements to the store.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing statements: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
