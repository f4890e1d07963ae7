package ers

import "fmt"

// SourceUnavailableError indicates a named bronze source could not be loaded.
// The dependent branch produces an absent output and the run continues.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("bronze source %s unavailable: %s", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// MissingRequiredColumnError indicates a source file lacks a column its schema
// declares required. Unlike an absent optional column this fails the load.
type MissingRequiredColumnError struct {
	Source string
	Column string
}

func (e *MissingRequiredColumnError) Error() string {
	return fmt.Sprintf("source %s is missing required column %s", e.Source, e.Column)
}

// WriteFailureError indicates persistence of a silver dataset failed. Fatal to
// the owning branch, other branches unaffected.
type WriteFailureError struct {
	Dataset string
	Err     error
}

func (e *WriteFailureError) Error() string {
	return fmt.Sprintf("failed to write dataset %s: %s", e.Dataset, e.Err)
}

func (e *WriteFailureError) Unwrap() error {
	return e.Err
}
