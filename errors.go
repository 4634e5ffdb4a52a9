package legigraph

import "errors"

// Sentinel errors returned by the engine. Callers can match them with
// errors.Is to branch on failure modes.
var (
	// ErrDocumentNotFound is returned when a document ID or path does not
	// exist in the store.
	ErrDocumentNotFound = errors.New("legigraph: document not found")

	// ErrUnsupportedFormat is returned when no parser is registered for a
	// file's format.
	ErrUnsupportedFormat = errors.New("legigraph: unsupported document format")

	// ErrParsingFailed is returned when a document could not be parsed.
	ErrParsingFailed = errors.New("legigraph: document parsing failed")

	// ErrNoResults is returned when a search matches nothing.
	ErrNoResults = errors.New("legigraph: no results found")

	// ErrInvalidConfig is returned when the engine configuration is invalid.
	ErrInvalidConfig = errors.New("legigraph: invalid configuration")
)
