package domain

import "errors"

var (
	// ErrSourceUnavailable aborts a run: the source could not be reached or
	// returned a payload that could not be decoded.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrStoreUnavailable aborts a run: the store could not be opened or created.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrMalformedRecord excludes a single record; the run continues.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrDuplicateKey marks a posting whose key is already stored or repeated
	// within the batch. It is never surfaced as a run failure.
	ErrDuplicateKey = errors.New("duplicate posting key")
)
