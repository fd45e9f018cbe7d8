package profiles

import "errors"

// ErrUpsertFallback marks a failure of the search-by-email fallback after a
// create conflict, distinguishing it from a plain create failure.
var ErrUpsertFallback = errors.New("existing profile lookup failed")
