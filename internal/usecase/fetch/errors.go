// Package fetch implements feed ingestion: converting raw feed entries into
// articles, fetching one source in isolation, and the refresh coordinator
// that fans out over the selected sources and replaces their cached rows.
package fetch

import "errors"

var (
	// ErrFeedFetchFailed wraps any download or parse failure of one source.
	ErrFeedFetchFailed = errors.New("failed to fetch feed from source")

	// ErrRefreshFailed is returned under the all-or-nothing policy when at
	// least one selected source failed. Nothing was written.
	ErrRefreshFailed = errors.New("failed to fetch fresh news, showing cached articles")

	// ErrStoreFailed wraps article store errors during a refresh.
	ErrStoreFailed = errors.New("article store operation failed")

	// ErrInvalidPolicy is returned by ParsePolicy.
	ErrInvalidPolicy = errors.New("invalid refresh policy")
)
