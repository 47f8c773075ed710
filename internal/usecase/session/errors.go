package session

import (
	"context"
	"errors"

	"news-aggregator/internal/usecase/fetch"
)

var (
	// ErrArticleNotFound is returned by Navigate for a link not in the cache.
	ErrArticleNotFound = errors.New("article not found")

	// ErrEmptySelection rejects a selection with no sources.
	ErrEmptySelection = errors.New("at least one source must be selected")

	// ErrUnknownSource rejects a selection naming a source outside the registry.
	ErrUnknownSource = errors.New("unknown source")

	// ErrRefreshInProgress is returned when a refresh is requested while one is running.
	ErrRefreshInProgress = errors.New("refresh already in progress")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

// UserMessage maps a refresh error to the text shown next to the cached list.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fetch.ErrRefreshFailed):
		return fetch.ErrRefreshFailed.Error()
	case errors.Is(err, fetch.ErrStoreFailed):
		return "failed to save fresh news, showing cached articles"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "refresh was interrupted, showing cached articles"
	default:
		return "failed to fetch news, please check your connection"
	}
}
