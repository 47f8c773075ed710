package repository

import "context"

// Setting keys shared by every settings backend.
const (
	KeyDarkMode        = "dark_mode"
	KeySelectedSources = "selected_sources"
)

// SettingsRepository persists user preferences as simple key/value settings.
type SettingsRepository interface {
	// SelectedSources returns the persisted selection. ok is false when nothing was stored yet.
	SelectedSources(ctx context.Context) (names []string, ok bool, err error)
	SetSelectedSources(ctx context.Context, names []string) error
	// DarkMode returns the persisted theme preference, false when unset.
	DarkMode(ctx context.Context) (bool, error)
	SetDarkMode(ctx context.Context, enabled bool) error
}
