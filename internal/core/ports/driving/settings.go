package driving

import "github.com/custodia-labs/osmdoc/internal/core/domain"

// SettingsService manages the persisted run configuration.
type SettingsService interface {
	// Get returns the defaults overlaid with persisted values.
	Get() (*domain.Settings, error)

	// Save validates and persists every setting.
	Save(settings *domain.Settings) error

	// Set parses value for key, validates the result and persists it.
	// Returns domain.ErrInvalidInput for unknown keys or bad values.
	Set(key, value string) error

	// Keys lists the recognised setting keys in display order.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
