package services

import (
	"fmt"
	"strconv"

	"github.com/custodia-labs/osmdoc/internal/core/domain"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driven"
	"github.com/custodia-labs/osmdoc/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyConvertPretty   = "convert.pretty"
	keyStreetRewrite   = "convert.street_rewrite"
	keyStoreDriver     = "store.driver"
	keyStorePath       = "store.path"
	keyStoreCollection = "store.collection"
	keyStoreBatchSize  = "store.batch_size"
	keyReferenceLat    = "analysis.reference_lat"
	keyReferenceLon    = "analysis.reference_lon"
	keyGeofence        = "analysis.geofence_compare"
)

// settingKey parses a raw value into settings and returns the typed value
// to persist.
type settingKey struct {
	name  string
	apply func(s *domain.Settings, raw string) (any, error)
}

var settingKeys = []settingKey{
	{keyConvertPretty, func(s *domain.Settings, raw string) (any, error) {
		v, err := strconv.ParseBool(raw)
		s.Convert.Pretty = v
		return v, err
	}},
	{keyStreetRewrite, func(s *domain.Settings, raw string) (any, error) {
		s.Convert.StreetRewrite = domain.StreetRewrite(raw)
		return raw, nil
	}},
	{keyStoreDriver, func(s *domain.Settings, raw string) (any, error) {
		s.Store.Driver = domain.StoreDriver(raw)
		return raw, nil
	}},
	{keyStorePath, func(s *domain.Settings, raw string) (any, error) {
		s.Store.Path = raw
		return raw, nil
	}},
	{keyStoreCollection, func(s *domain.Settings, raw string) (any, error) {
		s.Store.Collection = raw
		return raw, nil
	}},
	{keyStoreBatchSize, func(s *domain.Settings, raw string) (any, error) {
		v, err := strconv.Atoi(raw)
		s.Store.BatchSize = v
		return v, err
	}},
	{keyReferenceLat, func(s *domain.Settings, raw string) (any, error) {
		v, err := strconv.ParseFloat(raw, 64)
		s.Analysis.ReferenceLat = v
		return v, err
	}},
	{keyReferenceLon, func(s *domain.Settings, raw string) (any, error) {
		v, err := strconv.ParseFloat(raw, 64)
		s.Analysis.ReferenceLon = v
		return v, err
	}},
	{keyGeofence, func(s *domain.Settings, raw string) (any, error) {
		s.Analysis.GeofenceCompare = domain.GeofenceCompare(raw)
		return raw, nil
	}},
}

// SettingsService manages the persisted run configuration.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns the defaults overlaid with persisted values. Unrecognised
// enumerated values fall back to their defaults; out-of-range numbers fail.
func (s *SettingsService) Get() (*domain.Settings, error) {
	defaults := domain.DefaultSettings()

	settings := &domain.Settings{
		Convert: domain.ConvertSettings{
			Pretty:        s.getBool(keyConvertPretty, defaults.Convert.Pretty),
			StreetRewrite: s.getStreetRewrite(defaults.Convert.StreetRewrite),
		},
		Store: domain.StoreSettings{
			Driver:     s.getStoreDriver(defaults.Store.Driver),
			Path:       s.getString(keyStorePath, defaults.Store.Path),
			Collection: s.getString(keyStoreCollection, defaults.Store.Collection),
			BatchSize:  s.getInt(keyStoreBatchSize, defaults.Store.BatchSize),
		},
		Analysis: domain.AnalysisSettings{
			ReferenceLat:    s.getFloat(keyReferenceLat, defaults.Analysis.ReferenceLat),
			ReferenceLon:    s.getFloat(keyReferenceLon, defaults.Analysis.ReferenceLon),
			GeofenceCompare: s.getGeofence(defaults.Analysis.GeofenceCompare),
		},
	}
	if settings.Store.BatchSize < 0 {
		settings.Store.BatchSize = defaults.Store.BatchSize
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("stored settings in %s: %w", s.configStore.Path(), err)
	}

	return settings, nil
}

// Save validates and persists every setting.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{keyConvertPretty, settings.Convert.Pretty},
		{keyStreetRewrite, settings.Convert.StreetRewrite.String()},
		{keyStoreDriver, settings.Store.Driver.String()},
		{keyStorePath, settings.Store.Path},
		{keyStoreCollection, settings.Store.Collection},
		{keyStoreBatchSize, settings.Store.BatchSize},
		{keyReferenceLat, settings.Analysis.ReferenceLat},
		{keyReferenceLon, settings.Analysis.ReferenceLon},
		{keyGeofence, settings.Analysis.GeofenceCompare.String()},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set parses value for key, validates the result and persists it.
func (s *SettingsService) Set(key, value string) error {
	var def *settingKey
	for i := range settingKeys {
		if settingKeys[i].name == key {
			def = &settingKeys[i]
			break
		}
	}
	if def == nil {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	typed, err := def.apply(settings, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(key, typed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the recognised setting keys in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	for i, k := range settingKeys {
		keys[i] = k.name
	}
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getStreetRewrite(defaultVal domain.StreetRewrite) domain.StreetRewrite {
	mode := domain.StreetRewrite(s.configStore.GetString(keyStreetRewrite))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}

func (s *SettingsService) getStoreDriver(defaultVal domain.StoreDriver) domain.StoreDriver {
	driver := domain.StoreDriver(s.configStore.GetString(keyStoreDriver))
	if !driver.IsValid() {
		return defaultVal
	}
	return driver
}

func (s *SettingsService) getGeofence(defaultVal domain.GeofenceCompare) domain.GeofenceCompare {
	mode := domain.GeofenceCompare(s.configStore.GetString(keyGeofence))
	if !mode.IsValid() {
		return defaultVal
	}
	return mode
}
