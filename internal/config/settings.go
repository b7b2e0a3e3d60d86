package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserSettings represents persistent user preferences
type UserSettings struct {
	// Where generated mods are written
	OutputPath string `json:"outputPath"`

	// Terrain tile zoom; higher means more detail (10-14 is sensible)
	TerrainZoom int `json:"terrainZoom"`

	// Cache settings
	CacheMaxSizeMB int `json:"cacheMaxSizeMB"`

	// Default map view
	DefaultZoom      int     `json:"defaultZoom"`
	DefaultCenterLat float64 `json:"defaultCenterLat"`
	DefaultCenterLng float64 `json:"defaultCenterLng"`

	// UI preferences
	Theme             string `json:"theme"` // "light", "dark", "system"
	AutoOpenOutputDir bool   `json:"autoOpenOutputDir"`
}

// DefaultSettings returns default user settings
func DefaultSettings() *UserSettings {
	homeDir, _ := os.UserHomeDir()
	outputPath := filepath.Join(homeDir, "Downloads", "beamng-maps")

	return &UserSettings{
		OutputPath:        outputPath,
		TerrainZoom:       12,
		CacheMaxSizeMB:    250,
		DefaultZoom:       10,
		DefaultCenterLat:  52.5200, // Berlin
		DefaultCenterLng:  13.4050,
		Theme:             "system",
		AutoOpenOutputDir: true,
	}
}

// GetSettingsPath returns the OS-specific settings file path
func GetSettingsPath() string {
	homeDir, _ := os.UserHomeDir()

	baseDir := filepath.Join(homeDir, ".beamng-map-generator", "settings")
	os.MkdirAll(baseDir, 0755)

	return filepath.Join(baseDir, "settings.json")
}

// LoadSettings loads user settings from disk
func LoadSettings() (*UserSettings, error) {
	settingsPath := GetSettingsPath()

	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		return DefaultSettings(), nil
	}

	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings UserSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	// Merge with defaults for any missing fields
	defaults := DefaultSettings()
	if settings.OutputPath == "" {
		settings.OutputPath = defaults.OutputPath
	}
	if settings.TerrainZoom == 0 {
		settings.TerrainZoom = defaults.TerrainZoom
	}
	if settings.CacheMaxSizeMB == 0 {
		settings.CacheMaxSizeMB = defaults.CacheMaxSizeMB
	}
	if settings.DefaultZoom == 0 {
		settings.DefaultZoom = defaults.DefaultZoom
	}
	if settings.DefaultCenterLat == 0 && settings.DefaultCenterLng == 0 {
		settings.DefaultCenterLat = defaults.DefaultCenterLat
		settings.DefaultCenterLng = defaults.DefaultCenterLng
	}
	if settings.Theme == "" {
		settings.Theme = defaults.Theme
	}

	return &settings, nil
}

// SaveSettings saves user settings to disk
func SaveSettings(settings *UserSettings) error {
	settingsPath := GetSettingsPath()

	dir := filepath.Dir(settingsPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(settingsPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
