package config

import (
	"os"

	"github.com/glassbox-io/glassbox/internal/models"
)

// LoadSettings loads the global settings from ~/.glassbox/settings.yaml.
// If the file doesn't exist, returns default settings. The GLASSBOX_LISTEN
// environment variable overrides the listen address when set.
func LoadSettings() (*models.Settings, error) {
	path, err := GlobalSettingsFile()
	if err != nil {
		return nil, err
	}
	settings, err := LoadYAMLOrDefault(path, models.NewSettings)
	if err != nil {
		return nil, err
	}
	if listen := os.Getenv("GLASSBOX_LISTEN"); listen != "" {
		settings.Listen = listen
	}
	return settings, nil
}

// SaveSettings saves the global settings to ~/.glassbox/settings.yaml.
func SaveSettings(settings *models.Settings) error {
	path, err := GlobalSettingsFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, settings)
}

// LoadProfile loads the profile data file. An empty path in settings falls
// back to ~/.glassbox/profile.yaml; a missing file yields an empty profile.
func LoadProfile(settings *models.Settings) (*models.Profile, error) {
	path := settings.ProfileFile
	if path == "" {
		var err error
		path, err = GlobalProfileFile()
		if err != nil {
			return nil, err
		}
	}
	return LoadYAMLOrDefault(path, models.NewProfile)
}
