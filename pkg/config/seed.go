package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/noah-isme/village-api/internal/models"
)

// LoadSeed decodes the settings new classes start from. An empty path yields
// nil so callers fall back to built-in defaults.
func LoadSeed(path string) (*models.Settings, error) {
	if path == "" {
		return nil, nil
	}

	var settings models.Settings
	meta, err := toml.DecodeFile(path, &settings)
	if err != nil {
		return nil, fmt.Errorf("decode settings seed %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("settings seed %s: unknown keys %v", path, undecoded)
	}

	return &settings, nil
}
