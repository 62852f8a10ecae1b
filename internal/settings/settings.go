// Package settings persists per-user preferences in a small YAML file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// PathEnvVar overrides the settings file location.
const PathEnvVar = "STYLEAI_SETTINGS"

const (
	settingsDir  = ".styleai"
	settingsFile = "settings.yaml"
)

// Settings is the content of the settings file.
type Settings struct {
	// GeminiAPIKey overrides the deployment key for AI calls.
	GeminiAPIKey string `yaml:"gemini-api-key,omitempty"`
	// Language is the default response language (name or BCP 47 code).
	Language string `yaml:"language,omitempty"`
}

// SetAPIKey stores key, trimmed. A blank key removes the stored key.
func (s *Settings) SetAPIKey(key string) {
	s.GeminiAPIKey = strings.TrimSpace(key)
}

// HasAPIKey reports whether a key is stored.
func (s Settings) HasAPIKey() bool {
	return s.GeminiAPIKey != ""
}

// DefaultPath returns $STYLEAI_SETTINGS or ~/.styleai/settings.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, settingsDir, settingsFile), nil
}

// Load reads the settings file. A missing file yields empty settings.
func Load(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("file", path).Msg("No settings file, using defaults")
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
	}
	s.SetAPIKey(s.GeminiAPIKey)
	return s, nil
}

// Save writes the settings file with owner-only permissions, creating its
// directory if needed.
func Save(path string, s Settings) error {
	s.SetAPIKey(s.GeminiAPIKey)
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	// Write to a sibling file and rename into place.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}

	log.Debug().Str("file", path).Bool("api_key", s.HasAPIKey()).Msg("Settings saved")
	return nil
}
