// Package settings persists what the user chose between sessions: the
// notes path and the AWS credentials for Polly.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"gopkg.in/yaml.v3"
)

const fileName = "settings.yml"

// AWS holds static credentials for the Polly engine.
type AWS struct {
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	Region          string `yaml:"region,omitempty"`
}

// Settings is the persisted state.
type Settings struct {
	// Path is the last notes folder or file that was loaded.
	Path string `yaml:"path,omitempty"`
	AWS  AWS    `yaml:"aws"`
}

// DefaultFile returns the settings file in the user data directory.
func DefaultFile() (string, error) {
	scope := gap.NewScope(gap.User, "notereader")
	p, err := scope.DataPath(fileName)
	if err != nil {
		return "", fmt.Errorf("could not find data directory: %w", err)
	}
	return p, nil
}

// Load reads settings from file. A missing file yields empty settings.
func Load(file string) (*Settings, error) {
	s := &Settings{}
	b, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read settings: %w", err)
	}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("unable to parse settings %s: %w", file, err)
	}
	return s, nil
}

// Save writes settings to file, readable by the owner only.
func (s *Settings) Save(file string) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return fmt.Errorf("unable to create settings dir: %w", err)
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("unable to encode settings: %w", err)
	}
	if err := os.WriteFile(file, b, 0o600); err != nil {
		return fmt.Errorf("unable to write settings: %w", err)
	}
	return nil
}

// Valid reports whether both AWS keys are set.
func (s *Settings) Valid() bool {
	return s.AWS.AccessKeyID != "" && s.AWS.SecretAccessKey != ""
}

// Reset clears the stored AWS credentials. The notes path is kept.
func (s *Settings) Reset() {
	s.AWS = AWS{}
}

// NotesPath returns Path with a leading ~ expanded.
func (s *Settings) NotesPath() string {
	p, err := homedir.Expand(s.Path)
	if err != nil {
		return s.Path
	}
	return p
}
