package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectFileName is the per-project config file name.
const ProjectFileName = ".txsync.yaml"

// ProjectFile is the .txsync.yaml structure. Every field is optional.
type ProjectFile struct {
	// Project is the Transifex project display name.
	Project string `yaml:"project,omitempty"`
	// Resource is the resource slug.
	Resource string `yaml:"resource,omitempty"`
	// Organization is the organization slug.
	Organization string `yaml:"organization,omitempty"`
	// SourceLang is the source language code (default "en").
	SourceLang string `yaml:"source_lang,omitempty"`

	// ResDir is the Android res/ directory relative to the root.
	ResDir string `yaml:"res_dir,omitempty"`
	// SourceFile is the primary catalog relative to ResDir.
	SourceFile string `yaml:"source_file,omitempty"`
	// ExtractedFile is the optional extracted catalog relative to ResDir.
	ExtractedFile string `yaml:"extracted_file,omitempty"`
	// SecretsFile is the dotenv file holding the token, relative to the root.
	SecretsFile string `yaml:"secrets_file,omitempty"`

	APIURL           string        `yaml:"api_url,omitempty"`
	Timeout          time.Duration `yaml:"timeout,omitempty"`
	PollInterval     time.Duration `yaml:"poll_interval,omitempty"`
	UploadAttempts   int           `yaml:"upload_attempts,omitempty"`
	DownloadAttempts int           `yaml:"download_attempts,omitempty"`
}

// LoadProjectFile loads .txsync.yaml from the given directory.
// Returns nil if no .txsync.yaml exists.
func LoadProjectFile(rootDir string) (*ProjectFile, error) {
	path := filepath.Join(rootDir, ProjectFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var pf ProjectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrConfiguration, path, err)
	}
	if pf.Timeout < 0 || pf.PollInterval < 0 || pf.UploadAttempts < 0 || pf.DownloadAttempts < 0 {
		return nil, fmt.Errorf("%w: %s: durations and attempt counts must not be negative", ErrConfiguration, path)
	}
	return &pf, nil
}
