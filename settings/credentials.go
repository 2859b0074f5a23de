// Package settings provides storage for txsync user settings, currently
// the Transifex API token saved by "txsync auth login".
//
// Settings are stored in the XDG data directory:
//
//	$XDG_DATA_HOME/txsync/  (default: ~/.local/share/txsync/)
//
// auth.json is a JSON object keyed by service ID. File permissions are
// 0600 (owner read/write only).
//
// Lookup order for the API token:
//  1. --token flag (highest priority)
//  2. secrets/transifex.env in the project
//  3. TRANSIFEX_API_TOKEN / TRANSIFEX_TOKEN environment variables
//  4. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirName = "txsync"
	fileName    = "auth.json"

	// ServiceTransifex is the store key of the Transifex token.
	ServiceTransifex = "transifex"
)

// Info is the credential stored per service in auth.json.
type Info struct {
	// Type is always "api" (bearer token).
	Type string `json:"type"`
	Key  string `json:"key"`
	// BaseURL is the API endpoint the token was saved for, if not the default.
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds all credentials, keyed by service ID.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for txsync.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// DataDir returns the txsync data directory path.
func DataDir() (string, error) {
	return dataDir()
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Token helpers
// ---------------------------------------------------------------------------

// SetToken stores the Transifex API token.
func SetToken(token, baseURL string) error {
	store := Load()
	store[ServiceTransifex] = &Info{Type: "api", Key: token, BaseURL: baseURL}
	return Save(store)
}

// GetToken returns the stored Transifex API token, or "" if there is none.
func GetToken() string {
	info := Load()[ServiceTransifex]
	if info == nil {
		return ""
	}
	return info.Key
}

// Remove deletes the stored credentials of a service.
func Remove(serviceID string) error {
	store := Load()
	if _, ok := store[serviceID]; !ok {
		return nil
	}
	delete(store, serviceID)
	return Save(store)
}

// MaskKey returns a masked version of a key/token for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
