// Package lockfile implements txsync.lock, a record of what txsync last
// exchanged with the translation service: the resource it synced with,
// the checksum of the last pushed source payload and the checksum of
// every translation file written by pull.
//
// The lock file is informational. It is used to report what changed,
// never to skip a push or a pull.
//
// The lock file is stored in the project root as txsync.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "txsync.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the txsync.lock file structure.
type LockFile struct {
	Version int `yaml:"version"`
	// Resource is the id of the remote resource the checksums belong to.
	Resource string `yaml:"resource,omitempty"`
	// Source is the checksum of the last pushed source payload.
	Source string `yaml:"source,omitempty"`
	// Files maps a translation file (slash-separated, relative to the
	// project root) to the checksum of its last written content.
	Files map[string]string `yaml:"files,omitempty"`

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version: Version,
		Files:   make(map[string]string),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path

	if lf.Files == nil {
		lf.Files = make(map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksums
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of content.
func Hash(content []byte) string {
	return fmt.Sprintf("%x", md5.Sum(content))
}

// TargetKey builds the key of a file below root, e.g.
// "app/src/main/res/values-fr/strings.xml". Paths outside root are kept
// as given, slash-separated.
func TargetKey(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// SetResource binds the lock file to a remote resource. Checksums that
// belong to a different resource are discarded.
func (lf *LockFile) SetResource(id string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Resource != id {
		lf.Resource = id
		lf.Source = ""
		lf.Files = make(map[string]string)
	}
}

// RecordPush stores the checksum of a pushed payload and reports whether
// it differs from the previous push.
func (lf *LockFile) RecordPush(payload []byte) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	h := Hash(payload)
	changed := lf.Source != h
	lf.Source = h
	return changed
}

// RecordFile stores the checksum of a written file and reports whether
// its content differs from the previous pull.
func (lf *LockFile) RecordFile(target string, content []byte) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	h := Hash(content)
	changed := lf.Files[target] != h
	lf.Files[target] = h
	return changed
}

// RemoveFile forgets a file and reports whether it was recorded.
func (lf *LockFile) RemoveFile(target string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	_, ok := lf.Files[target]
	delete(lf.Files, target)
	return ok
}

// Forget clears everything recorded for the current resource.
func (lf *LockFile) Forget() {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	lf.Resource = ""
	lf.Source = ""
	lf.Files = make(map[string]string)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Targets returns the sorted list of recorded files.
func (lf *LockFile) Targets() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	targets := make([]string, 0, len(lf.Files))
	for t := range lf.Files {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Resource == "" && len(lf.Files) == 0 {
		return "empty"
	}
	pushed := "never pushed"
	if lf.Source != "" {
		pushed = "source " + lf.Source[:min(8, len(lf.Source))]
	}
	return fmt.Sprintf("resource %s, %s, %d translation file(s)", lf.Resource, pushed, len(lf.Files))
}
