package syncer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/minios-linux/txsync/android"
)

// WriteResult describes what WriteTranslation did.
type WriteResult struct {
	Lang      string
	Qualifier string
	Path      string
	// Written is true when the file was (over)written, false when the
	// content had no entries and the file was pruned.
	Written bool
	// Removed is true when pruning deleted an existing file.
	Removed bool
}

// WriteTranslation stores downloaded content for a language code under
// resDir/values-<qualifier>/strings.xml. Content without any string,
// plurals or string-array entry is not kept: an existing file is deleted
// and the directory removed if it is empty, so Android falls back to the
// default resources.
func WriteTranslation(resDir, langCode, content string) (WriteResult, error) {
	q := android.Qualifier(langCode)
	if q == "" {
		return WriteResult{}, fmt.Errorf("language code %q has no resource qualifier", langCode)
	}
	path := android.StringsXMLPath(resDir, q)
	res := WriteResult{Lang: langCode, Qualifier: q, Path: path}
	dir := filepath.Dir(path)

	if !android.HasTranslatableEntries([]byte(content)) {
		err := os.Remove(path)
		switch {
		case err == nil:
			res.Removed = true
		case !errors.Is(err, fs.ErrNotExist):
			return res, fmt.Errorf("removing %s: %w", path, err)
		}
		// Fails when the directory holds other files; they stay.
		_ = os.Remove(dir)
		return res, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return res, fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return res, fmt.Errorf("writing %s: %w", path, err)
	}
	res.Written = true
	return res, nil
}
