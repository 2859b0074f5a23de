package syncer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/minios-linux/txsync/android"
	"github.com/minios-linux/txsync/config"
	"github.com/minios-linux/txsync/lockfile"
	"github.com/minios-linux/txsync/transifex"
)

// PushReport summarizes a push.
type PushReport struct {
	ResourceID string
	// Bytes is the size of the uploaded payload.
	Bytes int
	// Changed is false when the payload matches the last recorded push.
	Changed bool
}

// PullReport summarizes a pull.
type PullReport struct {
	ResourceID   string
	Pulled       int
	SkippedEmpty int
	// Changed counts written files whose content differs from the last pull.
	Changed int
	Results []WriteResult
}

// ResetReport summarizes a reset.
type ResetReport struct {
	ResourceID string
	// Deleted is false when no resource matched the slug.
	Deleted bool
}

// Push merges the source catalogs and uploads the result to the
// resource, creating the resource if needed.
func Push(ctx context.Context, svc Service, opts Options) (*PushReport, error) {
	if _, err := os.Stat(opts.SourceFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: source catalog %s does not exist", config.ErrConfiguration, opts.SourceFile)
		}
		return nil, fmt.Errorf("source catalog: %w", err)
	}

	payload, err := android.MergeFiles(opts.SourceFile, opts.ExtractedFile)
	if err != nil {
		return nil, err
	}
	opts.log("Merged source catalog: %d bytes", len(payload))

	_, projectID, err := ResolveContext(ctx, svc, opts.Project, opts.Organization)
	if err != nil {
		return nil, err
	}
	resourceID, err := EnsureResource(ctx, svc, projectID, opts.Resource)
	if err != nil {
		return nil, err
	}
	opts.log("Uploading to resource %s", resourceID)

	if err := Upload(ctx, svc, opts.UploadPoller, resourceID, payload); err != nil {
		return nil, err
	}

	report := &PushReport{ResourceID: resourceID, Bytes: len(payload), Changed: true}
	if opts.Lock != nil {
		opts.Lock.SetResource(resourceID)
		report.Changed = opts.Lock.RecordPush(payload)
		if err := opts.saveLock(); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Pull downloads every translation of the resource except the source
// language and writes or prunes the matching values-* catalogs. The
// first failing language aborts the pull.
func Pull(ctx context.Context, svc Service, opts Options) (*PullReport, error) {
	_, projectID, err := ResolveContext(ctx, svc, opts.Project, opts.Organization)
	if err != nil {
		return nil, err
	}
	resourceID, err := EnsureResource(ctx, svc, projectID, opts.Resource)
	if err != nil {
		return nil, err
	}

	stats, err := svc.ListLanguageStats(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing language stats: %w", err)
	}

	source := transifex.LanguageID(opts.sourceLang())
	var languages []string
	for _, s := range stats {
		if s.ResourceID != resourceID || s.LanguageID == "" || s.LanguageID == source {
			continue
		}
		languages = append(languages, s.LanguageID)
	}
	opts.log("Resource %s has %d target language(s)", resourceID, len(languages))

	if opts.Lock != nil {
		opts.Lock.SetResource(resourceID)
	}

	report := &PullReport{ResourceID: resourceID}
	if err := pullLanguages(ctx, svc, opts, resourceID, languages, report); err != nil {
		// Files written before the failure stay on disk and in the lock.
		return report, errors.Join(err, opts.saveLock())
	}
	if err := opts.saveLock(); err != nil {
		return report, err
	}
	return report, nil
}

func pullLanguages(ctx context.Context, svc Service, opts Options, resourceID string, languages []string, report *PullReport) error {
	for i, languageID := range languages {
		code := transifex.LanguageCode(languageID)

		content, err := Download(ctx, svc, opts.DownloadPoller, resourceID, languageID)
		if err != nil {
			return fmt.Errorf("pulling %s: %w", code, err)
		}
		res, err := WriteTranslation(opts.ResDir, code, content)
		if err != nil {
			return fmt.Errorf("pulling %s: %w", code, err)
		}
		report.Results = append(report.Results, res)

		key := lockfile.TargetKey(opts.Root, res.Path)
		if res.Written {
			report.Pulled++
			if opts.Lock == nil || opts.Lock.RecordFile(key, []byte(content)) {
				report.Changed++
			}
			opts.log("%s -> %s", code, res.Path)
		} else {
			report.SkippedEmpty++
			if opts.Lock != nil {
				opts.Lock.RemoveFile(key)
			}
			opts.log("%s has no translated entries, skipped", code)
		}
		opts.progress(code, i+1, len(languages))
	}
	return nil
}

// Reset deletes the resource. A missing resource is not an error: the
// report says nothing was deleted and no delete call is made.
func Reset(ctx context.Context, svc Service, opts Options) (*ResetReport, error) {
	_, projectID, err := ResolveContext(ctx, svc, opts.Project, opts.Organization)
	if err != nil {
		return nil, err
	}
	resourceID, ok, err := FindResourceID(ctx, svc, projectID, opts.Resource)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &ResetReport{}, nil
	}

	if err := DeleteResource(ctx, svc, resourceID); err != nil {
		return nil, err
	}
	report := &ResetReport{ResourceID: resourceID, Deleted: true}
	if opts.Lock != nil && (opts.Lock.Resource == "" || opts.Lock.Resource == resourceID) {
		opts.Lock.Forget()
		if err := opts.saveLock(); err != nil {
			return report, err
		}
	}
	return report, nil
}
