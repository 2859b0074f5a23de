// Package syncer runs txsync's three flows against the translation
// service: Push uploads the merged source catalog, Pull downloads every
// translation of the resource into res/values-*/strings.xml, and Reset
// deletes the resource.
//
// Every flow is a single sequential pass. Languages are pulled one at a
// time and the first failure aborts the flow.
package syncer

import (
	"context"

	"github.com/minios-linux/txsync/lockfile"
	"github.com/minios-linux/txsync/transifex"
)

// Service is the subset of the Transifex API the flows use.
// *transifex.Client implements it.
type Service interface {
	ListOrganizations(ctx context.Context) ([]transifex.Organization, error)
	ListProjects(ctx context.Context, organizationID, name string) ([]transifex.Project, error)
	ListResources(ctx context.Context, projectID string) ([]transifex.Resource, error)
	CreateResource(ctx context.Context, projectID, slug, format string) (transifex.Resource, error)
	DeleteResource(ctx context.Context, resourceID string) error
	CreateUpload(ctx context.Context, resourceID string, content []byte) (string, error)
	UploadStatus(ctx context.Context, uploadID string) (transifex.Outcome[struct{}], error)
	CreateDownload(ctx context.Context, resourceID, languageID string) (string, error)
	DownloadStatus(ctx context.Context, downloadID string) (transifex.Outcome[string], error)
	ListLanguageStats(ctx context.Context, projectID string) ([]transifex.LanguageStat, error)
}

var _ Service = (*transifex.Client)(nil)

// Options holds the settings shared by all flows.
type Options struct {
	// Root is the project root; lock file keys are relative to it.
	Root string
	// Project is the display name of the remote project.
	Project string
	// Organization is the organization slug. Empty selects the first
	// organization visible to the token.
	Organization string
	// Resource is the slug of the remote resource.
	Resource string
	// SourceLang is the code of the source language, never pulled.
	SourceLang string

	// ResDir is the Android res/ directory receiving values-* output.
	ResDir string
	// SourceFile is the primary source catalog. It must exist for push.
	SourceFile string
	// ExtractedFile is the optional catalog merged into the source.
	ExtractedFile string

	UploadPoller   transifex.Poller
	DownloadPoller transifex.Poller

	// Lock, when set, records checksums of pushed and pulled content and
	// is saved at the end of a successful flow.
	Lock *lockfile.LockFile

	// OnLog emits log messages during a flow.
	OnLog func(format string, args ...any)
	// OnProgress is called after each language is pulled.
	OnProgress func(lang string, done, total int)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) progress(lang string, done, total int) {
	if o.OnProgress != nil {
		o.OnProgress(lang, done, total)
	}
}

func (o *Options) sourceLang() string {
	if o.SourceLang == "" {
		return "en"
	}
	return o.SourceLang
}

func (o *Options) saveLock() error {
	if o.Lock == nil {
		return nil
	}
	return o.Lock.Save()
}
