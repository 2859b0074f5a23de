package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/minios-linux/txsync/transifex"
)

var testPoller = transifex.Poller{Interval: time.Millisecond, MaxAttempts: 5}

// fakeService is an in-memory Service.
type fakeService struct {
	orgs      []transifex.Organization
	projects  []transifex.Project
	resources []transifex.Resource
	stats     []transifex.LanguageStat

	// translations maps a language id to the final download outcome.
	translations map[string]transifex.Outcome[string]
	// pendingPolls is the number of pending observations before a job
	// reaches its final outcome.
	pendingPolls int
	// uploadOutcome is the final upload outcome; zero means succeeded.
	uploadOutcome *transifex.Outcome[struct{}]

	orgCalls  int
	created   []string
	deleted   []string
	uploads   [][]byte
	requested []string

	nextID int
	jobs   map[string]string
	polls  map[string]int
}

func newFakeService() *fakeService {
	return &fakeService{
		orgs:         []transifex.Organization{{ID: "o:acme", Slug: "acme"}},
		projects:     []transifex.Project{{ID: "o:acme:p:app", Name: "App"}},
		translations: make(map[string]transifex.Outcome[string]),
		jobs:         make(map[string]string),
		polls:        make(map[string]int),
	}
}

func (f *fakeService) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s%d", prefix, f.nextID)
}

func (f *fakeService) ListOrganizations(context.Context) ([]transifex.Organization, error) {
	f.orgCalls++
	return f.orgs, nil
}

func (f *fakeService) ListProjects(_ context.Context, organizationID, name string) ([]transifex.Project, error) {
	var out []transifex.Project
	for _, p := range f.projects {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeService) ListResources(context.Context, string) ([]transifex.Resource, error) {
	return append([]transifex.Resource(nil), f.resources...), nil
}

func (f *fakeService) CreateResource(_ context.Context, projectID, slug, format string) (transifex.Resource, error) {
	if format != transifex.AndroidFormat {
		return transifex.Resource{}, fmt.Errorf("unexpected format %q", format)
	}
	r := transifex.Resource{ID: projectID + ":r:" + slug, Slug: slug, Name: slug}
	f.resources = append(f.resources, r)
	f.created = append(f.created, slug)
	return r, nil
}

func (f *fakeService) DeleteResource(_ context.Context, resourceID string) error {
	f.deleted = append(f.deleted, resourceID)
	return nil
}

func (f *fakeService) CreateUpload(_ context.Context, _ string, content []byte) (string, error) {
	f.uploads = append(f.uploads, content)
	return f.id("up"), nil
}

func (f *fakeService) UploadStatus(_ context.Context, uploadID string) (transifex.Outcome[struct{}], error) {
	f.polls[uploadID]++
	if f.polls[uploadID] <= f.pendingPolls {
		return transifex.Outcome[struct{}]{State: transifex.Pending}, nil
	}
	if f.uploadOutcome != nil {
		return *f.uploadOutcome, nil
	}
	return transifex.Outcome[struct{}]{State: transifex.Succeeded}, nil
}

func (f *fakeService) CreateDownload(_ context.Context, _ string, languageID string) (string, error) {
	f.requested = append(f.requested, languageID)
	id := f.id("dl")
	f.jobs[id] = languageID
	return id, nil
}

func (f *fakeService) DownloadStatus(_ context.Context, downloadID string) (transifex.Outcome[string], error) {
	f.polls[downloadID]++
	if f.polls[downloadID] <= f.pendingPolls {
		return transifex.Outcome[string]{State: transifex.Pending}, nil
	}
	out, ok := f.translations[f.jobs[downloadID]]
	if !ok {
		return transifex.Outcome[string]{State: transifex.Succeeded, Value: "<resources/>"}, nil
	}
	return out, nil
}

func (f *fakeService) ListLanguageStats(context.Context, string) ([]transifex.LanguageStat, error) {
	return f.stats, nil
}

func ready(content string) transifex.Outcome[string] {
	return transifex.Outcome[string]{State: transifex.Succeeded, Value: content}
}
