// Package transifex is a small client for the Transifex REST API v3
// covering what txsync needs: organization, project and resource
// lookup, resource management, asynchronous source uploads and
// asynchronous translation downloads.
package transifex

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://rest.api.transifex.com"
	// MediaType is the JSON:API media type used for request and response bodies.
	MediaType = "application/vnd.api+json"
	// DefaultTimeout applies to every single HTTP call.
	DefaultTimeout = 60 * time.Second
	// AndroidFormat is the i18n format id of Android strings.xml resources.
	AndroidFormat = "ANDROID"
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string
	// Logger receives request tracing at debug level. Nil discards it.
	Logger *logrus.Logger
}

// Client talks to the Transifex API. It is safe for sequential use by
// one goroutine; txsync never issues requests concurrently.
type Client struct {
	opts Options
	log  *logrus.Logger
	http *resty.Client

	insecureOnce sync.Once
	insecure     *resty.Client
}

// New creates a Client. Zero option fields take their defaults.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	c := &Client{opts: opts, log: log}
	c.http = c.newHTTP(nil)
	return c
}

func (c *Client) newHTTP(tlsConfig *tls.Config) *resty.Client {
	h := resty.New().
		SetBaseURL(c.opts.BaseURL).
		SetTimeout(c.opts.Timeout).
		SetAuthToken(c.opts.Token).
		SetHeader("Accept", MediaType).
		SetLogger(c.log)
	if c.opts.UserAgent != "" {
		h.SetHeader("User-Agent", c.opts.UserAgent)
	}
	if tlsConfig != nil {
		h.SetTLSClientConfig(tlsConfig)
	}
	return h
}

// insecureHTTP returns the client used for the certificate fallback.
func (c *Client) insecureHTTP() *resty.Client {
	c.insecureOnce.Do(func() {
		c.insecure = c.newHTTP(&tls.Config{InsecureSkipVerify: true})
	})
	return c.insecure
}

// isCertificateError reports whether err comes from verifying the
// server's certificate chain.
func isCertificateError(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var invalid x509.CertificateInvalidError
	var hostname x509.HostnameError
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuthority) ||
		errors.As(err, &invalid) ||
		errors.As(err, &hostname)
}

// do sends one request. body, when non-nil, is marshalled as JSON:API.
// A certificate verification failure is retried once without
// verification; any other failure is returned as *TransportError, and a
// non-2xx answer as *StatusError.
func (c *Client) do(ctx context.Context, method, path string, body any) (*resty.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
	}

	send := func(h *resty.Client) (*resty.Response, error) {
		req := h.R().SetContext(ctx)
		if payload != nil {
			req.SetHeader("Content-Type", MediaType).SetBody(payload)
		}
		return req.Execute(method, path)
	}

	entry := c.log.WithFields(logrus.Fields{"method": method, "path": path})
	entry.Debug("transifex request")

	resp, err := send(c.http)
	if err != nil && isCertificateError(err) {
		entry.WithError(err).Warn("certificate verification failed, retrying without verification")
		resp, err = send(c.insecureHTTP())
	}
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	entry.WithField("status", resp.StatusCode()).Debug("transifex response")
	if resp.IsError() {
		return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode(), Body: resp.String()}
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// JSON:API documents
// ---------------------------------------------------------------------------

type identifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type relationship struct {
	Data *identifier `json:"data"`
}

type resourceObject struct {
	Type          string                  `json:"type"`
	ID            string                  `json:"id,omitempty"`
	Attributes    map[string]any          `json:"attributes,omitempty"`
	Relationships map[string]relationship `json:"relationships,omitempty"`
}

func (o resourceObject) attr(name string) string {
	s, _ := o.Attributes[name].(string)
	return s
}

func (o resourceObject) related(name string) string {
	if rel, ok := o.Relationships[name]; ok && rel.Data != nil {
		return rel.Data.ID
	}
	return ""
}

type singleDocument struct {
	Data resourceObject `json:"data"`
}

type listDocument struct {
	Data  []resourceObject `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

func relTo(typ, id string) relationship {
	return relationship{Data: &identifier{Type: typ, ID: id}}
}

// list walks a collection, following links.next until it is exhausted.
func (c *Client) list(ctx context.Context, path string, query url.Values) ([]resourceObject, error) {
	next := path
	if len(query) > 0 {
		next += "?" + query.Encode()
	}

	var all []resourceObject
	seen := make(map[string]bool)
	for next != "" && !seen[next] {
		seen[next] = true
		resp, err := c.do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, err
		}
		var doc listDocument
		if err := json.Unmarshal(resp.Body(), &doc); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		all = append(all, doc.Data...)
		next = doc.Links.Next
	}
	return all, nil
}

func (c *Client) create(ctx context.Context, path string, obj resourceObject) (resourceObject, error) {
	resp, err := c.do(ctx, http.MethodPost, path, singleDocument{Data: obj})
	if err != nil {
		return resourceObject{}, err
	}
	var doc singleDocument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return resourceObject{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	if doc.Data.ID == "" {
		return resourceObject{}, fmt.Errorf("%s: response carries no id", path)
	}
	return doc.Data, nil
}

// ---------------------------------------------------------------------------
// Organizations, projects, resources
// ---------------------------------------------------------------------------

// Organization is an organization visible to the token.
type Organization struct {
	ID   string
	Slug string
	Name string
}

// Project is a project within an organization.
type Project struct {
	ID   string
	Slug string
	Name string
}

// Resource is a bucket of source strings within a project.
type Resource struct {
	ID   string
	Slug string
	Name string
}

// LanguageStat associates a resource with one of its languages.
type LanguageStat struct {
	ID         string
	ResourceID string
	LanguageID string
}

// OrganizationID returns the API identifier of an organization slug.
func OrganizationID(slug string) string { return "o:" + slug }

// LanguageID returns the API identifier of a language code.
func LanguageID(code string) string { return "l:" + code }

// LanguageCode strips the "l:" prefix from a language identifier.
func LanguageCode(id string) string { return strings.TrimPrefix(id, "l:") }

// ListOrganizations returns the organizations the token can access.
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	objs, err := c.list(ctx, "/organizations", nil)
	if err != nil {
		return nil, err
	}
	orgs := make([]Organization, 0, len(objs))
	for _, o := range objs {
		orgs = append(orgs, Organization{ID: o.ID, Slug: o.attr("slug"), Name: o.attr("name")})
	}
	return orgs, nil
}

// ListProjects returns the projects of an organization whose name is
// exactly name.
func (c *Client) ListProjects(ctx context.Context, organizationID, name string) ([]Project, error) {
	q := url.Values{}
	q.Set("filter[organization]", organizationID)
	if name != "" {
		q.Set("filter[name]", name)
	}
	objs, err := c.list(ctx, "/projects", q)
	if err != nil {
		return nil, err
	}
	projects := make([]Project, 0, len(objs))
	for _, o := range objs {
		projects = append(projects, Project{ID: o.ID, Slug: o.attr("slug"), Name: o.attr("name")})
	}
	return projects, nil
}

// ListResources returns every resource of a project.
func (c *Client) ListResources(ctx context.Context, projectID string) ([]Resource, error) {
	q := url.Values{}
	q.Set("filter[project]", projectID)
	objs, err := c.list(ctx, "/resources", q)
	if err != nil {
		return nil, err
	}
	resources := make([]Resource, 0, len(objs))
	for _, o := range objs {
		resources = append(resources, Resource{ID: o.ID, Slug: o.attr("slug"), Name: o.attr("name")})
	}
	return resources, nil
}

// CreateResource creates a resource named and slugged slug, in the given
// i18n format.
func (c *Client) CreateResource(ctx context.Context, projectID, slug, format string) (Resource, error) {
	obj, err := c.create(ctx, "/resources", resourceObject{
		Type:       "resources",
		Attributes: map[string]any{"name": slug, "slug": slug},
		Relationships: map[string]relationship{
			"project":     relTo("projects", projectID),
			"i18n_format": relTo("i18n_formats", format),
		},
	})
	if err != nil {
		return Resource{}, err
	}
	return Resource{ID: obj.ID, Slug: slug, Name: slug}, nil
}

// DeleteResource deletes a resource and all of its translations.
func (c *Client) DeleteResource(ctx context.Context, resourceID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/resources/"+url.PathEscape(resourceID), nil)
	return err
}

// ListLanguageStats returns the language statistics of a project, one
// entry per (resource, language).
func (c *Client) ListLanguageStats(ctx context.Context, projectID string) ([]LanguageStat, error) {
	q := url.Values{}
	q.Set("filter[project]", projectID)
	objs, err := c.list(ctx, "/resource_language_stats", q)
	if err != nil {
		return nil, err
	}
	stats := make([]LanguageStat, 0, len(objs))
	for _, o := range objs {
		stats = append(stats, LanguageStat{
			ID:         o.ID,
			ResourceID: o.related("resource"),
			LanguageID: o.related("language"),
		})
	}
	return stats, nil
}

// ---------------------------------------------------------------------------
// Asynchronous jobs
// ---------------------------------------------------------------------------

// CreateUpload starts an asynchronous upload of source content and
// returns the job id.
func (c *Client) CreateUpload(ctx context.Context, resourceID string, content []byte) (string, error) {
	obj, err := c.create(ctx, "/resource_strings_async_uploads", resourceObject{
		Type: "resource_strings_async_uploads",
		Attributes: map[string]any{
			"content":          string(content),
			"content_encoding": "text",
		},
		Relationships: map[string]relationship{
			"resource": relTo("resources", resourceID),
		},
	})
	if err != nil {
		return "", err
	}
	return obj.ID, nil
}

// UploadStatus observes an upload job once.
func (c *Client) UploadStatus(ctx context.Context, uploadID string) (Outcome[struct{}], error) {
	path := "/resource_strings_async_uploads/" + url.PathEscape(uploadID)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return Outcome[struct{}]{}, err
	}
	var doc statusDocument
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return Outcome[struct{}]{}, fmt.Errorf("decoding upload status: %w", err)
	}
	return Outcome[struct{}]{
		State:  stateOf(doc.Data.Attributes.Status),
		Errors: doc.Data.Attributes.Errors,
	}, nil
}

// CreateDownload starts an asynchronous download of one language of a
// resource and returns the job id.
func (c *Client) CreateDownload(ctx context.Context, resourceID, languageID string) (string, error) {
	obj, err := c.create(ctx, "/resource_translations_async_downloads", resourceObject{
		Type: "resource_translations_async_downloads",
		Relationships: map[string]relationship{
			"resource": relTo("resources", resourceID),
			"language": relTo("languages", languageID),
		},
	})
	if err != nil {
		return "", err
	}
	return obj.ID, nil
}

// DownloadStatus observes a download job once. Once the job is done the
// endpoint redirects to the file, which is returned as the value.
func (c *Client) DownloadStatus(ctx context.Context, downloadID string) (Outcome[string], error) {
	path := "/resource_translations_async_downloads/" + url.PathEscape(downloadID)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return Outcome[string]{}, err
	}
	return ClassifyDownload(resp.Header().Get("Content-Type"), resp.Body())
}
