package transifex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(Options{BaseURL: ts.URL, Token: "secret"}), ts
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", MediaType)
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestListResources_FollowsPagination(t *testing.T) {
	var calls int
	var ts *httptest.Server
	client, ts := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/resources" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("filter[project]"); got != "o:acme:p:app" {
			t.Errorf("filter[project] = %q", got)
		}
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, 200, `{"data":[{"type":"resources","id":"r2","attributes":{"slug":"android-strings","name":"android-strings"}}],"links":{"next":null}}`)
			return
		}
		next := ts.URL + "/resources?filter%5Bproject%5D=o:acme:p:app&page=2"
		writeJSON(w, 200, fmt.Sprintf(`{"data":[{"type":"resources","id":"r1","attributes":{"slug":"docs"}}],"links":{"next":%q}}`, next))
	})

	resources, err := client.ListResources(context.Background(), "o:acme:p:app")
	if err != nil {
		t.Fatalf("ListResources error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 requests, got %d", calls)
	}
	if len(resources) != 2 || resources[0].ID != "r1" || resources[1].Slug != "android-strings" {
		t.Errorf("unexpected resources: %+v", resources)
	}
}

func TestCreateResource_RequestBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/resources" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != MediaType {
			t.Errorf("Content-Type = %q", ct)
		}
		var doc struct {
			Data struct {
				Type          string            `json:"type"`
				Attributes    map[string]string `json:"attributes"`
				Relationships map[string]struct {
					Data identifier `json:"data"`
				} `json:"relationships"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if doc.Data.Type != "resources" || doc.Data.Attributes["slug"] != "android-strings" || doc.Data.Attributes["name"] != "android-strings" {
			t.Errorf("unexpected data: %+v", doc.Data)
		}
		if got := doc.Data.Relationships["i18n_format"].Data; got != (identifier{Type: "i18n_formats", ID: AndroidFormat}) {
			t.Errorf("i18n_format = %+v", got)
		}
		if got := doc.Data.Relationships["project"].Data.ID; got != "o:acme:p:app" {
			t.Errorf("project = %q", got)
		}
		writeJSON(w, 201, `{"data":{"type":"resources","id":"o:acme:p:app:r:android-strings"}}`)
	})

	res, err := client.CreateResource(context.Background(), "o:acme:p:app", "android-strings", AndroidFormat)
	if err != nil {
		t.Fatalf("CreateResource error: %v", err)
	}
	if res.ID != "o:acme:p:app:r:android-strings" {
		t.Errorf("ID = %q", res.ID)
	}
}

func TestDo_StatusError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, `{"errors":[{"status":"404","code":"not_found"}]}`)
	})

	err := client.DeleteResource(context.Background(), "o:acme:p:app:r:gone")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.Status != 404 || se.Method != http.MethodDelete {
		t.Errorf("unexpected status error: %+v", se)
	}
}

func TestDo_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	client := New(Options{BaseURL: url, Token: "secret"})
	_, err := client.ListOrganizations(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if te.Method != http.MethodGet || te.Path != "/organizations" {
		t.Errorf("unexpected transport error: %+v", te)
	}
}

func TestDo_CertificateFallback(t *testing.T) {
	var calls int
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, 200, `{"data":[{"type":"organizations","id":"o:acme","attributes":{"slug":"acme","name":"Acme"}}]}`)
	}))
	defer ts.Close()

	logger, hook := test.NewNullLogger()
	client := New(Options{BaseURL: ts.URL, Token: "secret", Logger: logger})

	orgs, err := client.ListOrganizations(context.Background())
	if err != nil {
		t.Fatalf("ListOrganizations error: %v", err)
	}
	if len(orgs) != 1 || orgs[0].ID != "o:acme" || orgs[0].Slug != "acme" {
		t.Errorf("unexpected organizations: %+v", orgs)
	}
	if calls != 1 {
		t.Errorf("expected the handler to run once, got %d", calls)
	}

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "certificate") {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a warning about the certificate fallback")
	}
}

func TestListLanguageStats(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/resource_language_stats" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeJSON(w, 200, `{"data":[
			{"type":"resource_language_stats","id":"s1","relationships":{
				"resource":{"data":{"type":"resources","id":"r1"}},
				"language":{"data":{"type":"languages","id":"l:fr"}}}},
			{"type":"resource_language_stats","id":"s2","relationships":{
				"resource":{"data":{"type":"resources","id":"r1"}},
				"language":{"data":{"type":"languages","id":"l:sr@latin"}}}}
		]}`)
	})

	stats, err := client.ListLanguageStats(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ListLanguageStats error: %v", err)
	}
	want := []LanguageStat{
		{ID: "s1", ResourceID: "r1", LanguageID: "l:fr"},
		{ID: "s2", ResourceID: "r1", LanguageID: "l:sr@latin"},
	}
	if len(stats) != len(want) {
		t.Fatalf("got %d stats, want %d", len(stats), len(want))
	}
	for i := range want {
		if stats[i] != want[i] {
			t.Errorf("stats[%d] = %+v, want %+v", i, stats[i], want[i])
		}
	}
}

func TestUpload_SubmitAndStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/resource_strings_async_uploads":
			var doc struct {
				Data struct {
					Attributes map[string]string `json:"attributes"`
				} `json:"data"`
			}
			json.NewDecoder(r.Body).Decode(&doc)
			if doc.Data.Attributes["content_encoding"] != "text" {
				t.Errorf("content_encoding = %q", doc.Data.Attributes["content_encoding"])
			}
			if doc.Data.Attributes["content"] != "<resources/>" {
				t.Errorf("content = %q", doc.Data.Attributes["content"])
			}
			writeJSON(w, 202, `{"data":{"type":"resource_strings_async_uploads","id":"up1"}}`)
		case r.URL.Path == "/resource_strings_async_uploads/up1":
			writeJSON(w, 200, `{"data":{"id":"up1","attributes":{"status":"failed","errors":[{"code":"parse_error","detail":"bad xml"}]}}}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	id, err := client.CreateUpload(context.Background(), "r1", []byte("<resources/>"))
	if err != nil {
		t.Fatalf("CreateUpload error: %v", err)
	}
	if id != "up1" {
		t.Fatalf("id = %q", id)
	}
	out, err := client.UploadStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("UploadStatus error: %v", err)
	}
	if out.State != Failed || len(out.Errors) != 1 || out.Errors[0].Detail != "bad xml" {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestDownloadStatus_PendingThenRedirect(t *testing.T) {
	var polls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/resource_translations_async_downloads":
			writeJSON(w, 202, `{"data":{"type":"resource_translations_async_downloads","id":"dl1"}}`)
		case "/resource_translations_async_downloads/dl1":
			polls++
			if polls == 1 {
				writeJSON(w, 200, `{"data":{"id":"dl1","attributes":{"status":"processing"}}}`)
				return
			}
			http.Redirect(w, r, "/files/fr.xml", http.StatusSeeOther)
		case "/files/fr.xml":
			w.Header().Set("Content-Type", "text/xml")
			io.WriteString(w, `<resources><string name="a">Bonjour</string></resources>`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	ctx := context.Background()
	id, err := client.CreateDownload(ctx, "r1", "l:fr")
	if err != nil {
		t.Fatalf("CreateDownload error: %v", err)
	}

	out, err := client.DownloadStatus(ctx, id)
	if err != nil {
		t.Fatalf("DownloadStatus error: %v", err)
	}
	if out.State != Pending {
		t.Fatalf("first observation = %v, want pending", out.State)
	}

	out, err = client.DownloadStatus(ctx, id)
	if err != nil {
		t.Fatalf("DownloadStatus error: %v", err)
	}
	if out.State != Succeeded || !strings.Contains(out.Value, "Bonjour") {
		t.Errorf("second observation = %+v", out)
	}
}
