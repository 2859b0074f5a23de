// Package config builds the txsync configuration of a project.
//
// Values are layered, later sources winning:
//
//  1. built-in defaults
//  2. .txsync.yaml in the project root
//  3. the token saved by "txsync auth login" (token only)
//  4. the process environment
//  5. the secrets env file (secrets/transifex.env by default)
//  6. command-line flags
//
// The process environment is only read, never modified. The resulting
// Config is built once and passed to every component.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/minios-linux/txsync/settings"
)

// ErrConfiguration is wrapped by errors about missing or invalid local
// input, such as a missing token or source catalog.
var ErrConfiguration = errors.New("configuration error")

// Defaults.
const (
	DefaultProject          = "NULVEX"
	DefaultResource         = "android-strings"
	DefaultSourceLang       = "en"
	DefaultResDir           = "app/src/main/res"
	DefaultSourceFile       = "values/strings.xml"
	DefaultExtractedFile    = "values/strings_extracted.xml"
	DefaultSecretsFile      = "secrets/transifex.env"
	DefaultAPIURL           = "https://rest.api.transifex.com"
	DefaultTimeout          = 60 * time.Second
	DefaultPollInterval     = time.Second
	DefaultUploadAttempts   = 60
	DefaultDownloadAttempts = 90
)

// Token sources, for display.
const (
	SourceFlag        = "flag"
	SourceSecretsFile = "secrets file"
	SourceEnv         = "environment"
	SourceStore       = "credential store"
)

// Config is the resolved configuration of one invocation. Paths are
// absolute.
type Config struct {
	Root string

	Token       string
	TokenSource string

	Project      string
	Resource     string
	Organization string
	SourceLang   string

	ResDir        string
	SourceFile    string
	ExtractedFile string
	SecretsFile   string

	APIURL           string
	Timeout          time.Duration
	PollInterval     time.Duration
	UploadAttempts   int
	DownloadAttempts int
}

// Overrides carries command-line flag values. Empty fields are ignored.
type Overrides struct {
	Token        string
	Project      string
	Resource     string
	Organization string
}

// Env lists the variables read from the process environment and from
// the secrets file.
type Env struct {
	Token        string `envconfig:"TRANSIFEX_API_TOKEN"`
	LegacyToken  string `envconfig:"TRANSIFEX_TOKEN"`
	Project      string `envconfig:"TRANSIFEX_PROJECT_NAME"`
	Resource     string `envconfig:"TRANSIFEX_RESOURCE_SLUG"`
	Organization string `envconfig:"TRANSIFEX_ORG_SLUG"`
}

// Load resolves the configuration of the project at root. It fails only
// on unreadable or malformed files; use Validate to check that a token
// is present.
func Load(root string, flags Overrides) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", root, err)
	}

	cfg := &Config{
		Root:             absRoot,
		Project:          DefaultProject,
		Resource:         DefaultResource,
		SourceLang:       DefaultSourceLang,
		APIURL:           DefaultAPIURL,
		Timeout:          DefaultTimeout,
		PollInterval:     DefaultPollInterval,
		UploadAttempts:   DefaultUploadAttempts,
		DownloadAttempts: DefaultDownloadAttempts,
	}
	resDir, sourceFile, extractedFile, secretsFile := DefaultResDir, DefaultSourceFile, DefaultExtractedFile, DefaultSecretsFile

	pf, err := LoadProjectFile(absRoot)
	if err != nil {
		return nil, err
	}
	if pf != nil {
		setString(&cfg.Project, pf.Project)
		setString(&cfg.Resource, pf.Resource)
		setString(&cfg.Organization, pf.Organization)
		setString(&cfg.SourceLang, pf.SourceLang)
		setString(&cfg.APIURL, pf.APIURL)
		setString(&resDir, pf.ResDir)
		setString(&sourceFile, pf.SourceFile)
		setString(&extractedFile, pf.ExtractedFile)
		setString(&secretsFile, pf.SecretsFile)
		if pf.Timeout > 0 {
			cfg.Timeout = pf.Timeout
		}
		if pf.PollInterval > 0 {
			cfg.PollInterval = pf.PollInterval
		}
		if pf.UploadAttempts > 0 {
			cfg.UploadAttempts = pf.UploadAttempts
		}
		if pf.DownloadAttempts > 0 {
			cfg.DownloadAttempts = pf.DownloadAttempts
		}
	}

	cfg.ResDir = resolvePath(absRoot, resDir)
	cfg.SourceFile = resolvePath(cfg.ResDir, sourceFile)
	cfg.ExtractedFile = resolvePath(cfg.ResDir, extractedFile)
	cfg.SecretsFile = resolvePath(absRoot, secretsFile)

	if token := settings.GetToken(); token != "" {
		cfg.Token, cfg.TokenSource = token, SourceStore
	}

	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	secrets, err := ReadSecretsFile(cfg.SecretsFile)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(env, secrets)

	if flags.Token != "" {
		cfg.Token, cfg.TokenSource = flags.Token, SourceFlag
	}
	setString(&cfg.Project, flags.Project)
	setString(&cfg.Resource, flags.Resource)
	setString(&cfg.Organization, flags.Organization)

	return cfg, nil
}

// ReadSecretsFile parses a dotenv-style secrets file. A missing file
// yields an empty Env.
func ReadSecretsFile(path string) (Env, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Env{}, nil
		}
		return Env{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Env{
		Token:        vars["TRANSIFEX_API_TOKEN"],
		LegacyToken:  vars["TRANSIFEX_TOKEN"],
		Project:      vars["TRANSIFEX_PROJECT_NAME"],
		Resource:     vars["TRANSIFEX_RESOURCE_SLUG"],
		Organization: vars["TRANSIFEX_ORG_SLUG"],
	}, nil
}

// applyEnv layers the secrets file over the environment. The two are
// treated as one variable set: TRANSIFEX_API_TOKEN from either source
// wins over TRANSIFEX_TOKEN from either source.
func (c *Config) applyEnv(env, secrets Env) {
	switch {
	case secrets.Token != "":
		c.Token, c.TokenSource = secrets.Token, SourceSecretsFile
	case env.Token != "":
		c.Token, c.TokenSource = env.Token, SourceEnv
	case secrets.LegacyToken != "":
		c.Token, c.TokenSource = secrets.LegacyToken, SourceSecretsFile
	case env.LegacyToken != "":
		c.Token, c.TokenSource = env.LegacyToken, SourceEnv
	}
	for _, e := range []Env{env, secrets} {
		setString(&c.Project, e.Project)
		setString(&c.Resource, e.Resource)
		setString(&c.Organization, e.Organization)
	}
}

// Validate reports missing values required to talk to the service.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("%w: missing TRANSIFEX_API_TOKEN or TRANSIFEX_TOKEN (set it in %s, the environment, or run \"txsync auth login\")",
			ErrConfiguration, c.SecretsFile)
	}
	if c.Project == "" {
		return fmt.Errorf("%w: project name is empty", ErrConfiguration)
	}
	if c.Resource == "" {
		return fmt.Errorf("%w: resource slug is empty", ErrConfiguration)
	}
	return nil
}

// Rel returns path relative to the project root when possible.
func (c *Config) Rel(path string) string {
	if rel, err := filepath.Rel(c.Root, path); err == nil {
		return rel
	}
	return path
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
