// txsync — Transifex sync for Android string resources.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/txsync/android"
	"github.com/minios-linux/txsync/config"
	"github.com/minios-linux/txsync/i18n"
	"github.com/minios-linux/txsync/langmeta"
	"github.com/minios-linux/txsync/lockfile"
	"github.com/minios-linux/txsync/settings"
	"github.com/minios-linux/txsync/syncer"
	"github.com/minios-linux/txsync/transifex"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

type globalFlags struct {
	root     string
	verbose  bool
	token    string
	project  string
	resource string
	org      string
}

var flags globalFlags

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.root, "root", ".", i18n.T("Project root directory"))
	fs.BoolVarP(&g.verbose, "verbose", "v", false, i18n.T("Show API requests and per-language details"))
	fs.StringVar(&g.token, "token", "", i18n.T("Transifex API token (overrides secrets file and environment)"))
	fs.StringVar(&g.project, "project", "", i18n.T("Transifex project name"))
	fs.StringVar(&g.resource, "resource", "", i18n.T("Resource slug"))
	fs.StringVar(&g.org, "org", "", i18n.T("Organization slug (default: first organization of the token)"))
}

func (g *globalFlags) overrides() config.Overrides {
	return config.Overrides{
		Token:        g.token,
		Project:      g.project,
		Resource:     g.resource,
		Organization: g.org,
	}
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	flags = globalFlags{}

	root := &cobra.Command{
		Use:   "txsync",
		Short: i18n.T("Sync Android strings.xml with Transifex"),
		Long: `txsync — push Android source strings to Transifex and pull translations back.

The source catalog (app/src/main/res/values/strings.xml) is merged with
the optional extracted catalog (values/strings_extracted.xml) and uploaded
to one Transifex resource. Translations are written to
values-<qualifier>/strings.xml; languages without any translated entry
are removed so Android falls back to the default resources.

Commands:
  push        Upload the merged source catalog
  pull        Download all translations of the resource
  reset       Delete the resource from Transifex
  status      Show configuration and local translation statistics
  auth        Manage the stored API token

Configuration (later wins): defaults, .txsync.yaml, stored token,
environment, secrets/transifex.env, command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags.register(root.PersistentFlags())

	root.AddCommand(
		newPushCmd(),
		newPullCmd(),
		newResetCmd(),
		newStatusCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logError("%v", err)
		stop()
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "txsync version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Shared setup
// ---------------------------------------------------------------------------

// session is what every online command needs.
type session struct {
	cfg    *config.Config
	lock   *lockfile.LockFile
	client *transifex.Client
	log    *logrus.Logger
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func openSession() (*session, error) {
	cfg, err := config.Load(flags.root, flags.overrides())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lf, err := lockfile.Load(cfg.Root)
	if err != nil {
		return nil, err
	}

	log := newLogger(flags.verbose)
	log.WithFields(logrus.Fields{
		"project":  cfg.Project,
		"resource": cfg.Resource,
		"token":    cfg.TokenSource,
	}).Debug("configuration loaded")

	client := transifex.New(transifex.Options{
		BaseURL:   cfg.APIURL,
		Token:     cfg.Token,
		Timeout:   cfg.Timeout,
		UserAgent: "txsync/" + version,
		Logger:    log,
	})
	return &session{cfg: cfg, lock: lf, client: client, log: log}, nil
}

// syncOptions maps the configuration onto the flow options.
func syncOptions(cfg *config.Config, lf *lockfile.LockFile) syncer.Options {
	opts := syncer.Options{
		Root:           cfg.Root,
		Project:        cfg.Project,
		Organization:   cfg.Organization,
		Resource:       cfg.Resource,
		SourceLang:     cfg.SourceLang,
		ResDir:         cfg.ResDir,
		SourceFile:     cfg.SourceFile,
		ExtractedFile:  cfg.ExtractedFile,
		UploadPoller:   transifex.Poller{Interval: cfg.PollInterval, MaxAttempts: cfg.UploadAttempts},
		DownloadPoller: transifex.Poller{Interval: cfg.PollInterval, MaxAttempts: cfg.DownloadAttempts},
		Lock:           lf,
	}
	if flags.verbose {
		opts.OnLog = logInfo
	}
	return opts
}

// ---------------------------------------------------------------------------
// push
// ---------------------------------------------------------------------------

func newPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: i18n.T("Upload the merged source catalog"),
		Long: `Merge values/strings.xml with values/strings_extracted.xml and upload
the result as the source of the Transifex resource. Entries already present
in strings.xml always win; extracted entries are only added. The resource
is created if it does not exist yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			logInfo(i18n.T("Pushing %s to %s/%s"), s.cfg.Rel(s.cfg.SourceFile), s.cfg.Project, s.cfg.Resource)

			report, err := syncer.Push(cmd.Context(), s.client, syncOptions(s.cfg, s.lock))
			if err != nil {
				return err
			}
			if !report.Changed {
				logInfo(i18n.T("Source catalog unchanged since the last push"))
			}
			logSuccess(i18n.T("Pushed source strings to %s"), report.ResourceID)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// pull
// ---------------------------------------------------------------------------

func newPullCmd() *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: i18n.T("Download all translations of the resource"),
		Long: `Download every language of the resource except the source language and
write it to values-<qualifier>/strings.xml. Languages without translated
entries are skipped and their strings.xml is removed.

Languages are downloaded one at a time; the first failure stops the pull.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			opts := syncOptions(s.cfg, s.lock)

			var bar *progressbar.ProgressBar
			if !noProgress && !flags.verbose {
				opts.OnProgress = func(lang string, done, total int) {
					if bar == nil {
						bar = newProgressBar(total)
					}
					bar.Describe(fmt.Sprintf("[cyan]%s[reset]", lang))
					_ = bar.Set(done)
				}
			}

			report, err := syncer.Pull(cmd.Context(), s.client, opts)
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(os.Stderr)
			}
			if err != nil {
				return err
			}

			printPullResults(s.cfg, report)
			logSuccess(i18n.T("Pulled %d translation file(s) for resource %s (skipped empty: %d)"),
				report.Pulled, report.ResourceID, report.SkippedEmpty)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, i18n.T("Do not show the progress bar"))
	return cmd
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(i18n.T("Downloading")),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func printPullResults(cfg *config.Config, report *syncer.PullReport) {
	if len(report.Results) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Languages"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for _, r := range report.Results {
		state := colorGreen + i18n.T("written") + colorReset
		if !r.Written {
			state = colorYellow + i18n.T("empty, skipped") + colorReset
		}
		fmt.Fprintf(os.Stderr, "  %-32s %-28s %s\n", langmeta.Label(r.Lang), cfg.Rel(r.Path), state)
	}
	if report.Pulled > 0 {
		fmt.Fprintf(os.Stderr, "  %s\n", fmt.Sprintf(i18n.N("%d file changed since the last pull", "%d files changed since the last pull", report.Changed), report.Changed))
	}
	fmt.Fprintln(os.Stderr)
}

// ---------------------------------------------------------------------------
// reset
// ---------------------------------------------------------------------------

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: i18n.T("Delete the resource from Transifex"),
		Long: `Delete the Transifex resource together with all of its translations.
If no resource with the configured slug exists, nothing is done.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			report, err := syncer.Reset(cmd.Context(), s.client, syncOptions(s.cfg, s.lock))
			if err != nil {
				return err
			}
			if !report.Deleted {
				logInfo(i18n.T("Resource '%s' not found. Nothing to reset."), s.cfg.Resource)
				return nil
			}
			logSuccess(i18n.T("Deleted resource %s"), report.ResourceID)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// status (offline: configuration + local translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: i18n.T("Show configuration and local translation statistics"),
		Long: `Show the resolved configuration, the source catalogs and the translation
progress of every values-* directory. Does not contact Transifex and does
not modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.root, flags.overrides())
			if err != nil {
				return err
			}
			lf, err := lockfile.Load(cfg.Root)
			if err != nil {
				return err
			}
			runStatus(cfg, lf)
			return nil
		},
	}
}

func runStatus(cfg *config.Config, lf *lockfile.LockFile) {
	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Project"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  Root:         %s\n", cfg.Root)
	fmt.Fprintf(os.Stderr, "  Project:      %s\n", cfg.Project)
	fmt.Fprintf(os.Stderr, "  Resource:     %s\n", cfg.Resource)
	org := cfg.Organization
	if org == "" {
		org = i18n.T("(first available)")
	}
	fmt.Fprintf(os.Stderr, "  Organization: %s\n", org)
	fmt.Fprintf(os.Stderr, "  Source lang:  %s\n", cfg.SourceLang)
	fmt.Fprintf(os.Stderr, "  Res dir:      %s\n", cfg.Rel(cfg.ResDir))
	if cfg.Token != "" {
		fmt.Fprintf(os.Stderr, "  Token:        %s (%s)\n", settings.MaskKey(cfg.Token), cfg.TokenSource)
	} else {
		fmt.Fprintf(os.Stderr, "  Token:        %s%s%s\n", colorRed, i18n.T("not configured"), colorReset)
	}
	fmt.Fprintf(os.Stderr, "  Lock file:    %s\n", lf.Summary())
	fmt.Fprintln(os.Stderr)

	source, err := android.ParseFile(cfg.SourceFile)
	if err != nil {
		logWarning(i18n.T("Source catalog not readable: %v"), err)
		return
	}
	sourceTotal, _, _ := source.Stats()
	fmt.Fprintf(os.Stderr, "  %-30s %d\n", cfg.Rel(cfg.SourceFile), sourceTotal)
	if extracted, err := android.ParseFile(cfg.ExtractedFile); err == nil {
		added := 0
		for _, k := range extracted.Keys() {
			if source.Lookup(k.Tag, k.Name) == nil {
				added++
			}
		}
		fmt.Fprintf(os.Stderr, "  %-30s %d (%d new)\n", cfg.Rel(cfg.ExtractedFile), len(extracted.Keys()), added)
	}
	fmt.Fprintln(os.Stderr)

	rows := statusRows(cfg.ResDir, source)
	if len(rows) == 0 {
		logInfo(i18n.T("No translations yet. Run 'txsync pull' to download them."))
		return
	}

	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorBlue, i18n.T("Translation Statistics"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "\n%-14s %-26s %-12s %-8s\n", "Qualifier", "Language", "Translated", "Percent")
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	for _, r := range rows {
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "%-14s %-26s %-12s %-8s\n", r.qualifier, r.language, "invalid", "-")
			continue
		}
		fmt.Fprintf(os.Stderr, "%-14s %-26s %-12d %d%%\n", r.qualifier, r.language, r.translated, r.percent)
	}
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "Total strings: %d\n\n", sourceTotal)
}

type statusRow struct {
	qualifier  string
	language   string
	translated int
	percent    int
	err        error
}

// statusRows compares every values-* catalog against the source catalog.
// A translated entry counts only if the source has a translatable entry
// with the same tag and name.
func statusRows(resDir string, source *android.File) []statusRow {
	total, _, _ := source.Stats()

	var rows []statusRow
	for _, q := range android.DetectQualifiers(resDir) {
		row := statusRow{qualifier: q, language: langmeta.Resolve(android.LanguageTag(q)).Name}
		f, err := android.ParseFile(filepath.Join(resDir, android.ValuesDirName(q), android.StringsFileName))
		if err != nil {
			row.err = err
			rows = append(rows, row)
			continue
		}
		for _, e := range f.Entries {
			src := source.Lookup(e.Kind.Tag(), e.Name)
			if src != nil && src.Translatable && e.IsTranslated() {
				row.translated++
			}
		}
		if total > 0 {
			row.percent = row.translated * 100 / total
		}
		rows = append(rows, row)
	}
	return rows
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: i18n.T("Manage the stored API token"),
		Long: `Manage the Transifex API token stored in the txsync data directory.

The stored token has the lowest priority: TRANSIFEX_API_TOKEN in the
environment, secrets/transifex.env and --token all override it.

Examples:
  txsync auth login            Paste a token interactively
  txsync auth login --token T  Store T without prompting
  txsync auth logout           Remove the stored token
  txsync auth status           Show where the token comes from`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthStatusCmd(),
	)
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: i18n.T("Store a Transifex API token"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token := flags.token
			if token == "" {
				fmt.Fprintf(os.Stderr, "\n%sTransifex — API Token Setup%s\n", colorBlue, colorReset)
				fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
				fmt.Fprintf(os.Stderr, "  Get your token from: %shttps://app.transifex.com/user/settings/api/%s\n\n", colorGreen, colorReset)

				existing := settings.GetToken()
				if existing != "" {
					fmt.Fprintf(os.Stderr, "  Current token: %s%s%s\n", colorYellow, settings.MaskKey(existing), colorReset)
					fmt.Fprint(os.Stderr, "  "+i18n.T("Enter new token to replace, or press Enter to keep: "))
				} else {
					fmt.Fprint(os.Stderr, "  "+i18n.T("Enter API token: "))
				}

				var err error
				token, err = readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				if token == "" {
					if existing != "" {
						logInfo(i18n.T("Keeping existing token"))
						return nil
					}
					return errors.New(i18n.T("no API token provided"))
				}
			}

			if err := settings.SetToken(token, ""); err != nil {
				return fmt.Errorf("saving token: %w", err)
			}
			logSuccess(i18n.T("Token saved to %s"), settings.FilePath())
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: i18n.T("Remove the stored token"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := settings.Remove(settings.ServiceTransifex); err != nil {
				return fmt.Errorf("removing token: %w", err)
			}
			logSuccess(i18n.T("Stored token removed"))
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"list", "ls"},
		Short:   i18n.T("Show where the API token comes from"),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.root, flags.overrides())
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Credentials"), colorReset)
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
			if stored := settings.GetToken(); stored != "" {
				fmt.Fprintf(os.Stderr, "  %-14s %sconfigured%s (token: %s)\n", "stored", colorGreen, colorReset, settings.MaskKey(stored))
			} else {
				fmt.Fprintf(os.Stderr, "  %-14s %snot configured%s\n", "stored", colorRed, colorReset)
			}
			fmt.Fprintf(os.Stderr, "  %-14s %s\n", "file", settings.FilePath())
			if cfg.Token != "" {
				fmt.Fprintf(os.Stderr, "  %-14s %s (%s)\n", "in use", settings.MaskKey(cfg.Token), cfg.TokenSource)
			} else {
				fmt.Fprintf(os.Stderr, "  %-14s %snone%s\n", "in use", colorRed, colorReset)
			}
			fmt.Fprintln(os.Stderr)
			return nil
		},
	}
}
