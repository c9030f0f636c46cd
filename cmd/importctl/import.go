package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/userimport/internal/config"
	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/JonMunkholm/userimport/internal/directory"
	"github.com/JonMunkholm/userimport/internal/notify"
	"github.com/JonMunkholm/userimport/internal/rowsource"
	"github.com/spf13/cobra"
)

type importOptions struct {
	delimiter string
	header    bool
	activate  bool
	notify    bool
	dryRun    bool
	store     string
	format    string
	progress  bool

	maxRows        int
	defaultRole    string
	allowDupEmails bool
	logRows        bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create accounts from a CSV, TXT or XLSX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.delimiter, "delimiter", "d", "comma", "Field delimiter: comma, semicolon, tab or pipe")
	f.BoolVar(&opts.header, "header", true, "First row is a header")
	f.BoolVar(&opts.activate, "activate", true, "Create accounts as active")
	f.BoolVar(&opts.notify, "notify", false, "Send welcome messages to new active accounts")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Report what would happen without creating accounts")
	f.StringVar(&opts.store, "store", "", "Account store: postgres or sqlite:<path> (default: postgres if DATABASE_URL is set)")
	f.StringVar(&opts.format, "format", "text", "Report format: text or json")
	f.BoolVar(&opts.progress, "progress", false, "Print progress to stderr while importing")

	f.IntVar(&opts.maxRows, "max-rows", 0, "Override the maximum rows per import")
	f.StringVar(&opts.defaultRole, "default-role", "", "Override the role for rows without one")
	f.BoolVar(&opts.allowDupEmails, "allow-duplicate-emails", false, "Rewrite colliding e-mails as local+n@domain instead of skipping")
	f.BoolVar(&opts.logRows, "log-rows", false, "Log each created and skipped row")

	return cmd
}

// applyOverrides replaces stored settings with the flags the user set.
func applyOverrides(cmd *cobra.Command, cfg core.ImportConfig, opts importOptions) core.ImportConfig {
	f := cmd.Flags()
	if f.Changed("max-rows") {
		cfg.MaxImportSize = opts.maxRows
	}
	if f.Changed("default-role") {
		cfg.DefaultRole = opts.defaultRole
	}
	if f.Changed("allow-duplicate-emails") {
		cfg.AllowDuplicateEmails = opts.allowDupEmails
	}
	if f.Changed("log-rows") {
		cfg.LoggingEnabled = opts.logRows
	}
	return cfg
}

func runImport(cmd *cobra.Command, file string, opts importOptions) error {
	ctx := cmd.Context()

	delim, err := core.ParseDelimiter(opts.delimiter)
	if err != nil {
		return withCode(exitUsage, err)
	}
	if opts.format != "text" && opts.format != "json" {
		return withCode(exitUsage, fmt.Errorf("unknown --format %q (use text or json)", opts.format))
	}

	cfg, err := config.Load(config.WithoutDatabase())
	if err != nil {
		return err
	}

	st, err := openStore(ctx, opts.store, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	settings, err := st.settings.Load(ctx)
	if err != nil {
		return err
	}
	settings = applyOverrides(cmd, settings, opts)

	var (
		accounts core.AccountDirectory = st.accounts
		history                        = st.history
		notifier core.NotificationSender
	)
	if opts.dryRun {
		accounts = directory.NewDryRun(st.accounts)
		history = nil
	} else if opts.notify {
		notifier = newNotifier(cfg, st.accounts)
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	svc, err := core.NewService(core.ServiceDeps{
		Source:    rowsource.NewAuto(filepath.Dir(abs)),
		Directory: accounts,
		Notifier:  notifier,
		Settings:  core.NewStaticSettings(settings),
		History:   history,
		Logger:    slog.Default(),
	})
	if err != nil {
		return err
	}

	var pipelineOpts []core.PipelineOption
	if opts.progress {
		pipelineOpts = append(pipelineOpts, core.WithProgress(progressPrinter(cmd.ErrOrStderr(), progressEvery)))
	}

	report, err := svc.Import(ctx, core.ImportRequest{
		Locator:           filepath.Base(abs),
		Delimiter:         delim,
		HasHeader:         opts.header,
		ActivateUsers:     opts.activate,
		SendNotifications: opts.notify && !opts.dryRun,
	}, pipelineOpts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*core.Report
			DryRun bool `json:"dry_run"`
		}{report, opts.dryRun})
	}
	return writeReport(out, report, opts.dryRun)
}

const progressEvery = 100

// progressPrinter writes a line every n processed rows and a final summary.
func progressPrinter(w io.Writer, n int) core.ProgressCallback {
	next := n
	return func(p core.Progress) {
		switch {
		case p.Phase == core.PhaseDone:
			fmt.Fprintf(w, "processed %d rows (created %d, skipped %d, errors %d)\n",
				p.Processed, p.Created, p.Skipped, p.Errors)
		case p.Phase == core.PhaseReadingRows && p.Processed >= next:
			fmt.Fprintf(w, "processed %d rows...\n", p.Processed)
			next = p.Processed + n
		}
	}
}

func newNotifier(cfg *config.Config, accounts notify.AccountLookup) core.NotificationSender {
	if !cfg.Mail.Enabled() {
		return notify.NewLogSender(accounts, slog.Default())
	}
	return notify.NewSMTPSender(accounts, notify.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		SiteName: cfg.Mail.SiteName,
		LoginURL: cfg.Mail.LoginURL,
	})
}

func writeReport(w io.Writer, r *core.Report, dryRun bool) error {
	title := "Import"
	if dryRun {
		title = "Dry run"
	}
	fmt.Fprintf(w, "%s of %s finished in %s\n", title, r.Locator, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "processed: %d  created: %d  skipped: %d  errors: %d\n",
		r.TotalProcessed, r.CreatedCount(), r.SkippedCount(), r.ErrorCount())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(r.Created) > 0 {
		fmt.Fprintln(tw, "\nCreated:")
		for _, c := range r.Created {
			fmt.Fprintf(tw, "  row %d\t%s\t%s\t%s\n", c.Row, c.Identifier, c.Email, c.Role)
		}
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintln(tw, "\nSkipped (already exist):")
		fmt.Fprintf(tw, "  %s\n", strings.Join(r.SkippedIdentifiers(), ", "))
	}
	if len(r.Errors) > 0 {
		fmt.Fprintln(tw, "\nErrors:")
		for _, msg := range r.ErrorMessages() {
			fmt.Fprintf(tw, "  %s\n", msg)
		}
	}
	return tw.Flush()
}
