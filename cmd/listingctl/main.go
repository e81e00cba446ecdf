package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"autobazar/listing-editor/internal/api"
	"autobazar/listing-editor/internal/auth"
	"autobazar/listing-editor/internal/config"
	"autobazar/listing-editor/internal/db"
	"autobazar/listing-editor/internal/editor"
	"autobazar/listing-editor/internal/jobs"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the wiring shared by every command. The caller must defer close.
type app struct {
	deps  *api.Dependencies
	close func()
}

// newApp reads the config and wires the same dependencies the server uses.
// A token pair from MARKETPLACE_ACCESS_TOKEN / MARKETPLACE_REFRESH_TOKEN
// starts the marketplace session.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := logging.Init(cfg.AppEnv); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	sqlDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	orm, err := db.OpenORM(cfg.Database)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	deps, err := api.InitDependencies(cfg, orm, sqlDB, metrics.NewMetricsRegistry(prometheus.NewRegistry()))
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("initializing dependencies: %w", err)
	}

	if access := os.Getenv("MARKETPLACE_ACCESS_TOKEN"); access != "" {
		tokens := auth.Tokens{AccessToken: access, RefreshToken: os.Getenv("MARKETPLACE_REFRESH_TOKEN")}
		if err := deps.Session.Begin(tokens); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("starting session: %w", err)
		}
	}

	return &app{
		deps: deps,
		close: func() {
			sqlDB.Close()
			logging.Close()
		},
	}, nil
}

func requireSession(a *app) error {
	if !a.deps.Session.Active() {
		return fmt.Errorf("%w: set MARKETPLACE_ACCESS_TOKEN", auth.ErrNoSession)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var rootCmd = &cobra.Command{
	Use:           "listingctl",
	Short:         "Marketplace listing editor tools",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "List vehicle brands",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		brands, err := a.deps.Services.Catalog.Brands(cmd.Context())
		if err != nil {
			return fmt.Errorf("loading brands: %w", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, b := range brands {
			fmt.Fprintf(w, "%d\t%s\n", b.ID, b.Name)
		}
		return w.Flush()
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models <brand-id>",
	Short: "List models of a brand",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		brandID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid brand id %q", args[0])
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		models, err := a.deps.Services.Catalog.Models(cmd.Context(), brandID)
		if err != nil {
			return fmt.Errorf("loading models: %w", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, m := range models {
			fmt.Fprintf(w, "%d\t%s\n", m.ID, m.Name)
		}
		return w.Flush()
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <draft.json>",
	Short: "Validate and submit a saved draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading draft: %w", err)
		}
		var d editor.Draft
		if err := json.Unmarshal(raw, &d); err != nil {
			return fmt.Errorf("decoding draft: %w", err)
		}
		if d.EditorID == "" {
			d.EditorID = "cli-" + strconv.FormatInt(time.Now().Unix(), 10)
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		if err := requireSession(a); err != nil {
			return err
		}

		ed, err := editor.Restore(d, editor.Deps{Catalog: a.deps.Services.Catalog, Metrics: a.deps.Metrics})
		if err != nil {
			return fmt.Errorf("restoring draft: %w", err)
		}
		defer ed.Close()
		if err := ed.Refresh(cmd.Context()); err != nil {
			return fmt.Errorf("loading options: %w", err)
		}

		res, err := ed.Submit(cmd.Context(), a.deps.Services.Submission)
		for _, n := range a.deps.Services.Notifier.Drain() {
			fmt.Fprintf(os.Stderr, "[%s] %s %s\n", n.Level, n.Message, n.Detail)
		}
		if err != nil {
			var ve *editor.ValidationError
			if errors.As(err, &ve) {
				_ = printJSON(ve.Fields)
			}
			return err
		}
		return printJSON(res)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <listing-id>",
	Short: "Delete a listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid listing id %q", args[0])
		}
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		if err := requireSession(a); err != nil {
			return err
		}

		if err := a.deps.Services.Listings.DeleteListing(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Listing %d deleted\n", id)
		return nil
	},
}

// drafts command
var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Manage autosaved drafts",
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved drafts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		drafts, err := a.deps.Repo.Drafts.List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "EDITOR\tMODE\tLISTING\tUPDATED")
		for _, d := range drafts {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", d.EditorID, d.Mode, d.ListingID, d.UpdatedAt)
		}
		return w.Flush()
	},
}

var draftsExportCmd = &cobra.Command{
	Use:   "export <editor-id>",
	Short: "Print a saved draft as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		d, err := a.deps.Repo.Drafts.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(d)
	},
}

var purgeOlderThan time.Duration

var draftsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete drafts not updated within the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		retention := purgeOlderThan
		if retention == 0 {
			retention = a.deps.Config.Drafts.Retention
		}
		n, err := jobs.NewDraftCleanupJob(a.deps.Repo.Drafts, retention).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d drafts\n", n)
		return nil
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent submission attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		logs, err := a.deps.Repo.Submissions.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tEDITOR\tLISTING\tMODE\tOUTCOME\tSTAGE\tMEDIA FAILURES\tDETAIL")
		for _, l := range logs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
				l.CreatedAt.Local().Format(time.DateTime), l.EditorID, l.ListingID, l.Mode, l.Outcome, l.FailedStage, l.MediaFailures, l.Detail)
		}
		return w.Flush()
	},
}

func init() {
	draftsPurgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 0, "retention window (defaults to drafts.retention)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of entries to show")

	draftsCmd.AddCommand(draftsListCmd, draftsExportCmd, draftsPurgeCmd)
	rootCmd.AddCommand(brandsCmd, modelsCmd, submitCmd, deleteCmd, draftsCmd, historyCmd)
}
