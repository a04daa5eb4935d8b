package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/clouddrive/pkg/config"
	"github.com/marmos91/clouddrive/pkg/reconcile"
)

func newReconcileCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass and print a summary",
		Long: `Run one reconciliation pass between the record store and the object store.

Records whose object is missing are deleted (after a re-check). Objects
without a record are reported only; use 'clouddrive ghosts purge' to
delete them.

Examples:
  # Show what would be repaired
  clouddrive reconcile --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd.OutOrStdout(), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without deleting")

	return cmd
}

func runReconcile(out io.Writer, dryRun bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if dryRun {
		cfg.Reconcile.DryRun = true
	}

	ctx, cancel := commandContext()
	defer cancel()

	c, err := config.InitializeComponents(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	stats, err := c.Reconciler.RunNow(ctx)
	if err != nil {
		return err
	}

	printStats(out, stats)
	return nil
}

func printStats(out io.Writer, s *reconcile.Stats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	if s.DryRun {
		_, _ = fmt.Fprintln(w, "DRY RUN: nothing was deleted")
	}
	rows := []struct {
		label string
		value any
	}{
		{"Objects scanned", s.ObjectsScanned},
		{"Records scanned", s.RecordsScanned},
		{"Ghost records", s.GhostRecords},
		{"Deleted records", s.DeletedRecords},
		{"Failed deletes", s.FailedDeletes},
		{"Reappeared", s.Reappeared},
		{"Skipped (recent)", s.SkippedRecent},
		{"Skipped (other namespace)", s.SkippedOutsideNamespace},
		{"Invalid locators", s.InvalidLocators},
		{"Ghost objects", s.GhostObjects},
		{"Pruned items", s.PrunedItems},
		{"Duration", s.Duration().Round(time.Millisecond)},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s:\t%v\n", r.label, r.value)
	}
	for _, id := range s.GhostRecordIDs {
		_, _ = fmt.Fprintf(w, "  ghost record\t%s\n", id)
	}
	for _, key := range s.GhostObjectKeys {
		_, _ = fmt.Fprintf(w, "  ghost object\t%s\n", key)
	}
}

func newAuditCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check both stores and print counts",
		Long: `Ping the record store and the object store and print what they hold:
file record count, item count per parent folder, object count and bytes.
Nothing is modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func runAudit(out io.Writer, asJSON bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	c, err := config.InitializeComponents(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	report, err := c.Reconciler.Audit(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		if err := writeJSON(out, report); err != nil {
			return err
		}
	} else {
		printAudit(out, report)
	}

	if !report.Healthy() {
		return fmt.Errorf("audit found unreachable stores")
	}
	return nil
}

func printAudit(out io.Writer, r *reconcile.AuditReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	_, _ = fmt.Fprintln(w, "RECORDS")
	if r.RecordsError != "" {
		_, _ = fmt.Fprintf(w, "  status:\tUNAVAILABLE (%s)\n", r.RecordsError)
	} else {
		_, _ = fmt.Fprintf(w, "  files:\t%d\n", r.FileRecords)
		_, _ = fmt.Fprintf(w, "  items:\t%d\n", r.TotalItems)
		for _, row := range r.ByParent {
			parent := "(root)"
			if row.ParentID != nil {
				parent = *row.ParentID
			}
			_, _ = fmt.Fprintf(w, "  parent %s:\t%d\n", parent, row.Count)
		}
	}

	_, _ = fmt.Fprintln(w, "OBJECTS")
	if r.ObjectsError != "" {
		_, _ = fmt.Fprintf(w, "  status:\tUNAVAILABLE (%s)\n", r.ObjectsError)
		return
	}
	_, _ = fmt.Fprintf(w, "  namespace:\t%s\n", r.Namespace)
	_, _ = fmt.Fprintf(w, "  objects:\t%d\n", r.Objects)
	_, _ = fmt.Fprintf(w, "  bytes:\t%d\n", r.ObjectBytes)
	for _, key := range r.SampleKeys {
		_, _ = fmt.Fprintf(w, "  sample:\t%s\n", key)
	}
}

func newGhostsCmd() *cobra.Command {
	ghostsCmd := &cobra.Command{
		Use:   "ghosts",
		Short: "Inspect or delete objects that no record references",
		Long: `Inspect or delete ghost objects: stored objects with no file record.

Examples:
  # List ghost objects
  clouddrive ghosts list

  # Preview a purge of ghosts older than two days
  clouddrive ghosts purge --min-age 48h

  # Actually delete them
  clouddrive ghosts purge --min-age 48h --yes`,
	}

	var asJSON bool
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List ghost objects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGhostsList(cmd.OutOrStdout(), asJSON)
		},
	}
	listCmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	ghostsCmd.AddCommand(listCmd)

	var (
		minAge time.Duration
		yes    bool
	)
	purgeCmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete ghost objects older than --min-age",
		Long: `Delete ghost objects last modified before --min-age ago.

Without --yes the purge only reports what it would delete. Young ghosts
are kept because an upload writes its object before its record.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGhostsPurge(cmd.OutOrStdout(), minAge, yes)
		},
	}
	purgeCmd.Flags().DurationVar(&minAge, "min-age", 0, "minimum object age (default reconcile.min_object_age)")
	purgeCmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without the preview")
	ghostsCmd.AddCommand(purgeCmd)

	return ghostsCmd
}

func runGhostsList(out io.Writer, asJSON bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	c, err := config.InitializeComponents(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	report, err := c.Reconciler.GhostObjects(ctx)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(out, report)
	}

	if report.Count == 0 {
		_, _ = fmt.Fprintln(out, "No ghost objects found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tSIZE\tLAST MODIFIED")
	for _, info := range report.Objects {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.Format(time.RFC3339))
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "\n%d ghost object(s), %d bytes", report.Count, report.Bytes)
	if report.Truncated {
		_, _ = fmt.Fprintf(out, " (showing %d)", len(report.Objects))
	}
	_, _ = fmt.Fprintln(out)
	return nil
}

func runGhostsPurge(out io.Writer, minAge time.Duration, yes bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !yes {
		cfg.Reconcile.DryRun = true
	}

	ctx, cancel := commandContext()
	defer cancel()

	c, err := config.InitializeComponents(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	stats, err := c.Reconciler.PurgeGhostObjects(ctx, minAge)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, stats.Summary())
	if stats.DryRun && stats.Ghosts > stats.SkippedRecent {
		_, _ = fmt.Fprintln(out, "Re-run with --yes to delete.")
	}
	return nil
}

// commandContext is cancelled on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
