// Command oas-auditor checks OAS-CAHPS survey submission workbooks and
// writes an HTML report for each one.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/garyjia/oas-auditor/internal/audit"
	"github.com/garyjia/oas-auditor/internal/headerfooter"
	httpapi "github.com/garyjia/oas-auditor/internal/interfaces/http"
	"github.com/garyjia/oas-auditor/internal/models"
	"github.com/garyjia/oas-auditor/internal/storage"
	"github.com/garyjia/oas-auditor/pkg/database"
)

var version = "1.0.0"

// Exit codes
const (
	exitOK        = 0
	exitError     = 1
	exitAuditFail = 2
)

// exitCodeError carries a non-zero exit status out of a command
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string {
	return e.msg
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		fmt.Fprintln(stderr, exitErr.msg)
		return exitErr.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return exitError
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "oas-auditor",
		Short:         "Audit OAS-CAHPS survey submission workbooks",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default: "+defaultConfigPath+" when present)")

	rootCmd.AddCommand(auditCmd(&configPath))
	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(historyCmd(&configPath))
	rootCmd.AddCommand(reportsCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))

	return rootCmd
}

func auditCmd(configPath *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "audit <file.xlsx> | --all [dir]",
		Short: "Audit one workbook, or every workbook in a directory",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.MaximumNArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			var outcomes []*audit.Outcome
			if all {
				dir := "."
				if len(args) == 1 {
					dir = args[0]
				}
				outcomes, err = a.service.AuditDir(cmd.Context(), dir)
				if err != nil {
					return err
				}
				if len(outcomes) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "--- No .xlsx files found in %s\n", dir)
				}
			} else {
				if _, err := os.Stat(args[0]); err != nil {
					return fmt.Errorf("file not found: %s", args[0])
				}
				outcome, err := a.service.AuditFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				outcomes = append(outcomes, outcome)
			}

			failed := 0
			for _, outcome := range outcomes {
				printOutcome(cmd.OutOrStdout(), outcome)
				if outcome.Failed() {
					failed++
				}
			}
			if failed > 0 {
				return &exitCodeError{code: exitAuditFail, msg: fmt.Sprintf("%d of %d audits could not run", failed, len(outcomes))}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Audit every .xlsx file in the directory (default: current directory)")

	return cmd
}

func printOutcome(w io.Writer, outcome *audit.Outcome) {
	switch {
	case outcome.Failed() && outcome.ReportPath != "":
		fmt.Fprintf(w, "--- Audit could not run on %s! Information saved to %s\n", outcome.Path, outcome.ReportPath)
	case outcome.Failed():
		fmt.Fprintf(w, "--- Audit could not run on %s: %v\n", outcome.Path, outcome.Err)
	default:
		fmt.Fprintf(w, "--- Audit complete (%d issues). Report saved to %s\n", len(outcome.Result.Issues), outcome.ReportPath)
	}
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the audit HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			var history httpapi.HistoryReader
			if a.history != nil {
				history = a.history
			}

			server := httpapi.NewServer(httpapi.ServerConfig{
				Host:           a.cfg.Server.Host,
				Port:           a.cfg.Server.Port,
				ReadTimeout:    a.cfg.Server.ReadTimeout,
				WriteTimeout:   a.cfg.Server.WriteTimeout,
				MaxUploadBytes: a.cfg.Server.MaxUploadBytes(),
				Version:        version,
			}, a.service, history, a.logger)

			a.logger.Info("Starting OAS-CAHPS auditor",
				zap.String("version", version),
				zap.String("address", server.Address()))

			return server.Start(cmd.Context())
		},
	}
}

func historyCmd(configPath *string) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent audit runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("invalid format: %s (must be table, json, or yaml)", format)
			}

			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if a.history == nil {
				return fmt.Errorf("audit history is disabled (database.enabled is false)")
			}

			runs, err := a.history.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeRuns(cmd.OutOrStdout(), runs, format)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json, yaml")

	return cmd
}

func reportsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reports [dir]",
		Short: "List the reports saved under a directory (default: report.output_dir, else current directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			base := a.cfg.Report.OutputDir
			if len(args) == 1 {
				base = args[0]
			}
			if base == "" {
				base = "."
			}

			folders := storage.NewFolderManager(base, a.logger)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STATUS\tREPORT")
			total := 0
			for _, failed := range []bool{false, true} {
				reports, err := folders.ListReports(failed)
				if err != nil {
					return err
				}
				status := models.RunStatusCompleted
				if failed {
					status = models.RunStatusFailed
				}
				for _, report := range reports {
					fmt.Fprintf(tw, "%s\t%s\n", status, report)
				}
				total += len(reports)
			}
			if total == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "--- No reports found under %s\n", folders.ReportFolderPath(false))
				return nil
			}
			return tw.Flush()
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending history schema migrations and show their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			if a.db == nil {
				return fmt.Errorf("audit history is disabled (database.enabled is false)")
			}

			statuses, err := database.NewMigrator(a.db, a.logger).Status(cmd.Context(), database.Migrations())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database: %s\n", a.db.Path())
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED")
			for _, st := range statuses {
				applied := "pending"
				if st.AppliedAt != nil {
					applied = st.AppliedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(tw, "%03d\t%s\t%s\n", st.Version, st.Name, applied)
			}
			return tw.Flush()
		},
	}
}

// runRow is the printed form of a run
type runRow struct {
	AuditID   string `json:"audit_id" yaml:"audit_id"`
	File      string `json:"file" yaml:"file"`
	Status    string `json:"status" yaml:"status"`
	Client    string `json:"client,omitempty" yaml:"client,omitempty"`
	Site      string `json:"site,omitempty" yaml:"site,omitempty"`
	Issues    int    `json:"issues" yaml:"issues"`
	StartedAt string `json:"started_at" yaml:"started_at"`
	Report    string `json:"report,omitempty" yaml:"report,omitempty"`
	Reason    string `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`
}

func writeRuns(w io.Writer, runs []*models.AuditRun, format string) error {
	rows := make([]runRow, 0, len(runs))
	for _, run := range runs {
		site, _ := headerfooter.DecodeSiteCode(run.AuditID)
		rows = append(rows, runRow{
			AuditID:   run.AuditID,
			File:      run.FileName,
			Status:    run.Status,
			Client:    run.ClientName,
			Site:      site,
			Issues:    run.IssueCount,
			StartedAt: run.StartedAt.Format("2006-01-02 15:04:05"),
			Report:    run.ReportPath,
			Reason:    run.FailureReason,
		})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "AUDIT ID\tFILE\tSITE\tSTATUS\tISSUES\tSTARTED")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", row.AuditID, row.File, row.Site, row.Status, row.Issues, row.StartedAt)
	}
	return tw.Flush()
}
