package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lachlan2k/rta-portal/internal/csvexport"
	"github.com/lachlan2k/rta-portal/internal/tui"
	"github.com/lachlan2k/rta-portal/internal/views"
)

func newAuditCmd(opts *rootOptions) *cobra.Command {
	var exportDir string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Browse the audit log",
		Long: `Browse the audit log in the terminal. Typing searches user, action and IP
once you pause; tab cycles the role filter and e exports the filtered rows.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.open(cmd)
			if err != nil {
				return err
			}
			entries, err := p.views.AuditLogs(commandContext(cmd))
			if err != nil {
				return friendly(err)
			}
			return tui.RunAudit(entries, tui.AuditOptions{
				Debounce:  p.conf.SearchDebounce(),
				PageSize:  p.conf.Audit.PageSize,
				ExportDir: exportDir,
			})
		},
	}

	cmd.Flags().StringVar(&exportDir, "dir", ".", "Directory exports are written to")
	return cmd
}

// exporter fetches one report and writes it as CSV, returning the file path
type exporter func(ctx context.Context, v *views.Service, dir string, now time.Time) (string, error)

type exportFilters struct {
	year   string
	role   string
	search string
	status string
}

func exporters(f *exportFilters) map[string]exporter {
	return map[string]exporter{
		"audit": func(ctx context.Context, v *views.Service, dir string, now time.Time) (string, error) {
			entries, err := v.AuditLogs(ctx)
			if err != nil {
				return "", err
			}
			entries = views.FilterAudit(entries, views.AuditQuery{Role: f.role, Search: f.search})
			return csvexport.SaveFile(dir, "audit_logs", views.AuditColumns, entries, now)
		},
		"reconciliation": func(ctx context.Context, v *views.Service, dir string, now time.Time) (string, error) {
			txns, err := v.Reconciliation(ctx)
			if err != nil {
				return "", err
			}
			txns = views.FilterTransactions(txns, views.TransactionQuery{Status: f.status, Search: f.search})
			return csvexport.SaveFile(dir, "reconciliation", views.ReconciliationColumns, txns, now)
		},
		"capital-gains": func(ctx context.Context, v *views.Service, dir string, now time.Time) (string, error) {
			gains, err := v.CapitalGains(ctx, f.year)
			if err != nil {
				return "", err
			}
			return csvexport.SaveFile(dir, "capital-gains", views.CapitalGainColumns, gains, now)
		},
		"cas": func(ctx context.Context, v *views.Service, dir string, _ time.Time) (string, error) {
			st, err := v.CASStatement(ctx, f.year)
			if err != nil {
				return "", err
			}
			path := filepath.Join(dir, st.Filename)
			if err := os.WriteFile(path, st.Body, 0o644); err != nil {
				return "", fmt.Errorf("write CAS statement: %w", err)
			}
			return path, nil
		},
		"valuation": func(ctx context.Context, v *views.Service, dir string, now time.Time) (string, error) {
			holdings, err := v.ValuationReport(ctx)
			if err != nil {
				return "", err
			}
			return csvexport.SaveFile(dir, "valuation-report", views.ValuationColumns, holdings, now)
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		dir     string
		filters exportFilters
	)
	reports := exporters(&filters)
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd := &cobra.Command{
		Use:   "export <report>",
		Short: "Download a report",
		Long: `Download a report into --dir. Tables are written as CSV named
<report>_YYYY-MM-DD.csv; cas saves the consolidated account statement
workbook as CAS_<year>.xlsx.

Reports: ` + strings.Join(names, ", ") + `

Example:
  rta-portal export audit --role Admin --search login
  rta-portal export capital-gains --year 2023-24
  rta-portal export cas --year 2024-25`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.open(cmd)
			if err != nil {
				return err
			}

			path, err := reports[args[0]](commandContext(cmd), p.views, dir, time.Now())
			if err != nil {
				return friendly(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write the CSV to")
	cmd.Flags().StringVar(&filters.year, "year", views.DefaultFinancialYear, "Financial year, for capital-gains and cas")
	cmd.Flags().StringVar(&filters.role, "role", views.FilterAll, "Role filter, for audit")
	cmd.Flags().StringVar(&filters.status, "status", views.FilterAll, "Status filter, for reconciliation")
	cmd.Flags().StringVar(&filters.search, "search", "", "Search filter, for audit and reconciliation")
	return cmd
}
