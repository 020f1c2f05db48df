// Package load implements the command that runs the import pipeline.
package load

import (
	"context"
	"errors"
	"fmt"
	"io"

	cli "fjacquet/stmt-import/cmd/common"
	"fjacquet/stmt-import/cmd/root"
	"fjacquet/stmt-import/internal/common"
	"fjacquet/stmt-import/internal/container"
	"fjacquet/stmt-import/internal/dateutils"
	"fjacquet/stmt-import/internal/importer"
	"fjacquet/stmt-import/internal/logging"
	"fjacquet/stmt-import/internal/models"

	"github.com/spf13/cobra"
)

// Options are the load command flags.
type Options struct {
	OwnerID    int64
	AccountIDs []int64
	Mode       string
	Start      string
	End        string
	ExportPath string
	DryRun     bool
}

var opts Options

// Cmd represents the load command
var Cmd = &cobra.Command{
	Use:   "load",
	Short: "Import new statement rows for the configured accounts",
	Long: `Import statement exports for every configured account, or a subset.

In incremental mode (the default) only rows dated after each account's last
import date are taken. Range mode takes rows between --start and --end
inclusive and ignores the cursor.

Examples:
  stmt-import load
  stmt-import load --owner 1 --mode range --start 2024-01-01 --end 2024-01-31
  stmt-import load --account 3 --dry-run --export january.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cli.RequireContainer(root.GetContainer())
		if err != nil {
			return err
		}
		return Run(cmd.Context(), c, opts, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.Flags().Int64Var(&opts.OwnerID, "owner", 0, "Only import accounts of this owner")
	Cmd.Flags().Int64SliceVar(&opts.AccountIDs, "account", nil, "Only import these account ids")
	Cmd.Flags().StringVar(&opts.Mode, "mode", "", "Window mode: incremental or range (default from import.mode)")
	Cmd.Flags().StringVar(&opts.Start, "start", "", "Range start date YYYY-MM-DD (inclusive)")
	Cmd.Flags().StringVar(&opts.End, "end", "", "Range end date YYYY-MM-DD (inclusive)")
	Cmd.Flags().StringVarP(&opts.ExportPath, "export", "e", "", "Also write the resolved transactions to this CSV file")
	Cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Resolve everything but save nothing")
}

// WindowSpec builds the window from the flags. Giving --start or --end
// without --mode selects range mode.
func (o Options) WindowSpec(defaultMode models.WindowMode) (models.WindowSpec, error) {
	start, err := dateutils.ParseISODate(o.Start)
	if err != nil {
		return models.WindowSpec{}, fmt.Errorf("--start: %w", err)
	}
	end, err := dateutils.ParseISODate(o.End)
	if err != nil {
		return models.WindowSpec{}, fmt.Errorf("--end: %w", err)
	}

	mode := defaultMode
	switch {
	case o.Mode != "":
		if mode, err = models.ParseWindowMode(o.Mode); err != nil {
			return models.WindowSpec{}, err
		}
	case start != nil || end != nil:
		mode = models.WindowRange
	}

	if mode != models.WindowRange && (start != nil || end != nil) {
		return models.WindowSpec{}, errors.New("--start and --end require --mode range")
	}
	if start != nil && end != nil && start.After(*end) {
		return models.WindowSpec{}, fmt.Errorf("--start %s is after --end %s", o.Start, o.End)
	}
	return models.WindowSpec{Mode: mode, Start: start, End: end}, nil
}

// SelectAccounts applies the owner and account filters.
func (o Options) SelectAccounts(accounts []models.Account) []models.Account {
	wanted := make(map[int64]bool, len(o.AccountIDs))
	for _, id := range o.AccountIDs {
		wanted[id] = true
	}
	var out []models.Account
	for _, a := range accounts {
		if o.OwnerID != 0 && a.OwnerID != o.OwnerID {
			continue
		}
		if len(wanted) > 0 && !wanted[a.ID] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Run executes the load command against c and prints a summary to out.
func Run(ctx context.Context, c *container.Container, o Options, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := c.GetLogger()
	cfg := c.GetConfig()

	spec, err := o.WindowSpec(cfg.WindowMode())
	if err != nil {
		return err
	}

	all, err := c.GetStore().LoadAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	accounts := o.SelectAccounts(all)
	if len(accounts) == 0 {
		logger.Warn("No accounts match the selection",
			logging.Field{Key: logging.FieldOwnerID, Value: o.OwnerID},
			logging.Field{Key: "accounts", Value: o.AccountIDs})
		return nil
	}

	var res importer.Result
	if o.DryRun {
		res = c.GetImporter().Run(ctx, accounts, spec)
	} else {
		res = c.GetImporter().RunAndSave(ctx, accounts, spec, c.GetStore())
	}

	if o.ExportPath != "" {
		delim := common.ParseDelimiter(cfg.CSV.Delimiter)
		if err := common.ExportTransactionsToFile(o.ExportPath, res.Transactions(), delim, logger); err != nil {
			return fmt.Errorf("failed to export transactions: %w", err)
		}
	}

	printSummary(out, res, o.DryRun)
	return res.Err()
}

func printSummary(out io.Writer, res importer.Result, dryRun bool) {
	verb := "saved"
	if dryRun {
		verb = "resolved (dry run)"
	}
	_, _ = fmt.Fprintf(out, "Run %s\n", res.RunID)
	for _, o := range res.Owners {
		if o.Err != nil {
			_, _ = fmt.Fprintf(out, "owner %d: failed: %v\n", o.OwnerID, o.Err)
			continue
		}
		_, _ = fmt.Fprintf(out, "owner %d: %d transactions, %d new payees %s\n",
			o.OwnerID, len(o.Batch.Transactions), len(o.Batch.NewPayees), verb)
		for _, cur := range o.Batch.Cursors {
			_, _ = fmt.Fprintf(out, "  account %d: last import date %s\n", cur.AccountID, dateutils.ToISODate(cur.LastImportDate))
		}
		for _, f := range o.Failures {
			_, _ = fmt.Fprintf(out, "  account %d: failed: %v\n", f.AccountID, f.Err)
		}
	}
}
