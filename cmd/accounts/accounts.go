// Package accounts implements the command that lists the configured accounts.
package accounts

import (
	"context"
	"fmt"
	"io"

	"fjacquet/stmt-import/cmd/common"
	"fjacquet/stmt-import/cmd/root"
	"fjacquet/stmt-import/internal/container"
	"fjacquet/stmt-import/internal/dateutils"

	"github.com/spf13/cobra"
)

var ownerID int64

// Cmd represents the accounts command
var Cmd = &cobra.Command{
	Use:   "accounts",
	Short: "List accounts with their provider, source path and last import date",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := common.RequireContainer(root.GetContainer())
		if err != nil {
			return err
		}
		return Run(cmd.Context(), c, ownerID, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.Flags().Int64Var(&ownerID, "owner", 0, "Only list accounts of this owner")
}

// Run prints the accounts of owner, or of every owner when owner is 0.
func Run(ctx context.Context, c *container.Container, owner int64, out io.Writer) error {
	accounts, err := c.GetStore().LoadAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}

	tbl := common.NewTable(out, "ID", "Owner", "Name", "Provider", "Source", "Last import")
	for _, a := range accounts {
		if owner != 0 && a.OwnerID != owner {
			continue
		}
		tbl.Row(a.ID, a.OwnerID, common.Placeholder(a.Name, "-"), a.Provider, a.Path(),
			dateutils.FormatCursor(a.LastImportDate))
	}
	return tbl.Flush()
}
