// Package payees implements the command that lists an owner's payee mappings.
package payees

import (
	"context"
	"fmt"
	"io"

	"fjacquet/stmt-import/cmd/common"
	"fjacquet/stmt-import/cmd/root"
	"fjacquet/stmt-import/internal/categorizer"
	"fjacquet/stmt-import/internal/container"
	"fjacquet/stmt-import/internal/models"

	"github.com/spf13/cobra"
)

// Options are the payees command flags.
type Options struct {
	OwnerID  int64
	Unmapped bool
}

var opts Options

// Cmd represents the payees command
var Cmd = &cobra.Command{
	Use:   "payees",
	Short: "List an owner's payee mappings",
	Long: `List the payee mappings of an owner with their categories.

With --unmapped only mappings still filed under the N/A category are shown;
these are the payees staged by imports that still need a category.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := common.RequireContainer(root.GetContainer())
		if err != nil {
			return err
		}
		return Run(cmd.Context(), c, opts, cmd.OutOrStdout())
	},
}

func init() {
	Cmd.Flags().Int64Var(&opts.OwnerID, "owner", 0, "Owner id")
	Cmd.Flags().BoolVar(&opts.Unmapped, "unmapped", false, "Only show payees still on the N/A category")
	_ = Cmd.MarkFlagRequired("owner")
}

// Run prints the selected mappings of the owner to out.
func Run(ctx context.Context, c *container.Container, o Options, out io.Writer) error {
	st := c.GetStore()

	categories, err := st.LoadCategories(ctx, o.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	subs, err := st.LoadSubCategories(ctx, o.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to load subcategories: %w", err)
	}
	mappings, err := st.LoadPayeeMappings(ctx, o.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to load payee mappings: %w", err)
	}

	var naID int64
	if o.Unmapped {
		cats, err := categorizer.ResolveSingletons(o.OwnerID, categories, subs)
		if err != nil {
			return err
		}
		naID = cats.NA
	}

	names := categoryNames(categories, subs)
	shown := 0
	tbl := common.NewTable(out, "ID", "Original", "Destination", "Alias", "Keywords", "Category", "Type")
	for _, m := range mappings {
		if o.Unmapped && m.CategoryID != naID {
			continue
		}
		tbl.Row(m.ID, m.DestinationOriginal, m.Destination,
			common.Placeholder(m.Alias, "-"),
			common.Placeholder(m.Keywords, "-"),
			names.label(m.CategoryID, m.SubCategoryID),
			m.CategoryType)
		shown++
	}
	if err := tbl.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%d of %d payees\n", shown, len(mappings))
	return err
}

type nameIndex struct {
	categories map[int64]string
	subs       map[int64]string
}

func categoryNames(categories []models.Category, subs []models.SubCategory) nameIndex {
	idx := nameIndex{categories: make(map[int64]string), subs: make(map[int64]string)}
	for _, c := range categories {
		idx.categories[c.ID] = c.Name
	}
	for _, s := range subs {
		idx.subs[s.ID] = s.Name
	}
	return idx
}

func (n nameIndex) label(categoryID, subID int64) string {
	cat, ok := n.categories[categoryID]
	if !ok {
		cat = fmt.Sprintf("#%d", categoryID)
	}
	if sub, ok := n.subs[subID]; ok {
		return cat + " / " + sub
	}
	return cat
}
