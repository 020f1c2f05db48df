// Package seed implements the command that loads reference data from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"fjacquet/stmt-import/cmd/common"
	"fjacquet/stmt-import/cmd/root"
	"fjacquet/stmt-import/internal/container"
	"fjacquet/stmt-import/internal/fileutils"
	"fjacquet/stmt-import/internal/store"

	"github.com/spf13/cobra"
)

var fromDir string

// Cmd represents the seed command
var Cmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace accounts, categories and payees with the YAML files of a directory",
	Long: `Read accounts.yaml, categories.yaml and payees.yaml from --from and write
them to the configured store, replacing its reference data. Imported
transactions are left untouched.

Example:
  stmt-import seed --from ./fixtures --config sqlite.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := common.RequireContainer(root.GetContainer())
		if err != nil {
			return err
		}
		return Run(cmd.Context(), c, fromDir)
	},
}

func init() {
	Cmd.Flags().StringVarP(&fromDir, "from", "f", "", "Directory holding the YAML reference files")
	_ = Cmd.MarkFlagRequired("from")
}

// Run seeds the container's store from the YAML files in dir.
func Run(ctx context.Context, c *container.Container, dir string) error {
	if !fileutils.DirectoryExists(dir) {
		return fmt.Errorf("seed directory %s does not exist", dir)
	}

	dst := c.GetStore()
	if fs, ok := dst.(*store.FileStore); ok && sameDir(fs.Dir(), dir) {
		return errors.New("seed directory is the store directory")
	}

	src := store.NewFileStore(dir, c.GetLogger())
	defer func() { _ = src.Close() }()
	return store.Seed(ctx, src, dst, c.GetLogger())
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
