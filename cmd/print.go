package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wkalt/treeviz/snapshot"
	"github.com/wkalt/treeviz/treetext"
)

var (
	printInput   string
	printNoColor bool
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the tree as text",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		var snap *snapshot.Snapshot
		var err error
		if printInput != "" {
			snap, err = readSnapshot(printInput)
		} else {
			snap, err = newClient().Snapshot(ctx)
		}
		checkErr(err)
		out, err := treetext.NewPrinter(!printNoColor && !color.NoColor).Format(snap)
		checkErr(err)
		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(printCmd)
	printCmd.PersistentFlags().StringVarP(&printInput, "input", "i", "", "snapshot JSON file; the live backend is used if empty")
	printCmd.PersistentFlags().BoolVarP(&printNoColor, "no-color", "", false, "disable color output")
}
