package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wkalt/treeviz/controller"
	"github.com/wkalt/treeviz/layout"
	"github.com/wkalt/treeviz/shell"
	"github.com/wkalt/treeviz/util/log"
)

var shellHistoryFile string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Drive the backend from an interactive shell",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ctrl := controller.New(newClient(), nil, layout.DefaultConfig())
		if err := ctrl.Refresh(ctx); err != nil {
			log.Warnw(ctx, "Initial refresh failed", "backend", backendURL, "error", err)
		}
		sh := shell.New(ctrl, os.Stdout, !color.NoColor)
		checkErr(sh.Run(ctx, shellHistoryFile))
	},
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".treeviz_history")
}

func init() {
	rootCmd.AddCommand(shellCmd)
	shellCmd.PersistentFlags().StringVarP(&shellHistoryFile, "history", "", defaultHistoryFile(), "history file")
}
