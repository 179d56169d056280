package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wkalt/treeviz/client"
	"github.com/wkalt/treeviz/util/log"
)

var (
	backendURL string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "treeviz",
	Short: "Visual debugger for a B-tree backend",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			bailf("%s", err)
		}
		log.Init(os.Stderr, level)
	},
}

// Execute runs the command line.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func bailf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func checkErr(err error) {
	if err != nil {
		bailf("error: %v", err)
	}
}

func newClient() *client.Client {
	return client.New(backendURL)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&backendURL, "backend-url", "", "http://localhost:5000", "base URL of the tree backend")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "info", "log level (debug, info, warn, error)")
}
