package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/wkalt/treeviz/service"
	"github.com/wkalt/treeviz/util/log"
)

var (
	servePort               int
	serveCacheSizeMegabytes int64
	serveAllowedOrigins     []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interactive viewer",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		level, err := log.ParseLevel(logLevel)
		checkErr(err)
		svc := service.NewViewerService()
		if err := svc.Start(ctx,
			service.WithPort(servePort),
			service.WithBackendURL(backendURL),
			service.WithLogLevel(level),
			service.WithFrameCacheSizeMegabytes(serveCacheSizeMegabytes),
			service.WithAllowedOrigins(serveAllowedOrigins),
		); err != nil {
			bailf("Viewer error: %s", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.PersistentFlags().IntVarP(&servePort, "port", "p", 8080, "port to listen on")
	serveCmd.PersistentFlags().Int64VarP(&serveCacheSizeMegabytes, "cache-size", "", 64, "rendered frame cache size in megabytes")
	serveCmd.PersistentFlags().StringSliceVarP(&serveAllowedOrigins, "allowed-origins", "", []string{
		"http://localhost:5000",
		"http://localhost:8080",
	}, "origins allowed to make cross-origin requests")
}
