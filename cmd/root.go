package cmd

import "github.com/spf13/cobra"

var (
	rootCmd = &cobra.Command{
		Use:   "tracknet",
		Short: "Shipment tracking backend with live updates",
		Long:  `Tracknet is a logistics backend: shipment/branch/rate CRUD, single-session JWT auth, and topic-scoped live updates over SSE`,
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
