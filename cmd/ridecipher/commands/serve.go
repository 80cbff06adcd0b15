package commands

import (
	"github.com/spf13/cobra"

	"ridecipher/internal/app"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the encryption gateway",
		Long: "Run the encryption gateway until SIGINT or SIGTERM.\n\n" +
			"Settings come from RIDECIPHER_* environment variables and an optional .env file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run()
		},
	}
}
