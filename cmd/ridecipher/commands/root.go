package commands

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ridecipher/internal/relay"
)

var (
	gatewayURL string
	token      string
	client     *relay.HTTP
)

// Execute runs the root command.
func Execute() error {
	root := &cobra.Command{
		Use:           "ridecipher",
		Short:         "End-to-end encryption for ride location streams",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("RIDECIPHER_TOKEN")
			}
			if gatewayURL != "" {
				client = relay.NewHTTP(gatewayURL, &http.Client{Timeout: 10 * time.Second}).WithToken(token)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&gatewayURL, "gateway", "", "gateway base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&token, "token", "", "bearer token (default $RIDECIPHER_TOKEN)")

	root.AddCommand(serveCmd(), tokenCmd(), secretCmd(), selftestCmd(), demoCmd())
	return root.Execute()
}
