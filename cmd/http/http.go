package http

import "github.com/spf13/cobra"

// NewHTTPCommand groups the commands that run the CliniCheck API.
func NewHTTPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Run the CliniCheck HTTP API",
		Long:  "Commands for the dashboard and patient-app API served over HTTP.",
	}

	cmd.AddCommand(NewStartCommand())

	return cmd
}
