package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/clinicheck/clinicheck_backend/cmd/http"
	systemcmd "github.com/clinicheck/clinicheck_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "clinicheck",
	Short: "CliniCheck backend for clinic patient follow-up.",
	Long: `CliniCheck is the backend of a clinic patient follow-up platform.
It serves the staff dashboard and the patient mobile app: appointments,
patients, clinicians, surveys and survey responses.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
