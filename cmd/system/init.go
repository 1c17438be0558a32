package system

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinicheck/clinicheck_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the postgres databases used by the postgres store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			fmt.Println("Initializing databases...")
			created, err := database.InitializeDatabases(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize databases: %w", err)
			}
			for _, name := range created {
				fmt.Printf("  created %s\n", name)
			}
			fmt.Println("Databases initialized successfully.")
			return nil
		},
	}

	return cmd
}
