package system

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clinicheck/clinicheck_backend/internal/schema"
	"github.com/clinicheck/clinicheck_backend/pkg/awsclient"
	"github.com/clinicheck/clinicheck_backend/pkg/constants"
	"github.com/clinicheck/clinicheck_backend/pkg/database"
	"github.com/clinicheck/clinicheck_backend/pkg/docstore"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the document store tables",
		Long: `Create the tables backing every collection.

For the postgres driver this creates the documents table and its indexes.
For the dynamodb driver it creates one table per collection, named with
store.table_prefix. The memory driver needs nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			if timeout <= 0 {
				timeout = time.Minute
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			switch strings.ToLower(cfg.Store.Driver) {
			case constants.StoreDriverPostgres:
				fmt.Println("Running migrations for the postgres store.")
				pool, err := database.NewPoolFromCentral(ctx, cfg.Database)
				if err != nil {
					return err
				}
				defer pool.Close()

				if err := docstore.NewPostgres(pool).EnsureSchema(ctx); err != nil {
					return fmt.Errorf("failed to run migrations: %w", err)
				}

			case constants.StoreDriverDynamoDB:
				fmt.Println("Creating dynamodb tables.")
				awsCfg, err := awsclient.LoadConfig(ctx, cfg.AWS)
				if err != nil {
					return err
				}
				created, err := docstore.EnsureDynamoTables(ctx, awsclient.NewDynamoDB(awsCfg), cfg.Store.TablePrefix, schema.Collections())
				if err != nil {
					return fmt.Errorf("failed to create tables: %w", err)
				}
				for _, name := range created {
					fmt.Printf("  created %s\n", name)
				}

			default:
				fmt.Printf("Store driver %q needs no migrations.\n", cfg.Store.Driver)
				return nil
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	return cmd
}
