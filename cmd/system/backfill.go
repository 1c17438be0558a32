package system

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicheck/clinicheck_backend/internal/app"
	"github.com/clinicheck/clinicheck_backend/internal/service/appointment"
	"github.com/clinicheck/clinicheck_backend/internal/service/identity"
	"github.com/clinicheck/clinicheck_backend/internal/service/notification"
)

func NewBackfillCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Set medicoId on appointments that only carry a clinician uid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			store, err := app.OpenStore(cmd.Context(), nil, cfg)
			if err != nil {
				return err
			}

			apptCfg, err := appointment.FromCentralConfig(cfg)
			if err != nil {
				return err
			}
			resolver := identity.New(store, identity.Config{FailClosed: cfg.Authorization.FailClosed})
			svc := appointment.New(store, resolver, notification.New(nil, 0), apptCfg)

			n, err := svc.BackfillClinicianIDs(cmd.Context())
			if err != nil {
				return fmt.Errorf("backfill failed after %d updates: %w", n, err)
			}
			fmt.Printf("Updated %d appointments.\n", n)
			return nil
		},
	}

	return cmd
}
