package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/propfolio/propfolio/internal/config"
	"github.com/propfolio/propfolio/internal/repository"
	"github.com/propfolio/propfolio/internal/service"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Session maintenance commands",
	}
	cmd.AddCommand(sessionsCleanupCmd())
	return cmd
}

// sessionsCleanupCmd deletes expired and revoked session rows. Meant to
// be run from cron or a scheduler in deployments that prefer external
// sweeps over the in-process ticker.
func sessionsCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired session records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			db, err := repository.Open(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			sessions := service.NewSessionService(repository.NewSessionRepository(db), cfg.SessionPepper, cfg.SessionTTL)
			deleted, err := sessions.CleanupExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("deleted %d expired sessions\n", deleted)
			return nil
		},
	}
}
