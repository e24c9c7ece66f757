package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/propfolio/propfolio/internal/config"
	"github.com/propfolio/propfolio/internal/repository"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			db, err := repository.Open(cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			if err := repository.Migrate(db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			fmt.Println("migrations applied")
			return nil
		},
	}
}
