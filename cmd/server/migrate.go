package main

import (
	"fmt"
	"log"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"riceMarketplace/internal/db"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect or roll back schema migrations",
	}
	cmd.AddCommand(newMigrateStatusCommand())
	cmd.AddCommand(newMigrateRollbackCommand())
	return cmd
}

func newMigrateStatusCommand() *cobra.Command {
	flags := newConfigFlags()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Apply pending migrations and list every migration with its state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			d, err := db.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer d.Close()
			st, err := db.Status(d)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range st {
				state := "pending"
				if m.Applied {
					state = "applied " + m.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(out, "%04d_%s\t%s\n", m.Version, m.Name, state)
			}
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newMigrateRollbackCommand() *cobra.Command {
	flags := newConfigFlags()
	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back the most recently applied migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			d, err := db.Open(cfg.Database.Path)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer d.Close()
			if err := db.RollbackLast(d); err != nil {
				return fmt.Errorf("rollback: %w", err)
			}
			v, err := db.CurrentVersion(d)
			if err != nil {
				return err
			}
			log.Printf("rolled back; schema version is now %d", v)
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
