package main

import (
	"fmt"
	"strconv"
	"strings"

	"xweeter/internal/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := database.RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed successfully")
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "auto",
		Short: "Sync tables from the models with GORM AutoMigrate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db)

			autoCfg := *cfg
			autoCfg.DBSchemaMode = database.SchemaModeAuto
			if err := database.ApplySchema(cmd.Context(), db, &autoCfg); err != nil {
				return fmt.Errorf("auto-migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Auto-migration completed successfully")
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the schema policy and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db)

			status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
			if err != nil {
				return fmt.Errorf("failed to get schema status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Schema mode:      %s\n", status.Mode)
			fmt.Fprintf(out, "Environment:      %s\n", status.Environment)
			if status.Mode == database.SchemaModeSQL {
				applied := make([]string, 0, len(status.AppliedVersions))
				for _, v := range status.AppliedVersions {
					applied = append(applied, strconv.Itoa(v))
				}
				fmt.Fprintf(out, "Applied versions: %s\n", strings.Join(applied, ", "))
				if len(status.PendingMigrations) == 0 {
					fmt.Fprintln(out, "No pending migrations")
				} else {
					fmt.Fprintln(out, "Pending migrations:")
					for _, m := range status.PendingMigrations {
						fmt.Fprintf(out, "  %s\n", m.String())
					}
				}
			}

			fmt.Fprintln(out, "Tables:")
			for _, ts := range status.Tables {
				if !ts.Exists {
					fmt.Fprintf(out, "  %-8s missing\n", ts.Name)
					continue
				}
				fmt.Fprintf(out, "  %-8s %d rows\n", ts.Name, ts.Rows)
			}
			return nil
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down [version]",
		Short: "Roll back one migration, the latest when no version is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var version int
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v <= 0 {
					return fmt.Errorf("invalid migration version %q", args[0])
				}
				version = v
			}

			_, db, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db)

			if version > 0 {
				if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rolled back migration %d\n", version)
				return nil
			}

			m, err := database.RollbackLatest(cmd.Context(), db)
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			if m == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No applied migrations to roll back")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %s\n", m.String())
			return nil
		},
	})

	return migrateCmd
}
