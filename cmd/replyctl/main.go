// Command replyctl manages the xweeter database: schema migrations and fake data.
package main

import (
	"context"
	"fmt"
	"os"

	"xweeter/internal/bootstrap"
	"xweeter/internal/config"
	"xweeter/internal/middleware"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// Version can be set at build time using ldflags.
var Version = "dev"

// openRuntime loads config and connects to the database. Tests swap it for sqlite.
var openRuntime = func(ctx context.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SkipRedis: true}, middleware.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "replyctl",
		Short: "Administer the xweeter replies database",
		Long: `replyctl applies and rolls back the embedded SQL migrations, reports schema
status and fills a development database with fake users, xweets, replies and likes.`,
		SilenceUsage: true,
	}

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "replyctl version %s\n", Version)
		},
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
