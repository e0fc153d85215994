package main

import (
	"fmt"

	"xweeter/internal/middleware"
	"xweeter/internal/seed"

	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	opts := seed.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake users, xweets, replies and likes",
		Long: `seed inserts a deterministic fake data set. The same --seed value always
produces the same rows, which keeps pagination demos reproducible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db)

			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a %s database", cfg.Env)
			}

			sum, err := seed.Run(cmd.Context(), db, opts, middleware.Logger)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d users, %d xweets, %d replies, %d likes\n",
				sum.Users, sum.Xweets, sum.Replies, sum.Likes)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.NumUsers, "users", opts.NumUsers, "number of users")
	flags.IntVar(&opts.NumXweets, "xweets", opts.NumXweets, "number of xweets")
	flags.IntVar(&opts.RepliesPerXweet, "replies", opts.RepliesPerXweet, "replies per xweet")
	flags.IntVar(&opts.LikesPerXweet, "likes", opts.LikesPerXweet, "likes per xweet, capped at the user count")
	flags.IntVar(&opts.MaxDays, "days", opts.MaxDays, "spread creation times over this many past days")
	flags.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	flags.BoolVar(&opts.ShouldClean, "clean", false, "delete existing rows first")

	return cmd
}
