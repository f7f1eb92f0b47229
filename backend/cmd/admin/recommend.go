package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"tv-recommender/backend/internal/recommend"
)

func recommendCommand() *cli.Command {
	return &cli.Command{
		Name:      "recommend",
		Usage:     "Print recommendations for a user, one section per strategy",
		ArgsUsage: "<user-id>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "candidates per strategy",
				Value: 10,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			userID := cmd.Args().First()
			if userID == "" {
				return fmt.Errorf("usage: recommend <user-id>")
			}

			repo, err := connect(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			engine := recommend.NewEngine(repo)
			all, err := engine.All(ctx, userID, int(cmd.Int("limit")))
			if err != nil {
				return err
			}

			for _, strategy := range []string{"genre", "collaborative", "actor", "hybrid"} {
				recs := all[strategy]
				fmt.Printf("%s (%d):\n", strategy, len(recs))
				for _, rec := range recs {
					fmt.Printf("  %6.1f  %s\n", rec.Score, rec.Title)
				}
			}
			return nil
		},
	}
}
