// Package main provides the graph administration CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"tv-recommender/backend/internal/graph"
	"tv-recommender/backend/pkg/config"
	"tv-recommender/backend/pkg/logger"
)

var version = "dev"

func main() {
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := &cli.Command{
		Name:    "graphadmin",
		Version: version,
		Usage:   "Administer the series recommendation graph",
		Commands: []*cli.Command{
			initCommand(),
			importCommand(),
			clearCommand(),
			syncCommand(),
			recommendCommand(),
			statsCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// connect loads configuration and opens a verified Neo4j connection.
// Callers must Close the repository.
func connect(ctx context.Context) (*graph.Repository, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create uniqueness constraints and indexes",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo, err := connect(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}
			logger.Get().Info("Schema initialized")
			fmt.Println("Schema initialized")
			return nil
		},
	}
}

func clearCommand() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete every node and relationship in the graph",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "confirm",
				Usage: "acknowledge that all graph data will be destroyed",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if !cmd.Bool("confirm") {
				return fmt.Errorf("refusing to clear the graph without --confirm")
			}

			repo, err := connect(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			if err := repo.Clear(ctx); err != nil {
				return err
			}
			logger.Get().Warn("Graph cleared")
			fmt.Println("Graph cleared")
			return nil
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Print node and relationship counts plus the most rated series",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo, err := connect(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			nodes, err := repo.CountNodesByLabel(ctx)
			if err != nil {
				return err
			}
			rels, err := repo.CountRelationshipsByType(ctx)
			if err != nil {
				return err
			}

			fmt.Println("Nodes:")
			for _, label := range graph.SortedLabels(nodes) {
				fmt.Printf("  %-10s %d\n", label, nodes[label])
			}
			fmt.Println("Relationships:")
			for _, relType := range graph.SortedLabels(rels) {
				fmt.Printf("  %-10s %d\n", relType, rels[relType])
			}

			popular, err := repo.PopularSeries(ctx, 10)
			if err != nil {
				return err
			}
			if len(popular) > 0 {
				fmt.Println("Most rated series:")
				for _, p := range popular {
					fmt.Printf("  %-40s avg %.1f (%d ratings)\n", p.Title, p.AvgRating, p.RatingsCount)
				}
			}

			logger.Get().Info("Stats printed",
				zap.Int64("users", nodes["User"]),
				zap.Int64("series", nodes["Series"]),
			)
			return nil
		},
	}
}
