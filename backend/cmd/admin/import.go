package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"tv-recommender/backend/internal/ingest"
	"tv-recommender/backend/pkg/logger"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Bulk load CSV exports into the graph",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "genres", Usage: "genres CSV file"},
			&cli.StringFlag{Name: "actors", Usage: "actors CSV file"},
			&cli.StringFlag{Name: "series", Usage: "series CSV file"},
			&cli.StringFlag{Name: "series-genres", Usage: "series-to-genre edges CSV file"},
			&cli.StringFlag{Name: "series-actors", Usage: "series-to-actor edges CSV file"},
			&cli.StringFlag{Name: "users", Usage: "users CSV file"},
			&cli.StringFlag{Name: "ratings", Usage: "ratings CSV file"},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "maximum rows to load per file (0 = no limit)",
			},
		},
		Action: runImport,
	}
}

// runImport loads whichever files were given, in dependency order:
// nodes before the edge files that reference them.
func runImport(ctx context.Context, cmd *cli.Command) error {
	repo, err := connect(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	// Constraints must exist before MERGE-heavy loading
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	importer := ingest.NewImporter(repo)
	limit := int(cmd.Int("limit"))
	log := logger.Get()

	steps := []struct {
		flag string
		load func(context.Context, string, int) (int, error)
	}{
		{"genres", importer.LoadGenres},
		{"actors", importer.LoadActors},
		{"series", importer.LoadSeries},
		{"series-genres", importer.LoadSeriesGenres},
		{"series-actors", importer.LoadSeriesActors},
		{"users", importer.LoadUsers},
		{"ratings", importer.LoadRatings},
	}

	loadedAny := false
	for _, step := range steps {
		path := cmd.String(step.flag)
		if path == "" {
			continue
		}
		loadedAny = true

		start := time.Now()
		count, err := step.load(ctx, path, limit)
		if err != nil {
			return fmt.Errorf("loading %s from %s: %w", step.flag, path, err)
		}
		log.Info("Import step finished",
			zap.String("file", path),
			zap.Int("rows", count),
			zap.Duration("took", time.Since(start)),
		)
		fmt.Printf("%s: %d rows in %s\n", step.flag, count, time.Since(start).Round(time.Millisecond))
	}

	if !loadedAny {
		return fmt.Errorf("nothing to import: pass at least one file flag")
	}
	return nil
}
