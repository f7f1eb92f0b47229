// Package ingest seeds the graph from the seven catalog CSV artifacts.
// Loaders are idempotent against an already-seeded database: rows that
// collide with a uniqueness constraint are skipped, anything else aborts.
// Load order (genres, actors, series before links; users before ratings)
// is the operator's responsibility.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"tv-recommender/backend/internal/graph"
	apperr "tv-recommender/backend/pkg/errors"
	"tv-recommender/backend/pkg/logger"
)

// nullSentinel marks a null numeric field in the source dumps
const nullSentinel = `\N`

// Store is the slice of the graph repository the loaders write through.
// *graph.Repository satisfies it.
type Store interface {
	CreateGenre(ctx context.Context, genreID, name string) (*graph.Genre, error)
	CreateActor(ctx context.Context, actor *graph.Actor) (*graph.Actor, error)
	CreateSeries(ctx context.Context, seriesID, title, originalTitle string, year *int, isAdult bool) (*graph.Series, error)
	LinkGenreToSeries(ctx context.Context, seriesID, genreName string) error
	LinkActorToSeries(ctx context.Context, seriesID, actorID string) error
	CreateUser(ctx context.Context, userID, name, email string, age *int, gender, occupation, joinDate string) (*graph.User, error)
	CreateRating(ctx context.Context, userID, seriesID string, rating float64, date *time.Time, timestamp *int64) (*graph.Rating, error)
}

// Importer drives the CSV loaders
type Importer struct {
	store  Store
	logger *zap.Logger
}

// NewImporter creates an importer writing through the given store
func NewImporter(store Store) *Importer {
	return &Importer{
		store:  store,
		logger: logger.Named("ingest"),
	}
}

// LoadGenres ingests genres.csv (genre_id, name)
func (im *Importer) LoadGenres(ctx context.Context, path string, limit int) (int, error) {
	return im.eachRow(ctx, path, limit, 10, "genres", func(ctx context.Context, row map[string]string) (bool, error) {
		genreID := row["genre_id"]
		name := row["name"]
		if genreID == "" || name == "" {
			return false, nil
		}
		if _, err := im.store.CreateGenre(ctx, genreID, name); err != nil {
			return false, err
		}
		return true, nil
	})
}

// LoadActors ingests actors.csv (actor_id, name, birth_year, death_year,
// professions, known_for_titles)
func (im *Importer) LoadActors(ctx context.Context, path string, limit int) (int, error) {
	return im.eachRow(ctx, path, limit, 100, "actors", func(ctx context.Context, row map[string]string) (bool, error) {
		actorID := row["actor_id"]
		name := row["name"]
		if actorID == "" || name == "" {
			return false, nil
		}
		actor := &graph.Actor{
			ActorID:        actorID,
			Name:           name,
			BirthYear:      parseOptionalInt(row["birth_year"]),
			DeathYear:      parseOptionalInt(row["death_year"]),
			Professions:    row["professions"],
			KnownForTitles: row["known_for_titles"],
		}
		if _, err := im.store.CreateActor(ctx, actor); err != nil {
			return false, err
		}
		return true, nil
	})
}

// LoadSeries ingests series.csv (series_id, title, original_title, year,
// is_adult). is_adult is "1" or "0" in the dumps.
func (im *Importer) LoadSeries(ctx context.Context, path string, limit int) (int, error) {
	return im.eachRow(ctx, path, limit, 100, "series", func(ctx context.Context, row map[string]string) (bool, error) {
		seriesID := row["series_id"]
		title := row["title"]
		if seriesID == "" || title == "" {
			return false, nil
		}
		originalTitle := row["original_title"]
		if originalTitle == "" {
			originalTitle = title
		}
		_, err := im.store.CreateSeries(ctx, seriesID, title, originalTitle,
			parseOptionalInt(row["year"]), row["is_adult"] == "1")
		if err != nil {
			return false, err
		}
		return true, nil
	})
}

// LoadSeriesGenres ingests series_genres.csv (series_id, genre_name)
func (im *Importer) LoadSeriesGenres(ctx context.Context, path string, limit int) (int, error) {
	return im.eachRow(ctx, path, limit, 100, "series-genre links", func(ctx context.Context, row map[string]string) (bool, error) {
		seriesID := row["series_id"]
		genreName := row["genre_name"]
		if seriesID == "" || genreName == "" {
			return false, nil
		}
		if err := im.store.LinkGenreToSeries(ctx, seriesID, genreName); err != nil {
			return false, err
		}
		return true, nil
	})
}

// LoadSeriesActors ingests series_actors.csv (series_id, actor_id)
func (im *Importer) LoadSeriesActors(ctx context.Context, path string, limit int) (int, error) {
	return im.eachRow(ctx, path, limit, 100, "series-actor links", func(ctx context.Context, row map[string]string) (bool, error) {
		seriesID := row["series_id"]
		actorID := row["actor_id"]
		if seriesID == "" || actorID == "" {
			return false, nil
		}
		if err := im.store.LinkActorToSeries(ctx, seriesID, actorID); err != nil {
			return false, err
		}
		return true, nil
	})
}

// LoadUsers ingests users.csv (user_id, name, email, age, gender,
// occupation, join_date)
func (im *Importer) LoadUsers(ctx context.Context, path string, limit int) (int, error) {
	return im.eachRow(ctx, path, limit, 100, "users", func(ctx context.Context, row map[string]string) (bool, error) {
		userID := row["user_id"]
		name := row["name"]
		email := row["email"]
		if userID == "" || name == "" || email == "" {
			return false, nil
		}
		_, err := im.store.CreateUser(ctx, userID, name, email,
			parseOptionalInt(row["age"]), row["gender"], row["occupation"], row["join_date"])
		if err != nil {
			return false, err
		}
		return true, nil
	})
}

// LoadRatings ingests ratings.csv (user_id, series_id, rating, date,
// timestamp). Rows with an unparseable rating are skipped.
func (im *Importer) LoadRatings(ctx context.Context, path string, limit int) (int, error) {
	return im.eachRow(ctx, path, limit, 500, "ratings", func(ctx context.Context, row map[string]string) (bool, error) {
		userID := row["user_id"]
		seriesID := row["series_id"]
		rating, ok := parseRating(row["rating"])
		if userID == "" || seriesID == "" || !ok {
			return false, nil
		}

		var date *time.Time
		if d := row["date"]; d != "" && d != nullSentinel {
			if parsed, err := time.Parse(time.RFC3339, d); err == nil {
				date = &parsed
			}
		}
		var timestamp *int64
		if ts := row["timestamp"]; ts != "" && ts != nullSentinel {
			if parsed, err := strconv.ParseInt(ts, 10, 64); err == nil {
				timestamp = &parsed
			}
		}

		if _, err := im.store.CreateRating(ctx, userID, seriesID, rating, date, timestamp); err != nil {
			return false, err
		}
		return true, nil
	})
}

// eachRow streams a UTF-8 CSV with a header row through fn, counting the
// rows fn accepts. Constraint collisions are logged and skipped; other
// store errors abort the loader. limit <= 0 means unbounded.
func (im *Importer) eachRow(ctx context.Context, path string, limit, progressEvery int, what string, fn func(ctx context.Context, row map[string]string) (bool, error)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, apperr.NewBadRow(path, 0, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, apperr.NewBadRow(path, 1, err)
	}

	count := 0
	line := 1
	for {
		if limit > 0 && count >= limit {
			break
		}

		values, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return count, apperr.NewBadRow(path, line, err)
		}

		row := make(map[string]string, len(header))
		for i, key := range header {
			if i < len(values) {
				row[key] = values[i]
			}
		}

		accepted, err := fn(ctx, row)
		if err != nil {
			if apperr.IsAlreadyExists(err) {
				im.logger.Debug("Row already exists, skipping",
					zap.String("file", path),
					zap.Int("line", line),
				)
				continue
			}
			return count, err
		}
		if !accepted {
			continue
		}

		count++
		if count%progressEvery == 0 {
			im.logger.Info("Import progress",
				zap.String("what", what),
				zap.Int("count", count),
			)
		}
	}

	im.logger.Info("Import finished",
		zap.String("what", what),
		zap.String("file", path),
		zap.Int("count", count),
	)
	return count, nil
}

// parseOptionalInt coerces a numeric CSV field, mapping "" and the \N
// sentinel to nil
func parseOptionalInt(s string) *int {
	if s == "" || s == nullSentinel {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func parseRating(s string) (float64, bool) {
	if s == "" || s == nullSentinel {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
