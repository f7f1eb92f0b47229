package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperr "tv-recommender/backend/pkg/errors"
)

// ============================================================================
// Genre Operations
// ============================================================================

// CreateGenre creates a Genre node with an explicit id
func (r *Repository) CreateGenre(ctx context.Context, genreID, name string) (*Genre, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		CREATE (g:Genre {genre_id: $genre_id, name: $name})
		RETURN g.genre_id as genre_id, g.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"genre_id": genreID,
		"name":     name,
	})
	if err != nil {
		return nil, apperr.NewQueryFailed("create genre", err)
	}
	if result.Next(ctx) {
		return genreFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("create genre", err)
	}
	return nil, fmt.Errorf("failed to create genre %s", name)
}

// GetOrCreateGenre upserts a genre by name. Any number of calls yields
// exactly one node.
func (r *Repository) GetOrCreateGenre(ctx context.Context, name string) (*Genre, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MERGE (g:Genre {name: $name})
		RETURN g.genre_id as genre_id, g.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"name": name})
	if err != nil {
		return nil, apperr.NewQueryFailed("get or create genre", err)
	}
	if result.Next(ctx) {
		return genreFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get or create genre", err)
	}
	return nil, fmt.Errorf("failed to upsert genre %s", name)
}

// GetAllGenres lists every genre sorted by name
func (r *Repository) GetAllGenres(ctx context.Context) ([]Genre, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (g:Genre)
		RETURN g.genre_id as genre_id, g.name as name
		ORDER BY name
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, apperr.NewQueryFailed("get all genres", err)
	}

	genres := []Genre{}
	for result.Next(ctx) {
		genres = append(genres, *genreFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get all genres", err)
	}
	return genres, nil
}

// LinkGenreToSeries upserts the genre by name and the HAS_GENRE edge.
// MERGE keeps both the node and the edge duplicate-free.
func (r *Repository) LinkGenreToSeries(ctx context.Context, seriesID, genreName string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:Series {series_id: $series_id})
		MERGE (g:Genre {name: $genre_name})
		MERGE (s)-[:HAS_GENRE]->(g)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"series_id":  seriesID,
		"genre_name": genreName,
	})
	if err != nil {
		return apperr.NewQueryFailed("link genre to series", err)
	}
	return nil
}

func genreFromRecord(record *neo4j.Record) *Genre {
	return &Genre{
		GenreID: getStringFromRecord(record, "genre_id"),
		Name:    getStringFromRecord(record, "name"),
	}
}
