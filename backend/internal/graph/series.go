package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperr "tv-recommender/backend/pkg/errors"
)

// ============================================================================
// Series Operations
// ============================================================================

var seriesUpdateFields = map[string]bool{
	"title":          true,
	"original_title": true,
	"year":           true,
	"is_adult":       true,
}

// CreateSeries creates a Series node. originalTitle falls back to title.
func (r *Repository) CreateSeries(ctx context.Context, seriesID, title, originalTitle string, year *int, isAdult bool) (*Series, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	if originalTitle == "" {
		originalTitle = title
	}

	query := `
		CREATE (s:Series {
			series_id: $series_id,
			title: $title,
			original_title: $original_title,
			year: $year,
			is_adult: $is_adult
		})
		RETURN s.series_id as series_id, s.title as title,
		       s.original_title as original_title, s.year as year,
		       s.is_adult as is_adult
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"series_id":      seriesID,
		"title":          title,
		"original_title": originalTitle,
		"year":           intPtrParam(year),
		"is_adult":       isAdult,
	})
	if err != nil {
		return nil, apperr.NewQueryFailed("create series", err)
	}
	if result.Next(ctx) {
		return seriesFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("create series", err)
	}
	return nil, fmt.Errorf("failed to create series %s", seriesID)
}

// GetSeries returns a series with its aggregated genres and actors,
// or nil when absent. Admin callers see adult entries too.
func (r *Repository) GetSeries(ctx context.Context, seriesID string) (*Series, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:Series {series_id: $series_id})
		OPTIONAL MATCH (s)-[:HAS_GENRE]->(g:Genre)
		OPTIONAL MATCH (s)-[:HAS_ACTOR]->(a:Actor)
		RETURN s.series_id as series_id, s.title as title,
		       s.original_title as original_title, s.year as year,
		       s.is_adult as is_adult,
		       COLLECT(DISTINCT g.name) as genres,
		       COLLECT(DISTINCT {actor_id: a.actor_id, name: a.name}) as actors
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"series_id": seriesID})
	if err != nil {
		return nil, apperr.NewQueryFailed("get series", err)
	}
	if result.Next(ctx) {
		return seriesFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get series", err)
	}
	return nil, nil
}

// GetSeriesByTitle matches on title or original title
func (r *Repository) GetSeriesByTitle(ctx context.Context, title string) (*Series, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:Series)
		WHERE s.title = $title OR s.original_title = $title
		OPTIONAL MATCH (s)-[:HAS_GENRE]->(g:Genre)
		OPTIONAL MATCH (s)-[:HAS_ACTOR]->(a:Actor)
		RETURN s.series_id as series_id, s.title as title,
		       s.original_title as original_title, s.year as year,
		       s.is_adult as is_adult,
		       COLLECT(DISTINCT g.name) as genres,
		       COLLECT(DISTINCT {actor_id: a.actor_id, name: a.name}) as actors
		LIMIT 1
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"title": title})
	if err != nil {
		return nil, apperr.NewQueryFailed("get series by title", err)
	}
	if result.Next(ctx) {
		return seriesFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get series by title", err)
	}
	return nil, nil
}

// GetAllSeries lists the non-adult catalog sorted by title.
// limit < 0 means unbounded; limit 0 yields an empty list.
func (r *Repository) GetAllSeries(ctx context.Context, limit int) ([]Series, error) {
	if limit == 0 {
		return []Series{}, nil
	}

	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:Series)
		WHERE s.is_adult = false
		OPTIONAL MATCH (s)-[:HAS_GENRE]->(g:Genre)
		RETURN s.series_id as series_id, s.title as title,
		       s.original_title as original_title, s.year as year,
		       s.is_adult as is_adult,
		       COLLECT(DISTINCT g.name) as genres
		ORDER BY title
	`
	params := map[string]interface{}{}
	if limit > 0 {
		query += " LIMIT $limit"
		params["limit"] = limit
	}

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, apperr.NewQueryFailed("get all series", err)
	}
	return collectSeries(ctx, result)
}

// SearchSeries does a case-insensitive substring search on title and
// original title. The adult filter is parenthesized against the OR so it
// always applies. An empty keyword matches nothing.
func (r *Repository) SearchSeries(ctx context.Context, keyword string, limit int) ([]Series, error) {
	if keyword == "" || limit == 0 {
		return []Series{}, nil
	}
	if limit < 0 {
		limit = 20
	}

	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:Series)
		WHERE (toLower(s.title) CONTAINS toLower($keyword)
		    OR toLower(s.original_title) CONTAINS toLower($keyword))
		  AND s.is_adult = false
		OPTIONAL MATCH (s)-[:HAS_GENRE]->(g:Genre)
		RETURN s.series_id as series_id, s.title as title,
		       s.original_title as original_title, s.year as year,
		       s.is_adult as is_adult,
		       COLLECT(DISTINCT g.name) as genres
		ORDER BY title
		LIMIT $limit
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"keyword": keyword,
		"limit":   limit,
	})
	if err != nil {
		return nil, apperr.NewQueryFailed("search series", err)
	}
	return collectSeries(ctx, result)
}

// GetSeriesByGenre lists the non-adult series carrying a genre, with each
// row's full genre set, sorted by title.
func (r *Repository) GetSeriesByGenre(ctx context.Context, genre string) ([]Series, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:Series)-[:HAS_GENRE]->(g:Genre {name: $genre})
		WHERE s.is_adult = false
		OPTIONAL MATCH (s)-[:HAS_GENRE]->(g2:Genre)
		RETURN s.series_id as series_id, s.title as title,
		       s.original_title as original_title, s.year as year,
		       s.is_adult as is_adult,
		       COLLECT(DISTINCT g2.name) as genres
		ORDER BY title
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"genre": genre})
	if err != nil {
		return nil, apperr.NewQueryFailed("get series by genre", err)
	}
	return collectSeries(ctx, result)
}

// UpdateSeries applies a whitelist-filtered partial update. When the title
// changes, the denormalized series_title on every incident RATED edge is
// rewritten in the same call so rating lists never go stale.
func (r *Repository) UpdateSeries(ctx context.Context, seriesID string, fields map[string]interface{}) (*Series, error) {
	setClause, params := buildSetClause("s", fields, seriesUpdateFields)
	if setClause == "" {
		return nil, nil
	}
	params["series_id"] = seriesID

	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (s:Series {series_id: $series_id})
		SET %s
		RETURN s.series_id as series_id, s.title as title,
		       s.original_title as original_title, s.year as year,
		       s.is_adult as is_adult
	`, setClause)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, apperr.NewQueryFailed("update series", err)
	}

	var updated *Series
	if result.Next(ctx) {
		updated = seriesFromRecord(result.Record())
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("update series", err)
	}
	if updated == nil {
		return nil, nil
	}

	if _, renamed := params["title"]; renamed {
		_, err := session.Run(ctx, `
			MATCH (:User)-[rel:RATED]->(s:Series {series_id: $series_id})
			SET rel.series_title = s.title
		`, map[string]interface{}{"series_id": seriesID})
		if err != nil {
			return nil, apperr.NewQueryFailed("propagate series title", err)
		}
		r.logger.Debug("Propagated series title to RATED edges",
			zap.String("series_id", seriesID),
		)
	}

	return updated, nil
}

// DeleteSeries detach-deletes a series and all its edges
func (r *Repository) DeleteSeries(ctx context.Context, seriesID string) (bool, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:Series {series_id: $series_id})
		DETACH DELETE s
		RETURN COUNT(s) as deleted
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"series_id": seriesID})
	if err != nil {
		return false, apperr.NewQueryFailed("delete series", err)
	}
	if result.Next(ctx) {
		return getInt64FromRecord(result.Record(), "deleted") > 0, nil
	}
	if err := result.Err(); err != nil {
		return false, apperr.NewQueryFailed("delete series", err)
	}
	return false, nil
}

// ReplaceSeriesGenres drops every HAS_GENRE edge of a series and relinks
// the given genre names (admin edit semantics: full adjacency replacement).
func (r *Repository) ReplaceSeriesGenres(ctx context.Context, seriesID string, genres []string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MATCH (s:Series {series_id: $series_id})-[rel:HAS_GENRE]->()
		DELETE rel
	`, map[string]interface{}{"series_id": seriesID})
	if err != nil {
		return apperr.NewQueryFailed("unlink series genres", err)
	}

	for _, name := range genres {
		if name == "" {
			continue
		}
		_, err := session.Run(ctx, `
			MATCH (s:Series {series_id: $series_id})
			MERGE (g:Genre {name: $genre_name})
			MERGE (s)-[:HAS_GENRE]->(g)
		`, map[string]interface{}{"series_id": seriesID, "genre_name": name})
		if err != nil {
			return apperr.NewQueryFailed("link series genre", err)
		}
	}
	return nil
}

// ReplaceSeriesActors drops every HAS_ACTOR edge of a series and relinks
// the given actor ids. Unknown actor ids are silently skipped by MATCH.
func (r *Repository) ReplaceSeriesActors(ctx context.Context, seriesID string, actorIDs []string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MATCH (s:Series {series_id: $series_id})-[rel:HAS_ACTOR]->()
		DELETE rel
	`, map[string]interface{}{"series_id": seriesID})
	if err != nil {
		return apperr.NewQueryFailed("unlink series actors", err)
	}

	for _, actorID := range actorIDs {
		if actorID == "" {
			continue
		}
		_, err := session.Run(ctx, `
			MATCH (s:Series {series_id: $series_id})
			MATCH (a:Actor {actor_id: $actor_id})
			MERGE (s)-[:HAS_ACTOR]->(a)
		`, map[string]interface{}{"series_id": seriesID, "actor_id": actorID})
		if err != nil {
			return apperr.NewQueryFailed("link series actor", err)
		}
	}
	return nil
}

func seriesFromRecord(record *neo4j.Record) *Series {
	return &Series{
		SeriesID:      getStringFromRecord(record, "series_id"),
		Title:         getStringFromRecord(record, "title"),
		OriginalTitle: getStringFromRecord(record, "original_title"),
		Year:          getIntPtrFromRecord(record, "year"),
		IsAdult:       getBoolFromRecord(record, "is_adult"),
		Genres:        getStringSliceFromRecord(record, "genres"),
		Actors:        getActorRefsFromRecord(record, "actors"),
	}
}

func collectSeries(ctx context.Context, result neo4j.ResultWithContext) ([]Series, error) {
	series := []Series{}
	for result.Next(ctx) {
		series = append(series, *seriesFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("collect series", err)
	}
	return series, nil
}
