package recommend

import (
	"context"

	"go.uber.org/zap"

	"tv-recommender/backend/internal/graph"
	"tv-recommender/backend/pkg/logger"
)

// defaultLimit caps candidate lists when the caller passes no limit
const defaultLimit = 10

// Engine computes recommendation candidates with single-statement graph
// traversals. Nothing is cached; every call re-executes the traversal.
type Engine struct {
	repo   *graph.Repository
	logger *zap.Logger
}

// NewEngine creates a recommendation engine over the graph repository
func NewEngine(repo *graph.Repository) *Engine {
	return &Engine{
		repo:   repo,
		logger: logger.Named("recommend"),
	}
}

// runQuery executes a strategy traversal, logging failures with enough
// context to find the offending strategy and user.
func (e *Engine) runQuery(ctx context.Context, strategy, query, userID string, limit int) ([]map[string]interface{}, error) {
	records, err := e.repo.Query(ctx, query, map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
	})
	if err != nil {
		e.logger.Error("Recommendation query failed",
			zap.String("strategy", strategy),
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, err
	}
	return records, nil
}

// Recommendation is a scored candidate series. Which fields are filled
// depends on the strategy: collaborative carries RecommendedBy/AvgRating,
// hybrid carries up to five actor names, the others carry Score only.
type Recommendation struct {
	SeriesID      string   `json:"series_id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	Year          *int     `json:"year,omitempty"`
	Genres        []string `json:"genres"`
	Actors        []string `json:"actors,omitempty"`
	Score         float64  `json:"score"`
	RecommendedBy int64    `json:"recommended_by,omitempty"`
	AvgRating     float64  `json:"avg_rating,omitempty"`
}

// ByGenre surfaces more of what the user already loves: genres attached
// to series the user rated >= 4 are weighted by how many such ratings
// touch them, and each unseen non-adult candidate scores the sum of the
// user's weights over its matching genres. Ties break by title.
func (e *Engine) ByGenre(ctx context.Context, userID string, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `
		MATCH (u:User {user_id: $user_id})-[r:RATED]->(s:Series)-[:HAS_GENRE]->(g:Genre)
		WHERE r.rating >= 4
		WITH u, g, COUNT(*) as genre_weight
		ORDER BY genre_weight DESC
		MATCH (rec:Series)-[:HAS_GENRE]->(g)
		WHERE NOT (u)-[:RATED]->(rec) AND rec.is_adult = false
		WITH rec, COLLECT(DISTINCT g.name) as genres, SUM(genre_weight) as relevance
		RETURN rec.series_id as series_id,
		       rec.title as title,
		       rec.original_title as original_title,
		       rec.year as year,
		       genres,
		       relevance as score
		ORDER BY score DESC, title ASC
		LIMIT $limit
	`

	records, err := e.runQuery(ctx, "genre", query, userID, limit)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(records))
	for _, rec := range records {
		recs = append(recs, Recommendation{
			SeriesID:      mapString(rec, "series_id"),
			Title:         mapString(rec, "title"),
			OriginalTitle: mapString(rec, "original_title"),
			Year:          mapIntPtr(rec, "year"),
			Genres:        mapStringSlice(rec, "genres"),
			Score:         mapFloat64(rec, "score"),
		})
	}
	return recs, nil
}

// Collaborative is user-user neighborhood filtering: the five other users
// sharing the most >= 4 co-ratings with the target are the neighbors, and
// their >= 4 ratings on unseen non-adult series become candidates ranked
// by distinct neighbor count, then by the neighbors' mean rating.
func (e *Engine) Collaborative(ctx context.Context, userID string, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `
		MATCH (u:User {user_id: $user_id})-[r1:RATED]->(s:Series)<-[r2:RATED]-(other:User)
		WHERE r1.rating >= 4 AND r2.rating >= 4 AND u <> other
		WITH u, other, COUNT(s) as common_series
		ORDER BY common_series DESC, other.user_id ASC
		LIMIT 5
		MATCH (other)-[r:RATED]->(rec:Series)
		WHERE NOT (u)-[:RATED]->(rec) AND r.rating >= 4 AND rec.is_adult = false
		WITH rec, COUNT(DISTINCT other) as recommended_by, AVG(r.rating) as avg_rating
		OPTIONAL MATCH (rec)-[:HAS_GENRE]->(g:Genre)
		RETURN rec.series_id as series_id,
		       rec.title as title,
		       rec.year as year,
		       COLLECT(DISTINCT g.name) as genres,
		       recommended_by,
		       ROUND(avg_rating * 10) / 10.0 as avg_rating
		ORDER BY recommended_by DESC, avg_rating DESC, title ASC
		LIMIT $limit
	`

	records, err := e.runQuery(ctx, "collaborative", query, userID, limit)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(records))
	for _, rec := range records {
		recs = append(recs, Recommendation{
			SeriesID:      mapString(rec, "series_id"),
			Title:         mapString(rec, "title"),
			Year:          mapIntPtr(rec, "year"),
			Genres:        mapStringSlice(rec, "genres"),
			RecommendedBy: mapInt64(rec, "recommended_by"),
			AvgRating:     mapFloat64(rec, "avg_rating"),
			Score:         float64(mapInt64(rec, "recommended_by")),
		})
	}
	return recs, nil
}

// ByActors scores unseen non-adult candidates by how many of the user's
// favorite actors (cast of series rated >= 4) appear in them
func (e *Engine) ByActors(ctx context.Context, userID string, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `
		MATCH (u:User {user_id: $user_id})-[r:RATED]->(s:Series)-[:HAS_ACTOR]->(a:Actor)
		WHERE r.rating >= 4
		WITH u, COLLECT(DISTINCT a) as favorite_actors
		UNWIND favorite_actors as actor
		MATCH (actor)<-[:HAS_ACTOR]-(rec:Series)
		WHERE NOT (u)-[:RATED]->(rec) AND rec.is_adult = false
		WITH rec, COLLECT(DISTINCT actor.name) as shared_actors, COUNT(actor) as actor_matches
		OPTIONAL MATCH (rec)-[:HAS_GENRE]->(g:Genre)
		RETURN rec.series_id as series_id,
		       rec.title as title,
		       rec.year as year,
		       shared_actors,
		       COLLECT(DISTINCT g.name) as genres,
		       actor_matches as score
		ORDER BY score DESC, title ASC
		LIMIT $limit
	`

	records, err := e.runQuery(ctx, "actor", query, userID, limit)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(records))
	for _, rec := range records {
		recs = append(recs, Recommendation{
			SeriesID: mapString(rec, "series_id"),
			Title:    mapString(rec, "title"),
			Year:     mapIntPtr(rec, "year"),
			Genres:   mapStringSlice(rec, "genres"),
			Actors:   mapStringSlice(rec, "shared_actors"),
			Score:    mapFloat64(rec, "score"),
		})
	}
	return recs, nil
}

// Hybrid blends the genre and collaborative signals per candidate:
// score = 2 * genre_score + 3 * collab_score, where collab_score counts
// the distinct >= 4 neighbors that also rated the candidate >= 4.
// Result rows carry up to five actor names for display.
func (e *Engine) Hybrid(ctx context.Context, userID string, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `
		MATCH (u:User {user_id: $user_id})-[r:RATED]->(s:Series)-[:HAS_GENRE]->(g:Genre)
		WHERE r.rating >= 4
		WITH u, g, COUNT(*) as genre_weight
		MATCH (rec:Series)-[:HAS_GENRE]->(g)
		WHERE NOT (u)-[:RATED]->(rec) AND rec.is_adult = false
		WITH u, rec, SUM(genre_weight) as genre_score

		OPTIONAL MATCH (u)-[r1:RATED]->(s:Series)<-[r2:RATED]-(other:User)
		WHERE r1.rating >= 4 AND r2.rating >= 4
		WITH u, rec, genre_score, other
		OPTIONAL MATCH (other)-[r:RATED]->(rec)
		WITH rec, genre_score, COUNT(DISTINCT CASE WHEN r.rating >= 4 THEN other END) as collab_score

		OPTIONAL MATCH (rec)-[:HAS_GENRE]->(g:Genre)
		OPTIONAL MATCH (rec)-[:HAS_ACTOR]->(a:Actor)

		RETURN rec.series_id as series_id,
		       rec.title as title,
		       rec.year as year,
		       COLLECT(DISTINCT g.name) as genres,
		       COLLECT(DISTINCT a.name)[0..5] as actors,
		       (genre_score * 2 + collab_score * 3) as score
		ORDER BY score DESC, title ASC
		LIMIT $limit
	`

	records, err := e.runQuery(ctx, "hybrid", query, userID, limit)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, len(records))
	for _, rec := range records {
		recs = append(recs, Recommendation{
			SeriesID: mapString(rec, "series_id"),
			Title:    mapString(rec, "title"),
			Year:     mapIntPtr(rec, "year"),
			Genres:   mapStringSlice(rec, "genres"),
			Actors:   mapStringSlice(rec, "actors"),
			Score:    mapFloat64(rec, "score"),
		})
	}
	return recs, nil
}

// All runs every strategy for a user and returns them keyed by name.
// Strategies execute sequentially here; the HTTP layer fans out
// concurrently instead when it needs all four.
func (e *Engine) All(ctx context.Context, userID string, limit int) (map[string][]Recommendation, error) {
	byGenre, err := e.ByGenre(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	collab, err := e.Collaborative(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	byActors, err := e.ByActors(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	hybrid, err := e.Hybrid(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return map[string][]Recommendation{
		"genre":         byGenre,
		"collaborative": collab,
		"actor":         byActors,
		"hybrid":        hybrid,
	}, nil
}
