package graph

import (
	"context"
	"sort"

	"go.uber.org/zap"

	apperr "tv-recommender/backend/pkg/errors"
)

// ============================================================================
// Schema Bootstrap & Maintenance
// ============================================================================

var schemaConstraints = []string{
	"CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.user_id IS UNIQUE",
	"CREATE CONSTRAINT series_id_unique IF NOT EXISTS FOR (s:Series) REQUIRE s.series_id IS UNIQUE",
	"CREATE CONSTRAINT actor_id_unique IF NOT EXISTS FOR (a:Actor) REQUIRE a.actor_id IS UNIQUE",
	"CREATE CONSTRAINT genre_name_unique IF NOT EXISTS FOR (g:Genre) REQUIRE g.name IS UNIQUE",
}

var schemaIndexes = []string{
	"CREATE INDEX user_name IF NOT EXISTS FOR (u:User) ON (u.name)",
	"CREATE INDEX user_email IF NOT EXISTS FOR (u:User) ON (u.email)",
	"CREATE INDEX series_title IF NOT EXISTS FOR (s:Series) ON (s.title)",
	"CREATE INDEX series_year IF NOT EXISTS FOR (s:Series) ON (s.year)",
	"CREATE INDEX actor_name IF NOT EXISTS FOR (a:Actor) ON (a.name)",
	"CREATE INDEX rating_timestamp IF NOT EXISTS FOR ()-[r:RATED]-() ON (r.timestamp)",
	"CREATE INDEX rating_value IF NOT EXISTS FOR ()-[r:RATED]-() ON (r.rating)",
}

// EnsureSchema creates the uniqueness constraints and secondary indexes.
// Every statement is IF NOT EXISTS, so the call is idempotent.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range append(append([]string{}, schemaConstraints...), schemaIndexes...) {
		if _, err := r.Query(ctx, stmt, nil); err != nil {
			return err
		}
		r.logger.Info("Schema statement applied", zap.String("statement", stmt))
	}
	return nil
}

// Clear wipes the whole database. Callers are expected to have confirmed.
func (r *Repository) Clear(ctx context.Context) error {
	_, err := r.Query(ctx, "MATCH (n) DETACH DELETE n", nil)
	return err
}

// CountNodesByLabel returns node counts keyed by label
func (r *Repository) CountNodesByLabel(ctx context.Context) (map[string]int64, error) {
	records, err := r.Query(ctx, `
		MATCH (n)
		RETURN labels(n)[0] as label, COUNT(n) as count
		ORDER BY count DESC
	`, nil)
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	for _, rec := range records {
		label, _ := rec["label"].(string)
		count, _ := rec["count"].(int64)
		if label != "" {
			counts[label] = count
		}
	}
	return counts, nil
}

// CountRelationshipsByType returns edge counts keyed by relationship type
func (r *Repository) CountRelationshipsByType(ctx context.Context) (map[string]int64, error) {
	records, err := r.Query(ctx, `
		MATCH ()-[rel]->()
		RETURN type(rel) as rel_type, COUNT(rel) as count
		ORDER BY count DESC
	`, nil)
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	for _, rec := range records {
		typ, _ := rec["rel_type"].(string)
		count, _ := rec["count"].(int64)
		if typ != "" {
			counts[typ] = count
		}
	}
	return counts, nil
}

// PopularSeries returns the most-rated series with mean rating rounded
// to one decimal, for the admin dashboard and the stats command
func (r *Repository) PopularSeries(ctx context.Context, limit int) ([]PopularSeries, error) {
	if limit <= 0 {
		limit = 10
	}

	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User)-[rel:RATED]->(s:Series)
		RETURN s.title as title,
		       COUNT(rel) as ratings_count,
		       ROUND(AVG(rel.rating) * 10) / 10.0 as avg_rating
		ORDER BY ratings_count DESC
		LIMIT $limit
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, apperr.NewQueryFailed("popular series", err)
	}

	popular := []PopularSeries{}
	for result.Next(ctx) {
		record := result.Record()
		popular = append(popular, PopularSeries{
			Title:        getStringFromRecord(record, "title"),
			RatingsCount: getInt64FromRecord(record, "ratings_count"),
			AvgRating:    getFloat64FromRecord(record, "avg_rating"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("popular series", err)
	}
	return popular, nil
}

// ActiveUsers returns the users with the most ratings
func (r *Repository) ActiveUsers(ctx context.Context, limit int) ([]ActiveUser, error) {
	if limit <= 0 {
		limit = 10
	}

	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User)-[rel:RATED]->(:Series)
		RETURN u.name as username, COUNT(rel) as ratings_count
		ORDER BY ratings_count DESC
		LIMIT $limit
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, apperr.NewQueryFailed("active users", err)
	}

	users := []ActiveUser{}
	for result.Next(ctx) {
		record := result.Record()
		users = append(users, ActiveUser{
			Username:     getStringFromRecord(record, "username"),
			RatingsCount: getInt64FromRecord(record, "ratings_count"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("active users", err)
	}
	return users, nil
}

// SortedLabels is a convenience for deterministic stats output
func SortedLabels(counts map[string]int64) []string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels
}
