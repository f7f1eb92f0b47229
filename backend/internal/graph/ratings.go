package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperr "tv-recommender/backend/pkg/errors"
)

// ============================================================================
// Rating Operations
// ============================================================================

// CreateRating creates or overwrites the RATED edge between a user and a
// series. MERGE guarantees at most one edge per pair; repeated calls with
// the same inputs are idempotent. date and timestamp default to now.
// Returns nil when either endpoint is missing.
func (r *Repository) CreateRating(ctx context.Context, userID, seriesID string, rating float64, date *time.Time, timestamp *int64) (*Rating, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	now := time.Now().UTC()
	dateStr := now.Format(time.RFC3339)
	if date != nil {
		dateStr = date.UTC().Format(time.RFC3339)
	}
	ts := now.Unix()
	if timestamp != nil {
		ts = *timestamp
	}

	query := `
		MATCH (u:User {user_id: $user_id})
		MATCH (s:Series {series_id: $series_id})
		MERGE (u)-[rel:RATED]->(s)
		SET rel.rating = $rating,
		    rel.series_title = s.title,
		    rel.date = datetime($date),
		    rel.timestamp = $timestamp
		RETURN u.user_id as user_id, s.series_id as series_id,
		       s.title as series_title, rel.rating as rating,
		       rel.date as date, rel.timestamp as timestamp
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"user_id":   userID,
		"series_id": seriesID,
		"rating":    rating,
		"date":      dateStr,
		"timestamp": ts,
	})
	if err != nil {
		return nil, apperr.NewQueryFailed("create rating", err)
	}
	if result.Next(ctx) {
		return ratingFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("create rating", err)
	}
	// one of the endpoints does not exist
	return nil, nil
}

// GetRating returns a user's rating of a series, or nil
func (r *Repository) GetRating(ctx context.Context, userID, seriesID string) (*Rating, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {user_id: $user_id})-[rel:RATED]->(s:Series {series_id: $series_id})
		RETURN u.user_id as user_id, s.series_id as series_id,
		       s.title as series_title, rel.rating as rating,
		       rel.date as date, rel.timestamp as timestamp
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"user_id":   userID,
		"series_id": seriesID,
	})
	if err != nil {
		return nil, apperr.NewQueryFailed("get rating", err)
	}
	if result.Next(ctx) {
		return ratingFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get rating", err)
	}
	return nil, nil
}

// GetUserRatings returns a user's full rating history, newest first,
// each row carrying the series metadata and genre list
func (r *Repository) GetUserRatings(ctx context.Context, userID string) ([]UserRating, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {user_id: $user_id})-[rel:RATED]->(s:Series)
		OPTIONAL MATCH (s)-[:HAS_GENRE]->(g:Genre)
		RETURN s.series_id as series_id, s.title as series_title,
		       s.year as year, rel.rating as rating, rel.date as date,
		       rel.timestamp as timestamp,
		       COLLECT(DISTINCT g.name) as genres
		ORDER BY timestamp DESC
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		return nil, apperr.NewQueryFailed("get user ratings", err)
	}

	ratings := []UserRating{}
	for result.Next(ctx) {
		record := result.Record()
		ratings = append(ratings, UserRating{
			SeriesID:    getStringFromRecord(record, "series_id"),
			SeriesTitle: getStringFromRecord(record, "series_title"),
			Year:        getIntPtrFromRecord(record, "year"),
			Rating:      getFloat64FromRecord(record, "rating"),
			Date:        getTimeFromRecord(record, "date"),
			Timestamp:   getInt64FromRecord(record, "timestamp"),
			Genres:      getStringSliceFromRecord(record, "genres"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get user ratings", err)
	}
	return ratings, nil
}

// GetSeriesRatings returns every rating of a series, newest first
func (r *Repository) GetSeriesRatings(ctx context.Context, seriesID string) ([]SeriesRating, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User)-[rel:RATED]->(s:Series {series_id: $series_id})
		RETURN u.user_id as user_id, u.name as username,
		       rel.rating as rating, rel.date as date,
		       rel.timestamp as timestamp
		ORDER BY timestamp DESC
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"series_id": seriesID})
	if err != nil {
		return nil, apperr.NewQueryFailed("get series ratings", err)
	}

	ratings := []SeriesRating{}
	for result.Next(ctx) {
		record := result.Record()
		ratings = append(ratings, SeriesRating{
			UserID:    getStringFromRecord(record, "user_id"),
			Username:  getStringFromRecord(record, "username"),
			Rating:    getFloat64FromRecord(record, "rating"),
			Date:      getTimeFromRecord(record, "date"),
			Timestamp: getInt64FromRecord(record, "timestamp"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get series ratings", err)
	}
	return ratings, nil
}

// GetAverageRating returns the arithmetic mean and count of a series'
// ratings, or nil when the series has none
func (r *Repository) GetAverageRating(ctx context.Context, seriesID string) (*RatingSummary, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User)-[rel:RATED]->(s:Series {series_id: $series_id})
		RETURN s.series_id as series_id, s.title as series_title,
		       AVG(rel.rating) as average_rating,
		       COUNT(rel) as total_ratings
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"series_id": seriesID})
	if err != nil {
		return nil, apperr.NewQueryFailed("get average rating", err)
	}
	if result.Next(ctx) {
		record := result.Record()
		return &RatingSummary{
			SeriesID:      getStringFromRecord(record, "series_id"),
			SeriesTitle:   getStringFromRecord(record, "series_title"),
			AverageRating: getFloat64FromRecord(record, "average_rating"),
			TotalRatings:  getInt64FromRecord(record, "total_ratings"),
		}, nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get average rating", err)
	}
	return nil, nil
}

// DeleteRating removes the RATED edge; returns whether one existed
func (r *Repository) DeleteRating(ctx context.Context, userID, seriesID string) (bool, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {user_id: $user_id})-[rel:RATED]->(s:Series {series_id: $series_id})
		DELETE rel
		RETURN COUNT(rel) as deleted
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"user_id":   userID,
		"series_id": seriesID,
	})
	if err != nil {
		return false, apperr.NewQueryFailed("delete rating", err)
	}
	if result.Next(ctx) {
		return getInt64FromRecord(result.Record(), "deleted") > 0, nil
	}
	if err := result.Err(); err != nil {
		return false, apperr.NewQueryFailed("delete rating", err)
	}
	return false, nil
}

// GetUserStatistics aggregates a user's rated series that carry at least
// one genre: distinct series count, mean rating rounded to one decimal,
// and the union of genres. Nil when the user has no qualifying ratings.
func (r *Repository) GetUserStatistics(ctx context.Context, userID string) (*UserStats, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {user_id: $user_id})-[rel:RATED]->(s:Series)-[:HAS_GENRE]->(g:Genre)
		WITH u, COUNT(DISTINCT s) as series_count,
		     AVG(rel.rating) as avg_rating,
		     COLLECT(DISTINCT g.name) as all_genres
		RETURN u.user_id as user_id, u.name as username,
		       series_count,
		       ROUND(avg_rating * 10) / 10.0 as avg_rating,
		       all_genres as genres
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		return nil, apperr.NewQueryFailed("get user statistics", err)
	}
	if result.Next(ctx) {
		record := result.Record()
		return &UserStats{
			UserID:      getStringFromRecord(record, "user_id"),
			Username:    getStringFromRecord(record, "username"),
			SeriesCount: getInt64FromRecord(record, "series_count"),
			AvgRating:   getFloat64FromRecord(record, "avg_rating"),
			Genres:      getStringSliceFromRecord(record, "genres"),
		}, nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get user statistics", err)
	}
	return nil, nil
}

func ratingFromRecord(record *neo4j.Record) *Rating {
	return &Rating{
		UserID:      getStringFromRecord(record, "user_id"),
		SeriesID:    getStringFromRecord(record, "series_id"),
		SeriesTitle: getStringFromRecord(record, "series_title"),
		Rating:      getFloat64FromRecord(record, "rating"),
		Date:        getTimeFromRecord(record, "date"),
		Timestamp:   getInt64FromRecord(record, "timestamp"),
	}
}
