package graph

import "time"

// ============================================================================
// Graph Types
// ============================================================================

// User mirrors the identity store's user record inside the graph.
// UserID is the identity provider's integer primary key, stringified.
type User struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Age        *int   `json:"age,omitempty"`
	Gender     string `json:"gender,omitempty"`
	Occupation string `json:"occupation,omitempty"`
	JoinDate   string `json:"join_date"` // ISO-8601
}

// Series is a catalog entry. Genres and Actors are filled by the
// lookups that aggregate adjacency; list operations leave Actors empty.
type Series struct {
	SeriesID      string     `json:"series_id"`
	Title         string     `json:"title"`
	OriginalTitle string     `json:"original_title"`
	Year          *int       `json:"year,omitempty"`
	IsAdult       bool       `json:"is_adult"`
	Genres        []string   `json:"genres,omitempty"`
	Actors        []ActorRef `json:"actors,omitempty"`
}

// ActorRef is the compact actor shape embedded in series results
type ActorRef struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name"`
}

// Genre is a catalog genre, unique by name
type Genre struct {
	GenreID string `json:"genre_id,omitempty"`
	Name    string `json:"name"`
}

// Actor is a cast member
type Actor struct {
	ActorID        string `json:"actor_id"`
	Name           string `json:"name"`
	BirthYear      *int   `json:"birth_year,omitempty"`
	DeathYear      *int   `json:"death_year,omitempty"`
	Professions    string `json:"professions,omitempty"`
	KnownForTitles string `json:"known_for_titles,omitempty"`
}

// Rating is a single RATED edge between a user and a series
type Rating struct {
	UserID      string    `json:"user_id"`
	SeriesID    string    `json:"series_id"`
	SeriesTitle string    `json:"series_title"`
	Rating      float64   `json:"rating"`
	Date        time.Time `json:"date"`
	Timestamp   int64     `json:"timestamp"`
}

// UserRating is one row of a user's rating history, with series metadata
type UserRating struct {
	SeriesID    string    `json:"series_id"`
	SeriesTitle string    `json:"series_title"`
	Year        *int      `json:"year,omitempty"`
	Rating      float64   `json:"rating"`
	Date        time.Time `json:"date"`
	Timestamp   int64     `json:"timestamp"`
	Genres      []string  `json:"genres"`
}

// SeriesRating is one row of a series' rating list
type SeriesRating struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Rating    float64   `json:"rating"`
	Date      time.Time `json:"date"`
	Timestamp int64     `json:"timestamp"`
}

// RatingSummary aggregates a series' ratings
type RatingSummary struct {
	SeriesID      string  `json:"series_id"`
	SeriesTitle   string  `json:"series_title"`
	AverageRating float64 `json:"average_rating"`
	TotalRatings  int64   `json:"total_ratings"`
}

// UserStats aggregates a user's rated series that carry at least one genre
type UserStats struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	SeriesCount int64    `json:"series_count"`
	AvgRating   float64  `json:"avg_rating"` // rounded to 0.1
	Genres      []string `json:"genres"`
}

// PopularSeries is a dashboard row: most-rated series
type PopularSeries struct {
	Title        string  `json:"title"`
	RatingsCount int64   `json:"ratings_count"`
	AvgRating    float64 `json:"avg_rating"`
}

// ActiveUser is a dashboard row: users with the most ratings
type ActiveUser struct {
	Username     string `json:"username"`
	RatingsCount int64  `json:"ratings_count"`
}
