package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperr "tv-recommender/backend/pkg/errors"
)

// ============================================================================
// Actor Operations
// ============================================================================

// CreateActor creates an Actor node
func (r *Repository) CreateActor(ctx context.Context, actor *Actor) (*Actor, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		CREATE (a:Actor {
			actor_id: $actor_id,
			name: $name,
			birth_year: $birth_year,
			death_year: $death_year,
			professions: $professions,
			known_for_titles: $known_for_titles
		})
		RETURN a.actor_id as actor_id, a.name as name,
		       a.birth_year as birth_year, a.death_year as death_year,
		       a.professions as professions, a.known_for_titles as known_for_titles
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"actor_id":         actor.ActorID,
		"name":             actor.Name,
		"birth_year":       intPtrParam(actor.BirthYear),
		"death_year":       intPtrParam(actor.DeathYear),
		"professions":      nullableString(actor.Professions),
		"known_for_titles": nullableString(actor.KnownForTitles),
	})
	if err != nil {
		return nil, apperr.NewQueryFailed("create actor", err)
	}
	if result.Next(ctx) {
		return actorFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("create actor", err)
	}
	return nil, fmt.Errorf("failed to create actor %s", actor.ActorID)
}

// GetActor returns an actor's full attribute set, or nil when absent
func (r *Repository) GetActor(ctx context.Context, actorID string) (*Actor, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (a:Actor {actor_id: $actor_id})
		RETURN a.actor_id as actor_id, a.name as name,
		       a.birth_year as birth_year, a.death_year as death_year,
		       a.professions as professions, a.known_for_titles as known_for_titles
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"actor_id": actorID})
	if err != nil {
		return nil, apperr.NewQueryFailed("get actor", err)
	}
	if result.Next(ctx) {
		return actorFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get actor", err)
	}
	return nil, nil
}

// GetAllActors lists actors sorted by name. limit <= 0 defaults to 100.
func (r *Repository) GetAllActors(ctx context.Context, limit int) ([]Actor, error) {
	if limit <= 0 {
		limit = 100
	}

	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (a:Actor)
		RETURN a.actor_id as actor_id, a.name as name,
		       a.birth_year as birth_year, a.death_year as death_year,
		       a.professions as professions, a.known_for_titles as known_for_titles
		ORDER BY name
		LIMIT $limit
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, apperr.NewQueryFailed("get all actors", err)
	}

	actors := []Actor{}
	for result.Next(ctx) {
		actors = append(actors, *actorFromRecord(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get all actors", err)
	}
	return actors, nil
}

// LinkActorToSeries upserts the HAS_ACTOR edge. Both endpoints must
// already exist; the MATCH makes the call a no-op otherwise.
func (r *Repository) LinkActorToSeries(ctx context.Context, seriesID, actorID string) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (s:Series {series_id: $series_id})
		MATCH (a:Actor {actor_id: $actor_id})
		MERGE (s)-[:HAS_ACTOR]->(a)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"series_id": seriesID,
		"actor_id":  actorID,
	})
	if err != nil {
		return apperr.NewQueryFailed("link actor to series", err)
	}
	return nil
}

// GetActorSeries lists the non-adult series an actor appears in,
// newest first
func (r *Repository) GetActorSeries(ctx context.Context, actorID string) ([]Series, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (a:Actor {actor_id: $actor_id})<-[:HAS_ACTOR]-(s:Series)
		WHERE s.is_adult = false
		RETURN s.series_id as series_id, s.title as title,
		       s.original_title as original_title, s.year as year,
		       s.is_adult as is_adult
		ORDER BY s.year DESC
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"actor_id": actorID})
	if err != nil {
		return nil, apperr.NewQueryFailed("get actor series", err)
	}
	return collectSeries(ctx, result)
}

func actorFromRecord(record *neo4j.Record) *Actor {
	return &Actor{
		ActorID:        getStringFromRecord(record, "actor_id"),
		Name:           getStringFromRecord(record, "name"),
		BirthYear:      getIntPtrFromRecord(record, "birth_year"),
		DeathYear:      getIntPtrFromRecord(record, "death_year"),
		Professions:    getStringFromRecord(record, "professions"),
		KnownForTitles: getStringFromRecord(record, "known_for_titles"),
	}
}
