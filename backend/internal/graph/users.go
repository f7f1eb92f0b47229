package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperr "tv-recommender/backend/pkg/errors"
)

// ============================================================================
// User Operations
// ============================================================================

// userUpdateFields is the whitelist for UpdateUser; anything else is ignored
var userUpdateFields = map[string]bool{
	"name":       true,
	"email":      true,
	"age":        true,
	"gender":     true,
	"occupation": true,
}

// CreateUser creates a User node. joinDate defaults to now when empty.
func (r *Repository) CreateUser(ctx context.Context, userID, name, email string, age *int, gender, occupation, joinDate string) (*User, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	if joinDate == "" {
		joinDate = time.Now().UTC().Format(time.RFC3339)
	}

	query := `
		CREATE (u:User {
			user_id: $user_id,
			name: $name,
			email: $email,
			age: $age,
			gender: $gender,
			occupation: $occupation,
			join_date: $join_date
		})
		RETURN u.user_id as user_id, u.name as name, u.email as email,
		       u.age as age, u.gender as gender, u.occupation as occupation,
		       u.join_date as join_date
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"user_id":    userID,
		"name":       name,
		"email":      email,
		"age":        intPtrParam(age),
		"gender":     nullableString(gender),
		"occupation": nullableString(occupation),
		"join_date":  joinDate,
	})
	if err != nil {
		return nil, apperr.NewQueryFailed("create user", err)
	}

	if result.Next(ctx) {
		return userFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("create user", err)
	}
	return nil, fmt.Errorf("failed to create user %s", userID)
}

// GetUser returns the full attribute set, or nil when absent
func (r *Repository) GetUser(ctx context.Context, userID string) (*User, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {user_id: $user_id})
		RETURN u.user_id as user_id, u.name as name, u.email as email,
		       u.age as age, u.gender as gender, u.occupation as occupation,
		       u.join_date as join_date
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		return nil, apperr.NewQueryFailed("get user", err)
	}
	if result.Next(ctx) {
		return userFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get user", err)
	}
	return nil, nil
}

// GetUserByName looks a user up by display name
func (r *Repository) GetUserByName(ctx context.Context, name string) (*User, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {name: $name})
		RETURN u.user_id as user_id, u.name as name, u.email as email,
		       u.age as age, u.gender as gender, u.occupation as occupation,
		       u.join_date as join_date
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"name": name})
	if err != nil {
		return nil, apperr.NewQueryFailed("get user by name", err)
	}
	if result.Next(ctx) {
		return userFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("get user by name", err)
	}
	return nil, nil
}

// UpdateUser applies a whitelist-filtered partial update. Nil values and
// unknown keys are dropped; when nothing remains the call is a no-op
// returning nil without touching the graph.
func (r *Repository) UpdateUser(ctx context.Context, userID string, fields map[string]interface{}) (*User, error) {
	setClause, params := buildSetClause("u", fields, userUpdateFields)
	if setClause == "" {
		return nil, nil
	}
	params["user_id"] = userID

	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MATCH (u:User {user_id: $user_id})
		SET %s
		RETURN u.user_id as user_id, u.name as name, u.email as email,
		       u.age as age, u.gender as gender, u.occupation as occupation,
		       u.join_date as join_date
	`, setClause)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, apperr.NewQueryFailed("update user", err)
	}
	if result.Next(ctx) {
		return userFromRecord(result.Record()), nil
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed("update user", err)
	}
	return nil, nil
}

// DeleteUser detach-deletes the node, cascading away all RATED edges.
// Returns whether a node was removed.
func (r *Repository) DeleteUser(ctx context.Context, userID string) (bool, error) {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {user_id: $user_id})
		DETACH DELETE u
		RETURN COUNT(u) as deleted
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		return false, apperr.NewQueryFailed("delete user", err)
	}
	if result.Next(ctx) {
		return getInt64FromRecord(result.Record(), "deleted") > 0, nil
	}
	if err := result.Err(); err != nil {
		return false, apperr.NewQueryFailed("delete user", err)
	}
	return false, nil
}

// UserExists checks node existence without fetching attributes
func (r *Repository) UserExists(ctx context.Context, userID string) (bool, error) {
	session := r.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {user_id: $user_id})
		RETURN COUNT(u) > 0 as present
	`

	result, err := session.Run(ctx, query, map[string]interface{}{"user_id": userID})
	if err != nil {
		return false, apperr.NewQueryFailed("user exists", err)
	}
	if result.Next(ctx) {
		return getBoolFromRecord(result.Record(), "present"), nil
	}
	if err := result.Err(); err != nil {
		return false, apperr.NewQueryFailed("user exists", err)
	}
	return false, nil
}

func userFromRecord(record *neo4j.Record) *User {
	return &User{
		UserID:     getStringFromRecord(record, "user_id"),
		Name:       getStringFromRecord(record, "name"),
		Email:      getStringFromRecord(record, "email"),
		Age:        getIntPtrFromRecord(record, "age"),
		Gender:     getStringFromRecord(record, "gender"),
		Occupation: getStringFromRecord(record, "occupation"),
		JoinDate:   getStringFromRecord(record, "join_date"),
	}
}
