package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperr "tv-recommender/backend/pkg/errors"
	"tv-recommender/backend/pkg/logger"
)

// Repository handles all Neo4j database operations. One instance (and one
// underlying driver pool) per process; sessions are opened per call.
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a repository over an existing driver
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Connect builds the driver, verifies connectivity and returns a ready
// repository. Connectivity failures surface as ErrConnectionFailed.
func Connect(ctx context.Context, uri, user, password string) (*Repository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, apperr.NewConnectionFailed(uri, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, apperr.NewConnectionFailed(uri, err)
	}
	return NewRepository(driver), nil
}

// Close closes the Neo4j driver connection. Safe to call more than once.
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// Query runs a parameterized Cypher statement and materializes every
// result record as a column-name keyed map. Used by the maintenance CLI
// and the handful of callers that do not need typed rows.
func (r *Repository) Query(ctx context.Context, cypher string, params map[string]interface{}) ([]map[string]interface{}, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, apperr.NewQueryFailed(cypher, err)
	}

	records := []map[string]interface{}{}
	for result.Next(ctx) {
		records = append(records, recordAsMap(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, apperr.NewQueryFailed(cypher, err)
	}
	return records, nil
}

// readSession and writeSession keep the access-mode choice in one place
func (r *Repository) readSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
}

func (r *Repository) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
}
