package identity

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"tv-recommender/backend/internal/graph"
	"tv-recommender/backend/pkg/logger"
)

// UserStore is the slice of the graph repository the synchronizer needs.
// *graph.Repository satisfies it.
type UserStore interface {
	CreateUser(ctx context.Context, userID, name, email string, age *int, gender, occupation, joinDate string) (*graph.User, error)
	UpdateUser(ctx context.Context, userID string, fields map[string]interface{}) (*graph.User, error)
	DeleteUser(ctx context.Context, userID string) (bool, error)
	UserExists(ctx context.Context, userID string) (bool, error)
}

// Synchronizer mirrors identity lifecycle events into graph User nodes
type Synchronizer struct {
	store  UserStore
	logger *zap.Logger
}

// NewSynchronizer creates a synchronizer over a user store
func NewSynchronizer(store UserStore) *Synchronizer {
	return &Synchronizer{
		store:  store,
		logger: logger.Named("identity"),
	}
}

// UserCreated handles a signup event. Creation is skipped when the node
// already exists, which keeps at-least-once delivery idempotent.
func (s *Synchronizer) UserCreated(ctx context.Context, rec UserRecord) {
	userID := rec.GraphID()

	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		s.logger.Error("Identity sync failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if exists {
		s.logger.Info("User node already present, create skipped", zap.String("user_id", userID))
		return
	}

	_, err = s.store.CreateUser(ctx, userID, rec.Username, rec.Email, nil, "", "", isoDate(rec.JoinDate))
	if err != nil {
		s.logger.Error("Identity sync failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.logger.Info("User node created",
		zap.String("user_id", userID),
		zap.String("username", rec.Username),
	)
}

// UserUpdated handles a profile change. When the node is missing the
// handler falls through to create, healing a divergence, and logs a
// warning instead of an info line.
func (s *Synchronizer) UserUpdated(ctx context.Context, id int, username, email string) {
	userID := strconv.Itoa(id)

	exists, err := s.store.UserExists(ctx, userID)
	if err != nil {
		s.logger.Error("Identity sync failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	if exists {
		_, err = s.store.UpdateUser(ctx, userID, map[string]interface{}{
			"name":  username,
			"email": email,
		})
		if err != nil {
			s.logger.Error("Identity sync failed", zap.String("user_id", userID), zap.Error(err))
			return
		}
		s.logger.Info("User node updated",
			zap.String("user_id", userID),
			zap.String("username", username),
		)
		return
	}

	_, err = s.store.CreateUser(ctx, userID, username, email, nil, "", "", "")
	if err != nil {
		s.logger.Error("Identity sync failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.logger.Warn("User node was missing, created from update event",
		zap.String("user_id", userID),
		zap.String("username", username),
	)
}

// UserPreDelete handles deletion. DETACH DELETE cascades away every
// RATED edge the user owns.
func (s *Synchronizer) UserPreDelete(ctx context.Context, id int) {
	userID := strconv.Itoa(id)

	deleted, err := s.store.DeleteUser(ctx, userID)
	if err != nil {
		s.logger.Error("Identity sync failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if deleted {
		s.logger.Info("User node deleted", zap.String("user_id", userID))
	} else {
		s.logger.Warn("User node not found for delete", zap.String("user_id", userID))
	}
}

// ResyncReport summarizes a bulk resync run
type ResyncReport struct {
	Created int
	Updated int
	Skipped int
	Errors  int
}

// Resync walks every identity record and applies created-or-updated
// logic. With force, existing nodes are updated too; without it they
// are skipped. Per-user errors are counted, not propagated, so one bad
// record never aborts the run.
func (s *Synchronizer) Resync(ctx context.Context, provider Provider, force bool) (ResyncReport, error) {
	var report ResyncReport

	users, err := provider.ListUsers(ctx)
	if err != nil {
		return report, err
	}

	s.logger.Info("Starting identity resync", zap.Int("users", len(users)), zap.Bool("force", force))

	for _, rec := range users {
		userID := rec.GraphID()

		exists, err := s.store.UserExists(ctx, userID)
		if err != nil {
			report.Errors++
			s.logger.Error("Resync check failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}

		switch {
		case exists && !force:
			report.Skipped++
		case exists:
			_, err := s.store.UpdateUser(ctx, userID, map[string]interface{}{
				"name":  rec.Username,
				"email": rec.Email,
			})
			if err != nil {
				report.Errors++
				s.logger.Error("Resync update failed", zap.String("user_id", userID), zap.Error(err))
				continue
			}
			report.Updated++
		default:
			_, err := s.store.CreateUser(ctx, userID, rec.Username, rec.Email, nil, "", "", isoDate(rec.JoinDate))
			if err != nil {
				report.Errors++
				s.logger.Error("Resync create failed", zap.String("user_id", userID), zap.Error(err))
				continue
			}
			report.Created++
		}
	}

	s.logger.Info("Identity resync finished",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("errors", report.Errors),
	)
	return report, nil
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
