package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tv-recommender/backend/internal/graph"
)

// fakeStore records synchronizer calls in memory
type fakeStore struct {
	users   map[string]*graph.User
	created []string
	updated []string
	deleted []string
	failOn  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*graph.User{}}
}

func (f *fakeStore) CreateUser(ctx context.Context, userID, name, email string, age *int, gender, occupation, joinDate string) (*graph.User, error) {
	if f.failOn == "create" {
		return nil, errors.New("create failed")
	}
	u := &graph.User{UserID: userID, Name: name, Email: email, JoinDate: joinDate}
	f.users[userID] = u
	f.created = append(f.created, userID)
	return u, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, userID string, fields map[string]interface{}) (*graph.User, error) {
	if f.failOn == "update" {
		return nil, errors.New("update failed")
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, nil
	}
	if name, ok := fields["name"].(string); ok {
		u.Name = name
	}
	if email, ok := fields["email"].(string); ok {
		u.Email = email
	}
	f.updated = append(f.updated, userID)
	return u, nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, userID string) (bool, error) {
	if f.failOn == "delete" {
		return false, errors.New("delete failed")
	}
	if _, ok := f.users[userID]; !ok {
		return false, nil
	}
	delete(f.users, userID)
	f.deleted = append(f.deleted, userID)
	return true, nil
}

func (f *fakeStore) UserExists(ctx context.Context, userID string) (bool, error) {
	if f.failOn == "exists" {
		return false, errors.New("exists failed")
	}
	_, ok := f.users[userID]
	return ok, nil
}

// fakeProvider serves a fixed user list
type fakeProvider struct {
	users []UserRecord
	err   error
}

func (p *fakeProvider) ListUsers(ctx context.Context) ([]UserRecord, error) {
	return p.users, p.err
}

func TestSynchronizer_UserCreated(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	sync := NewSynchronizer(store)

	joined := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sync.UserCreated(ctx, UserRecord{ID: 7, Username: "alice", Email: "alice@example.com", JoinDate: joined})

	assert.Equal(t, []string{"7"}, store.created)
	assert.Equal(t, "alice", store.users["7"].Name)
	assert.Equal(t, "2024-03-01T12:00:00Z", store.users["7"].JoinDate)
}

func TestSynchronizer_UserCreated_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	sync := NewSynchronizer(store)

	rec := UserRecord{ID: 7, Username: "alice", Email: "alice@example.com"}
	sync.UserCreated(ctx, rec)
	sync.UserCreated(ctx, rec)

	// Redelivery must not create twice
	assert.Equal(t, []string{"7"}, store.created)
}

func TestSynchronizer_UserUpdated(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	sync := NewSynchronizer(store)

	sync.UserCreated(ctx, UserRecord{ID: 7, Username: "alice", Email: "alice@example.com"})
	sync.UserUpdated(ctx, 7, "alice2", "alice2@example.com")

	assert.Equal(t, []string{"7"}, store.updated)
	assert.Equal(t, "alice2", store.users["7"].Name)
	assert.Equal(t, "alice2@example.com", store.users["7"].Email)
}

func TestSynchronizer_UserUpdated_HealsMissingNode(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	sync := NewSynchronizer(store)

	// No prior create: the update event must fall through to create
	sync.UserUpdated(ctx, 9, "ghost", "ghost@example.com")

	assert.Empty(t, store.updated)
	assert.Equal(t, []string{"9"}, store.created)
	assert.Equal(t, "ghost", store.users["9"].Name)
}

func TestSynchronizer_UserPreDelete(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	sync := NewSynchronizer(store)

	sync.UserCreated(ctx, UserRecord{ID: 7, Username: "alice"})
	sync.UserPreDelete(ctx, 7)

	assert.Equal(t, []string{"7"}, store.deleted)
	assert.Empty(t, store.users)

	// Deleting again must not panic or error out of the handler
	sync.UserPreDelete(ctx, 7)
	assert.Equal(t, []string{"7"}, store.deleted)
}

func TestSynchronizer_HandlersAbsorbStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.failOn = "exists"
	sync := NewSynchronizer(store)

	// None of these may panic even when every store call fails
	sync.UserCreated(ctx, UserRecord{ID: 1, Username: "a"})
	sync.UserUpdated(ctx, 1, "a", "a@example.com")

	store.failOn = "delete"
	sync.UserPreDelete(ctx, 1)

	assert.Empty(t, store.created)
	assert.Empty(t, store.updated)
	assert.Empty(t, store.deleted)
}

func TestSynchronizer_Resync(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	sync := NewSynchronizer(store)

	sync.UserCreated(ctx, UserRecord{ID: 1, Username: "old", Email: "old@example.com"})

	provider := &fakeProvider{users: []UserRecord{
		{ID: 1, Username: "renamed", Email: "new@example.com"},
		{ID: 2, Username: "fresh", Email: "fresh@example.com"},
	}}

	report, err := sync.Resync(ctx, provider, false)
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Errors)

	// Without force the existing node keeps its old name
	assert.Equal(t, "old", store.users["1"].Name)
	assert.Equal(t, "fresh", store.users["2"].Name)
}

func TestSynchronizer_Resync_Force(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	sync := NewSynchronizer(store)

	sync.UserCreated(ctx, UserRecord{ID: 1, Username: "old", Email: "old@example.com"})

	provider := &fakeProvider{users: []UserRecord{
		{ID: 1, Username: "renamed", Email: "new@example.com"},
	}}

	report, err := sync.Resync(ctx, provider, true)
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, "renamed", store.users["1"].Name)
}

func TestSynchronizer_Resync_CountsErrors(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.failOn = "create"
	sync := NewSynchronizer(store)

	provider := &fakeProvider{users: []UserRecord{
		{ID: 1, Username: "a"},
		{ID: 2, Username: "b"},
	}}

	report, err := sync.Resync(ctx, provider, false)
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Errors)
	assert.Equal(t, 0, report.Created)
}

func TestSynchronizer_Resync_ProviderError(t *testing.T) {
	ctx := context.Background()
	sync := NewSynchronizer(newFakeStore())

	_, err := sync.Resync(ctx, &fakeProvider{err: errors.New("export unavailable")}, false)
	assert.Error(t, err)
}
