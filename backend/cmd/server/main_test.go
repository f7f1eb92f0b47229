package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"tv-recommender/backend/internal/graph"
	"tv-recommender/backend/internal/identity"
	"tv-recommender/backend/internal/recommend"
)

// nullUserStore satisfies identity.UserStore for routes that never
// reach the store
type nullUserStore struct{}

func (nullUserStore) CreateUser(ctx context.Context, userID, name, email string, age *int, gender, occupation, joinDate string) (*graph.User, error) {
	return &graph.User{UserID: userID, Name: name, Email: email}, nil
}

func (nullUserStore) UpdateUser(ctx context.Context, userID string, fields map[string]interface{}) (*graph.User, error) {
	return &graph.User{UserID: userID}, nil
}

func (nullUserStore) DeleteUser(ctx context.Context, userID string) (bool, error) {
	return true, nil
}

func (nullUserStore) UserExists(ctx context.Context, userID string) (bool, error) {
	return false, nil
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	repo := graph.NewRepository(nil)
	registerRoutes(router, repo, recommend.NewEngine(repo), identity.NewSynchronizer(nullUserStore{}), zap.NewNop())
	return router
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "ok", response["status"])
}

func TestRateEndpoint_MissingFields(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ratings", bytes.NewBuffer([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, false, response["success"])
}

func TestRateEndpoint_ScoreOutOfRange(t *testing.T) {
	router := testRouter()

	body := []byte(`{"user_id": "1", "series_id": "s1", "score": 6}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/ratings", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, false, response["success"])
	assert.Contains(t, response["message"], "rating must be between 1 and 5")
}

func TestIdentityCreatedEndpoint_InvalidRequest(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/identity/created", bytes.NewBuffer([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIdentityCreatedEndpoint(t *testing.T) {
	router := testRouter()

	body := []byte(`{"id": 7, "username": "alice", "email": "alice@example.com"}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/identity/created", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestRecommendationsEndpoint_UnknownStrategy(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/users/1/recommendations?strategy=psychic", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminCreateSeries_MissingTitle(t *testing.T) {
	router := testRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/admin/series", bytes.NewBuffer([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryInt(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		raw      string
		fallback int
		want     int
	}{
		{"", 10, 10},
		{"5", 10, 5},
		{"0", 10, 0},
		{"-1", 10, -1},
		{"abc", 10, 10},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request, _ = http.NewRequest("GET", "/?limit="+tt.raw, nil)
		assert.Equal(t, tt.want, queryInt(c, "limit", tt.fallback))
	}
}
