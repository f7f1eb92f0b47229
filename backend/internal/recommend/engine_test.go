package recommend

import (
	"context"
	"os"
	"testing"
	"time"

	"tv-recommender/backend/internal/graph"
)

// These tests require a running Neo4j instance.
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables.

// testGraph seeds a small fixture:
//
//	alice rates liked (genre G, actor A) with 5
//	bob   rates liked 5 and neighborPick 5
//	candidate  shares genre G, unrated by alice
//	sameActor  shares actor A, unrated by alice
//	adultTrap  shares genre G but is adult
func testGraph(t *testing.T, ctx context.Context, repo *graph.Repository, stamp string) (alice string, cleanup func()) {
	t.Helper()

	alice = "rec-alice-" + stamp
	bob := "rec-bob-" + stamp
	liked := "rec-liked-" + stamp
	candidate := "rec-candidate-" + stamp
	sameActor := "rec-sameactor-" + stamp
	neighborPick := "rec-pick-" + stamp
	adultTrap := "rec-adult-" + stamp
	genreName := "RecGenre" + stamp
	actorID := "rec-actor-" + stamp

	mustNoErr := func(what string, err error) {
		if err != nil {
			t.Fatalf("%s failed: %v", what, err)
		}
	}

	_, err := repo.CreateUser(ctx, alice, "alice", "alice@example.com", nil, "", "", "")
	mustNoErr("CreateUser", err)
	_, err = repo.CreateUser(ctx, bob, "bob", "bob@example.com", nil, "", "", "")
	mustNoErr("CreateUser", err)

	for _, id := range []string{liked, candidate, neighborPick} {
		_, err = repo.CreateSeries(ctx, id, "Show "+id, "", nil, false)
		mustNoErr("CreateSeries", err)
	}
	_, err = repo.CreateSeries(ctx, sameActor, "Show "+sameActor, "", nil, false)
	mustNoErr("CreateSeries", err)
	_, err = repo.CreateSeries(ctx, adultTrap, "Show "+adultTrap, "", nil, true)
	mustNoErr("CreateSeries", err)

	_, err = repo.CreateActor(ctx, &graph.Actor{ActorID: actorID, Name: "Shared Actor"})
	mustNoErr("CreateActor", err)

	mustNoErr("LinkGenreToSeries", repo.LinkGenreToSeries(ctx, liked, genreName))
	mustNoErr("LinkGenreToSeries", repo.LinkGenreToSeries(ctx, candidate, genreName))
	mustNoErr("LinkGenreToSeries", repo.LinkGenreToSeries(ctx, adultTrap, genreName))
	mustNoErr("LinkActorToSeries", repo.LinkActorToSeries(ctx, liked, actorID))
	mustNoErr("LinkActorToSeries", repo.LinkActorToSeries(ctx, sameActor, actorID))

	_, err = repo.CreateRating(ctx, alice, liked, 5, nil, nil)
	mustNoErr("CreateRating", err)
	_, err = repo.CreateRating(ctx, bob, liked, 5, nil, nil)
	mustNoErr("CreateRating", err)
	_, err = repo.CreateRating(ctx, bob, neighborPick, 5, nil, nil)
	mustNoErr("CreateRating", err)

	cleanup = func() {
		for _, q := range []struct {
			cypher string
			id     string
		}{
			{"MATCH (u:User {user_id: $id}) DETACH DELETE u", alice},
			{"MATCH (u:User {user_id: $id}) DETACH DELETE u", bob},
			{"MATCH (s:Series {series_id: $id}) DETACH DELETE s", liked},
			{"MATCH (s:Series {series_id: $id}) DETACH DELETE s", candidate},
			{"MATCH (s:Series {series_id: $id}) DETACH DELETE s", sameActor},
			{"MATCH (s:Series {series_id: $id}) DETACH DELETE s", neighborPick},
			{"MATCH (s:Series {series_id: $id}) DETACH DELETE s", adultTrap},
			{"MATCH (a:Actor {actor_id: $id}) DETACH DELETE a", actorID},
			{"MATCH (g:Genre {name: $id}) DETACH DELETE g", genreName},
		} {
			_, _ = repo.Query(ctx, q.cypher, map[string]interface{}{"id": q.id})
		}
	}
	return alice, cleanup
}

func TestEngine_ByGenre(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	repo := connectTestRepo(t, ctx)
	defer repo.Close()

	stamp := time.Now().Format("20060102150405")
	alice, cleanup := testGraph(t, ctx, repo, stamp)
	defer cleanup()

	engine := NewEngine(repo)
	recs, err := engine.ByGenre(ctx, alice, 10)
	if err != nil {
		t.Fatalf("ByGenre failed: %v", err)
	}

	if len(recs) != 1 {
		t.Fatalf("Expected exactly 1 candidate, got %d", len(recs))
	}
	if recs[0].SeriesID != "rec-candidate-"+stamp {
		t.Errorf("Expected the shared-genre series, got %s", recs[0].SeriesID)
	}
	if recs[0].Score <= 0 {
		t.Errorf("Expected positive score, got %v", recs[0].Score)
	}
	for _, rec := range recs {
		if rec.SeriesID == "rec-adult-"+stamp {
			t.Error("Adult series must never be recommended")
		}
		if rec.SeriesID == "rec-liked-"+stamp {
			t.Error("Already-rated series must never be recommended")
		}
	}
}

func TestEngine_Collaborative(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	repo := connectTestRepo(t, ctx)
	defer repo.Close()

	stamp := time.Now().Format("20060102150405")
	alice, cleanup := testGraph(t, ctx, repo, stamp)
	defer cleanup()

	engine := NewEngine(repo)
	recs, err := engine.Collaborative(ctx, alice, 10)
	if err != nil {
		t.Fatalf("Collaborative failed: %v", err)
	}

	if len(recs) != 1 {
		t.Fatalf("Expected exactly 1 candidate, got %d", len(recs))
	}
	rec := recs[0]
	if rec.SeriesID != "rec-pick-"+stamp {
		t.Errorf("Expected the neighbor's pick, got %s", rec.SeriesID)
	}
	if rec.RecommendedBy != 1 {
		t.Errorf("Expected 1 recommending neighbor, got %d", rec.RecommendedBy)
	}
	if rec.AvgRating != 5 {
		t.Errorf("Expected neighbor average 5, got %v", rec.AvgRating)
	}
}

func TestEngine_Collaborative_IgnoresLowRatingNeighbors(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	repo := connectTestRepo(t, ctx)
	defer repo.Close()

	stamp := time.Now().Format("20060102150405")
	alice, cleanup := testGraph(t, ctx, repo, stamp)
	defer cleanup()

	// carol co-rated the shared series below 4, so she is no neighbor
	// and her pick must not surface
	carol := "rec-carol-" + stamp
	carolPick := "rec-carolpick-" + stamp
	if _, err := repo.CreateUser(ctx, carol, "carol", "carol@example.com", nil, "", "", ""); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if _, err := repo.CreateSeries(ctx, carolPick, "Show "+carolPick, "", nil, false); err != nil {
		t.Fatalf("CreateSeries failed: %v", err)
	}
	defer func() {
		_, _ = repo.Query(ctx, "MATCH (u:User {user_id: $id}) DETACH DELETE u", map[string]interface{}{"id": carol})
		_, _ = repo.Query(ctx, "MATCH (s:Series {series_id: $id}) DETACH DELETE s", map[string]interface{}{"id": carolPick})
	}()

	if _, err := repo.CreateRating(ctx, carol, "rec-liked-"+stamp, 2, nil, nil); err != nil {
		t.Fatalf("CreateRating failed: %v", err)
	}
	if _, err := repo.CreateRating(ctx, carol, carolPick, 5, nil, nil); err != nil {
		t.Fatalf("CreateRating failed: %v", err)
	}

	engine := NewEngine(repo)
	recs, err := engine.Collaborative(ctx, alice, 10)
	if err != nil {
		t.Fatalf("Collaborative failed: %v", err)
	}
	for _, rec := range recs {
		if rec.SeriesID == carolPick {
			t.Error("Series recommended by a sub-4 co-rater must not surface")
		}
	}
}

func TestEngine_ByGenre_TieBreaksByTitle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	repo := connectTestRepo(t, ctx)
	defer repo.Close()

	stamp := time.Now().Format("20060102150405")
	alice, cleanup := testGraph(t, ctx, repo, stamp)
	defer cleanup()

	// A second candidate in the same genre, equal score, earlier title
	early := "rec-aaa-" + stamp
	if _, err := repo.CreateSeries(ctx, early, "AAA Show "+stamp, "", nil, false); err != nil {
		t.Fatalf("CreateSeries failed: %v", err)
	}
	defer func() {
		_, _ = repo.Query(ctx, "MATCH (s:Series {series_id: $id}) DETACH DELETE s", map[string]interface{}{"id": early})
	}()
	if err := repo.LinkGenreToSeries(ctx, early, "RecGenre"+stamp); err != nil {
		t.Fatalf("LinkGenreToSeries failed: %v", err)
	}

	engine := NewEngine(repo)
	recs, err := engine.ByGenre(ctx, alice, 10)
	if err != nil {
		t.Fatalf("ByGenre failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(recs))
	}
	if recs[0].SeriesID != early {
		t.Errorf("Expected the alphabetically earlier title first, got %s", recs[0].SeriesID)
	}
}

func TestEngine_ByActors(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	repo := connectTestRepo(t, ctx)
	defer repo.Close()

	stamp := time.Now().Format("20060102150405")
	alice, cleanup := testGraph(t, ctx, repo, stamp)
	defer cleanup()

	engine := NewEngine(repo)
	recs, err := engine.ByActors(ctx, alice, 10)
	if err != nil {
		t.Fatalf("ByActors failed: %v", err)
	}

	if len(recs) != 1 {
		t.Fatalf("Expected exactly 1 candidate, got %d", len(recs))
	}
	if recs[0].SeriesID != "rec-sameactor-"+stamp {
		t.Errorf("Expected the shared-actor series, got %s", recs[0].SeriesID)
	}
	if len(recs[0].Actors) != 1 || recs[0].Actors[0] != "Shared Actor" {
		t.Errorf("Expected shared actor names, got %v", recs[0].Actors)
	}
}

func TestEngine_Hybrid(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	repo := connectTestRepo(t, ctx)
	defer repo.Close()

	stamp := time.Now().Format("20060102150405")
	alice, cleanup := testGraph(t, ctx, repo, stamp)
	defer cleanup()

	engine := NewEngine(repo)
	recs, err := engine.Hybrid(ctx, alice, 10)
	if err != nil {
		t.Fatalf("Hybrid failed: %v", err)
	}

	if len(recs) == 0 {
		t.Fatal("Expected hybrid candidates")
	}
	for _, rec := range recs {
		if rec.Score <= 0 {
			t.Errorf("Expected positive hybrid score for %s, got %v", rec.SeriesID, rec.Score)
		}
		if rec.SeriesID == "rec-adult-"+stamp {
			t.Error("Adult series must never be recommended")
		}
	}
}

func TestEngine_Hybrid_NeighborRatingsBoostScore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	repo := connectTestRepo(t, ctx)
	defer repo.Close()

	stamp := time.Now().Format("20060102150405")
	alice, cleanup := testGraph(t, ctx, repo, stamp)
	defer cleanup()

	// Two more candidates in the shared genre. The neighbor rates one 5
	// and the other 2, so only the first earns a collaborative boost and
	// the second must score the same as the untouched candidate.
	boosted := "rec-boosted-" + stamp
	lowball := "rec-lowball-" + stamp
	for _, id := range []string{boosted, lowball} {
		if _, err := repo.CreateSeries(ctx, id, "Show "+id, "", nil, false); err != nil {
			t.Fatalf("CreateSeries failed: %v", err)
		}
		if err := repo.LinkGenreToSeries(ctx, id, "RecGenre"+stamp); err != nil {
			t.Fatalf("LinkGenreToSeries failed: %v", err)
		}
	}
	defer func() {
		for _, id := range []string{boosted, lowball} {
			_, _ = repo.Query(ctx, "MATCH (s:Series {series_id: $id}) DETACH DELETE s", map[string]interface{}{"id": id})
		}
	}()

	bob := "rec-bob-" + stamp
	if _, err := repo.CreateRating(ctx, bob, boosted, 5, nil, nil); err != nil {
		t.Fatalf("CreateRating failed: %v", err)
	}
	if _, err := repo.CreateRating(ctx, bob, lowball, 2, nil, nil); err != nil {
		t.Fatalf("CreateRating failed: %v", err)
	}

	engine := NewEngine(repo)
	recs, err := engine.Hybrid(ctx, alice, 10)
	if err != nil {
		t.Fatalf("Hybrid failed: %v", err)
	}

	scores := make(map[string]float64, len(recs))
	for _, rec := range recs {
		scores[rec.SeriesID] = rec.Score
	}

	plain := "rec-candidate-" + stamp
	if scores[boosted] <= scores[plain] {
		t.Errorf("Expected the neighbor-endorsed candidate to outscore the plain one, got %v vs %v",
			scores[boosted], scores[plain])
	}
	if scores[lowball] != scores[plain] {
		t.Errorf("A sub-4 neighbor rating must not add a boost, got %v vs %v",
			scores[lowball], scores[plain])
	}
	if len(recs) == 0 || recs[0].SeriesID != boosted {
		t.Errorf("Expected the boosted candidate ranked first, got %+v", recs)
	}
}

func TestEngine_NoRatingsMeansNoRecommendations(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	repo := connectTestRepo(t, ctx)
	defer repo.Close()

	engine := NewEngine(repo)
	recs, err := engine.ByGenre(ctx, "rec-nobody-"+time.Now().Format("20060102150405"), 10)
	if err != nil {
		t.Fatalf("ByGenre failed: %v", err)
	}
	if recs == nil {
		t.Error("Expected a non-nil empty slice")
	}
	if len(recs) != 0 {
		t.Errorf("Expected no candidates for an unknown user, got %d", len(recs))
	}
}

func connectTestRepo(t *testing.T, ctx context.Context) *graph.Repository {
	t.Helper()

	uri := envOr("NEO4J_URI", "bolt://localhost:7687")
	user := envOr("NEO4J_USER", "neo4j")
	password := envOr("NEO4J_PASSWORD", "password")

	repo, err := graph.Connect(ctx, uri, user, password)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	return repo
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
