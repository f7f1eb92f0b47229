package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tv-recommender/backend/internal/graph"
	"tv-recommender/backend/internal/identity"
	"tv-recommender/backend/internal/recommend"
	apperr "tv-recommender/backend/pkg/errors"
)

func registerRoutes(router *gin.Engine, repo *graph.Repository, engine *recommend.Engine, synchronizer *identity.Synchronizer, log *zap.Logger) {
	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Catalog
		api.GET("/genres", func(c *gin.Context) {
			genres, err := repo.GetAllGenres(c.Request.Context())
			if err != nil {
				log.Error("Failed to list genres", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list genres"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"genres": genres})
		})

		api.GET("/series", func(c *gin.Context) {
			ctx := c.Request.Context()

			if genre := c.Query("genre"); genre != "" {
				series, err := repo.GetSeriesByGenre(ctx, genre)
				if err != nil {
					log.Error("Failed to list series by genre", zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list series"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"series": series, "genre": genre})
				return
			}

			limit := queryInt(c, "limit", -1)
			series, err := repo.GetAllSeries(ctx, limit)
			if err != nil {
				log.Error("Failed to list series", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list series"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"series": series})
		})

		api.GET("/series/search", func(c *gin.Context) {
			keyword := c.Query("q")
			limit := queryInt(c, "limit", 20)

			results, err := repo.SearchSeries(c.Request.Context(), keyword, limit)
			if err != nil {
				log.Error("Search failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"query": keyword, "results": results})
		})

		api.GET("/series/:id", func(c *gin.Context) {
			ctx := c.Request.Context()

			series, err := resolveSeries(ctx, repo, c.Param("id"))
			if err != nil {
				log.Error("Failed to fetch series", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch series"})
				return
			}
			if series == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Series not found"})
				return
			}

			summary, err := repo.GetAverageRating(ctx, series.SeriesID)
			if err != nil {
				log.Error("Failed to fetch rating summary", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch series"})
				return
			}

			payload := gin.H{"series": series, "rating_info": summary}
			if userID := c.Query("user_id"); userID != "" {
				userRating, err := repo.GetRating(ctx, userID, series.SeriesID)
				if err != nil {
					log.Error("Failed to fetch user rating", zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch series"})
					return
				}
				payload["user_rating"] = userRating
			}
			c.JSON(http.StatusOK, payload)
		})

		api.GET("/series/:id/ratings", func(c *gin.Context) {
			ratings, err := repo.GetSeriesRatings(c.Request.Context(), c.Param("id"))
			if err != nil {
				log.Error("Failed to fetch series ratings", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ratings"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ratings": ratings})
		})

		api.GET("/actors/:id", func(c *gin.Context) {
			ctx := c.Request.Context()

			actor, err := repo.GetActor(ctx, c.Param("id"))
			if err != nil {
				log.Error("Failed to fetch actor", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch actor"})
				return
			}
			if actor == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Actor not found"})
				return
			}

			series, err := repo.GetActorSeries(ctx, actor.ActorID)
			if err != nil {
				log.Error("Failed to fetch actor series", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch actor"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"actor": actor, "series": series})
		})

		api.GET("/actors/:id/series", func(c *gin.Context) {
			series, err := repo.GetActorSeries(c.Request.Context(), c.Param("id"))
			if err != nil {
				log.Error("Failed to fetch actor series", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch series"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"series": series})
		})

		// Ratings (AJAX-style: always a {success, message} payload)
		api.POST("/ratings", func(c *gin.Context) {
			ctx := c.Request.Context()

			var req struct {
				UserID      string `json:"user_id" binding:"required"`
				SeriesID    string `json:"series_id"`
				SeriesTitle string `json:"series_title"`
				Score       int    `json:"score" binding:"required"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
				return
			}
			if req.Score < 1 || req.Score > 5 {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": apperr.NewInvalidRating(req.Score).Error()})
				return
			}
			if req.SeriesID == "" && req.SeriesTitle == "" {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": apperr.NewMissingField("series_id").Error()})
				return
			}

			series, err := resolveSeriesLoose(ctx, repo, req.SeriesID, req.SeriesTitle)
			if err != nil {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
				return
			}
			if series == nil {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid series"})
				return
			}

			if _, err := repo.CreateRating(ctx, req.UserID, series.SeriesID, float64(req.Score), nil, nil); err != nil {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
				return
			}

			summary, err := repo.GetAverageRating(ctx, series.SeriesID)
			if err != nil {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
				return
			}

			average := 0.0
			total := int64(0)
			if summary != nil {
				average = summary.AverageRating
				total = summary.TotalRatings
			}
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"message": "Rating saved",
				"average": average,
				"total":   total,
			})
		})

		api.POST("/ratings/delete", func(c *gin.Context) {
			ctx := c.Request.Context()

			var req struct {
				UserID      string `json:"user_id" binding:"required"`
				SeriesID    string `json:"series_id"`
				SeriesTitle string `json:"series_title"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
				return
			}

			series, err := resolveSeriesLoose(ctx, repo, req.SeriesID, req.SeriesTitle)
			if err != nil {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
				return
			}
			if series == nil {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": "Invalid series"})
				return
			}

			deleted, err := repo.DeleteRating(ctx, req.UserID, series.SeriesID)
			if err != nil {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
				return
			}
			if !deleted {
				c.JSON(http.StatusOK, gin.H{"success": false, "message": "Rating not found"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rating deleted"})
		})

		// User profile
		api.GET("/users/:id", func(c *gin.Context) {
			ctx := c.Request.Context()
			userID := c.Param("id")

			user, err := repo.GetUser(ctx, userID)
			if err != nil {
				log.Error("Failed to fetch user", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
				return
			}
			if user == nil {
				// Profile links sometimes carry the username instead
				user, err = repo.GetUserByName(ctx, userID)
				if err != nil {
					log.Error("Failed to fetch user", zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
					return
				}
			}
			if user == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}

			stats, err := repo.GetUserStatistics(ctx, user.UserID)
			if err != nil {
				log.Error("Failed to fetch user stats", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"user": user, "stats": stats})
		})

		api.GET("/users/:id/ratings", func(c *gin.Context) {
			ratings, err := repo.GetUserRatings(c.Request.Context(), c.Param("id"))
			if err != nil {
				log.Error("Failed to fetch user ratings", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ratings"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ratings": ratings})
		})

		// Recommendations. A named strategy runs alone; without one all
		// four strategies fan out concurrently.
		api.GET("/users/:id/recommendations", func(c *gin.Context) {
			ctx := c.Request.Context()
			userID := c.Param("id")
			limit := queryInt(c, "limit", 10)

			switch strategy := c.Query("strategy"); strategy {
			case "genre":
				respondRecommendations(c, log)(engine.ByGenre(ctx, userID, limit))
			case "collaborative":
				respondRecommendations(c, log)(engine.Collaborative(ctx, userID, limit))
			case "actor":
				respondRecommendations(c, log)(engine.ByActors(ctx, userID, limit))
			case "hybrid":
				respondRecommendations(c, log)(engine.Hybrid(ctx, userID, limit))
			case "":
				var genreRecs, collabRecs, actorRecs, hybridRecs []recommend.Recommendation
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() (err error) {
					genreRecs, err = engine.ByGenre(gctx, userID, limit)
					return err
				})
				g.Go(func() (err error) {
					collabRecs, err = engine.Collaborative(gctx, userID, limit)
					return err
				})
				g.Go(func() (err error) {
					actorRecs, err = engine.ByActors(gctx, userID, limit)
					return err
				})
				g.Go(func() (err error) {
					hybridRecs, err = engine.Hybrid(gctx, userID, limit)
					return err
				})
				if err := g.Wait(); err != nil {
					log.Error("Failed to compute recommendations", zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute recommendations"})
					return
				}
				c.JSON(http.StatusOK, gin.H{
					"genre":         genreRecs,
					"collaborative": collabRecs,
					"actor":         actorRecs,
					"hybrid":        hybridRecs,
				})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown strategy"})
			}
		})

		// Identity lifecycle events (inbound from the identity provider)
		identityGroup := api.Group("/identity")
		{
			identityGroup.POST("/created", func(c *gin.Context) {
				var req struct {
					ID       int    `json:"id" binding:"required"`
					Username string `json:"username" binding:"required"`
					Email    string `json:"email"`
					JoinDate string `json:"join_date"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				joinDate, _ := time.Parse(time.RFC3339, req.JoinDate)
				synchronizer.UserCreated(c.Request.Context(), identity.UserRecord{
					ID:       req.ID,
					Username: req.Username,
					Email:    req.Email,
					JoinDate: joinDate,
				})
				c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
			})

			identityGroup.POST("/updated", func(c *gin.Context) {
				var req struct {
					ID       int    `json:"id" binding:"required"`
					Username string `json:"username" binding:"required"`
					Email    string `json:"email"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				synchronizer.UserUpdated(c.Request.Context(), req.ID, req.Username, req.Email)
				c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
			})

			identityGroup.POST("/deleted", func(c *gin.Context) {
				var req struct {
					ID int `json:"id" binding:"required"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				synchronizer.UserPreDelete(c.Request.Context(), req.ID)
				c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
			})
		}

		// Admin
		admin := api.Group("/admin")
		{
			admin.GET("/dashboard", func(c *gin.Context) {
				ctx := c.Request.Context()

				nodes, err := repo.CountNodesByLabel(ctx)
				if err != nil {
					log.Error("Failed to count nodes", zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
					return
				}
				popular, err := repo.PopularSeries(ctx, 10)
				if err != nil {
					log.Error("Failed to load popular series", zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
					return
				}
				active, err := repo.ActiveUsers(ctx, 10)
				if err != nil {
					log.Error("Failed to load active users", zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
					return
				}

				c.JSON(http.StatusOK, gin.H{
					"total_users":    nodes["User"],
					"total_series":   nodes["Series"],
					"popular_series": popular,
					"active_users":   active,
				})
			})

			admin.POST("/genres", func(c *gin.Context) {
				var req struct {
					Name string `json:"name" binding:"required"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
					return
				}

				genre, err := repo.GetOrCreateGenre(c.Request.Context(), req.Name)
				if err != nil {
					c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
					return
				}
				c.JSON(http.StatusOK, gin.H{"success": true, "message": "Genre available", "genre": genre})
			})

			admin.GET("/actors", func(c *gin.Context) {
				actors, err := repo.GetAllActors(c.Request.Context(), queryInt(c, "limit", 500))
				if err != nil {
					log.Error("Failed to list actors", zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list actors"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"actors": actors})
			})

			admin.POST("/series", func(c *gin.Context) {
				ctx := c.Request.Context()

				var req struct {
					SeriesID      string   `json:"series_id"`
					Title         string   `json:"title" binding:"required"`
					OriginalTitle string   `json:"original_title"`
					Year          *int     `json:"year"`
					IsAdult       bool     `json:"is_adult"`
					Genres        []string `json:"genres"`
					ActorIDs      []string `json:"actor_ids"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
					return
				}

				seriesID := req.SeriesID
				if seriesID == "" {
					seriesID = uuid.New().String()
				}

				series, err := repo.CreateSeries(ctx, seriesID, req.Title, req.OriginalTitle, req.Year, req.IsAdult)
				if err != nil {
					c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
					return
				}
				for _, genre := range req.Genres {
					if genre == "" {
						continue
					}
					if err := repo.LinkGenreToSeries(ctx, seriesID, genre); err != nil {
						c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
						return
					}
				}
				for _, actorID := range req.ActorIDs {
					if actorID == "" {
						continue
					}
					if err := repo.LinkActorToSeries(ctx, seriesID, actorID); err != nil {
						c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
						return
					}
				}

				c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Series created", "series": series})
			})

			admin.PUT("/series/:id", func(c *gin.Context) {
				ctx := c.Request.Context()
				seriesID := c.Param("id")

				var req struct {
					Title         *string   `json:"title"`
					OriginalTitle *string   `json:"original_title"`
					Year          *int      `json:"year"`
					IsAdult       *bool     `json:"is_adult"`
					Genres        *[]string `json:"genres"`
					ActorIDs      *[]string `json:"actor_ids"`
				}
				if err := c.ShouldBindJSON(&req); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
					return
				}

				fields := map[string]interface{}{}
				if req.Title != nil {
					fields["title"] = *req.Title
				}
				if req.OriginalTitle != nil {
					fields["original_title"] = *req.OriginalTitle
				}
				if req.Year != nil {
					fields["year"] = int64(*req.Year)
				}
				if req.IsAdult != nil {
					fields["is_adult"] = *req.IsAdult
				}

				if len(fields) > 0 {
					if _, err := repo.UpdateSeries(ctx, seriesID, fields); err != nil {
						c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
						return
					}
				}
				if req.Genres != nil {
					if err := repo.ReplaceSeriesGenres(ctx, seriesID, *req.Genres); err != nil {
						c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
						return
					}
				}
				if req.ActorIDs != nil {
					if err := repo.ReplaceSeriesActors(ctx, seriesID, *req.ActorIDs); err != nil {
						c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
						return
					}
				}

				series, err := repo.GetSeries(ctx, seriesID)
				if err != nil {
					c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
					return
				}
				if series == nil {
					c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Series not found"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"success": true, "message": "Series updated", "series": series})
			})

			admin.DELETE("/series/:id", func(c *gin.Context) {
				deleted, err := repo.DeleteSeries(c.Request.Context(), c.Param("id"))
				if err != nil {
					c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
					return
				}
				if !deleted {
					c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Series not found"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"success": true, "message": "Series deleted"})
			})
		}
	}
}

// resolveSeries looks a series up by id, falling back to title so links
// carrying either form keep working
func resolveSeries(ctx context.Context, repo *graph.Repository, identifier string) (*graph.Series, error) {
	if identifier == "" {
		return nil, nil
	}
	series, err := repo.GetSeries(ctx, identifier)
	if err != nil || series != nil {
		return series, err
	}
	return repo.GetSeriesByTitle(ctx, identifier)
}

// resolveSeriesLoose prefers the explicit id and falls back to a title
func resolveSeriesLoose(ctx context.Context, repo *graph.Repository, seriesID, title string) (*graph.Series, error) {
	if seriesID != "" {
		return repo.GetSeries(ctx, seriesID)
	}
	return resolveSeries(ctx, repo, title)
}

// respondRecommendations reduces the per-strategy handler boilerplate
func respondRecommendations(c *gin.Context, log *zap.Logger) func([]recommend.Recommendation, error) {
	return func(recs []recommend.Recommendation, err error) {
		if err != nil {
			log.Error("Failed to compute recommendations", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute recommendations"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"recommendations": recs})
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
