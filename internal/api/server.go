// Package api exposes the scoring and selection operations over HTTP for
// the admin front end. Every route runs the same handler code as the
// matching Zeebe worker.
package api

import (
	"context"
	"strconv"
	"time"

	"coach-selection-workers/internal/cache"
	"coach-selection-workers/internal/common/config"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/common/metrics"
	"coach-selection-workers/internal/repository"
	calculateprojectscores "coach-selection-workers/internal/workers/scoring/calculate-project-scores"
	finalizeprojectscores "coach-selection-workers/internal/workers/scoring/finalize-project-scores"
	validatescoringconfig "coach-selection-workers/internal/workers/scoring/validate-scoring-config"
	validatesurveyscores "coach-selection-workers/internal/workers/scoring/validate-survey-scores"
	confirmbulkselection "coach-selection-workers/internal/workers/selection/confirm-bulk-selection"
	getselectionrecommendations "coach-selection-workers/internal/workers/selection/get-selection-recommendations"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Operations are the worker handlers served by the API.
type Operations struct {
	Calculate       *calculateprojectscores.Handler
	Finalize        *finalizeprojectscores.Handler
	Recommendations *getselectionrecommendations.Handler
	Confirm         *confirmbulkselection.Handler
	Survey          *validatesurveyscores.Handler
	Criteria        *validatescoringconfig.Handler
}

type Server struct {
	app     *fiber.App
	ops     Operations
	repo    *repository.Repository
	cache   *cache.Cache
	logger  logger.Logger
	timeout time.Duration
}

func New(cfg config.Config, ops Operations, repo *repository.Repository, c *cache.Cache, log logger.Logger) *Server {
	l := log.WithFields(map[string]interface{}{"component": "scoring-api"})
	s := &Server{
		ops:     ops,
		repo:    repo,
		cache:   c,
		logger:  l,
		timeout: 30 * time.Second,
	}
	if cfg.HTTP.WriteTimeout > 0 {
		s.timeout = time.Duration(cfg.HTTP.WriteTimeout) * time.Millisecond
	}

	s.app = fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(l),
		ReadTimeout:           time.Duration(cfg.HTTP.ReadTimeout) * time.Millisecond,
		WriteTimeout:          time.Duration(cfg.HTTP.WriteTimeout) * time.Millisecond,
	})
	s.app.Use(recover.New())
	s.app.Use(s.observe)
	s.routes(cfg.Auth)
	return s
}

func (s *Server) routes(auth config.AuthConfig) {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api", RequireAuth(auth))
	managers := []string{RoleAdmin, RoleProjectManager}

	projects := api.Group("/projects/:projectId")
	projects.Post("/scores/calculate", OnlyRoles("calculate_scores", managers...), s.calculateScores)
	projects.Post("/scores/finalize", OnlyRoles("finalize_scores", managers...), s.finalizeScores)
	projects.Get("/selection/recommendations",
		OnlyRoles("get_recommendations", RoleAdmin, RoleProjectManager, RoleReviewer), s.recommendations)
	projects.Post("/selection/confirm", OnlyRoles("confirm_selection", managers...), s.confirmSelection)
	projects.Post("/survey/validate", OnlyRoles("validate_survey", managers...), s.validateSurvey)
	projects.Put("/weights", OnlyRoles("update_weights", managers...), s.updateWeights)

	api.Post("/scoring/criteria/validate", OnlyRoles("validate_criteria", managers...), s.validateCriteria)
}

// observe bounds the request context and records request latency.
func (s *Server) observe(c *fiber.Ctx) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(c.UserContext(), s.timeout)
	defer cancel()
	c.SetUserContext(ctx)

	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = statusOf(err)
	}
	metrics.APIRequestDuration.
		WithLabelValues(c.Method(), c.Route().Path, strconv.Itoa(status)).
		Observe(time.Since(start).Seconds())
	return err
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("scoring api listening", map[string]interface{}{"address": addr})
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
