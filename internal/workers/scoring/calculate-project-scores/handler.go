package calculateprojectscores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coach-selection-workers/internal/cache"
	"coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/common/metrics"
	"coach-selection-workers/internal/common/observability"
	"coach-selection-workers/internal/repository"
	"coach-selection-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-project-scores"
)

type Handler struct {
	config     *Config
	repo       *repository.Repository
	cache      *cache.Cache
	obs        *observability.Observability
	errHandler *errors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

func NewHandler(config *Config, repo *repository.Repository, cache *cache.Cache, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		repo:       repo,
		cache:      cache,
		obs:        obs,
		errHandler: errors.NewErrorHandler(l),
		logger:     l,
		now:        time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errHandler.HandleJobError(ctx, client, job, errors.NewInputValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ProjectID == "" {
		return nil, errors.NewInputValidationError("projectId is required")
	}

	if _, err := h.repo.GetProject(ctx, input.ProjectID); err != nil {
		return nil, repository.MapError("get_project", input.ProjectID, err)
	}

	items, err := h.cache.ProjectItems(ctx, input.ProjectID, h.repo.GetProjectItems)
	if err != nil {
		return nil, repository.MapError("get_project_items", input.ProjectID, err)
	}

	cfg := scoring.CompileProject(input.ProjectID, items)
	problems := make([]ConfigProblem, 0, len(cfg.Problems))
	for _, p := range cfg.Problems {
		h.logger.Warn("criteria scored as zero", map[string]interface{}{
			"projectId":     input.ProjectID,
			"projectItemId": p.ProjectItemID,
			"criteriaId":    p.CriteriaID,
			"reason":        p.Reason,
		})
		problems = append(problems, ConfigProblem{
			ProjectItemID: p.ProjectItemID,
			CriteriaID:    p.CriteriaID,
			Reason:        p.Reason,
		})
	}
	metrics.CriteriaCompileErrors.Add(float64(len(problems)))

	apps, err := h.repo.ListApplications(ctx, input.ProjectID, input.ApplicationID)
	if err != nil {
		return nil, repository.MapError("list_applications", input.ProjectID, err)
	}
	if input.ApplicationID != "" && len(apps) == 0 {
		return nil, errors.NewApplicationNotFoundError(input.ApplicationID)
	}

	scores := make([]scoring.ApplicationScore, 0, len(apps))
	summaries := make([]ApplicationSummary, 0, len(apps))
	total := 0.0
	for _, app := range apps {
		s := cfg.ScoreApplication(app)
		scores = append(scores, s)
		summaries = append(summaries, ApplicationSummary{ApplicationID: s.ApplicationID, AutoScore: s.AutoScore})
		total += s.AutoScore
		h.obs.RecordAutoScore(ctx, input.ProjectID, s.AutoScore)
	}

	if len(scores) > 0 {
		if err := h.repo.SaveAutoScores(ctx, scores); err != nil {
			return nil, repository.MapWriteError("save_auto_scores", input.ProjectID, err)
		}
	}
	metrics.ApplicationsScored.Add(float64(len(scores)))

	if err := h.cache.InvalidateRecommendations(ctx, input.ProjectID); err != nil {
		h.logger.Warn("failed to drop cached recommendations", map[string]interface{}{
			"projectId": input.ProjectID,
			"error":     err,
		})
	}

	avg := 0.0
	if len(scores) > 0 {
		avg = scoring.Round2(total / float64(len(scores)))
	}

	h.logger.Info("auto scores calculated", map[string]interface{}{
		"projectId":      input.ProjectID,
		"scoredCount":    len(scores),
		"averageScore":   avg,
		"configProblems": len(problems),
	})

	return &Output{
		ProjectID:        input.ProjectID,
		ScoredCount:      len(scores),
		AverageAutoScore: avg,
		Scores:           summaries,
		ConfigProblems:   problems,
		CalculatedAt:     h.now().UTC(),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
