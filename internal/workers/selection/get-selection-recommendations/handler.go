package getselectionrecommendations

import (
	"context"
	"encoding/json"
	"fmt"

	"coach-selection-workers/internal/cache"
	"coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/common/metrics"
	"coach-selection-workers/internal/repository"
	"coach-selection-workers/internal/selection"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "get-selection-recommendations"
)

type Handler struct {
	config     *Config
	repo       *repository.Repository
	cache      *cache.Cache
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, repo *repository.Repository, cache *cache.Cache, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		repo:       repo,
		cache:      cache,
		errHandler: errors.NewErrorHandler(l),
		logger:     l,
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

	project, err := h.repo.GetProject(ctx, input.ProjectID)
	if err != nil {
		return nil, repository.MapError("get_project", input.ProjectID, err)
	}

	weights := selection.Weights{
		Quantitative: project.QuantitativeWeight,
		Qualitative:  project.QualitativeWeight,
	}
	if err := weights.Validate(); err != nil {
		return nil, errors.NewWeightsInvalidError(err.Error())
	}

	if input.Refresh {
		if err := h.cache.InvalidateRecommendations(ctx, input.ProjectID); err != nil {
			h.logger.Warn("failed to drop cached recommendations", map[string]interface{}{
				"projectId": input.ProjectID,
				"error":     err,
			})
		}
	}

	list, cached, err := h.cache.Recommendations(ctx, input.ProjectID, func(ctx context.Context, projectID string) (*selection.RankedList, error) {
		candidates, err := h.repo.ListRankingCandidates(ctx, projectID)
		if err != nil {
			return nil, err
		}
		ranked := selection.Rank(candidates, weights, project.MaxParticipants)
		return &ranked, nil
	})
	if err != nil {
		return nil, repository.MapError("list_ranking_candidates", input.ProjectID, err)
	}

	h.logger.Info("recommendations ready", map[string]interface{}{
		"projectId":        input.ProjectID,
		"totalApplicants":  list.TotalApplicants,
		"recommendedCount": list.RecommendedCount,
		"cached":           cached,
	})

	return &Output{
		ProjectID:         input.ProjectID,
		Applications:      list.Applications,
		MaxParticipants:   list.MaxParticipants,
		CutoffScore:       list.CutoffScore,
		TotalApplicants:   list.TotalApplicants,
		RecommendedCount:  list.RecommendedCount,
		Weights:           list.Weights,
		ScoresFinalizedAt: project.ScoresFinalizedAt,
		Cached:            cached,
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
