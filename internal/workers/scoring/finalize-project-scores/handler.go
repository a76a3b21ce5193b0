package finalizeprojectscores

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coach-selection-workers/internal/cache"
	"coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/common/metrics"
	"coach-selection-workers/internal/repository"
	"coach-selection-workers/internal/search"
	"coach-selection-workers/internal/selection"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "finalize-project-scores"
)

// ScorePublisher receives the finalized ranking. Publishing is best effort.
type ScorePublisher interface {
	IndexScores(ctx context.Context, docs []search.ScoreDocument) error
}

type Handler struct {
	config     *Config
	repo       *repository.Repository
	cache      *cache.Cache
	publisher  ScorePublisher
	errHandler *errors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
}

// NewHandler accepts a nil publisher when Elasticsearch is disabled.
func NewHandler(config *Config, repo *repository.Repository, cache *cache.Cache, publisher ScorePublisher, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		repo:       repo,
		cache:      cache,
		publisher:  publisher,
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

	project, err := h.repo.GetProject(ctx, input.ProjectID)
	if err != nil {
		return nil, repository.MapError("get_project", input.ProjectID, err)
	}
	if project.SelectionConfirmedAt != nil {
		return nil, errors.NewSelectionAlreadyConfirmedError(input.ProjectID)
	}

	weights := selection.Weights{
		Quantitative: project.QuantitativeWeight,
		Qualitative:  project.QualitativeWeight,
	}
	if err := weights.Validate(); err != nil {
		return nil, errors.NewWeightsInvalidError(err.Error()).
			WithMetadata("quantitativeWeight", weights.Quantitative).
			WithMetadata("qualitativeWeight", weights.Qualitative)
	}

	candidates, err := h.repo.ListRankingCandidates(ctx, input.ProjectID)
	if err != nil {
		return nil, repository.MapError("list_ranking_candidates", input.ProjectID, err)
	}

	list := selection.Rank(candidates, weights, project.MaxParticipants)
	finalizedAt := h.now().UTC()

	if err := h.repo.SaveFinalScores(ctx, input.ProjectID, list, finalizedAt); err != nil {
		return nil, repository.MapWriteError("save_final_scores", input.ProjectID, err)
	}

	published := h.publish(ctx, input.ProjectID, list, finalizedAt)

	if err := h.cache.InvalidateRecommendations(ctx, input.ProjectID); err != nil {
		h.logger.Warn("failed to drop cached recommendations", map[string]interface{}{
			"projectId": input.ProjectID,
			"error":     err,
		})
	}

	h.logger.Info("project scores finalized", map[string]interface{}{
		"projectId":        input.ProjectID,
		"rankedCount":      len(list.Applications),
		"recommendedCount": list.RecommendedCount,
		"cutoffScore":      list.CutoffScore,
		"published":        published,
	})

	return &Output{
		ProjectID:        input.ProjectID,
		RankedCount:      len(list.Applications),
		RecommendedCount: list.RecommendedCount,
		MaxParticipants:  list.MaxParticipants,
		CutoffScore:      list.CutoffScore,
		Weights:          weights,
		Ranking:          list.Applications,
		Published:        published,
		FinalizedAt:      finalizedAt,
	}, nil
}

func (h *Handler) publish(ctx context.Context, projectID string, list selection.RankedList, at time.Time) bool {
	if h.publisher == nil || len(list.Applications) == 0 {
		return false
	}
	if err := h.publisher.IndexScores(ctx, search.DocumentsFromRanking(projectID, list, at)); err != nil {
		stdErr := errors.NewIndexingFailedError(h.config.ScoreIndex, err)
		h.logger.Warn("failed to publish finalized scores", map[string]interface{}{
			"projectId": projectID,
			"errorCode": stdErr.Code,
			"error":     stdErr.Details,
		})
		return false
	}
	return true
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
