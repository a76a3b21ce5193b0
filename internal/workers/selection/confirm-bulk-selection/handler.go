package confirmbulkselection

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"coach-selection-workers/internal/cache"
	"coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/common/metrics"
	"coach-selection-workers/internal/models"
	"coach-selection-workers/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "confirm-bulk-selection"
)

// MessagePublisher starts the notification workflow for confirmations made
// through the API.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, name, correlationKey string, variables interface{}) error
}

type Handler struct {
	config     *Config
	repo       *repository.Repository
	cache      *cache.Cache
	publisher  MessagePublisher
	errHandler *errors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
	newID      func() string
}

// NewHandler accepts a nil publisher. Job workers pass nil because the
// process instance continues on completion.
func NewHandler(config *Config, repo *repository.Repository, cache *cache.Cache, publisher MessagePublisher, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		repo:       repo,
		cache:      cache,
		publisher:  publisher,
		errHandler: errors.NewErrorHandler(l),
		logger:     l,
		now:        time.Now,
		newID:      uuid.NewString,
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
	ids := make([]string, 0, len(input.ApplicationIDs))
	for _, id := range input.ApplicationIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return nil, errors.NewSelectionInvalidError(fmt.Sprintf("application id %q is not a valid id", id))
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, errors.NewSelectionInvalidError("at least one application must be selected")
	}

	confirmedAt := h.now().UTC()
	result, err := h.repo.ConfirmSelection(ctx, input.ProjectID, ids, confirmedAt)
	if err != nil {
		return nil, h.mapConfirmError(input.ProjectID, err)
	}

	batchID := h.newID()
	metrics.SelectionDecisions.WithLabelValues(models.SelectionSelected).Add(float64(result.SelectedCount))
	metrics.SelectionDecisions.WithLabelValues(models.SelectionRejected).Add(float64(result.RejectedCount))

	if err := h.cache.InvalidateRecommendations(ctx, input.ProjectID); err != nil {
		h.logger.Warn("failed to drop cached recommendations", map[string]interface{}{
			"projectId": input.ProjectID,
			"error":     err,
		})
	}

	h.logger.Info("selection confirmed", map[string]interface{}{
		"projectId":     input.ProjectID,
		"batchId":       batchID,
		"selectedCount": result.SelectedCount,
		"rejectedCount": result.RejectedCount,
		"confirmedBy":   input.ConfirmedBy,
	})

	if h.publisher != nil {
		vars := confirmedVariables{
			ProjectID:     input.ProjectID,
			BatchID:       batchID,
			SelectedCount: result.SelectedCount,
			RejectedCount: result.RejectedCount,
		}
		if err := h.publisher.PublishMessage(ctx, SelectionConfirmedMessage, input.ProjectID, vars); err != nil {
			h.logger.Warn("failed to publish selection message", map[string]interface{}{
				"projectId": input.ProjectID,
				"batchId":   batchID,
				"error":     err,
			})
		}
	}

	return &Output{
		ProjectID:     input.ProjectID,
		BatchID:       batchID,
		SelectedCount: result.SelectedCount,
		RejectedCount: result.RejectedCount,
		ConfirmedBy:   input.ConfirmedBy,
		ConfirmedAt:   result.ConfirmedAt,
	}, nil
}

// mapConfirmError keeps business rejections as they are and reports any
// other failure as a rolled-back confirmation.
func (h *Handler) mapConfirmError(projectID string, err error) error {
	switch {
	case stderrors.Is(err, repository.ErrProjectNotFound),
		stderrors.Is(err, repository.ErrSelectionAlreadyConfirmed),
		stderrors.Is(err, repository.ErrSelectionMismatch):
		return repository.MapError("confirm_selection", projectID, err)
	default:
		return errors.NewSelectionConfirmFailedError(err)
	}
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
