package validatesurveyscores

import (
	"context"
	"encoding/json"
	"fmt"

	"coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/common/metrics"
	"coach-selection-workers/internal/common/validation"
	"coach-selection-workers/internal/repository"
	"coach-selection-workers/internal/survey"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-survey-scores"
)

type Handler struct {
	config     *Config
	repo       *repository.Repository
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, repo *repository.Repository, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		repo:       repo,
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

	snapshot, err := h.loadSnapshot(ctx, input)
	if err != nil {
		return nil, err
	}

	cmds := make([]survey.Command, 0, len(input.Commands))
	for i, env := range input.Commands {
		cmd, err := env.Decode()
		if err != nil {
			return nil, errors.NewInputValidationError(fmt.Sprintf("commands.%d: %v", i, err))
		}
		cmds = append(cmds, cmd)
	}
	snapshot, err = survey.ApplyAll(snapshot, cmds...)
	if err != nil {
		return nil, errors.NewInputValidationError(err.Error())
	}

	result := survey.Validate(snapshot)

	h.logger.Info("survey total checked", map[string]interface{}{
		"projectId":  input.ProjectID,
		"total":      result.Total,
		"difference": result.Difference,
		"isValid":    result.IsValid,
	})

	if !result.IsValid && input.FailOnInvalid {
		return nil, errors.NewSurveyTotalInvalidError(result.Message).
			WithMetadata("total", result.Total).
			WithMetadata("difference", result.Difference)
	}

	return &Output{
		ProjectID:  input.ProjectID,
		IsValid:    result.IsValid,
		Total:      result.Total,
		Difference: result.Difference,
		Message:    result.Message,
		Snapshot:   snapshot,
	}, nil
}

func (h *Handler) loadSnapshot(ctx context.Context, input *Input) (survey.Snapshot, error) {
	if input.Snapshot != nil {
		if res := validation.Struct(input.Snapshot); !res.Valid {
			return survey.Snapshot{}, errors.NewInputValidationError(res.Summary())
		}
		return *input.Snapshot, nil
	}

	if _, err := h.repo.GetProject(ctx, input.ProjectID); err != nil {
		return survey.Snapshot{}, repository.MapError("get_project", input.ProjectID, err)
	}
	items, err := h.repo.GetProjectItems(ctx, input.ProjectID)
	if err != nil {
		return survey.Snapshot{}, repository.MapError("get_project_items", input.ProjectID, err)
	}
	questions, err := h.repo.GetCustomQuestions(ctx, input.ProjectID)
	if err != nil {
		return survey.Snapshot{}, repository.MapError("get_custom_questions", input.ProjectID, err)
	}
	return survey.FromProject(items, questions), nil
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
