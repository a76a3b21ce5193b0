package validatescoringconfig

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"coach-selection-workers/internal/cache"
	"coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/common/metrics"
	"coach-selection-workers/internal/models"
	"coach-selection-workers/internal/repository"
	"coach-selection-workers/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-scoring-config"
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
	draft := len(input.Criteria) > 0
	if input.Save && !draft {
		return nil, errors.NewInputValidationError("save requires criteria")
	}

	output := &Output{ProjectID: input.ProjectID, Problems: []Problem{}, Warnings: []Problem{}}

	if draft {
		for _, raw := range input.Criteria {
			output.CheckedCount++
			if _, err := scoring.Compile(raw); err != nil {
				output.Problems = append(output.Problems, problemFrom(raw, err))
			}
		}
	} else {
		items, err := h.repo.GetProjectItems(ctx, input.ProjectID)
		if err != nil {
			return nil, repository.MapError("get_project_items", input.ProjectID, err)
		}
		h.checkItems(items, output)
	}
	output.IsValid = len(output.Problems) == 0

	h.logger.Info("scoring configuration checked", map[string]interface{}{
		"projectId":    input.ProjectID,
		"checkedCount": output.CheckedCount,
		"problems":     len(output.Problems),
		"warnings":     len(output.Warnings),
		"draft":        draft,
	})

	if !output.IsValid && (input.FailOnProblems || input.Save) {
		return nil, errors.NewScoringConfigInvalidError(summarize(output.Problems)).
			WithMetadata("problemCount", len(output.Problems))
	}

	if input.Save {
		if err := h.repo.SaveScoringCriteria(ctx, input.Criteria); err != nil {
			return nil, repository.MapWriteError("save_scoring_criteria", input.ProjectID, err)
		}
		if err := h.cache.InvalidateScoring(ctx, input.ProjectID); err != nil {
			h.logger.Warn("failed to drop cached scoring config", map[string]interface{}{
				"projectId": input.ProjectID,
				"error":     err,
			})
		}
		output.Saved = true
	}

	return output, nil
}

// checkItems compiles every stored criterion and warns when one can score
// above its item's max score.
func (h *Handler) checkItems(items []models.ProjectItem, output *Output) {
	for _, item := range items {
		if item.Competency.Category == models.CategoryBasic {
			continue
		}
		for _, raw := range item.Criteria {
			output.CheckedCount++
			c, err := scoring.Compile(raw)
			if err != nil {
				output.Problems = append(output.Problems, problemFrom(raw, err))
				continue
			}
			if item.MaxScore > 0 && c.MaxScore() > float64(item.MaxScore) {
				output.Warnings = append(output.Warnings, Problem{
					ProjectItemID: item.ID,
					CriteriaID:    raw.ID,
					Reason: fmt.Sprintf("criterion can score %.2f but the item is capped at %d",
						c.MaxScore(), item.MaxScore),
				})
			}
		}
	}
}

func problemFrom(raw models.ScoringCriteria, err error) Problem {
	p := Problem{ProjectItemID: raw.ProjectItemID, CriteriaID: raw.ID, Reason: err.Error()}
	var ce *scoring.CompileError
	if stderrors.As(err, &ce) {
		p.Reason = ce.Reason
	}
	return p
}

func summarize(problems []Problem) string {
	if len(problems) == 1 {
		return fmt.Sprintf("criteria %s: %s", problems[0].CriteriaID, problems[0].Reason)
	}
	return fmt.Sprintf("%d criteria failed to compile, first: criteria %s: %s",
		len(problems), problems[0].CriteriaID, problems[0].Reason)
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
