package notifyselectionresults

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"coach-selection-workers/internal/common/aws"
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
	TaskType = "notify-selection-results"
)

type Handler struct {
	config     *Config
	repo       *repository.Repository
	email      aws.EmailSender
	sms        aws.SMSSender
	errHandler *errors.ErrorHandler
	logger     logger.Logger
	now        func() time.Time
	newID      func() string
}

// NewHandler accepts nil senders for channels that are disabled.
func NewHandler(config *Config, repo *repository.Repository, email aws.EmailSender, sms aws.SMSSender, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		repo:       repo,
		email:      email,
		sms:        sms,
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

	project, err := h.repo.GetProject(ctx, input.ProjectID)
	if err != nil {
		return nil, repository.MapError("get_project", input.ProjectID, err)
	}
	if project.SelectionConfirmedAt == nil {
		return nil, errors.NewSelectionInvalidError("selection has not been confirmed for project " + input.ProjectID)
	}

	contacts, err := h.repo.ListSelectionContacts(ctx, input.ProjectID)
	if err != nil {
		return nil, repository.MapError("list_selection_contacts", input.ProjectID, err)
	}

	output := &Output{
		NotificationID: h.newID(),
		ProjectID:      input.ProjectID,
		Recipients:     len(contacts),
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	var lastErr error
	for _, c := range contacts {
		tmpl, ok := templates[c.SelectionResult]
		if !ok {
			continue
		}
		data := map[string]interface{}{
			"name":         c.Name,
			"projectTitle": project.Title,
		}

		if h.config.EmailEnabled && h.email != nil && c.Email != "" {
			_, err := h.email.SendEmail(ctx, aws.Email{
				To:      c.Email,
				Subject: renderTemplate(tmpl.subject, data),
				Body:    renderTemplate(tmpl.body, data),
			})
			if err != nil {
				lastErr = err
				h.recordFailure(output, c, ChannelEmail, err)
			} else {
				output.EmailsSent++
				metrics.NotificationsSent.WithLabelValues(ChannelEmail).Inc()
			}
		}

		if h.config.SMSEnabled && h.sms != nil && c.Phone != "" && tmpl.sms != "" {
			if _, err := h.sms.SendSMS(ctx, c.Phone, renderTemplate(tmpl.sms, data)); err != nil {
				lastErr = err
				h.recordFailure(output, c, ChannelSMS, err)
			} else {
				output.SMSSent++
				metrics.NotificationsSent.WithLabelValues(ChannelSMS).Inc()
			}
		}
	}

	if output.Failed > 0 && output.EmailsSent+output.SMSSent == 0 {
		return nil, errors.NewNotificationSendFailedError(output.Failures[0].Channel, lastErr)
	}

	h.logger.Info("selection results notified", map[string]interface{}{
		"projectId":  input.ProjectID,
		"recipients": output.Recipients,
		"emailsSent": output.EmailsSent,
		"smsSent":    output.SMSSent,
		"failed":     output.Failed,
	})
	return output, nil
}

func (h *Handler) recordFailure(output *Output, c models.ApplicationContact, channel string, err error) {
	output.Failed++
	output.Failures = append(output.Failures, DeliveryError{
		ApplicationID: c.ApplicationID,
		Channel:       channel,
		Error:         err.Error(),
	})
	h.logger.Warn("notification send failed", map[string]interface{}{
		"applicationId": c.ApplicationID,
		"channel":       channel,
		"error":         err,
	})
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
