package camunda

import (
	"context"
	"time"

	"coach-selection-workers/internal/common/config"
	"coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/metrics"
	"coach-selection-workers/internal/common/observability"
	"coach-selection-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler is implemented by every task worker. Handlers complete, fail or
// throw on the job themselves.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Middleware is the shared per-job plumbing applied around every handler.
// Any field may be nil.
type Middleware struct {
	Registry      *registry.ActivityRegistry
	Errors        *errors.ErrorHandler
	Observability *observability.Observability
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. It returns nil when the worker
// is disabled in config.
func NewWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler JobHandler,
	mw Middleware,
	logger *zap.Logger,
) *CamundaWorker {
	if !wcfg.Enabled {
		logger.Info("worker disabled", zap.String("taskType", taskType))
		return nil
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(mw.Wrap(taskType, handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)

	return &CamundaWorker{
		worker:   jobWorker,
		logger:   logger,
		taskType: taskType,
	}
}

// Wrap validates job variables against the registered input schema and
// records job metrics and a span around the handler.
func (mw Middleware) Wrap(taskType string, handler JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		ctx, span := mw.Observability.StartJobSpan(context.Background(), taskType, job.Key)
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			elapsed := time.Since(start)
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
			mw.Observability.RecordJobProcessed(ctx, taskType)
			mw.Observability.RecordJobDuration(ctx, elapsed, taskType)
			span.End()
		}()

		if err := mw.checkInput(taskType, job); err != nil {
			if mw.Errors != nil {
				mw.Errors.HandleJobError(ctx, client, job, err)
			}
			return
		}
		handler.Handle(client, job)
	}
}

func (mw Middleware) checkInput(taskType string, job entities.Job) error {
	if mw.Registry == nil {
		return nil
	}
	res, err := mw.Registry.ValidateInput(taskType, []byte(job.Variables))
	if err != nil {
		return errors.NewInternalError(err)
	}
	if !res.Valid {
		return errors.NewInputValidationError(res.Summary())
	}
	return nil
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	if w == nil {
		return
	}
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
	w.worker.AwaitClose()
}
