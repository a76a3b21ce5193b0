// Package app wires the shared clients and task handlers used by the
// worker manager and the scoring API.
package app

import (
	"context"
	"fmt"
	"time"

	"coach-selection-workers/internal/cache"
	"coach-selection-workers/internal/common/aws"
	"coach-selection-workers/internal/common/camunda"
	"coach-selection-workers/internal/common/config"
	"coach-selection-workers/internal/common/database"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/common/observability"
	"coach-selection-workers/internal/repository"
	"coach-selection-workers/internal/search"
	calculateprojectscores "coach-selection-workers/internal/workers/scoring/calculate-project-scores"
	finalizeprojectscores "coach-selection-workers/internal/workers/scoring/finalize-project-scores"
	validatescoringconfig "coach-selection-workers/internal/workers/scoring/validate-scoring-config"
	validatesurveyscores "coach-selection-workers/internal/workers/scoring/validate-survey-scores"
	confirmbulkselection "coach-selection-workers/internal/workers/selection/confirm-bulk-selection"
	getselectionrecommendations "coach-selection-workers/internal/workers/selection/get-selection-recommendations"
	notifyselectionresults "coach-selection-workers/internal/workers/selection/notify-selection-results"

	"go.uber.org/zap"
)

// Deps holds the connected backing services.
type Deps struct {
	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient
	Repo          *repository.Repository
	Cache         *cache.Cache
}

// RetryWithBackoff runs operation until it succeeds, doubling the delay
// between attempts.
func RetryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Connect opens PostgreSQL, Redis and, when enabled, Elasticsearch.
func Connect(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (*Deps, error) {
	deps := &Deps{}

	err := RetryWithBackoff(func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		deps.Postgres = pg
		return nil
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	zapLog.Info("PostgreSQL connected successfully")

	deps.Redis = database.NewRedis(cfg.Database.Redis)
	if err := RetryWithBackoff(func() error {
		return deps.Redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection"); err != nil {
		deps.Close()
		return nil, err
	}
	zapLog.Info("Redis connected successfully")

	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			deps.Close()
			return nil, err
		}
		if err := RetryWithBackoff(func() error {
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection"); err != nil {
			deps.Close()
			return nil, err
		}
		deps.Elasticsearch = es
		zapLog.Info("Elasticsearch connected successfully")

		index := search.NewScoreIndex(es.Client, cfg.Database.Elasticsearch.ScoreIndex)
		if err := index.EnsureIndex(ctx); err != nil {
			zapLog.Warn("score index not ready", zap.String("index", cfg.Database.Elasticsearch.ScoreIndex), zap.Error(err))
		}
	}

	deps.Repo = repository.New(deps.Postgres.DB)
	deps.Cache = cache.New(
		deps.Redis.Client,
		time.Duration(cfg.Scoring.ConfigCacheTTL)*time.Second,
		time.Duration(cfg.Scoring.RecommendationsCacheTTL)*time.Second,
	)
	return deps, nil
}

// Ping checks every connected service.
func (d *Deps) Ping(ctx context.Context) error {
	if err := d.Postgres.Ping(ctx); err != nil {
		return err
	}
	if err := d.Redis.Ping(ctx); err != nil {
		return err
	}
	if d.Elasticsearch != nil {
		return d.Elasticsearch.Ping(ctx)
	}
	return nil
}

func (d *Deps) Close() {
	if d.Redis != nil {
		d.Redis.Close()
	}
	if d.Postgres != nil {
		d.Postgres.Close()
	}
}

// Handlers are the task handlers, one per registered task type.
type Handlers struct {
	Calculate       *calculateprojectscores.Handler
	Finalize        *finalizeprojectscores.Handler
	Recommendations *getselectionrecommendations.Handler
	Confirm         *confirmbulkselection.Handler
	Survey          *validatesurveyscores.Handler
	Criteria        *validatescoringconfig.Handler
	Notify          *notifyselectionresults.Handler
}

// Options carries the optional collaborators of the handlers. Nil fields
// switch the matching feature off.
type Options struct {
	Observability *observability.Observability
	Publisher     confirmbulkselection.MessagePublisher
	Email         aws.EmailSender
	SMS           aws.SMSSender
}

func NewHandlers(cfg *config.Config, deps *Deps, opts Options, log logger.Logger) *Handlers {
	worker := func(taskType string) config.WorkerConfig {
		return config.GetWorkerConfig(cfg, taskType)
	}

	var scores finalizeprojectscores.ScorePublisher
	if deps.Elasticsearch != nil {
		scores = search.NewScoreIndex(deps.Elasticsearch.Client, cfg.Database.Elasticsearch.ScoreIndex)
	}

	return &Handlers{
		Calculate: calculateprojectscores.NewHandler(
			calculateprojectscores.LoadConfig(worker(calculateprojectscores.TaskType)),
			deps.Repo, deps.Cache, opts.Observability, log),
		Finalize: finalizeprojectscores.NewHandler(
			finalizeprojectscores.LoadConfig(worker(finalizeprojectscores.TaskType), cfg.Database.Elasticsearch),
			deps.Repo, deps.Cache, scores, log),
		Recommendations: getselectionrecommendations.NewHandler(
			getselectionrecommendations.LoadConfig(worker(getselectionrecommendations.TaskType)),
			deps.Repo, deps.Cache, log),
		Confirm: confirmbulkselection.NewHandler(
			confirmbulkselection.LoadConfig(worker(confirmbulkselection.TaskType)),
			deps.Repo, deps.Cache, opts.Publisher, log),
		Survey: validatesurveyscores.NewHandler(
			validatesurveyscores.LoadConfig(worker(validatesurveyscores.TaskType)),
			deps.Repo, log),
		Criteria: validatescoringconfig.NewHandler(
			validatescoringconfig.LoadConfig(worker(validatescoringconfig.TaskType)),
			deps.Repo, deps.Cache, log),
		Notify: notifyselectionresults.NewHandler(
			notifyselectionresults.LoadConfig(worker(notifyselectionresults.TaskType), cfg.Notifications),
			deps.Repo, opts.Email, opts.SMS, log),
	}
}

// ByTaskType maps each task type onto its job handler.
func (h *Handlers) ByTaskType() map[string]camunda.JobHandler {
	return map[string]camunda.JobHandler{
		calculateprojectscores.TaskType:      h.Calculate,
		finalizeprojectscores.TaskType:       h.Finalize,
		getselectionrecommendations.TaskType: h.Recommendations,
		confirmbulkselection.TaskType:        h.Confirm,
		validatesurveyscores.TaskType:        h.Survey,
		validatescoringconfig.TaskType:       h.Criteria,
		notifyselectionresults.TaskType:      h.Notify,
	}
}

// NewSenders builds the SES and SNS clients enabled in config. Disabled
// channels are returned as nil interfaces.
func NewSenders(ctx context.Context, cfg config.NotificationConfig) (aws.EmailSender, aws.SMSSender, error) {
	var (
		email aws.EmailSender
		sms   aws.SMSSender
	)
	if cfg.Email.Enabled {
		c, err := aws.NewSESClient(ctx, cfg.AWS.Region, cfg.Email.FromEmail)
		if err != nil {
			return nil, nil, err
		}
		email = c
	}
	if cfg.SMS.Enabled {
		c, err := aws.NewSNSClient(ctx, cfg.AWS.Region, cfg.SMS.SenderID)
		if err != nil {
			return nil, nil, err
		}
		sms = c
	}
	return email, sms, nil
}
