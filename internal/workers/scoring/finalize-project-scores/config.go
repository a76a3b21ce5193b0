package finalizeprojectscores

import (
	"time"

	"coach-selection-workers/internal/common/config"
)

type Config struct {
	Timeout    time.Duration
	ScoreIndex string
}

// LoadConfig takes the job timeout from the worker config, 60s when unset.
func LoadConfig(wcfg config.WorkerConfig, escfg config.ElasticsearchConfig) *Config {
	cfg := &Config{Timeout: 60 * time.Second, ScoreIndex: escfg.ScoreIndex}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return cfg
}
