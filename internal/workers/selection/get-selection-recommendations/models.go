package getselectionrecommendations

import (
	"time"

	"coach-selection-workers/internal/selection"
)

type Input struct {
	ProjectID string `json:"projectId"`
	// Refresh bypasses the cached ranking.
	Refresh bool `json:"refresh,omitempty"`
}

type Output struct {
	ProjectID         string                        `json:"projectId"`
	Applications      []selection.RankedApplication `json:"applications"`
	MaxParticipants   int                           `json:"maxParticipants"`
	CutoffScore       float64                       `json:"cutoffScore"`
	TotalApplicants   int                           `json:"totalApplicants"`
	RecommendedCount  int                           `json:"recommendedCount"`
	Weights           selection.Weights             `json:"weights"`
	ScoresFinalizedAt *time.Time                    `json:"scoresFinalizedAt,omitempty"`
	Cached            bool                          `json:"cached"`
}
