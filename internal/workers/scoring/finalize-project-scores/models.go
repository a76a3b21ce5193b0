package finalizeprojectscores

import (
	"time"

	"coach-selection-workers/internal/selection"
)

type Input struct {
	ProjectID string `json:"projectId"`
}

type Output struct {
	ProjectID        string                        `json:"projectId"`
	RankedCount      int                           `json:"rankedCount"`
	RecommendedCount int                           `json:"recommendedCount"`
	MaxParticipants  int                           `json:"maxParticipants"`
	CutoffScore      float64                       `json:"cutoffScore"`
	Weights          selection.Weights             `json:"weights"`
	Ranking          []selection.RankedApplication `json:"ranking"`
	Published        bool                          `json:"published"`
	FinalizedAt      time.Time                     `json:"finalizedAt"`
}
