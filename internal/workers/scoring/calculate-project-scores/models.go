package calculateprojectscores

import "time"

type Input struct {
	ProjectID     string `json:"projectId"`
	ApplicationID string `json:"applicationId,omitempty"`
}

type Output struct {
	ProjectID        string               `json:"projectId"`
	ScoredCount      int                  `json:"scoredCount"`
	AverageAutoScore float64              `json:"averageAutoScore"`
	Scores           []ApplicationSummary `json:"scores"`
	ConfigProblems   []ConfigProblem      `json:"configProblems"`
	CalculatedAt     time.Time            `json:"calculatedAt"`
}

type ApplicationSummary struct {
	ApplicationID string  `json:"applicationId"`
	AutoScore     float64 `json:"autoScore"`
}

// ConfigProblem is a criterion that scored zero because it failed to compile.
type ConfigProblem struct {
	ProjectItemID string `json:"projectItemId"`
	CriteriaID    string `json:"criteriaId"`
	Reason        string `json:"reason"`
}
