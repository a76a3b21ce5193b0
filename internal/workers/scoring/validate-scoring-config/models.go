package validatescoringconfig

import "coach-selection-workers/internal/models"

// Input checks the stored criteria of a project, or the draft Criteria when
// given. Save persists a clean draft.
type Input struct {
	ProjectID      string                   `json:"projectId"`
	Criteria       []models.ScoringCriteria `json:"criteria,omitempty"`
	FailOnProblems bool                     `json:"failOnProblems,omitempty"`
	Save           bool                     `json:"save,omitempty"`
}

type Output struct {
	ProjectID    string    `json:"projectId"`
	IsValid      bool      `json:"isValid"`
	CheckedCount int       `json:"checkedCount"`
	Problems     []Problem `json:"problems"`
	Warnings     []Problem `json:"warnings"`
	Saved        bool      `json:"saved"`
}

type Problem struct {
	ProjectItemID string `json:"projectItemId"`
	CriteriaID    string `json:"criteriaId"`
	Reason        string `json:"reason"`
}
