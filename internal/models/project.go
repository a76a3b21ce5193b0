package models

import "time"

const (
	ProjectStatusDraft      = "draft"
	ProjectStatusRecruiting = "recruiting"
	ProjectStatusReviewing  = "reviewing"
	ProjectStatusCompleted  = "completed"
)

type Project struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Status               string     `json:"status"`
	MaxParticipants      int        `json:"maxParticipants"`
	QuantitativeWeight   int        `json:"quantitativeWeight"`
	QualitativeWeight    int        `json:"qualitativeWeight"`
	ScoresFinalizedAt    *time.Time `json:"scoresFinalizedAt,omitempty"`
	SelectionConfirmedAt *time.Time `json:"selectionConfirmedAt,omitempty"`
}

// CustomQuestion is a free-form survey question with a manually assigned score share.
type CustomQuestion struct {
	ID           string `json:"id"`
	ProjectID    string `json:"projectId"`
	Question     string `json:"question"`
	MaxScore     int    `json:"maxScore"`
	IsRequired   bool   `json:"isRequired"`
	DisplayOrder int    `json:"displayOrder"`
}
