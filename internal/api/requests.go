package api

import (
	"coach-selection-workers/internal/models"
	"coach-selection-workers/internal/survey"
)

type calculateRequest struct {
	ApplicationID string `json:"applicationId"`
}

type confirmRequest struct {
	ApplicationIDs []string `json:"applicationIds" validate:"required,min=1,dive,required"`
}

type weightsRequest struct {
	Quantitative *int `json:"quantitativeWeight" validate:"required"`
	Qualitative  *int `json:"qualitativeWeight" validate:"required"`
}

type surveyRequest struct {
	Snapshot      *survey.Snapshot         `json:"snapshot"`
	Commands      []survey.CommandEnvelope `json:"commands"`
	FailOnInvalid bool                     `json:"failOnInvalid"`
}

type criteriaRequest struct {
	ProjectID string                   `json:"projectId" validate:"required"`
	Criteria  []models.ScoringCriteria `json:"criteria" validate:"required,min=1"`
	Save      bool                     `json:"save"`
}
