package models

import (
	"encoding/json"
	"time"
)

// Application statuses. Drafts are never scored or selected.
const (
	ApplicationStatusDraft     = "draft"
	ApplicationStatusSubmitted = "submitted"
	ApplicationStatusReviewing = "reviewing"
	ApplicationStatusCompleted = "completed"
)

// Selection results written by bulk selection confirmation.
const (
	SelectionPending  = "pending"
	SelectionSelected = "selected"
	SelectionRejected = "rejected"
)

// Verification statuses of a submitted answer's proof document.
const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
)

type Application struct {
	ID               string            `json:"id"`
	ProjectID        string            `json:"projectId"`
	UserID           string            `json:"userId"`
	Status           string            `json:"status"`
	SelectionResult  string            `json:"selectionResult"`
	SubmittedAt      *time.Time        `json:"submittedAt,omitempty"`
	AutoScore        *float64          `json:"autoScore,omitempty"`
	QualitativeScore *float64          `json:"qualitativeScore,omitempty"`
	FinalScore       *float64          `json:"finalScore,omitempty"`
	FinalRank        *int              `json:"finalRank,omitempty"`
	Profile          json.RawMessage   `json:"profile,omitempty"`
	Data             []ApplicationData `json:"data,omitempty"`
}

// ApplicationData is one answer to one project item. Repeatable items carry
// one row per entry, ordered by EntryIndex.
type ApplicationData struct {
	ID                 string   `json:"id"`
	ApplicationID      string   `json:"applicationId"`
	ProjectItemID      string   `json:"projectItemId"`
	EntryIndex         int      `json:"entryIndex"`
	SubmittedValue     string   `json:"submittedValue"`
	ProofFileURL       string   `json:"proofFileUrl,omitempty"`
	VerificationStatus string   `json:"verificationStatus"`
	ItemScore          *float64 `json:"itemScore,omitempty"`
}

// HasProof reports whether a proof file is attached and not rejected by a verifier.
func (d ApplicationData) HasProof() bool {
	return d.ProofFileURL != "" && d.VerificationStatus != VerificationRejected
}

// ApplicationContact is the minimal contact record used to notify selection results.
type ApplicationContact struct {
	ApplicationID   string `json:"applicationId"`
	UserID          string `json:"userId"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	SelectionResult string `json:"selectionResult"`
}
