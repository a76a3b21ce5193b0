package validatesurveyscores

import "coach-selection-workers/internal/survey"

// Input validates either the stored survey of a project or a draft snapshot
// sent by the builder, after applying Commands in order.
type Input struct {
	ProjectID     string                   `json:"projectId"`
	Snapshot      *survey.Snapshot         `json:"snapshot,omitempty"`
	Commands      []survey.CommandEnvelope `json:"commands,omitempty"`
	FailOnInvalid bool                     `json:"failOnInvalid,omitempty"`
}

type Output struct {
	ProjectID  string          `json:"projectId"`
	IsValid    bool            `json:"isValid"`
	Total      int             `json:"total"`
	Difference int             `json:"difference"`
	Message    string          `json:"message"`
	Snapshot   survey.Snapshot `json:"snapshot"`
}
