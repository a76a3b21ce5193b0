package confirmbulkselection

import "time"

type Input struct {
	ProjectID      string   `json:"projectId"`
	ApplicationIDs []string `json:"applicationIds"`
	ConfirmedBy    string   `json:"confirmedBy,omitempty"`
}

type Output struct {
	ProjectID     string    `json:"projectId"`
	BatchID       string    `json:"batchId"`
	SelectedCount int       `json:"selectedCount"`
	RejectedCount int       `json:"rejectedCount"`
	ConfirmedBy   string    `json:"confirmedBy,omitempty"`
	ConfirmedAt   time.Time `json:"confirmedAt"`
}

// SelectionConfirmedMessage is published to the workflow engine when a
// selection is confirmed outside a process instance.
const SelectionConfirmedMessage = "selection-confirmed"

type confirmedVariables struct {
	ProjectID     string `json:"projectId"`
	BatchID       string `json:"batchId"`
	SelectedCount int    `json:"selectedCount"`
	RejectedCount int    `json:"rejectedCount"`
}
