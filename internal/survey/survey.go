// Package survey models the survey builder's item selection as an immutable
// snapshot edited through commands, so the 100-point rule can be checked
// after every edit.
package survey

import (
	"fmt"

	"coach-selection-workers/internal/models"
)

// RequiredTotal is the score every finalized survey must add up to.
const RequiredTotal = 100

type ItemSelection struct {
	CompetencyItemID string `json:"competencyItemId" validate:"required"`
	Category         string `json:"category"`
	Included         bool   `json:"included"`
	IsRequired       bool   `json:"isRequired"`
	MaxScore         int    `json:"maxScore" validate:"gte=0,lte=100"`
}

type CustomQuestion struct {
	ID         string `json:"id" validate:"required"`
	Question   string `json:"question"`
	MaxScore   int    `json:"maxScore" validate:"gte=0,lte=100"`
	IsRequired bool   `json:"isRequired"`
}

// Snapshot is treated as a value: Apply always returns a new one.
type Snapshot struct {
	Items           []ItemSelection  `json:"items" validate:"dive"`
	CustomQuestions []CustomQuestion `json:"customQuestions" validate:"dive"`
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Items:           append([]ItemSelection(nil), s.Items...),
		CustomQuestions: append([]CustomQuestion(nil), s.CustomQuestions...),
	}
}

func (s Snapshot) itemIndex(id string) int {
	for i, it := range s.Items {
		if it.CompetencyItemID == id {
			return i
		}
	}
	return -1
}

func (s Snapshot) questionIndex(id string) int {
	for i, q := range s.CustomQuestions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// FromProject builds a snapshot from the persisted project items and questions.
func FromProject(items []models.ProjectItem, questions []models.CustomQuestion) Snapshot {
	s := Snapshot{}
	for _, pi := range items {
		s.Items = append(s.Items, ItemSelection{
			CompetencyItemID: pi.CompetencyItemID,
			Category:         pi.Competency.Category,
			Included:         true,
			IsRequired:       pi.IsRequired,
			MaxScore:         pi.MaxScore,
		})
	}
	for _, q := range questions {
		s.CustomQuestions = append(s.CustomQuestions, CustomQuestion{
			ID:         q.ID,
			Question:   q.Question,
			MaxScore:   q.MaxScore,
			IsRequired: q.IsRequired,
		})
	}
	return s
}

// Result is the outcome of the 100-point check.
type Result struct {
	IsValid    bool   `json:"isValid"`
	Total      int    `json:"total"`
	Difference int    `json:"difference"`
	Message    string `json:"message"`
}

// Total sums max scores of included non-BASIC items and every custom question.
func Total(s Snapshot) int {
	total := 0
	for _, it := range s.Items {
		if it.Included && it.Category != models.CategoryBasic {
			total += it.MaxScore
		}
	}
	for _, q := range s.CustomQuestions {
		total += q.MaxScore
	}
	return total
}

// Validate checks that the snapshot totals exactly RequiredTotal. Difference
// is positive when points are missing and negative when over.
func Validate(s Snapshot) Result {
	total := Total(s)
	diff := RequiredTotal - total

	r := Result{IsValid: diff == 0, Total: total, Difference: diff}
	switch {
	case diff > 0:
		r.Message = fmt.Sprintf("total is %d: %d points short", total, diff)
	case diff < 0:
		r.Message = fmt.Sprintf("total is %d: %d points over", total, -diff)
	default:
		r.Message = fmt.Sprintf("total is %d", total)
	}
	return r
}
