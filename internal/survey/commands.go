package survey

import (
	"encoding/json"
	"fmt"
	"strings"

	"coach-selection-workers/internal/models"
)

// Command is one survey builder edit.
type Command interface {
	apply(Snapshot) (Snapshot, error)
}

// Apply returns the snapshot after cmd. s is never modified.
func Apply(s Snapshot, cmd Command) (Snapshot, error) {
	return cmd.apply(s.clone())
}

// ApplyAll applies commands in order and stops at the first failure.
func ApplyAll(s Snapshot, cmds ...Command) (Snapshot, error) {
	for i, cmd := range cmds {
		next, err := Apply(s, cmd)
		if err != nil {
			return s, fmt.Errorf("command %d: %w", i, err)
		}
		s = next
	}
	return s, nil
}

// IncludeItem selects a competency item. Re-including keeps its settings.
type IncludeItem struct {
	CompetencyItemID string
	Category         string
	MaxScore         int
}

func (c IncludeItem) apply(s Snapshot) (Snapshot, error) {
	if strings.TrimSpace(c.CompetencyItemID) == "" {
		return s, fmt.Errorf("competency item id is required")
	}
	if c.MaxScore < 0 || c.MaxScore > RequiredTotal {
		return s, fmt.Errorf("max score %d is outside 0..%d", c.MaxScore, RequiredTotal)
	}
	if c.Category == models.CategoryBasic && c.MaxScore != 0 {
		return s, fmt.Errorf("BASIC items carry no points")
	}
	if i := s.itemIndex(c.CompetencyItemID); i >= 0 {
		s.Items[i].Included = true
		return s, nil
	}
	s.Items = append(s.Items, ItemSelection{
		CompetencyItemID: c.CompetencyItemID,
		Category:         c.Category,
		Included:         true,
		MaxScore:         c.MaxScore,
	})
	return s, nil
}

// ExcludeItem unselects a competency item; its points no longer count.
type ExcludeItem struct {
	CompetencyItemID string
}

func (c ExcludeItem) apply(s Snapshot) (Snapshot, error) {
	i := s.itemIndex(c.CompetencyItemID)
	if i < 0 {
		return s, fmt.Errorf("item %s is not in the survey", c.CompetencyItemID)
	}
	s.Items[i].Included = false
	return s, nil
}

type SetMaxScore struct {
	CompetencyItemID string
	MaxScore         int
}

func (c SetMaxScore) apply(s Snapshot) (Snapshot, error) {
	i := s.itemIndex(c.CompetencyItemID)
	if i < 0 {
		return s, fmt.Errorf("item %s is not in the survey", c.CompetencyItemID)
	}
	if c.MaxScore < 0 || c.MaxScore > RequiredTotal {
		return s, fmt.Errorf("max score %d is outside 0..%d", c.MaxScore, RequiredTotal)
	}
	if s.Items[i].Category == models.CategoryBasic && c.MaxScore != 0 {
		return s, fmt.Errorf("BASIC items carry no points")
	}
	s.Items[i].MaxScore = c.MaxScore
	return s, nil
}

type SetRequired struct {
	CompetencyItemID string
	Required         bool
}

func (c SetRequired) apply(s Snapshot) (Snapshot, error) {
	i := s.itemIndex(c.CompetencyItemID)
	if i < 0 {
		return s, fmt.Errorf("item %s is not in the survey", c.CompetencyItemID)
	}
	s.Items[i].IsRequired = c.Required
	return s, nil
}

type AddCustomQuestion struct {
	ID       string
	Question string
	MaxScore int
	Required bool
}

func (c AddCustomQuestion) apply(s Snapshot) (Snapshot, error) {
	if strings.TrimSpace(c.ID) == "" {
		return s, fmt.Errorf("question id is required")
	}
	if s.questionIndex(c.ID) >= 0 {
		return s, fmt.Errorf("question %s already exists", c.ID)
	}
	if c.MaxScore < 0 || c.MaxScore > RequiredTotal {
		return s, fmt.Errorf("max score %d is outside 0..%d", c.MaxScore, RequiredTotal)
	}
	s.CustomQuestions = append(s.CustomQuestions, CustomQuestion{
		ID:         c.ID,
		Question:   c.Question,
		MaxScore:   c.MaxScore,
		IsRequired: c.Required,
	})
	return s, nil
}

type RemoveCustomQuestion struct {
	ID string
}

func (c RemoveCustomQuestion) apply(s Snapshot) (Snapshot, error) {
	i := s.questionIndex(c.ID)
	if i < 0 {
		return s, fmt.Errorf("question %s does not exist", c.ID)
	}
	s.CustomQuestions = append(s.CustomQuestions[:i], s.CustomQuestions[i+1:]...)
	return s, nil
}

type SetCustomQuestionScore struct {
	ID       string
	MaxScore int
}

func (c SetCustomQuestionScore) apply(s Snapshot) (Snapshot, error) {
	i := s.questionIndex(c.ID)
	if i < 0 {
		return s, fmt.Errorf("question %s does not exist", c.ID)
	}
	if c.MaxScore < 0 || c.MaxScore > RequiredTotal {
		return s, fmt.Errorf("max score %d is outside 0..%d", c.MaxScore, RequiredTotal)
	}
	s.CustomQuestions[i].MaxScore = c.MaxScore
	return s, nil
}

// CommandEnvelope is the JSON form of a command, as carried by job variables
// and API requests.
type CommandEnvelope struct {
	Type             string `json:"type" validate:"required"`
	CompetencyItemID string `json:"competencyItemId,omitempty"`
	Category         string `json:"category,omitempty"`
	QuestionID       string `json:"questionId,omitempty"`
	Question         string `json:"question,omitempty"`
	MaxScore         int    `json:"maxScore,omitempty"`
	Required         bool   `json:"required,omitempty"`
}

// Decode turns an envelope into a command.
func (e CommandEnvelope) Decode() (Command, error) {
	switch strings.ToUpper(e.Type) {
	case "INCLUDE_ITEM":
		return IncludeItem{CompetencyItemID: e.CompetencyItemID, Category: e.Category, MaxScore: e.MaxScore}, nil
	case "EXCLUDE_ITEM":
		return ExcludeItem{CompetencyItemID: e.CompetencyItemID}, nil
	case "SET_MAX_SCORE":
		return SetMaxScore{CompetencyItemID: e.CompetencyItemID, MaxScore: e.MaxScore}, nil
	case "SET_REQUIRED":
		return SetRequired{CompetencyItemID: e.CompetencyItemID, Required: e.Required}, nil
	case "ADD_CUSTOM_QUESTION":
		return AddCustomQuestion{ID: e.QuestionID, Question: e.Question, MaxScore: e.MaxScore, Required: e.Required}, nil
	case "REMOVE_CUSTOM_QUESTION":
		return RemoveCustomQuestion{ID: e.QuestionID}, nil
	case "SET_CUSTOM_QUESTION_SCORE":
		return SetCustomQuestionScore{ID: e.QuestionID, MaxScore: e.MaxScore}, nil
	default:
		return nil, fmt.Errorf("unknown command type %q", e.Type)
	}
}

// DecodeCommands parses a JSON array of command envelopes.
func DecodeCommands(data []byte) ([]Command, error) {
	var envs []CommandEnvelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("decode commands: %w", err)
	}
	cmds := make([]Command, 0, len(envs))
	for _, e := range envs {
		cmd, err := e.Decode()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
