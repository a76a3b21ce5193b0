package scoring

import (
	"testing"

	"coach-selection-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestProjectItems() []models.ProjectItem {
	return []models.ProjectItem{
		{
			ID:         "item-name",
			Competency: models.CompetencyItem{Name: "Name", Category: models.CategoryBasic},
		},
		{
			ID:       "item-cert",
			MaxScore: 10,
			Competency: models.CompetencyItem{
				Name: "Certification", Category: models.CategoryCertification,
			},
			Criteria: []models.ScoringCriteria{{
				ID:             "crit-cert",
				MatchingType:   "GRADE",
				ExtractPattern: "^.{3}",
				ExpectedValue:  certificationGrades,
			}},
		},
		{
			ID:       "item-hours",
			MaxScore: 8,
			Competency: models.CompetencyItem{
				Name: "Coaching hours", Category: models.CategoryExperience, IsRepeatable: true, MaxEntries: 5,
			},
			Criteria: []models.ScoringCriteria{{
				ID:              "crit-hours",
				MatchingType:    "GRADE",
				AggregationMode: "SUM",
				ExpectedValue:   hoursGrades,
			}},
		},
		{
			ID:         "item-region",
			MaxScore:   5,
			Competency: models.CompetencyItem{Name: "Region", Category: models.CategoryOther},
			Criteria: []models.ScoringCriteria{
				{ID: "crit-region", MatchingType: "exact", ValueSource: "USER_FIELD", SourceField: "region", ExpectedValue: "Seoul", Score: 5},
				{ID: "crit-broken", MatchingType: "grade", ExpectedValue: "not json"},
			},
		},
	}
}

func TestCompileProject(t *testing.T) {
	cfg := CompileProject("project-1", createTestProjectItems())

	require.Len(t, cfg.Items, 3, "BASIC items carry no points")
	assert.Equal(t, "item-cert", cfg.Items[0].ProjectItemID)
	require.Len(t, cfg.Problems, 1)
	assert.Equal(t, "crit-broken", cfg.Problems[0].CriteriaID)
	assert.Equal(t, "item-region", cfg.Problems[0].ProjectItemID)
}

func TestScoreApplication(t *testing.T) {
	cfg := CompileProject("project-1", createTestProjectItems())

	app := models.Application{
		ID:      "app-1",
		Profile: []byte(`{"region":"Seoul"}`),
		Data: []models.ApplicationData{
			{ProjectItemID: "item-name", SubmittedValue: "Lee"},
			{ProjectItemID: "item-cert", SubmittedValue: "KPC-2024-001", ProofFileURL: "s3://proof/1.pdf"},
			{ProjectItemID: "item-hours", EntryIndex: 1, SubmittedValue: "1200", ProofFileURL: "s3://proof/2.pdf"},
			{ProjectItemID: "item-hours", EntryIndex: 0, SubmittedValue: "600", ProofFileURL: "s3://proof/3.pdf"},
		},
	}

	result := cfg.ScoreApplication(app)

	assert.Equal(t, "app-1", result.ApplicationID)
	require.Len(t, result.Items, 3)

	scores := map[string]float64{}
	for _, it := range result.Items {
		scores[it.ProjectItemID] = it.Score
	}
	assert.Equal(t, 5.0, scores["item-cert"])
	assert.Equal(t, 8.0, scores["item-hours"], "sum of 10 and 5 is capped at max score")
	assert.Equal(t, 5.0, scores["item-region"])
	assert.Equal(t, 18.0, result.AutoScore)
}

func TestScoreApplication_RejectedProofLosesPoints(t *testing.T) {
	items := []models.ProjectItem{{
		ID:         "item-cert",
		MaxScore:   10,
		Competency: models.CompetencyItem{Category: models.CategoryCertification},
		Criteria: []models.ScoringCriteria{{
			ID:            "crit",
			MatchingType:  "grade",
			ExpectedValue: `{"type":"string","proof_penalty":4,"grades":[{"value":"KSC","score":10}]}`,
		}},
	}}
	cfg := CompileProject("p", items)

	approved := cfg.ScoreApplication(models.Application{Data: []models.ApplicationData{{
		ProjectItemID: "item-cert", SubmittedValue: "KSC", ProofFileURL: "f", VerificationStatus: models.VerificationApproved,
	}}})
	rejected := cfg.ScoreApplication(models.Application{Data: []models.ApplicationData{{
		ProjectItemID: "item-cert", SubmittedValue: "KSC", ProofFileURL: "f", VerificationStatus: models.VerificationRejected,
	}}})

	assert.Equal(t, 10.0, approved.AutoScore)
	assert.Equal(t, 6.0, rejected.AutoScore)
}

func TestScoreApplication_ZeroMaxScoreContributesNothing(t *testing.T) {
	items := []models.ProjectItem{{
		ID:         "item-other",
		MaxScore:   0,
		Competency: models.CompetencyItem{Category: models.CategoryOther},
		Criteria: []models.ScoringCriteria{{
			ID:            "crit-yes",
			MatchingType:  "exact",
			ExpectedValue: "yes",
			Score:         40,
		}},
	}}
	cfg := CompileProject("p", items)

	result := cfg.ScoreApplication(models.Application{ID: "app-1", Data: []models.ApplicationData{{
		ProjectItemID: "item-other", SubmittedValue: "yes",
	}}})

	require.Len(t, result.Items, 1)
	assert.Equal(t, 0.0, result.Items[0].Score)
	assert.Equal(t, 0.0, result.AutoScore)
}

func TestScoreApplication_NoAnswers(t *testing.T) {
	cfg := CompileProject("project-1", createTestProjectItems())

	result := cfg.ScoreApplication(models.Application{ID: "app-empty"})

	assert.Equal(t, 0.0, result.AutoScore)
	for _, it := range result.Items {
		assert.Equal(t, 0.0, it.Score)
		assert.Equal(t, 0, it.Entries)
	}
}
