package models

const (
	RecommendStrongly = "strongly_recommend"
	RecommendYes      = "recommend"
	RecommendNeutral  = "neutral"
	RecommendNo       = "not_recommend"
)

// Each sub-score ranges 0 to 10.
const EvaluationSubScoreMax = 10

type ReviewerEvaluation struct {
	ID              string `json:"id"`
	ApplicationID   string `json:"applicationId"`
	ReviewerID      string `json:"reviewerId"`
	MotivationScore int    `json:"motivationScore"`
	ExpertiseScore  int    `json:"expertiseScore"`
	RoleFitScore    int    `json:"roleFitScore"`
	Recommendation  string `json:"recommendation"`
	Comment         string `json:"comment,omitempty"`
}

// Total is the sum of the three sub-scores, 0 to 30.
func (e ReviewerEvaluation) Total() int {
	return e.MotivationScore + e.ExpertiseScore + e.RoleFitScore
}
