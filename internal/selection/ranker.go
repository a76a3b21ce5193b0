package selection

import (
	"math"
	"sort"
	"time"

	"coach-selection-workers/internal/models"
)

// evaluationMax is the highest total a reviewer can give (three 0-10 sub-scores).
const evaluationMax = 3 * models.EvaluationSubScoreMax

// Candidate is one submitted application as seen by the ranker.
type Candidate struct {
	ApplicationID string
	UserID        string
	SubmittedAt   time.Time
	AutoScore     float64
	Evaluations   []models.ReviewerEvaluation
}

type RankedApplication struct {
	ApplicationID        string         `json:"applicationId"`
	UserID               string         `json:"userId"`
	Rank                 int            `json:"rank"`
	AutoScore            float64        `json:"autoScore"`
	QualitativeAvg       *float64       `json:"qualitativeAvg,omitempty"`
	FinalScore           float64        `json:"finalScore"`
	EvaluationCount      int            `json:"evaluationCount"`
	RecommendationCounts map[string]int `json:"recommendationCounts"`
	IsRecommended        bool           `json:"isRecommended"`
	SubmittedAt          time.Time      `json:"submittedAt"`
}

type RankedList struct {
	Applications     []RankedApplication `json:"applications"`
	MaxParticipants  int                 `json:"maxParticipants"`
	CutoffScore      float64             `json:"cutoffScore"`
	TotalApplicants  int                 `json:"totalApplicants"`
	RecommendedCount int                 `json:"recommendedCount"`
	Weights          Weights             `json:"weights"`
}

// QualitativeAverage returns the mean reviewer total normalised to 0-100, and
// false when there are no evaluations.
func QualitativeAverage(evals []models.ReviewerEvaluation) (float64, bool) {
	if len(evals) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, e := range evals {
		sum += float64(e.Total()) * 100 / evaluationMax
	}
	return sum / float64(len(evals)), true
}

// FinalScore blends the auto score with the qualitative average. Without
// evaluations the auto score stands alone.
func FinalScore(autoScore float64, qualitative float64, hasEvaluations bool, w Weights) float64 {
	if !hasEvaluations {
		return autoScore
	}
	return autoScore*float64(w.Quantitative)/100 + qualitative*float64(w.Qualitative)/100
}

// Rank orders candidates by final score, highest first. Ties go to the earlier
// submission, then the lower application id. The cutoff is the final score at
// rank maxParticipants, or the lowest score when there are fewer candidates.
// A non-positive maxParticipants means the project has no seat limit.
func Rank(candidates []Candidate, w Weights, maxParticipants int) RankedList {
	list := RankedList{
		Applications:    make([]RankedApplication, 0, len(candidates)),
		MaxParticipants: maxParticipants,
		TotalApplicants: len(candidates),
		Weights:         w,
	}

	for _, c := range candidates {
		ra := RankedApplication{
			ApplicationID:        c.ApplicationID,
			UserID:               c.UserID,
			AutoScore:            c.AutoScore,
			EvaluationCount:      len(c.Evaluations),
			RecommendationCounts: countRecommendations(c.Evaluations),
			SubmittedAt:          c.SubmittedAt,
		}
		qual, ok := QualitativeAverage(c.Evaluations)
		if ok {
			q := round2(qual)
			ra.QualitativeAvg = &q
		}
		ra.FinalScore = round2(FinalScore(c.AutoScore, qual, ok, w))
		list.Applications = append(list.Applications, ra)
	}

	sort.SliceStable(list.Applications, func(i, j int) bool {
		a, b := list.Applications[i], list.Applications[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
		return a.ApplicationID < b.ApplicationID
	})

	for i := range list.Applications {
		list.Applications[i].Rank = i + 1
		if maxParticipants <= 0 || i < maxParticipants {
			list.Applications[i].IsRecommended = true
			list.RecommendedCount++
		}
	}

	if n := len(list.Applications); n > 0 {
		cut := n - 1
		if maxParticipants > 0 && maxParticipants < n {
			cut = maxParticipants - 1
		}
		list.CutoffScore = list.Applications[cut].FinalScore
	}
	return list
}

func countRecommendations(evals []models.ReviewerEvaluation) map[string]int {
	counts := make(map[string]int)
	for _, e := range evals {
		if e.Recommendation != "" {
			counts[e.Recommendation]++
		}
	}
	return counts
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
