package scoring

import (
	"fmt"
	"math/rand"
	"testing"

	"coach-selection-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const certificationGrades = `{"type":"string","grades":[{"value":"KSC","score":10},{"value":"KPC","score":5},{"value":"KAC","score":1}]}`

const hoursGrades = `{"type":"numeric","grades":[{"min":1000,"score":10},{"min":500,"max":999,"score":5},{"max":499,"score":1}]}`

// ==========================
// Worked examples
// ==========================

func TestEvaluate_CertificationPrefixGrade(t *testing.T) {
	raw := gradeCriteria(certificationGrades)
	raw.ExtractPattern = "^.{3}"
	c := mustCompile(t, raw)

	score := Evaluate([]Criterion{c}, Entry{Value: "KPC-2024-001", HasProof: true}, nil, nil)

	assert.Equal(t, 5.0, score)
}

func TestEvaluate_NumericRangeGrade(t *testing.T) {
	c := mustCompile(t, gradeCriteria(hoursGrades))

	tests := []struct {
		value    string
		expected float64
	}{
		{"750", 5},
		{"1000", 10},
		{"1,250", 10},
		{"499", 1},
		{"0", 1},
		{"999", 5},
		{"750 hours", 5},
		{"many", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate([]Criterion{c}, Entry{Value: tt.value, HasProof: true}, nil, nil))
		})
	}
}

// ==========================
// Matching policies
// ==========================

func TestEvaluate_MatchingPolicies(t *testing.T) {
	tests := []struct {
		name     string
		raw      models.ScoringCriteria
		entry    Entry
		expected float64
	}{
		{"exact hit", models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "Master", Score: 4}, Entry{Value: "Master"}, 4},
		{"exact is case sensitive", models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "Master", Score: 4}, Entry{Value: "master"}, 0},
		{"exact any of list", models.ScoringCriteria{MatchingType: "exact", ExpectedValue: `["MA","PhD"]`, Score: 4}, Entry{Value: "PhD"}, 4},
		{"exact json string", models.ScoringCriteria{MatchingType: "exact", ExpectedValue: `"Yes"`, Score: 1}, Entry{Value: "Yes"}, 1},
		{"contains substring", models.ScoringCriteria{MatchingType: "contains", ExpectedValue: "coach", Score: 3}, Entry{Value: "career coaching lead"}, 3},
		{"contains miss", models.ScoringCriteria{MatchingType: "contains", ExpectedValue: "coach", Score: 3}, Entry{Value: "mentor"}, 0},
		{"contains set membership", models.ScoringCriteria{MatchingType: "contains", ExpectedValue: `["Busan"]`, Score: 2}, Entry{Value: `["Seoul","busan"]`}, 2},
		{"contains set does not match substring", models.ScoringCriteria{MatchingType: "contains", ExpectedValue: "Bus", Score: 2}, Entry{Value: `["Busan"]`}, 0},
		{"range inside", models.ScoringCriteria{MatchingType: "range", ExpectedValue: `{"min":3,"max":5}`, Score: 6}, Entry{Value: "4"}, 6},
		{"range outside", models.ScoringCriteria{MatchingType: "range", ExpectedValue: `{"min":3,"max":5}`, Score: 6}, Entry{Value: "6"}, 0},
		{"string grade case insensitive", gradeCriteria(certificationGrades), Entry{Value: "ksc", HasProof: true}, 10},
		{"string grade miss", gradeCriteria(certificationGrades), Entry{Value: "ICF", HasProof: true}, 0},
		{
			"multi select contains picks highest tier",
			gradeCriteria(`{"type":"multi_select","grades":[{"value":"Life","score":2},{"value":"Executive","score":6}]}`),
			Entry{Value: `["Life","Executive"]`, HasProof: true},
			6,
		},
		{
			"multi select count",
			gradeCriteria(`{"type":"multi_select","match_mode":"count","grades":[{"min":3,"score":6},{"min":1,"max":2,"score":3}]}`),
			Entry{Value: "Life, Team, Career", HasProof: true},
			6,
		},
		{
			"file exists with proof",
			gradeCriteria(`{"type":"file_exists","grades":[{"exists":true,"score":5},{"exists":false,"score":0}]}`),
			Entry{HasProof: true},
			5,
		},
		{
			"file missing",
			gradeCriteria(`{"type":"file_exists","grades":[{"exists":true,"score":5},{"exists":false,"score":1}]}`),
			Entry{},
			1,
		},
		{
			"inferred numeric table",
			gradeCriteria(`{"grades":[{"min":10,"score":3}]}`),
			Entry{Value: "12", HasProof: true},
			3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCompile(t, tt.raw)
			assert.Equal(t, tt.expected, Evaluate([]Criterion{c}, tt.entry, nil, nil))
		})
	}
}

func TestEvaluate_ItemScoreIsBestCriterion(t *testing.T) {
	criteria := []Criterion{
		mustCompile(t, models.ScoringCriteria{ID: "a", MatchingType: "contains", ExpectedValue: "coach", Score: 3}),
		mustCompile(t, models.ScoringCriteria{ID: "b", MatchingType: "exact", ExpectedValue: "head coach", Score: 7}),
	}

	assert.Equal(t, 7.0, Evaluate(criteria, Entry{Value: "head coach"}, nil, nil))
	assert.Equal(t, 3.0, Evaluate(criteria, Entry{Value: "assistant coach"}, nil, nil))
}

func TestEvaluate_BrokenCriterionDoesNotBlockOthers(t *testing.T) {
	criteria, errs := CompileAll([]models.ScoringCriteria{
		{ID: "broken", MatchingType: "grade", ExpectedValue: `{"grades":`},
		{ID: "ok", MatchingType: "exact", ExpectedValue: "Y", Score: 2},
	})
	require.Len(t, errs, 1)

	assert.Equal(t, 2.0, Evaluate(criteria, Entry{Value: "Y"}, nil, nil))
	assert.Equal(t, 0.0, Evaluate(criteria[:1], Entry{Value: "Y"}, nil, nil))
}

// ==========================
// Proof penalty
// ==========================

func TestEvaluate_ProofPenalty(t *testing.T) {
	c := mustCompile(t, gradeCriteria(
		`{"type":"string","proof_penalty":3,"grades":[{"value":"KSC","score":10},{"value":"KAC","score":1}]}`))

	assert.Equal(t, 10.0, Evaluate([]Criterion{c}, Entry{Value: "KSC", HasProof: true}, nil, nil))
	assert.Equal(t, 7.0, Evaluate([]Criterion{c}, Entry{Value: "KSC"}, nil, nil))
	assert.Equal(t, 0.0, Evaluate([]Criterion{c}, Entry{Value: "KAC"}, nil, nil), "penalty floors at zero")
}

func TestEvaluate_GradeScoreStaysWithinTable(t *testing.T) {
	tables := []string{
		certificationGrades,
		hoursGrades,
		`{"type":"numeric","proof_penalty":50,"grades":[{"min":0,"max":10,"score":4},{"min":5,"score":9}]}`,
		`{"type":"multi_select","match_mode":"count","proof_penalty":1,"grades":[{"min":0,"score":2},{"min":2,"score":8}]}`,
	}
	values := []string{"", "KSC", "KPC", "kac", "-5", "0", "3", "7", "499", "500", "999.5", "1000", "5000",
		`["a","b","c"]`, "x,y", "NaN"}

	r := rand.New(rand.NewSource(7))
	for i, table := range tables {
		c := mustCompile(t, gradeCriteria(table))
		ceiling := c.MaxScore()
		for _, v := range values {
			e := Entry{Value: v, HasProof: r.Intn(2) == 0}
			s := Evaluate([]Criterion{c}, e, nil, nil)
			assert.GreaterOrEqual(t, s, 0.0, fmt.Sprintf("table %d value %q", i, v))
			assert.LessOrEqual(t, s, ceiling, fmt.Sprintf("table %d value %q", i, v))
		}
	}
}

// ==========================
// Repeatable items
// ==========================

func TestEvaluate_RepeatableEntries(t *testing.T) {
	entries := []Entry{
		{Value: "KAC", HasProof: true},
		{Value: ""},
		{Value: "KSC", HasProof: true},
		{Value: "KPC", HasProof: true},
	}

	tests := []struct {
		mode     string
		expected float64
	}{
		{"FIRST", 1},
		{"SUM", 16},
		{"MAX", 10},
		{"BEST_MATCH", 10},
		{"COUNT", 3},
		{"ANY_MATCH", 1},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			raw := gradeCriteria(certificationGrades)
			raw.AggregationMode = tt.mode
			c := mustCompile(t, raw)
			assert.Equal(t, tt.expected, Evaluate([]Criterion{c}, Entry{}, nil, entries))
		})
	}
}

func TestEvaluate_RepeatableWithNoEntries(t *testing.T) {
	raw := gradeCriteria(certificationGrades)
	raw.AggregationMode = "COUNT"
	c := mustCompile(t, raw)

	assert.Equal(t, 0.0, Evaluate([]Criterion{c}, Entry{}, nil, []Entry{}))
	assert.Equal(t, 0.0, Evaluate([]Criterion{c}, Entry{}, nil, []Entry{{Value: "  "}}))
}

func TestEvaluate_RepeatableJSONEntriesSumHours(t *testing.T) {
	c := mustCompile(t, models.ScoringCriteria{
		MatchingType:    "grade",
		ValueSource:     "JSON_FIELD",
		SourceField:     "hours",
		AggregationMode: "SUM",
		ExpectedValue:   `{"type":"numeric","grades":[{"min":100,"score":2},{"min":1,"max":99,"score":1}]}`,
	})
	entries := []Entry{
		{Value: `{"client":"A","hours":120}`, HasProof: true},
		{Value: `{"client":"B","hours":40}`, HasProof: true},
		{Value: `{"client":"C"}`, HasProof: true},
	}

	assert.Equal(t, 3.0, Evaluate([]Criterion{c}, Entry{}, nil, entries))
}
