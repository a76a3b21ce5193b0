package scoring

import (
	"testing"

	"coach-selection-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func gradeCriteria(expected string) models.ScoringCriteria {
	return models.ScoringCriteria{
		ID:            "crit-1",
		ProjectItemID: "item-1",
		MatchingType:  "grade",
		ExpectedValue: expected,
	}
}

func mustCompile(t *testing.T, raw models.ScoringCriteria) Criterion {
	t.Helper()
	c, err := Compile(raw)
	require.NoError(t, err)
	return c
}

// ==========================
// Compile
// ==========================

func TestCompile_Valid(t *testing.T) {
	tests := []struct {
		name     string
		raw      models.ScoringCriteria
		matching MatchingType
		source   ValueSource
		mode     AggregationMode
	}{
		{
			name:     "exact plain text with defaults",
			raw:      models.ScoringCriteria{ID: "c1", MatchingType: "exact", ExpectedValue: "Yes", Score: 5},
			matching: MatchExact,
			source:   SourceSubmitted,
			mode:     AggregateFirst,
		},
		{
			name: "contains list from user field",
			raw: models.ScoringCriteria{ID: "c2", MatchingType: "CONTAINS", ExpectedValue: `["coach","mentor"]`,
				Score: 3, ValueSource: "user_field", SourceField: "job.title"},
			matching: MatchContains,
			source:   SourceUserField,
			mode:     AggregateFirst,
		},
		{
			name: "range with sum aggregation",
			raw: models.ScoringCriteria{ID: "c3", MatchingType: "range", ExpectedValue: `{"min":100}`,
				Score: 4, AggregationMode: "sum"},
			matching: MatchRange,
			source:   SourceSubmitted,
			mode:     AggregateSum,
		},
		{
			name: "grade from json field",
			raw: models.ScoringCriteria{ID: "c4", MatchingType: "grade", ValueSource: "JSON_FIELD", SourceField: "level",
				ExpectedValue: `{"type":"string","grades":[{"value":"A","score":3}]}`, AggregationMode: "best_match"},
			matching: MatchGrade,
			source:   SourceJSONField,
			mode:     AggregateBestMatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Compile(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.matching, c.Matching)
			assert.Equal(t, tt.source, c.Source)
			assert.Equal(t, tt.mode, c.Aggregation)
			assert.NoError(t, c.Err())
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  models.ScoringCriteria
	}{
		{"unknown matching type", models.ScoringCriteria{MatchingType: "fuzzy", ExpectedValue: "x"}},
		{"empty expected value", models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "  "}},
		{"broken grade json", gradeCriteria(`{"type":"string","grades":[`)},
		{"grade without tiers", gradeCriteria(`{"type":"string","grades":[]}`)},
		{"unknown grade type", gradeCriteria(`{"type":"date","grades":[{"value":"x","score":1}]}`)},
		{"string tier without value", gradeCriteria(`{"type":"string","grades":[{"score":1}]}`)},
		{"numeric tier without bounds", gradeCriteria(`{"type":"numeric","grades":[{"score":1}]}`)},
		{"numeric tier min above max", gradeCriteria(`{"type":"numeric","grades":[{"min":10,"max":5,"score":1}]}`)},
		{"negative tier score", gradeCriteria(`{"type":"string","grades":[{"value":"A","score":-1}]}`)},
		{"negative penalty", gradeCriteria(`{"type":"string","proof_penalty":-2,"grades":[{"value":"A","score":1}]}`)},
		{"unknown multi select mode", gradeCriteria(`{"type":"multi_select","match_mode":"all","grades":[{"value":"A","score":1}]}`)},
		{"file tier without exists", gradeCriteria(`{"type":"file_exists","grades":[{"score":1}]}`)},
		{"range without bounds", models.ScoringCriteria{MatchingType: "range", ExpectedValue: `{}`}},
		{"bad extract pattern", models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "A", ExtractPattern: "([a-z"}},
		{"user field without source field", models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "A", ValueSource: "USER_FIELD"}},
		{"unknown value source", models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "A", ValueSource: "SESSION"}},
		{"unknown aggregation", models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "A", AggregationMode: "median"}},
		{"negative score", models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "A", Score: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.raw.ID = "crit-bad"
			_, err := Compile(tt.raw)
			require.Error(t, err)

			var ce *CompileError
			assert.ErrorAs(t, err, &ce)
			assert.Equal(t, "crit-bad", ce.CriteriaID)
		})
	}
}

func TestCompileAll_KeepsPlaceholderForBrokenCriteria(t *testing.T) {
	raws := []models.ScoringCriteria{
		{ID: "ok", MatchingType: "exact", ExpectedValue: "Y", Score: 2},
		{ID: "broken", MatchingType: "grade", ExpectedValue: "{not json"},
	}

	compiled, errs := CompileAll(raws)

	require.Len(t, compiled, 2)
	require.Len(t, errs, 1)
	assert.NoError(t, compiled[0].Err())
	assert.Error(t, compiled[1].Err())
	assert.Equal(t, 0.0, compiled[1].Score(Entry{Value: "anything"}, nil))
	assert.Equal(t, 0.0, compiled[1].MaxScore())
}

// ==========================
// Value resolution
// ==========================

func TestCriterion_Resolve(t *testing.T) {
	profile := []byte(`{"name":"Kim","certification":{"number":"KSC-2019-114"},"regions":["Seoul","Busan"]}`)

	tests := []struct {
		name     string
		raw      models.ScoringCriteria
		entry    Entry
		expected string
	}{
		{
			name:     "submitted value is trimmed",
			raw:      models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "x"},
			entry:    Entry{Value: "  KPC-2024-001 "},
			expected: "KPC-2024-001",
		},
		{
			name:     "extract pattern without group keeps whole match",
			raw:      models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "x", ExtractPattern: "^.{3}"},
			entry:    Entry{Value: "KPC-2024-001"},
			expected: "KPC",
		},
		{
			name:     "extract pattern with group keeps first group",
			raw:      models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "x", ExtractPattern: `-(\d{4})-`},
			entry:    Entry{Value: "KPC-2024-001"},
			expected: "2024",
		},
		{
			name:     "extract pattern without match yields empty",
			raw:      models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "x", ExtractPattern: `^\d+$`},
			entry:    Entry{Value: "KPC"},
			expected: "",
		},
		{
			name: "user field nested path",
			raw: models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "x",
				ValueSource: "USER_FIELD", SourceField: "certification.number", ExtractPattern: "^[A-Z]{3}"},
			expected: "KSC",
		},
		{
			name: "user field array stays raw json",
			raw: models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "x",
				ValueSource: "USER_FIELD", SourceField: "regions"},
			expected: `["Seoul","Busan"]`,
		},
		{
			name: "missing user field",
			raw: models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "x",
				ValueSource: "USER_FIELD", SourceField: "phone"},
			expected: "",
		},
		{
			name: "json field inside submitted blob",
			raw: models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "x",
				ValueSource: "JSON_FIELD", SourceField: "hours"},
			entry:    Entry{Value: `{"org":"ICF","hours":750}`},
			expected: "750",
		},
		{
			name: "json field on non json value",
			raw: models.ScoringCriteria{MatchingType: "exact", ExpectedValue: "x",
				ValueSource: "JSON_FIELD", SourceField: "hours"},
			entry:    Entry{Value: "750"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCompile(t, tt.raw)
			assert.Equal(t, tt.expected, c.Resolve(tt.entry, profile))
		})
	}
}
