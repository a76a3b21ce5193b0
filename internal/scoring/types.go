// Package scoring evaluates competency answers against a project's scoring
// criteria and collapses repeatable entries into one item score.
package scoring

import (
	"fmt"
	"strings"
)

type MatchingType string

const (
	MatchExact    MatchingType = "EXACT"
	MatchContains MatchingType = "CONTAINS"
	MatchRange    MatchingType = "RANGE"
	MatchGrade    MatchingType = "GRADE"
)

type ValueSource string

const (
	SourceSubmitted ValueSource = "SUBMITTED"
	SourceUserField ValueSource = "USER_FIELD"
	SourceJSONField ValueSource = "JSON_FIELD"
)

type AggregationMode string

const (
	AggregateFirst     AggregationMode = "FIRST"
	AggregateSum       AggregationMode = "SUM"
	AggregateMax       AggregationMode = "MAX"
	AggregateCount     AggregationMode = "COUNT"
	AggregateAnyMatch  AggregationMode = "ANY_MATCH"
	AggregateBestMatch AggregationMode = "BEST_MATCH"
)

type GradeType string

const (
	GradeString      GradeType = "string"
	GradeNumeric     GradeType = "numeric"
	GradeMultiSelect GradeType = "multi_select"
	GradeFileExists  GradeType = "file_exists"
)

// Multi-select grade tables either look for a selected value or count selections.
const (
	MultiSelectContains = "contains"
	MultiSelectCount    = "count"
)

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func ParseMatchingType(s string) (MatchingType, error) {
	switch t := MatchingType(normalize(s)); t {
	case MatchExact, MatchContains, MatchRange, MatchGrade:
		return t, nil
	default:
		return "", fmt.Errorf("unknown matching type %q", s)
	}
}

// ParseValueSource defaults an empty source to SUBMITTED.
func ParseValueSource(s string) (ValueSource, error) {
	if strings.TrimSpace(s) == "" {
		return SourceSubmitted, nil
	}
	switch v := ValueSource(normalize(s)); v {
	case SourceSubmitted, SourceUserField, SourceJSONField:
		return v, nil
	default:
		return "", fmt.Errorf("unknown value source %q", s)
	}
}

// ParseAggregationMode defaults an empty mode to FIRST.
func ParseAggregationMode(s string) (AggregationMode, error) {
	if strings.TrimSpace(s) == "" {
		return AggregateFirst, nil
	}
	switch m := AggregationMode(normalize(s)); m {
	case AggregateFirst, AggregateSum, AggregateMax, AggregateCount, AggregateAnyMatch, AggregateBestMatch:
		return m, nil
	default:
		return "", fmt.Errorf("unknown aggregation mode %q", s)
	}
}

// Entry is one submitted answer. Non-repeatable items have exactly one.
type Entry struct {
	Value    string
	HasProof bool
}

// IsEmpty reports whether the entry carries neither a value nor a proof file.
func (e Entry) IsEmpty() bool {
	return strings.TrimSpace(e.Value) == "" && !e.HasProof
}
