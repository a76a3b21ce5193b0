package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// matcher scores one resolved value. Every implementation returns a value in
// [0, ceiling()].
type matcher interface {
	score(value string, hasProof bool) float64
	ceiling() float64
}

type exactMatcher struct {
	expected []string
	points   float64
}

func (m exactMatcher) score(value string, _ bool) float64 {
	for _, e := range m.expected {
		if value == e {
			return m.points
		}
	}
	return 0
}

func (m exactMatcher) ceiling() float64 { return m.points }

// containsMatcher matches a substring of a free-text answer, or membership
// when the answer is a multi-value selection.
type containsMatcher struct {
	needles []string
	points  float64
}

func (m containsMatcher) score(value string, _ bool) float64 {
	if value == "" {
		return 0
	}
	if strings.HasPrefix(value, "[") {
		selected := splitValues(value)
		for _, n := range m.needles {
			if containsFold(selected, n) {
				return m.points
			}
		}
		return 0
	}
	for _, n := range m.needles {
		if strings.Contains(value, n) {
			return m.points
		}
	}
	return 0
}

func (m containsMatcher) ceiling() float64 { return m.points }

type bounds struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (b bounds) contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

func (b bounds) validate() error {
	if b.Min == nil && b.Max == nil {
		return fmt.Errorf("range needs min or max")
	}
	if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
		return fmt.Errorf("range min %v is greater than max %v", *b.Min, *b.Max)
	}
	return nil
}

type rangeMatcher struct {
	bounds
	points float64
}

func (m rangeMatcher) score(value string, _ bool) float64 {
	v, ok := parseNumber(value)
	if !ok || !m.contains(v) {
		return 0
	}
	return m.points
}

func (m rangeMatcher) ceiling() float64 { return m.points }

// gradeMatcher looks a value up in an ordered tier table and returns the
// highest matching tier's score, less the proof penalty when proof is missing.
type gradeMatcher struct {
	kind      GradeType
	matchMode string
	penalty   float64
	tiers     []tier
}

type tier struct {
	value  string
	bounds bounds
	exists *bool
	score  float64
}

func (m gradeMatcher) score(value string, hasProof bool) float64 {
	best := 0.0
	for _, t := range m.tiers {
		if t.score > best && m.tierMatches(t, value, hasProof) {
			best = t.score
		}
	}
	if best > 0 && m.penalty > 0 && !hasProof && m.kind != GradeFileExists {
		best -= m.penalty
		if best < 0 {
			best = 0
		}
	}
	return best
}

func (m gradeMatcher) tierMatches(t tier, value string, hasProof bool) bool {
	switch m.kind {
	case GradeString:
		return value != "" && strings.EqualFold(value, t.value)
	case GradeNumeric:
		v, ok := parseNumber(value)
		return ok && t.bounds.contains(v)
	case GradeMultiSelect:
		selected := splitValues(value)
		if m.matchMode == MultiSelectCount {
			return t.bounds.contains(float64(len(selected)))
		}
		return containsFold(selected, t.value)
	case GradeFileExists:
		exists := hasProof || value != ""
		return t.exists != nil && *t.exists == exists
	}
	return false
}

func (m gradeMatcher) ceiling() float64 {
	top := 0.0
	for _, t := range m.tiers {
		if t.score > top {
			top = t.score
		}
	}
	return top
}

// gradeTable is the stored JSON shape of a GRADE criterion's expected value.
type gradeTable struct {
	Type         GradeType       `json:"type"`
	LegacyType   GradeType       `json:"grade_type"`
	MatchMode    string          `json:"match_mode"`
	ProofPenalty float64         `json:"proof_penalty"`
	Grades       []gradeTierJSON `json:"grades"`
}

type gradeTierJSON struct {
	Value  interface{} `json:"value"`
	Min    *float64    `json:"min"`
	Max    *float64    `json:"max"`
	Exists *bool       `json:"exists"`
	Score  float64     `json:"score"`
}

func parseGradeTable(raw string) (gradeMatcher, error) {
	var table gradeTable
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		return gradeMatcher{}, fmt.Errorf("grade table is not valid JSON: %w", err)
	}
	if len(table.Grades) == 0 {
		return gradeMatcher{}, fmt.Errorf("grade table has no grades")
	}
	if table.ProofPenalty < 0 {
		return gradeMatcher{}, fmt.Errorf("proof penalty must not be negative")
	}

	kind := table.Type
	if kind == "" {
		kind = table.LegacyType
	}
	kind = GradeType(strings.ToLower(strings.TrimSpace(string(kind))))
	if kind == "" {
		kind = inferGradeType(table.Grades)
	}

	m := gradeMatcher{kind: kind, penalty: table.ProofPenalty}
	switch kind {
	case GradeString, GradeNumeric, GradeFileExists:
	case GradeMultiSelect:
		m.matchMode = strings.ToLower(table.MatchMode)
		if m.matchMode == "" {
			m.matchMode = MultiSelectContains
		}
		if m.matchMode != MultiSelectContains && m.matchMode != MultiSelectCount {
			return gradeMatcher{}, fmt.Errorf("unknown multi_select match mode %q", table.MatchMode)
		}
	default:
		return gradeMatcher{}, fmt.Errorf("unknown grade type %q", kind)
	}

	for i, g := range table.Grades {
		if g.Score < 0 {
			return gradeMatcher{}, fmt.Errorf("grade %d has a negative score", i)
		}
		t := tier{score: g.Score, bounds: bounds{Min: g.Min, Max: g.Max}, exists: g.Exists}
		if g.Value != nil {
			t.value = strings.TrimSpace(fmt.Sprint(g.Value))
		}

		switch {
		case kind == GradeString || (kind == GradeMultiSelect && m.matchMode == MultiSelectContains):
			if t.value == "" {
				return gradeMatcher{}, fmt.Errorf("grade %d needs a value", i)
			}
		case kind == GradeNumeric || kind == GradeMultiSelect:
			if err := t.bounds.validate(); err != nil {
				return gradeMatcher{}, fmt.Errorf("grade %d: %w", i, err)
			}
		case kind == GradeFileExists:
			if t.exists == nil {
				return gradeMatcher{}, fmt.Errorf("grade %d needs exists", i)
			}
		}
		m.tiers = append(m.tiers, t)
	}
	return m, nil
}

func inferGradeType(grades []gradeTierJSON) GradeType {
	for _, g := range grades {
		if g.Exists != nil {
			return GradeFileExists
		}
		if g.Min != nil || g.Max != nil {
			return GradeNumeric
		}
	}
	return GradeString
}

// parseValueList accepts a JSON array, a JSON string or plain text.
func parseValueList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("expected value is empty")
	}

	switch raw[0] {
	case '[':
		var items []interface{}
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, fmt.Errorf("expected value list is not valid JSON: %w", err)
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			if s := strings.TrimSpace(fmt.Sprint(it)); s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("expected value list is empty")
		}
		return out, nil
	case '"':
		var s string
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("expected value is not a valid JSON string: %w", err)
		}
		if s = strings.TrimSpace(s); s == "" {
			return nil, fmt.Errorf("expected value is empty")
		}
		return []string{s}, nil
	default:
		return []string{raw}, nil
	}
}

func parseRange(raw string) (bounds, error) {
	var b bounds
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		return bounds{}, fmt.Errorf("range is not valid JSON: %w", err)
	}
	return b, b.validate()
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// parseNumber reads "1,200", "750" or "750 hours" as numbers.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	}
	found := numberPattern.FindString(s)
	if found == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(found, 64)
	return v, err == nil
}

// splitValues reads a multi-select answer stored as a JSON array or a comma separated list.
func splitValues(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var items []interface{}
		if err := json.Unmarshal([]byte(s), &items); err == nil {
			out := make([]string, 0, len(items))
			for _, it := range items {
				if v := strings.TrimSpace(fmt.Sprint(it)); v != "" {
					out = append(out, v)
				}
			}
			return out
		}
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
