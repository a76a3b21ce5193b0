package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"coach-selection-workers/internal/models"

	"github.com/tidwall/gjson"
)

// Criterion is a compiled scoring rule. The zero value and any criterion
// whose configuration failed to compile score 0.
type Criterion struct {
	ID          string
	Matching    MatchingType
	Source      ValueSource
	SourceField string
	Aggregation AggregationMode
	Points      float64

	extract *regexp.Regexp
	matcher matcher
	err     error
}

// CompileError describes a criterion that cannot be evaluated.
type CompileError struct {
	CriteriaID    string
	ProjectItemID string
	Reason        string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("criteria %s: %s", e.CriteriaID, e.Reason)
}

// Compile parses a stored criterion once so evaluation never touches JSON.
func Compile(raw models.ScoringCriteria) (Criterion, error) {
	fail := func(format string, args ...interface{}) (Criterion, error) {
		return Criterion{}, &CompileError{
			CriteriaID:    raw.ID,
			ProjectItemID: raw.ProjectItemID,
			Reason:        fmt.Sprintf(format, args...),
		}
	}

	c := Criterion{ID: raw.ID, Points: raw.Score}
	if raw.Score < 0 {
		return fail("score must not be negative")
	}

	var err error
	if c.Matching, err = ParseMatchingType(raw.MatchingType); err != nil {
		return fail("%v", err)
	}
	if c.Source, err = ParseValueSource(raw.ValueSource); err != nil {
		return fail("%v", err)
	}
	if c.Aggregation, err = ParseAggregationMode(raw.AggregationMode); err != nil {
		return fail("%v", err)
	}

	c.SourceField = strings.TrimSpace(raw.SourceField)
	if c.Source != SourceSubmitted && c.SourceField == "" {
		return fail("value source %s needs a source field", c.Source)
	}

	if p := strings.TrimSpace(raw.ExtractPattern); p != "" {
		if c.extract, err = regexp.Compile(p); err != nil {
			return fail("extract pattern: %v", err)
		}
	}

	switch c.Matching {
	case MatchExact:
		values, err := parseValueList(raw.ExpectedValue)
		if err != nil {
			return fail("%v", err)
		}
		c.matcher = exactMatcher{expected: values, points: raw.Score}
	case MatchContains:
		values, err := parseValueList(raw.ExpectedValue)
		if err != nil {
			return fail("%v", err)
		}
		c.matcher = containsMatcher{needles: values, points: raw.Score}
	case MatchRange:
		b, err := parseRange(raw.ExpectedValue)
		if err != nil {
			return fail("%v", err)
		}
		c.matcher = rangeMatcher{bounds: b, points: raw.Score}
	case MatchGrade:
		g, err := parseGradeTable(raw.ExpectedValue)
		if err != nil {
			return fail("%v", err)
		}
		c.matcher = g
	}
	return c, nil
}

// CompileAll compiles every criterion. Criteria that fail are kept as
// zero-scoring placeholders so one bad rule never blocks the others.
func CompileAll(raws []models.ScoringCriteria) ([]Criterion, []error) {
	out := make([]Criterion, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		c, err := Compile(raw)
		if err != nil {
			errs = append(errs, err)
			c = Criterion{ID: raw.ID, err: err}
		}
		out = append(out, c)
	}
	return out, errs
}

// Err returns the compile error of a placeholder criterion.
func (c Criterion) Err() error {
	return c.err
}

// MaxScore is the highest score a single entry can earn.
func (c Criterion) MaxScore() float64 {
	if c.matcher == nil {
		return 0
	}
	return c.matcher.ceiling()
}

// Score evaluates one entry.
func (c Criterion) Score(e Entry, profile []byte) float64 {
	if c.matcher == nil {
		return 0
	}
	return c.matcher.score(c.Resolve(e, profile), e.HasProof)
}

// Resolve returns the value the criterion tests, after source lookup and extraction.
func (c Criterion) Resolve(e Entry, profile []byte) string {
	var v string
	switch c.Source {
	case SourceUserField:
		if len(profile) > 0 {
			v = resultString(gjson.GetBytes(profile, c.SourceField))
		}
	case SourceJSONField:
		if gjson.Valid(e.Value) {
			v = resultString(gjson.Get(e.Value, c.SourceField))
		}
	default:
		v = e.Value
	}

	if c.extract != nil {
		v = extract(c.extract, v)
	}
	return strings.TrimSpace(v)
}

// extract returns the first capture group, or the whole match when the
// pattern has no groups, or "" when nothing matches.
func extract(re *regexp.Regexp, v string) string {
	m := re.FindStringSubmatch(v)
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return m[1]
	default:
		return m[0]
	}
}

func resultString(r gjson.Result) string {
	if !r.Exists() {
		return ""
	}
	if r.IsArray() || r.IsObject() {
		return r.Raw
	}
	return r.String()
}
