package scoring

// Evaluate scores one project item. For a single-answer item pass the answer
// as source and a nil repeatable slice; for repeatable items pass every entry
// and each criterion aggregates its per-entry scores with its own mode. The
// item score is the best criterion score.
func Evaluate(criteria []Criterion, source Entry, profile []byte, repeatable []Entry) float64 {
	if repeatable != nil {
		return evaluateRepeatable(criteria, profile, repeatable)
	}

	best := 0.0
	for _, c := range criteria {
		if s := c.Score(source, profile); s > best {
			best = s
		}
	}
	return best
}

func evaluateRepeatable(criteria []Criterion, profile []byte, entries []Entry) float64 {
	filled := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.IsEmpty() {
			filled = append(filled, e)
		}
	}

	best := 0.0
	for _, c := range criteria {
		if c.matcher == nil {
			continue
		}
		scores := make([]float64, len(filled))
		for i, e := range filled {
			scores[i] = c.Score(e, profile)
		}
		if s := Aggregate(c.Aggregation, scores); s > best {
			best = s
		}
	}
	return best
}
