package scoring

// Aggregate collapses per-entry scores of a repeatable item into one score.
// Unknown modes behave like FIRST.
func Aggregate(mode AggregationMode, scores []float64) float64 {
	switch mode {
	case AggregateSum:
		total := 0.0
		for _, s := range scores {
			total += s
		}
		return total
	case AggregateMax, AggregateBestMatch:
		best := 0.0
		for _, s := range scores {
			if s > best {
				best = s
			}
		}
		return best
	case AggregateCount:
		return float64(len(scores))
	case AggregateAnyMatch:
		for _, s := range scores {
			if s > 0 {
				return s
			}
		}
		return 0
	default:
		if len(scores) == 0 {
			return 0
		}
		return scores[0]
	}
}
