package interview

// Scorecard aggregates per-answer scores. It is a pure projection: it never
// mutates session state and knows nothing about telephony.
type Scorecard struct {
	Scores         []int
	PassPercentage int
}

// Total is the sum of all recorded scores.
func (c Scorecard) Total() int {
	total := 0
	for _, s := range c.Scores {
		total += s
	}
	return total
}

// Average is Total/len, 0 when no answers have been scored.
func (c Scorecard) Average() float64 {
	if len(c.Scores) == 0 {
		return 0
	}
	return float64(c.Total()) / float64(len(c.Scores))
}

// Passed reports whether the candidate met the pass threshold. The boundary is
// inclusive: an average of exactly PassPercentage/10 passes.
func (c Scorecard) Passed() bool {
	return c.Average()*10 >= float64(c.PassPercentage)
}
