package benchmark

import "time"

// QueryComparison pairs the two measurements of one query.
type QueryComparison struct {
	Query          string  `json:"query"`
	Before         Timing  `json:"before"`
	After          Timing  `json:"after"`
	ImprovementPct float64 `json:"improvementPct"`
}

// ResultsMatch reports whether the query returned the same result size in
// both phases.
func (qc QueryComparison) ResultsMatch() bool {
	return qc.Before.Result == qc.After.Result
}

// Comparison is the outcome of a benchmark run, in query order.
type Comparison struct {
	Runs       int               `json:"runs"`
	IndexBuild time.Duration     `json:"indexBuildNanos"`
	Queries    []QueryComparison `json:"queries"`
}

// Improvement returns (before-after)/before as a percentage, or 0 when
// before is not positive. A slowdown yields a negative value.
func Improvement(before, after time.Duration) float64 {
	if before <= 0 {
		return 0
	}
	return float64(before-after) / float64(before) * 100
}

// Compare pairs before and after timings by query name, keeping the order
// of before. Queries missing from after are skipped.
func Compare(before, after []Timing) Comparison {
	byName := make(map[string]Timing, len(after))
	for _, t := range after {
		byName[t.Query] = t
	}
	cmp := Comparison{Queries: make([]QueryComparison, 0, len(before))}
	for _, b := range before {
		a, ok := byName[b.Query]
		if !ok {
			continue
		}
		cmp.Queries = append(cmp.Queries, QueryComparison{
			Query:          b.Query,
			Before:         b,
			After:          a,
			ImprovementPct: Improvement(b.Mean, a.Mean),
		})
	}
	return cmp
}
