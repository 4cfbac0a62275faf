package scoring

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// CohortResult is the flattened outcome of scoring a whole cohort.
type CohortResult struct {
	Matches        []Candidate
	PairsEvaluated int
}

// ScoreCohort ranks every profile against the rest of the cohort. Sources are
// scored concurrently, bounded by the engine's worker count, and the per-source
// lists are concatenated in cohort order so the output does not depend on
// scheduling. A cancelled context aborts the run.
func (e *MatchEngine) ScoreCohort(ctx context.Context, cohort []Profile) (CohortResult, error) {
	slots := make([][]Candidate, len(cohort))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range cohort {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = e.RankForProfile(cohort[i], cohort)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CohortResult{}, err
	}

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	matches := make([]Candidate, 0, total)
	for _, s := range slots {
		matches = append(matches, s...)
	}

	n := len(cohort)
	return CohortResult{
		Matches:        matches,
		PairsEvaluated: n * max(n-1, 0),
	}, nil
}
