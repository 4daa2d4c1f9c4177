package gacha

import (
	"math"
	"sort"

	"github.com/xtding233/pocket-encounters/internal/rng"
)

// TrialGoal selects what the simulation measures per trial.
type TrialGoal string

const (
	// Pulls until the first 5★ of any kind.
	GoalFirstFiveStar TrialGoal = "first_five_star"
	// Pulls until the premium 5★ (respects the guarantee flag).
	GoalFirstPremium TrialGoal = "first_premium"
	// Given a fixed budget, count 5★ outcomes.
	GoalFixedBudget TrialGoal = "fixed_budget"
)

// SimParams describes one simulation run.
type SimParams struct {
	Start    Pity // carry-over state when entering the banner
	Goal     TrialGoal
	Trials   int
	NumPulls int // budget for GoalFixedBudget
}

// Stats summarizes simulation results.
type Stats struct {
	Mean   float64
	Var    float64
	StdDev float64
	P50    float64
	P90    float64
	P99    float64
	Max    int
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	sorted := append([]int(nil), xs...)
	sort.Ints(sorted)
	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(sorted, 0.50),
		P90:     percentile(sorted, 0.90),
		P99:     percentile(sorted, 0.99),
		Max:     sorted[n-1],
		Samples: xs,
	}
}

// percentile interpolates linearly over sorted samples.
func percentile(sorted []int, p float64) float64 {
	n := len(sorted)
	if n == 1 || p <= 0 {
		return float64(sorted[0])
	}
	if p >= 1 {
		return float64(sorted[n-1])
	}
	pos := p * float64(n-1)
	i := int(math.Floor(pos))
	f := pos - float64(i)
	if i+1 >= n {
		return float64(sorted[i])
	}
	return float64(sorted[i])*(1-f) + float64(sorted[i+1])*f
}

// simulateOne returns the metric of one trial.
func (b *Banner) simulateOne(p SimParams, src rng.Source) (int, error) {
	state := p.Start
	switch p.Goal {
	case GoalFirstFiveStar, GoalFirstPremium:
		pulls := 0
		for {
			pulls++
			out, next, err := b.Pull(state, src)
			if err != nil {
				return 0, err
			}
			state = next
			if out.Tier != FiveStar {
				continue
			}
			if p.Goal == GoalFirstFiveStar || out.Featured {
				return pulls, nil
			}
		}

	case GoalFixedBudget:
		count := 0
		for i := 0; i < p.NumPulls; i++ {
			out, next, err := b.Pull(state, src)
			if err != nil {
				return 0, err
			}
			state = next
			if out.Tier == FiveStar {
				count++
			}
		}
		return count, nil
	}
	return 0, nil
}

// RunMonteCarlo repeats trials and returns summary stats.
func (b *Banner) RunMonteCarlo(p SimParams, src rng.Source) (Stats, error) {
	if p.Trials <= 0 {
		return Stats{}, nil
	}
	if src == nil {
		src = rng.Default()
	}
	samples := make([]int, p.Trials)
	for i := range samples {
		v, err := b.simulateOne(p, src)
		if err != nil {
			return Stats{}, err
		}
		samples[i] = v
	}
	return calcStats(samples), nil
}
