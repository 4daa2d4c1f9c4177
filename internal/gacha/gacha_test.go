package gacha

import (
	"errors"
	"math"
	"testing"

	"github.com/xtding233/pocket-encounters/internal/rng"
)

// scripted replays fixed Float64 values; IntN always picks the first item.
type scripted struct{ vals []float64 }

func (s *scripted) Float64() float64 {
	if len(s.vals) == 0 {
		panic("scripted source exhausted")
	}
	v := s.vals[0]
	s.vals = s.vals[1:]
	return v
}

func (s *scripted) IntN(int) int { return 0 }

func testParams() BannerParams {
	return BannerParams{
		Name:  "test",
		PBase: 0.006,
		Soft: SoftPity{
			Pity:      60,
			Mode:      ModeIncrement,
			StartAt:   43,
			Increment: 0.06,
		},
		FeaturedProb: 0.5,
		Second: SecondTier{
			Pity:       8,
			BaseProb:   0.13,
			AtPityProb: 0.994,
			Gate:       0.55,
			FeaturedP:  0.55,
		},
		Items: Items{
			Premium:      "Master Ball",
			Fallback:     "Rare Candy",
			FourFeatured: []string{"Ultra Ball"},
			FourStandard: []string{"Great Ball"},
			Three:        []string{"Poke Ball", "Potion"},
		},
	}
}

func testBanner(t *testing.T) *Banner {
	t.Helper()
	b, err := NewBanner(testParams())
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestDrawBounds(t *testing.T) {
	got, err := Draw(0, rng.NewSeeded(1))
	if err != nil || got {
		t.Fatalf("p=0 should never hit; got=%v err=%v", got, err)
	}
	got, err = Draw(1, rng.NewSeeded(1))
	if err != nil || !got {
		t.Fatalf("p=1 should always hit; got=%v err=%v", got, err)
	}
	if _, err := Draw(-0.1, nil); !errors.Is(err, ErrInvalidProb) {
		t.Fatalf("negative p must error")
	}
	if _, err := Draw(math.NaN(), nil); !errors.Is(err, ErrInvalidProb) {
		t.Fatalf("NaN p must error")
	}
}

func TestDrawStatApprox(t *testing.T) {
	const p = 0.3
	const n = 100000
	src := rng.NewSeeded(42)
	hit := 0
	for i := 0; i < n; i++ {
		ok, err := Draw(p, src)
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			hit++
		}
	}
	freq := float64(hit) / float64(n)
	if diff := freq - p; diff > 0.01 || diff < -0.01 {
		t.Fatalf("freq=%f not close to p=%f", freq, p)
	}
}

func TestSoftPityRamp(t *testing.T) {
	b := testBanner(t)
	cases := map[int]float64{0: 0.006, 42: 0.006, 43: 0.066, 50: 0.486, 58: 0.966, 59: 1}
	for big, want := range cases {
		if got := b.TopTierProb(big); math.Abs(got-want) > 1e-9 {
			t.Fatalf("TopTierProb(%d)=%v, want %v", big, got, want)
		}
	}
}

func TestTargetRampEasing(t *testing.T) {
	s := SoftPity{Pity: 10, Mode: ModeTargetRamp, StartAt: 4, TargetProb: 0.5}
	if err := s.normalize(); err != nil {
		t.Fatal(err)
	}
	if got := s.Prob(4, 0.1); got != 0.1 {
		t.Fatalf("ramp start=%v", got)
	}
	if got := s.Prob(8, 0.1); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("ramp end=%v", got)
	}
	if got := s.Prob(9, 0.1); got != 1 {
		t.Fatalf("hard pity=%v", got)
	}
	bad := SoftPity{Pity: 10, Mode: ModeIncrement, StartAt: 9, Increment: 0.1}
	if err := bad.normalize(); !errors.Is(err, ErrSoftPityConfig) {
		t.Fatalf("StartAt at pity-1 must fail, got %v", err)
	}
}

func TestHardPityInvariant(t *testing.T) {
	b := testBanner(t)
	src := rng.NewSeeded(7)
	var p Pity
	since := 0
	for i := 0; i < 10000; i++ {
		out, next, err := b.Pull(p, src)
		if err != nil {
			t.Fatal(err)
		}
		since++
		if out.Tier == FiveStar {
			if next.Big != 0 {
				t.Fatalf("big pity not reset: %d", next.Big)
			}
			since = 0
		}
		if since >= 60 {
			t.Fatalf("60 pulls without a 5★ at pull %d", i)
		}
		if next.Big > 59 {
			t.Fatalf("big pity exceeded 59: %d", next.Big)
		}
		p = next
	}
}

func TestBaseFiveStarRate(t *testing.T) {
	b := testBanner(t)
	src := rng.NewSeeded(2024)
	const n = 100000
	hits := 0
	for i := 0; i < n; i++ {
		out, _, err := b.Pull(Pity{}, src)
		if err != nil {
			t.Fatal(err)
		}
		if out.Tier == FiveStar {
			hits++
		}
	}
	// sigma ~ 0.000244; allow six
	if rate := float64(hits) / n; math.Abs(rate-0.006) > 0.0015 {
		t.Fatalf("5★ rate %f, want ~0.006", rate)
	}
}

func TestGuaranteeTransitions(t *testing.T) {
	b := testBanner(t)

	// lost coin flip -> fallback, guarantee set
	out, next, err := b.Pull(Pity{Big: 59, Small: 3}, &scripted{vals: []float64{0.9}})
	if err != nil {
		t.Fatal(err)
	}
	if out.Tier != FiveStar || out.Featured || out.Item != "Rare Candy" {
		t.Fatalf("out=%+v", out)
	}
	if !next.Guarantee || next.Big != 0 || next.Small != 4 {
		t.Fatalf("next=%+v", next)
	}

	// guarantee consumed without a coin flip
	out, next, err = b.Pull(Pity{Big: 59, Guarantee: true}, &scripted{})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Featured || out.Item != "Master Ball" || next.Guarantee {
		t.Fatalf("out=%+v next=%+v", out, next)
	}

	// won coin flip keeps guarantee clear
	out, next, _ = b.Pull(Pity{Big: 59}, &scripted{vals: []float64{0.1}})
	if !out.Featured || next.Guarantee {
		t.Fatalf("out=%+v next=%+v", out, next)
	}
}

func TestSecondTier(t *testing.T) {
	b := testBanner(t)

	// above pity: always eligible; gate 0.1 -> 4★, pool 0.1 -> featured
	out, next, _ := b.Pull(Pity{Big: 5, Small: 9}, &scripted{vals: []float64{0.9, 0.1, 0.1}})
	if out.Tier != FourStar || out.Item != "Ultra Ball" || !out.Featured {
		t.Fatalf("out=%+v", out)
	}
	if next.Small != 0 || next.Big != 6 {
		t.Fatalf("next=%+v", next)
	}

	// gate fails -> 3★, small keeps counting
	out, next, _ = b.Pull(Pity{Small: 9}, &scripted{vals: []float64{0.9, 0.9}})
	if out.Tier != ThreeStar || out.Item != "Poke Ball" || next.Small != 10 {
		t.Fatalf("out=%+v next=%+v", out, next)
	}

	// standard pool
	out, _, _ = b.Pull(Pity{Small: 9}, &scripted{vals: []float64{0.9, 0.1, 0.9}})
	if out.Tier != FourStar || out.Item != "Great Ball" || out.Featured {
		t.Fatalf("out=%+v", out)
	}

	// below pity and not eligible -> nothing
	out, next, _ = b.Pull(Pity{Small: 2}, &scripted{vals: []float64{0.9, 0.5}})
	if out.Tier != TierNone || out.Item != "" || next.Small != 3 || next.Big != 1 {
		t.Fatalf("out=%+v next=%+v", out, next)
	}

	if got := b.SecondTierProb(8); got != 0.994 {
		t.Fatalf("SecondTierProb(8)=%v", got)
	}
	if got := b.SecondTierProb(7); got != 0.13 {
		t.Fatalf("SecondTierProb(7)=%v", got)
	}
}

func TestPullN(t *testing.T) {
	b := testBanner(t)
	outs, p, err := b.PullN(Pity{}, 10, rng.NewSeeded(3))
	if err != nil || len(outs) != 10 {
		t.Fatalf("outs=%d err=%v", len(outs), err)
	}
	fives := 0
	for _, o := range outs {
		if o.Tier == FiveStar {
			fives++
		}
	}
	if fives == 0 && p.Big != 10 {
		t.Fatalf("big pity=%d after 10 misses", p.Big)
	}
}

func TestNewBannerValidation(t *testing.T) {
	p := testParams()
	p.PBase = 0
	p.Items.Three = nil
	p.Second.Gate = 1.5
	_, err := NewBanner(p)
	if !errors.Is(err, ErrBannerConfig) {
		t.Fatalf("want ErrBannerConfig, got %v", err)
	}
}

func TestMonteCarloBounds(t *testing.T) {
	b := testBanner(t)
	src := rng.NewSeeded(99)
	st, err := b.RunMonteCarlo(SimParams{Goal: GoalFirstFiveStar, Trials: 3000}, src)
	if err != nil {
		t.Fatal(err)
	}
	if st.Max > 60 || st.Mean <= 0 {
		t.Fatalf("first 5★ stats %+v", st)
	}
	st, err = b.RunMonteCarlo(SimParams{Goal: GoalFirstPremium, Trials: 3000}, src)
	if err != nil {
		t.Fatal(err)
	}
	if st.Max > 120 {
		t.Fatalf("premium took %d pulls; guarantee must cap it at 120", st.Max)
	}
	st, _ = b.RunMonteCarlo(SimParams{Goal: GoalFixedBudget, Trials: 500, NumPulls: 180}, src)
	if st.Mean < 3 {
		t.Fatalf("180 pulls should average at least three 5★, got %f", st.Mean)
	}
}
