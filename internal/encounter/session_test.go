package encounter

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/xtding233/pocket-encounters/internal/battle"
	"github.com/xtding233/pocket-encounters/internal/dex"
	"github.com/xtding233/pocket-encounters/internal/profile"
	"github.com/xtding233/pocket-encounters/internal/roster"
	"github.com/xtding233/pocket-encounters/internal/spawn"
)

// script replays IntN and Float64 values. Exhausted IntN returns 0 and
// exhausted Float64 returns 0.99, so the opponent never idles by default.
type script struct {
	mu     sync.Mutex
	ints   []int
	floats []float64
}

func (s *script) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		v = n - 1
	}
	return v
}

func (s *script) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.floats) == 0 {
		return 0.99
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

type fakeRenderer struct {
	mu    sync.Mutex
	views []View
	fail  error
}

func (r *fakeRenderer) Send(_ context.Context, v View) (Message, error) {
	if r.fail != nil {
		return nil, r.fail
	}
	r.record(v)
	return r, nil
}

func (r *fakeRenderer) Edit(_ context.Context, v View) error {
	r.record(v)
	return nil
}

func (r *fakeRenderer) record(v View) {
	r.mu.Lock()
	r.views = append(r.views, v)
	r.mu.Unlock()
}

func (r *fakeRenderer) last() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[len(r.views)-1]
}

type fakeEvents struct {
	ch    chan Interaction
	mu    sync.Mutex
	acked []Interaction
}

func newEvents(ins ...Interaction) *fakeEvents {
	e := &fakeEvents{ch: make(chan Interaction, 64)}
	for _, in := range ins {
		e.ch <- in
	}
	return e
}

func (e *fakeEvents) Next(ctx context.Context) (Interaction, error) {
	select {
	case in := <-e.ch:
		return in, nil
	case <-ctx.Done():
		return Interaction{}, ctx.Err()
	}
}

func (e *fakeEvents) Acknowledge(_ context.Context, in Interaction) error {
	e.mu.Lock()
	e.acked = append(e.acked, in)
	e.mu.Unlock()
	return nil
}

const player = "ash"

func press(action string) Interaction { return Interaction{UserID: player, Action: action} }

type fixture struct {
	dex    *dex.Dex
	store  *profile.Store
	src    *script
	render *fakeRenderer
	events *fakeEvents
}

func newFixture(t *testing.T, team ...roster.Creature) *fixture {
	t.Helper()
	f := &fixture{
		dex:    dex.MustLoad(),
		store:  profile.NewStore(),
		src:    &script{},
		render: &fakeRenderer{},
		events: newEvents(),
	}
	err := f.store.Update(context.Background(), player, func(p *profile.Profile) error {
		for _, c := range team {
			if err := p.Roster.Add(c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// update seeds the player's profile and fails the test on error.
func (f *fixture) update(t *testing.T, fn func(p *profile.Profile) error) {
	t.Helper()
	if err := f.store.Update(context.Background(), player, fn); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) creature(t *testing.T, id, health int) roster.Creature {
	t.Helper()
	sp, err := f.dex.Species(id)
	if err != nil {
		t.Fatal(err)
	}
	c := roster.NewCreature(sp, 20)
	c.Health = health
	return c
}

func (f *fixture) session(opp *Opponent, timeout time.Duration) *Session {
	return NewSession(Deps{
		Store:    f.store,
		Resolver: battle.NewResolver(f.dex, f.src),
		Renderer: f.render,
		Events:   f.events,
		Timeout:  timeout,
	}, player, opp)
}

func (f *fixture) roster(t *testing.T) roster.Roster {
	t.Helper()
	p, err := f.store.Get(context.Background(), player)
	if err != nil {
		t.Fatal(err)
	}
	return p.Roster
}

func TestLastCreatureFaintsLoses(t *testing.T) {
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		return p.Roster.Add(f.creature(t, 1, 1))
	})
	// Initiative (1,1) goes to the opponent; attack roll index 3.
	f.src.ints = []int{0, 0, 3}
	f.events = newEvents(press(ActionContinue))

	s := f.session(WildOpponent(f.creature(t, 19, 15)), time.Second)
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != Lose || !errors.Is(res.Reason, ErrNoEligibleSwitch) {
		t.Fatalf("got %s / %v, want lose / ErrNoEligibleSwitch", res.Outcome, res.Reason)
	}
	want := []string{StateAwaitingStart, StateRollingInitiative, StateOpponentTurn, StateForcedSwitch, StateResolved}
	if got := s.Trace(); !slices.Equal(got, want) {
		t.Fatalf("trace = %v, want %v", got, want)
	}
	if h := f.roster(t).Creatures[0].Health; h != 0 {
		t.Fatalf("health = %d, want 0", h)
	}
}

func TestInitiativeTieGoesToOpponent(t *testing.T) {
	if battle.PlayerFirst(1, 1) {
		t.Fatal("PlayerFirst(1, 1) = true")
	}
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		return p.Roster.Add(f.creature(t, 4, 20))
	})
	f.src.ints = []int{0, 0}
	f.events = newEvents(press(ActionContinue))
	s := f.session(WildOpponent(f.creature(t, 19, 15)), 50*time.Millisecond)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := s.Trace()[2]; got != StateOpponentTurn {
		t.Fatalf("after a (1,1) tie went to %s", got)
	}
}

func TestTimeoutResolvesOnceWithoutMutation(t *testing.T) {
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		return p.Roster.Add(f.creature(t, 4, 12))
	})
	before := f.roster(t)

	s := f.session(WildOpponent(f.creature(t, 19, 15)), 20*time.Millisecond)
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != Timeout || !errors.Is(res.Reason, ErrSessionTimeout) {
		t.Fatalf("got %s / %v", res.Outcome, res.Reason)
	}
	resolved := 0
	for _, st := range s.Trace() {
		if st == StateResolved {
			resolved++
		}
	}
	if resolved != 1 {
		t.Fatalf("resolved %d times", resolved)
	}
	if v := f.render.last(); v.Title != "Response timed out" || len(v.Components) != 0 {
		t.Fatalf("terminal view = %+v", v)
	}
	after := f.roster(t)
	if after.Creatures[0].Health != before.Creatures[0].Health {
		t.Fatal("roster mutated by a timed-out session")
	}
}

func TestTimeoutAfterCommittedDamageKeepsIt(t *testing.T) {
	f := newFixture(t,
		roster.Creature{Species: 4, Name: "Charmander", Health: 20, MaxHealth: 20},
	)
	f.src.ints = []int{0, 0, 0}
	f.events = newEvents(press(ActionContinue))
	s := f.session(WildOpponent(f.creature(t, 19, 15)), 30*time.Millisecond)
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Timeout {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if h := f.roster(t).Creatures[0].Health; h >= 20 {
		t.Fatalf("damage taken before the timeout was lost: health %d", h)
	}
}

func TestForeignInteractionsAreAckedAndIgnored(t *testing.T) {
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		return p.Roster.Add(f.creature(t, 1, 1))
	})
	f.src.ints = []int{0, 0}
	f.events = newEvents(
		Interaction{UserID: "gary", Action: ActionContinue},
		Interaction{UserID: "gary", Action: ActionFight},
		press(ActionFight), // wrong state, dropped
		press(ActionContinue),
	)
	s := f.session(WildOpponent(f.creature(t, 19, 15)), time.Second)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.events.acked) != 4 {
		t.Fatalf("acked %d interactions, want 4", len(f.events.acked))
	}
	if got := s.Trace()[1]; got != StateRollingInitiative {
		t.Fatalf("trace = %v", s.Trace())
	}
}

func TestPlayerFirstWinsWild(t *testing.T) {
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		return p.Roster.Add(f.creature(t, 4, 20))
	})
	f.src.ints = []int{19, 0}
	f.events = newEvents(press(ActionContinue), press(ActionFight))
	s := f.session(WildOpponent(f.creature(t, 19, 1)), time.Second)
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Win || res.Turns != 1 {
		t.Fatalf("got %s in %d turns", res.Outcome, res.Turns)
	}
	if s.Trace()[2] != StatePlayerTurn {
		t.Fatalf("trace = %v", s.Trace())
	}
	if h := f.roster(t).Creatures[0].Health; h != 20 {
		t.Fatalf("player took damage: %d", h)
	}
}

func TestBagIsUnavailable(t *testing.T) {
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		return p.Roster.Add(f.creature(t, 4, 20))
	})
	f.src.ints = []int{19, 0}
	f.events = newEvents(press(ActionContinue), press(ActionBag))
	res, err := f.session(WildOpponent(f.creature(t, 19, 10)), time.Second).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Unavailable || !errors.Is(res.Reason, ErrBagUnavailable) {
		t.Fatalf("got %s / %v", res.Outcome, res.Reason)
	}
}

func TestForcedSwitchToTeammate(t *testing.T) {
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		if err := p.Roster.Add(f.creature(t, 1, 1)); err != nil {
			return err
		}
		return p.Roster.Add(f.creature(t, 7, 20))
	})
	f.src.ints = []int{0, 0, 0}
	f.events = newEvents(
		press(ActionContinue),
		press(SlotAction(0)), // fainted, not offered
		press(SlotAction(1)),
		press(ActionBag),
	)
	s := f.session(WildOpponent(f.creature(t, 19, 15)), time.Second)
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Unavailable {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	want := []string{
		StateAwaitingStart, StateRollingInitiative, StateOpponentTurn,
		StateForcedSwitch, StatePlayerTurn, StateResolved,
	}
	if got := s.Trace(); !slices.Equal(got, want) {
		t.Fatalf("trace = %v, want %v", got, want)
	}
	if r := f.roster(t); r.ActiveIdx != 1 {
		t.Fatalf("active = %d, want 1", r.ActiveIdx)
	}
}

func TestSwitchMenuCancelAndSwitch(t *testing.T) {
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		if err := p.Roster.Add(f.creature(t, 1, 20)); err != nil {
			return err
		}
		return p.Roster.Add(f.creature(t, 7, 20))
	})
	// Player first; opponent idles after the switch.
	f.src.ints = []int{19, 0}
	f.src.floats = []float64{0.01}
	f.events = newEvents(
		press(ActionContinue),
		press(ActionSwitch),
		press(ActionCancel),
		press(ActionSwitch),
		press(SlotAction(1)),
		press(ActionBag),
	)
	s := f.session(WildOpponent(f.creature(t, 19, 15)), time.Second)
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	want := []string{
		StateAwaitingStart, StateRollingInitiative, StatePlayerTurn,
		StateSwitchMenu, StatePlayerTurn, StateSwitchMenu,
		StateOpponentTurn, StatePlayerTurn, StateResolved,
	}
	if got := s.Trace(); !slices.Equal(got, want) {
		t.Fatalf("trace = %v, want %v", got, want)
	}
	if r := f.roster(t); r.ActiveIdx != 1 {
		t.Fatalf("active = %d, want 1", r.ActiveIdx)
	}
}

func TestTrainerPartyFoughtInOrder(t *testing.T) {
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		return p.Roster.Add(f.creature(t, 7, 20))
	})
	tr := spawn.Trainer{
		Trainer: dex.Trainer{Name: "Brock", Tier: dex.Common, Types: []dex.Type{dex.Rock}},
		Team:    []roster.Creature{f.creature(t, 74, 1), f.creature(t, 95, 1)},
	}
	f.src.ints = []int{19, 0}
	f.src.floats = []float64{0.01}
	f.events = newEvents(press(ActionContinue), press(ActionFight), press(ActionFight))
	res, err := f.session(TrainerOpponent(tr), time.Second).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != Win || res.Turns != 2 {
		t.Fatalf("got %s in %d turns", res.Outcome, res.Turns)
	}
	if !res.Opponent.Defeated() {
		t.Fatal("trainer party not exhausted")
	}
}

func TestEmptyRosterCannotStart(t *testing.T) {
	f := newFixture(t)
	_, err := f.session(WildOpponent(f.creature(t, 19, 5)), time.Second).Run(context.Background())
	if !errors.Is(err, roster.ErrEmptyRoster) {
		t.Fatalf("want ErrEmptyRoster, got %v", err)
	}
	if len(f.render.views) != 0 {
		t.Fatal("rendered for an empty roster")
	}
}

func TestFaintedBuddyIsReplacedAtStart(t *testing.T) {
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		if err := p.Roster.Add(f.creature(t, 1, 0)); err != nil {
			return err
		}
		return p.Roster.Add(f.creature(t, 4, 9))
	})
	f.src.ints = []int{19, 0}
	f.events = newEvents(press(ActionContinue), press(ActionBag))
	if _, err := f.session(WildOpponent(f.creature(t, 19, 5)), time.Second).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if r := f.roster(t); r.ActiveIdx != 1 {
		t.Fatalf("active = %d, want 1", r.ActiveIdx)
	}
}

func TestRenderFailurePropagates(t *testing.T) {
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		return p.Roster.Add(f.creature(t, 4, 9))
	})
	boom := errors.New("gateway gone")
	f.render.fail = boom
	_, err := f.session(WildOpponent(f.creature(t, 19, 5)), time.Second).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("want render error, got %v", err)
	}
}

func TestHostCancellation(t *testing.T) {
	f := newFixture(t)
	f.update(t, func(p *profile.Profile) error {
		return p.Roster.Add(f.creature(t, 4, 9))
	})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	_, err := f.session(WildOpponent(f.creature(t, 19, 5)), time.Minute).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
