package encounter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/xtding233/pocket-encounters/internal/battle"
	"github.com/xtding233/pocket-encounters/internal/profile"
	"github.com/xtding233/pocket-encounters/internal/roster"
)

// DefaultTimeout bounds every wait for a player interaction.
const DefaultTimeout = 120 * time.Second

var (
	ErrSessionTimeout   = errors.New("response timed out")
	ErrNoEligibleSwitch = errors.New("no creature left that can battle")
	ErrBagUnavailable   = errors.New("the bag is not available yet")
)

const (
	StateAwaitingStart     = "awaiting_start"
	StateRollingInitiative = "rolling_initiative"
	StatePlayerTurn        = "player_turn"
	StateOpponentTurn      = "opponent_turn"
	StateSwitchMenu        = "switch_menu"
	StateForcedSwitch      = "forced_switch"
	StateResolved          = "resolved"
)

const (
	evStart         = "start"
	evPlayerFirst   = "player_first"
	evOpponentFirst = "opponent_first"
	evPlayerDone    = "player_done"
	evOpponentDone  = "opponent_done"
	evOpenSwitch    = "open_switch"
	evCancelSwitch  = "cancel_switch"
	evFaint         = "faint"
	evSwitched      = "switched"
	evResolve       = "resolve"
)

var transitions = fsm.Events{
	{Name: evStart, Src: []string{StateAwaitingStart}, Dst: StateRollingInitiative},
	{Name: evPlayerFirst, Src: []string{StateRollingInitiative}, Dst: StatePlayerTurn},
	{Name: evOpponentFirst, Src: []string{StateRollingInitiative}, Dst: StateOpponentTurn},
	{Name: evPlayerDone, Src: []string{StatePlayerTurn, StateSwitchMenu}, Dst: StateOpponentTurn},
	{Name: evOpponentDone, Src: []string{StateOpponentTurn}, Dst: StatePlayerTurn},
	{Name: evOpenSwitch, Src: []string{StatePlayerTurn}, Dst: StateSwitchMenu},
	{Name: evCancelSwitch, Src: []string{StateSwitchMenu}, Dst: StatePlayerTurn},
	{Name: evFaint, Src: []string{StateOpponentTurn}, Dst: StateForcedSwitch},
	{Name: evSwitched, Src: []string{StateForcedSwitch}, Dst: StatePlayerTurn},
	{Name: evResolve, Src: []string{
		StateAwaitingStart, StateRollingInitiative, StatePlayerTurn,
		StateOpponentTurn, StateSwitchMenu, StateForcedSwitch,
	}, Dst: StateResolved},
}

type Outcome int

const (
	Pending Outcome = iota
	Win
	Lose
	Timeout
	Unavailable
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Lose:
		return "lose"
	case Timeout:
		return "timeout"
	case Unavailable:
		return "unavailable"
	default:
		return "pending"
	}
}

// Result is how a session ended. Reason is one of the package sentinels
// for Timeout, Unavailable and a Lose with nobody left to switch in.
type Result struct {
	Outcome  Outcome
	Reason   error
	Opponent *Opponent
	Turns    int
}

// Deps are the collaborators a session needs.
type Deps struct {
	Store    *profile.Store
	Resolver *battle.Resolver
	Renderer Renderer
	Events   EventSource
	Timeout  time.Duration
}

// Session is one battle. It is driven by a single goroutine calling Run.
type Session struct {
	ID     string
	userID string
	deps   Deps
	opp    *Opponent
	fsm    *fsm.FSM
	msg    Message
	result Result

	mu    sync.Mutex
	trace []string
}

func NewSession(deps Deps, userID string, opp *Opponent) *Session {
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultTimeout
	}
	s := &Session{
		ID:     uuid.NewString(),
		userID: userID,
		deps:   deps,
		opp:    opp,
		result: Result{Opponent: opp},
	}
	s.trace = []string{StateAwaitingStart}
	s.fsm = fsm.NewFSM(StateAwaitingStart, transitions, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			s.mu.Lock()
			s.trace = append(s.trace, e.Dst)
			s.mu.Unlock()
		},
		"enter_" + StateResolved: func(_ context.Context, _ *fsm.Event) {
			log.Printf("encounter %s: user=%s opponent=%q outcome=%s turns=%d",
				s.ID, s.userID, s.opp.Name(), s.result.Outcome, s.result.Turns)
		},
	})
	return s
}

// State is the current machine state.
func (s *Session) State() string { return s.fsm.Current() }

// Trace lists every state the session has been in, in order.
func (s *Session) Trace() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.trace)
}

// Run plays the battle to a terminal state. The returned error is a
// render, transport or store failure, or ctx's error when the hosting
// task goes away; every game ending is reported through Result.
func (s *Session) Run(ctx context.Context) (Result, error) {
	if err := s.open(ctx); err != nil {
		return s.result, err
	}
	log.Printf("encounter %s: started user=%s opponent=%q", s.ID, s.userID, s.opp.Name())
	for s.fsm.Current() != StateResolved {
		var (
			next string
			err  error
		)
		switch s.fsm.Current() {
		case StateAwaitingStart:
			next, err = s.awaitStart(ctx)
		case StateRollingInitiative:
			next, err = s.rollInitiative(ctx)
		case StatePlayerTurn:
			next, err = s.playerTurn(ctx)
		case StateOpponentTurn:
			next, err = s.opponentTurn(ctx)
		case StateSwitchMenu:
			next, err = s.switchMenu(ctx)
		case StateForcedSwitch:
			next, err = s.forcedSwitch(ctx)
		}
		if err != nil {
			return s.result, err
		}
		if err := s.fsm.Event(ctx, next); err != nil {
			return s.result, fmt.Errorf("encounter %s: %s from %s: %w", s.ID, next, s.fsm.Current(), err)
		}
	}
	return s.result, nil
}

// open validates the roster and sends the opening message.
func (s *Session) open(ctx context.Context) error {
	if s.opp == nil || s.opp.Active() == nil {
		return fmt.Errorf("encounter: opponent has no team")
	}
	var buddy roster.Creature
	err := s.deps.Store.Update(ctx, s.userID, func(p *profile.Profile) error {
		if p.Roster.Empty() {
			return roster.ErrEmptyRoster
		}
		if p.Roster.Alive() == 0 {
			return fmt.Errorf("%w: every creature needs healing", roster.ErrFainted)
		}
		c, err := p.Roster.Active()
		if err != nil {
			return err
		}
		if c.Fainted() {
			for i, c := range p.Roster.Creatures {
				if !c.Fainted() {
					p.Roster.ActiveIdx = i
					break
				}
			}
		}
		buddy, err = p.Roster.Active()
		return err
	})
	if err != nil {
		return err
	}

	foe := s.opp.Active()
	v := View{
		Color:      ColorNeutral,
		Thumbnail:  SpriteRef(buddy.Species),
		Image:      ArtRef(foe.Species),
		Components: []Button{{ID: ActionContinue, Label: "Continue"}},
	}
	if t := s.opp.Trainer; t != nil {
		v.Title = fmt.Sprintf("%s trainer %s wants to battle!", t.Tier.Title(), t.Name)
		names := make([]string, len(s.opp.Team))
		for i, c := range s.opp.Team {
			names[i] = fmt.Sprintf("%s (%d HP)", c.Name, c.MaxHealth)
		}
		v.Description = fmt.Sprintf("Team: %s\nGo, %s!", strings.Join(names, ", "), buddy.Name)
	} else {
		v.Title = fmt.Sprintf("A wild %s appeared!", foe.Name)
		v.Description = fmt.Sprintf("%s rarity, %d HP.\nGo, %s!", foe.Rarity.Title(), foe.MaxHealth, buddy.Name)
	}
	msg, err := s.deps.Renderer.Send(ctx, v)
	if err != nil {
		return fmt.Errorf("send encounter: %w", err)
	}
	s.msg = msg
	return nil
}

func (s *Session) render(ctx context.Context, v View) error {
	if err := s.msg.Edit(ctx, v); err != nil {
		return fmt.Errorf("edit encounter: %w", err)
	}
	return nil
}

func (s *Session) await(ctx context.Context, allowed []string) (string, error) {
	return awaitAction(ctx, s.deps.Events, s.userID, s.deps.Timeout, allowed)
}

// awaitAction blocks for an interaction from userID whose action is in
// allowed. Everything else is acknowledged and dropped. The timeout covers
// the whole wait, not each interaction.
func awaitAction(ctx context.Context, events EventSource, userID string, timeout time.Duration, allowed []string) (string, error) {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		in, err := events.Next(wctx)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return "", ErrSessionTimeout
			}
			return "", fmt.Errorf("next interaction: %w", err)
		}
		if err := events.Acknowledge(ctx, in); err != nil {
			return "", fmt.Errorf("acknowledge interaction: %w", err)
		}
		if in.UserID != userID {
			continue
		}
		if slices.Contains(allowed, in.Action) {
			return in.Action, nil
		}
	}
}

// finish renders the terminal message and records the result.
func (s *Session) finish(ctx context.Context, o Outcome, reason error, desc string) (string, error) {
	s.result.Outcome = o
	s.result.Reason = reason
	v := View{Description: desc}
	switch o {
	case Win:
		v.Title, v.Color = "You won!", ColorWin
	case Lose:
		v.Title, v.Color = "You lost!", ColorLose
	case Timeout:
		v.Title, v.Color = "Response timed out", ColorTimeout
	case Unavailable:
		v.Title, v.Color = "Not available", ColorNeutral
	}
	if foe := s.opp.Active(); foe != nil {
		v.Thumbnail = SpriteRef(foe.Species)
	}
	if err := s.render(ctx, v); err != nil {
		return "", err
	}
	return evResolve, nil
}

func (s *Session) timedOut(ctx context.Context) (string, error) {
	return s.finish(ctx, Timeout, ErrSessionTimeout,
		"No response was received in time. The encounter has ended.")
}

func (s *Session) buddy(ctx context.Context) (roster.Creature, error) {
	var c roster.Creature
	err := s.deps.Store.View(ctx, s.userID, func(p profile.Profile) error {
		var err error
		c, err = p.Roster.Active()
		return err
	})
	return c, err
}

func (s *Session) awaitStart(ctx context.Context) (string, error) {
	_, err := s.await(ctx, []string{ActionContinue})
	if errors.Is(err, ErrSessionTimeout) {
		return s.timedOut(ctx)
	}
	if err != nil {
		return "", err
	}
	return evStart, nil
}

func (s *Session) rollInitiative(ctx context.Context) (string, error) {
	p, o, playerFirst := s.deps.Resolver.Initiative()
	who := s.opp.Name()
	if playerFirst {
		who = "You"
	}
	err := s.render(ctx, View{
		Title:       "Rolling for initiative",
		Description: fmt.Sprintf("You rolled %d, %s rolled %d.\n%s will go first.", p, s.opp.Name(), o, who),
		Color:       ColorBattle,
	})
	if err != nil {
		return "", err
	}
	if playerFirst {
		return evPlayerFirst, nil
	}
	return evOpponentFirst, nil
}

func (s *Session) status(buddy roster.Creature) string {
	foe := s.opp.Active()
	return fmt.Sprintf("%s: %d/%d HP\n%s: %d/%d HP",
		buddy.Name, buddy.Health, buddy.MaxHealth, foe.Name, foe.Health, foe.MaxHealth)
}

func (s *Session) playerTurn(ctx context.Context) (string, error) {
	buddy, err := s.buddy(ctx)
	if err != nil {
		return "", err
	}
	err = s.render(ctx, View{
		Title:       "What will " + buddy.Name + " do?",
		Description: s.status(buddy),
		Thumbnail:   SpriteRef(buddy.Species),
		Image:       ArtRef(s.opp.Active().Species),
		Color:       ColorBattle,
		Components: []Button{
			{ID: ActionFight, Label: "Fight"},
			{ID: ActionSwitch, Label: "Switch"},
			{ID: ActionBag, Label: "Bag"},
		},
	})
	if err != nil {
		return "", err
	}
	action, err := s.await(ctx, []string{ActionFight, ActionSwitch, ActionBag})
	if errors.Is(err, ErrSessionTimeout) {
		return s.timedOut(ctx)
	}
	if err != nil {
		return "", err
	}
	switch action {
	case ActionSwitch:
		return evOpenSwitch, nil
	case ActionBag:
		return s.finish(ctx, Unavailable, ErrBagUnavailable, "The bag is not available yet. The encounter has ended.")
	}
	return s.fight(ctx, buddy)
}

func (s *Session) fight(ctx context.Context, buddy roster.Creature) (string, error) {
	s.result.Turns++
	foe := s.opp.Active()
	hit := s.deps.Resolver.Attack(buddy, *foe)
	foe.TakeDamage(hit.Damage)
	desc := fmt.Sprintf("%s attacks! %s\n%s takes %d damage.",
		buddy.Name, hit.Effect, foe.Name, hit.Damage)
	if !foe.Fainted() {
		if err := s.render(ctx, View{Title: "Your turn", Description: desc + "\n\n" + s.status(buddy), Color: ColorBattle}); err != nil {
			return "", err
		}
		return evPlayerDone, nil
	}

	desc += fmt.Sprintf("\n%s fainted!", foe.Name)
	if s.opp.Defeated() {
		return s.finish(ctx, Win, nil, desc)
	}
	s.opp.Advance()
	next := s.opp.Active()
	desc += fmt.Sprintf("\n%s sends out %s!", s.opp.Name(), next.Name)
	if err := s.render(ctx, View{
		Title:       "Your turn",
		Description: desc + "\n\n" + s.status(buddy),
		Image:       ArtRef(next.Species),
		Color:       ColorBattle,
	}); err != nil {
		return "", err
	}
	return evPlayerDone, nil
}

func (s *Session) opponentTurn(ctx context.Context) (string, error) {
	foe := *s.opp.Active()
	if s.deps.Resolver.OpponentIdles() {
		if err := s.render(ctx, View{
			Title:       s.opp.Name() + "'s turn",
			Description: foe.Name + " is loafing around.",
			Color:       ColorBattle,
		}); err != nil {
			return "", err
		}
		return evOpponentDone, nil
	}

	var (
		hit   battle.Hit
		buddy roster.Creature
	)
	err := s.deps.Store.Update(ctx, s.userID, func(p *profile.Profile) error {
		idx := p.Roster.ActiveIdx
		c, err := p.Roster.Active()
		if err != nil {
			return err
		}
		hit = s.deps.Resolver.Attack(foe, c)
		left, err := p.Roster.ApplyDamage(idx, hit.Damage)
		if err != nil {
			return err
		}
		if left == 0 {
			if err := p.Roster.MarkFainted(idx); err != nil {
				return err
			}
		}
		buddy = p.Roster.Creatures[idx].Clone()
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("apply damage: %w", err)
	}

	desc := fmt.Sprintf("%s attacks! %s\n%s takes %d damage.",
		foe.Name, hit.Effect, buddy.Name, hit.Damage)
	if buddy.Fainted() {
		desc += fmt.Sprintf("\n%s fainted!", buddy.Name)
	}
	if err := s.render(ctx, View{
		Title:       s.opp.Name() + "'s turn",
		Description: desc + "\n\n" + s.status(buddy),
		Color:       ColorBattle,
	}); err != nil {
		return "", err
	}
	if buddy.Fainted() {
		return evFaint, nil
	}
	return evOpponentDone, nil
}

func (s *Session) switchButtons(ctx context.Context) ([]Button, error) {
	var out []Button
	err := s.deps.Store.View(ctx, s.userID, func(p profile.Profile) error {
		for _, i := range p.Roster.SwitchTargets() {
			c := p.Roster.Creatures[i]
			out = append(out, Button{
				ID:    SlotAction(i),
				Label: fmt.Sprintf("%s (%d/%d)", c.Name, c.Health, c.MaxHealth),
			})
		}
		return nil
	})
	return out, err
}

func (s *Session) chooseSlot(ctx context.Context, title string, buttons []Button) (int, bool, error) {
	ids := make([]string, len(buttons))
	for i, b := range buttons {
		ids[i] = b.ID
	}
	if err := s.render(ctx, View{Title: title, Description: "Choose a creature.", Color: ColorBattle, Components: buttons}); err != nil {
		return 0, false, err
	}
	action, err := s.await(ctx, ids)
	if err != nil {
		return 0, false, err
	}
	idx, ok := parseIndexed(slotPrefix, action)
	return idx, ok, nil
}

func (s *Session) setActive(ctx context.Context, idx int) (roster.Creature, error) {
	var c roster.Creature
	err := s.deps.Store.Update(ctx, s.userID, func(p *profile.Profile) error {
		if err := p.Roster.SetActive(idx); err != nil {
			return err
		}
		c, _ = p.Roster.Active()
		return nil
	})
	return c, err
}

func (s *Session) switchMenu(ctx context.Context) (string, error) {
	buttons, err := s.switchButtons(ctx)
	if err != nil {
		return "", err
	}
	if len(buttons) == 0 {
		if err := s.render(ctx, View{Title: "Switch", Description: "Nobody else can battle.", Color: ColorBattle}); err != nil {
			return "", err
		}
		return evCancelSwitch, nil
	}
	buttons = append(buttons, Button{ID: ActionCancel, Label: "Cancel"})
	idx, ok, err := s.chooseSlot(ctx, "Switch", buttons)
	if errors.Is(err, ErrSessionTimeout) {
		return s.timedOut(ctx)
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return evCancelSwitch, nil
	}
	c, err := s.setActive(ctx, idx)
	if err != nil {
		return "", fmt.Errorf("switch: %w", err)
	}
	if err := s.render(ctx, View{Title: "Switch", Description: "Go, " + c.Name + "!", Thumbnail: SpriteRef(c.Species), Color: ColorBattle}); err != nil {
		return "", err
	}
	return evPlayerDone, nil
}

func (s *Session) forcedSwitch(ctx context.Context) (string, error) {
	buttons, err := s.switchButtons(ctx)
	if err != nil {
		return "", err
	}
	if len(buttons) == 0 {
		return s.finish(ctx, Lose, ErrNoEligibleSwitch, "You have no creatures left that can battle.")
	}
	idx, _, err := s.chooseSlot(ctx, "Your creature fainted!", buttons)
	if errors.Is(err, ErrSessionTimeout) {
		return s.timedOut(ctx)
	}
	if err != nil {
		return "", err
	}
	c, err := s.setActive(ctx, idx)
	if err != nil {
		return "", fmt.Errorf("forced switch: %w", err)
	}
	if err := s.render(ctx, View{Title: "Switch", Description: "Go, " + c.Name + "!", Thumbnail: SpriteRef(c.Species), Color: ColorBattle}); err != nil {
		return "", err
	}
	return evSwitched, nil
}
