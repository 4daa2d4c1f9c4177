// Package bot binds chat commands to the encounter engine, the profile
// store and the gacha banner.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xtding233/pocket-encounters/internal/battle"
	"github.com/xtding233/pocket-encounters/internal/dex"
	"github.com/xtding233/pocket-encounters/internal/encounter"
	"github.com/xtding233/pocket-encounters/internal/gacha"
	"github.com/xtding233/pocket-encounters/internal/profile"
	"github.com/xtding233/pocket-encounters/internal/rng"
	"github.com/xtding233/pocket-encounters/internal/roster"
	"github.com/xtding233/pocket-encounters/internal/spawn"
	"github.com/xtding233/pocket-encounters/internal/token"
)

const (
	CmdWild    = "wild"
	CmdTrainer = "trainer"
	CmdStarter = "starter"
	CmdTeam    = "team"
	CmdHeal    = "heal"
	CmdPull    = "pull"
	CmdPull10  = "pull10"
	CmdProfile = "profile"
)

var (
	ErrBusy           = errors.New("a battle is already in progress")
	ErrUnknownCommand = errors.New("unknown command")
)

// Command is one slash command invocation.
type Command struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name"`
	Args   []string `json:"args,omitempty"`
}

// BannerSource serves the active gacha banner and its price.
type BannerSource interface {
	Current() (*gacha.Banner, token.Token)
}

type Options struct {
	Dex     *dex.Dex
	Store   *profile.Store
	Banner  BannerSource
	Rand    rng.Source
	Timeout time.Duration
}

// Bot is safe for concurrent use; commands from different players run in
// parallel and each player has at most one battle at a time.
type Bot struct {
	dex      *dex.Dex
	store    *profile.Store
	banner   BannerSource
	rand     rng.Source
	gen      *spawn.Generator
	resolver *battle.Resolver
	timeout  time.Duration

	mu     sync.Mutex
	active map[string]struct{}
}

func New(o Options) *Bot {
	if o.Rand == nil {
		o.Rand = rng.Default()
	}
	if o.Timeout <= 0 {
		o.Timeout = encounter.DefaultTimeout
	}
	return &Bot{
		dex:      o.Dex,
		store:    o.Store,
		banner:   o.Banner,
		rand:     o.Rand,
		gen:      spawn.NewGenerator(o.Dex, o.Rand),
		resolver: battle.NewResolver(o.Dex, o.Rand),
		timeout:  o.Timeout,
		active:   make(map[string]struct{}),
	}
}

func (b *Bot) claim(userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.active[userID]; ok {
		return false
	}
	b.active[userID] = struct{}{}
	return true
}

func (b *Bot) release(userID string) {
	b.mu.Lock()
	delete(b.active, userID)
	b.mu.Unlock()
}

// InBattle reports whether userID has a running session.
func (b *Bot) InBattle(userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.active[userID]
	return ok
}

// Handle runs one command to completion. Interactive commands block until
// their session ends. Game-level failures are rendered to the player;
// the returned error is reserved for transport and store failures.
func (b *Bot) Handle(ctx context.Context, cmd Command, r encounter.Renderer, ev encounter.EventSource) error {
	switch strings.ToLower(cmd.Name) {
	case CmdWild, CmdTrainer:
		return b.battle(ctx, cmd, r, ev)
	case CmdStarter:
		return b.starter(ctx, cmd, r, ev)
	case CmdTeam:
		return b.team(ctx, cmd, r)
	case CmdHeal:
		return b.heal(ctx, cmd, r)
	case CmdPull:
		return b.pull(ctx, cmd, r, 1)
	case CmdPull10:
		return b.pull(ctx, cmd, r, 10)
	case CmdProfile:
		return b.profile(ctx, cmd, r)
	}
	return notice(ctx, r, "Unknown command", fmt.Sprintf("%s: %q", ErrUnknownCommand, cmd.Name))
}

func notice(ctx context.Context, r encounter.Renderer, title, desc string) error {
	_, err := r.Send(ctx, encounter.View{Title: title, Description: desc, Color: encounter.ColorNeutral})
	return err
}

func (b *Bot) battle(ctx context.Context, cmd Command, r encounter.Renderer, ev encounter.EventSource) error {
	if !b.claim(cmd.UserID) {
		return notice(ctx, r, "Busy", ErrBusy.Error())
	}
	defer b.release(cmd.UserID)

	p, err := b.store.Get(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	var opp *encounter.Opponent
	if strings.EqualFold(cmd.Name, CmdTrainer) {
		opp = encounter.TrainerOpponent(b.gen.SpawnTrainer(p.Level()))
	} else {
		opp = encounter.WildOpponent(b.gen.SpawnCreature(p.Level()))
	}

	s := encounter.NewSession(encounter.Deps{
		Store:    b.store,
		Resolver: b.resolver,
		Renderer: r,
		Events:   ev,
		Timeout:  b.timeout,
	}, cmd.UserID, opp)
	res, err := s.Run(ctx)
	switch {
	case errors.Is(err, roster.ErrEmptyRoster):
		return notice(ctx, r, "No team", "You need a creature first. Use /starter to pick one.")
	case errors.Is(err, roster.ErrFainted):
		return notice(ctx, r, "Your team has fainted", "Use /heal before battling again.")
	case err != nil:
		return err
	}

	summary, err := b.settle(ctx, cmd.UserID, res)
	if err != nil {
		return err
	}
	if summary == "" {
		return nil
	}
	return notice(ctx, r, "Battle rewards", summary)
}

func (b *Bot) starter(ctx context.Context, cmd Command, r encounter.Renderer, ev encounter.EventSource) error {
	if !b.claim(cmd.UserID) {
		return notice(ctx, r, "Busy", ErrBusy.Error())
	}
	defer b.release(cmd.UserID)
	st := &encounter.Starter{
		Dex:    b.dex,
		Health: b.gen.GenerateHealth,
		Deps:   encounter.Deps{Store: b.store, Renderer: r, Events: ev, Timeout: b.timeout},
	}
	_, err := st.Run(ctx, cmd.UserID)
	if errors.Is(err, encounter.ErrHasTeam) {
		return notice(ctx, r, "Starter", "You already have a team. Use /team to see it.")
	}
	return err
}

func (b *Bot) team(ctx context.Context, cmd Command, r encounter.Renderer) error {
	p, err := b.store.Get(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if p.Roster.Empty() {
		return notice(ctx, r, "Your team", roster.ErrEmptyRoster.Error()+". Use /starter to pick one.")
	}
	var sb strings.Builder
	for i, c := range p.Roster.Creatures {
		mark := "  "
		if i == p.Roster.ActiveIdx {
			mark = "* "
		}
		fmt.Fprintf(&sb, "%s%d. %s [%s] %s %d/%d HP\n",
			mark, i+1, c.Name, dex.FormatTypes(c.Types), c.Rarity.Title(), c.Health, c.MaxHealth)
	}
	active, _ := p.Roster.Active()
	_, err = r.Send(ctx, encounter.View{
		Title:       "Your team",
		Description: strings.TrimRight(sb.String(), "\n"),
		Thumbnail:   encounter.SpriteRef(active.Species),
		Color:       encounter.ColorNeutral,
	})
	return err
}

func (b *Bot) heal(ctx context.Context, cmd Command, r encounter.Renderer) error {
	if !b.claim(cmd.UserID) {
		return notice(ctx, r, "Busy", "You cannot heal during a battle.")
	}
	defer b.release(cmd.UserID)
	err := b.store.Update(ctx, cmd.UserID, func(p *profile.Profile) error {
		if p.Roster.Empty() {
			return roster.ErrEmptyRoster
		}
		p.Roster.HealAll()
		return nil
	})
	if errors.Is(err, roster.ErrEmptyRoster) {
		return notice(ctx, r, "Heal", "You have no creatures to heal.")
	}
	if err != nil {
		return err
	}
	return notice(ctx, r, "Heal", "Your team is back to full health.")
}

func (b *Bot) profile(ctx context.Context, cmd Command, r encounter.Renderer) error {
	p, err := b.store.Get(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	_, tok := b.banner.Current()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Level %d (%d XP)\n%d %s\nWins %d, losses %d\n", p.Level(), p.XP, p.Coins, tok.Name, p.Wins, p.Losses)
	fmt.Fprintf(&sb, "Pity: %d since 5★, %d since 4★", p.Pity.Big, p.Pity.Small)
	if p.Pity.Guarantee {
		sb.WriteString(", next 5★ guaranteed featured")
	}
	if b.InBattle(cmd.UserID) {
		sb.WriteString("\nCurrently in a battle.")
	}
	if len(p.Items) > 0 {
		names := make([]string, 0, len(p.Items))
		for n := range p.Items {
			names = append(names, n)
		}
		sort.Strings(names)
		sb.WriteString("\nItems:")
		for _, n := range names {
			fmt.Fprintf(&sb, "\n  %s x%d", n, p.Items[n])
		}
	}
	return notice(ctx, r, "Profile", sb.String())
}
