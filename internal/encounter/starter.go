package encounter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/xtding233/pocket-encounters/internal/dex"
	"github.com/xtding233/pocket-encounters/internal/profile"
	"github.com/xtding233/pocket-encounters/internal/roster"
)

// StarterSpecies are the three creatures a new player chooses between.
var StarterSpecies = []int{1, 4, 7}

// ErrHasTeam is returned when a player who already owns creatures asks
// for a starter.
var ErrHasTeam = errors.New("you already have a team")

// HealthFunc rolls max health for a species.
type HealthFunc func(speciesID int) int

// Starter lets a player with an empty roster pick a first creature.
type Starter struct {
	Dex    *dex.Dex
	Health HealthFunc
	Deps   Deps
}

// Run waits for the player's choice and adds it to their roster. A nil
// creature with a nil error means the choice timed out.
func (st *Starter) Run(ctx context.Context, userID string) (*roster.Creature, error) {
	timeout := st.Deps.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var empty bool
	if err := st.Deps.Store.View(ctx, userID, func(p profile.Profile) error {
		empty = p.Roster.Empty()
		return nil
	}); err != nil {
		return nil, err
	}
	if !empty {
		return nil, ErrHasTeam
	}

	buttons := make([]Button, len(StarterSpecies))
	ids := make([]string, len(StarterSpecies))
	for i, id := range StarterSpecies {
		sp, _ := st.Dex.Species(id)
		ids[i] = starterPrefix + strconv.Itoa(id)
		buttons[i] = Button{ID: ids[i], Label: sp.Name}
	}
	msg, err := st.Deps.Renderer.Send(ctx, View{
		Title:       "Choose your starter",
		Description: "Pick the creature that will join you on your journey.",
		Color:       ColorNeutral,
		Components:  buttons,
	})
	if err != nil {
		return nil, fmt.Errorf("send starter: %w", err)
	}

	action, err := awaitAction(ctx, st.Deps.Events, userID, timeout, ids)
	if errors.Is(err, ErrSessionTimeout) {
		return nil, msg.Edit(ctx, View{
			Title:       "Response timed out",
			Description: "No starter was chosen.",
			Color:       ColorTimeout,
		})
	}
	if err != nil {
		return nil, err
	}

	id, _ := parseIndexed(starterPrefix, action)
	sp, _ := st.Dex.Species(id)
	c := roster.NewCreature(sp, st.Health(id))
	err = st.Deps.Store.Update(ctx, userID, func(p *profile.Profile) error {
		if !p.Roster.Empty() {
			return ErrHasTeam
		}
		return p.Roster.Add(c)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("encounter: user=%s chose starter %s", userID, c.Name)
	if err := msg.Edit(ctx, View{
		Title:       "You chose " + c.Name + "!",
		Description: fmt.Sprintf("%s (%d HP) joined your team.", c.Name, c.MaxHealth),
		Thumbnail:   SpriteRef(c.Species),
		Image:       ArtRef(c.Species),
		Color:       ColorWin,
	}); err != nil {
		return &c, fmt.Errorf("edit starter: %w", err)
	}
	return &c, nil
}
