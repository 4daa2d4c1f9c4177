package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/xtding233/pocket-encounters/internal/dex"
	"github.com/xtding233/pocket-encounters/internal/encounter"
	"github.com/xtding233/pocket-encounters/internal/profile"
	"github.com/xtding233/pocket-encounters/internal/roster"
)

const (
	wildCoins = 20
	wildXP    = 10
)

var (
	trainerCoins = map[dex.Rarity]int{dex.Common: 40, dex.Mythic: 80, dex.Legendary: 150}
	trainerXP    = map[dex.Rarity]int{dex.Common: 25, dex.Mythic: 50, dex.Legendary: 100}
)

// Reward is what a win pays out.
func Reward(opp *encounter.Opponent) (coins, xp int) {
	if opp.IsTrainer() {
		return trainerCoins[opp.Trainer.Tier], trainerXP[opp.Trainer.Tier]
	}
	return wildCoins, wildXP
}

// settle books a finished session onto the profile and returns a summary
// for the player, or "" when there is nothing to report.
func (b *Bot) settle(ctx context.Context, userID string, res encounter.Result) (string, error) {
	switch res.Outcome {
	case encounter.Win, encounter.Lose:
	default:
		return "", nil
	}
	var lines []string
	err := b.store.Update(ctx, userID, func(p *profile.Profile) error {
		lines = lines[:0]
		if res.Outcome == encounter.Lose {
			p.Losses++
			return nil
		}
		coins, xp := Reward(res.Opponent)
		before := p.Level()
		p.Wins++
		p.Coins += coins
		p.XP += xp
		lines = append(lines, fmt.Sprintf("+%d coins, +%d XP", coins, xp))
		if p.Level() > before {
			lines = append(lines, fmt.Sprintf("You reached level %d!", p.Level()))
		}
		if !res.Opponent.IsTrainer() && p.Roster.Len() < roster.MaxSize {
			caught := res.Opponent.Team[0].Clone()
			caught.Health = caught.MaxHealth
			if err := p.Roster.Add(caught); err != nil {
				return err
			}
			lines = append(lines, caught.Name+" joined your team!")
		}
		return nil
	})
	if err != nil {
		log.Printf("bot: settle %s for %s: %v", res.Outcome, userID, err)
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
