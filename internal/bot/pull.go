package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xtding233/pocket-encounters/internal/encounter"
	"github.com/xtding233/pocket-encounters/internal/gacha"
	"github.com/xtding233/pocket-encounters/internal/profile"
)

// PullResult is one charged batch of pulls.
type PullResult struct {
	Outcomes []gacha.Outcome
	Cost     int
	Balance  int
	Pity     gacha.Pity
}

// Pull charges for n pulls and runs them against the player's pity
// counters. The charge, the pity update and the items land together or
// not at all.
func (b *Bot) Pull(ctx context.Context, userID string, n int) (PullResult, error) {
	if n <= 0 {
		return PullResult{}, fmt.Errorf("pull count must be positive, got %d", n)
	}
	ban, tok := b.banner.Current()
	var res PullResult
	err := b.store.Update(ctx, userID, func(p *profile.Profile) error {
		cost := tok.TokensForDraws(n)
		if p.Coins < cost {
			return fmt.Errorf("%w: %d %s needed, you have %d", profile.ErrInsufficientFunds, cost, tok.Name, p.Coins)
		}
		outs, pity, err := ban.PullN(p.Pity, n, b.rand)
		if err != nil {
			return err
		}
		p.Coins -= cost
		p.Pity = pity
		for _, o := range outs {
			if o.Tier != gacha.TierNone {
				p.AddItem(o.Item)
			}
		}
		res = PullResult{Outcomes: outs, Cost: cost, Balance: p.Coins, Pity: pity}
		return nil
	})
	return res, err
}

func (b *Bot) pull(ctx context.Context, cmd Command, r encounter.Renderer, n int) error {
	res, err := b.Pull(ctx, cmd.UserID, n)
	if err != nil {
		if isUserError(err) {
			return notice(ctx, r, "Pull", err.Error())
		}
		return err
	}
	var sb strings.Builder
	best := gacha.TierNone
	for _, o := range res.Outcomes {
		if o.Tier > best {
			best = o.Tier
		}
		if o.Tier == gacha.TierNone {
			sb.WriteString("nothing\n")
			continue
		}
		fmt.Fprintf(&sb, "%s %s", o.Tier, o.Item)
		if o.Featured {
			sb.WriteString(" (featured)")
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "\nSpent %d, balance %d. Pity %d/%d.", res.Cost, res.Balance, res.Pity.Big, res.Pity.Small)
	color := encounter.ColorNeutral
	if best == gacha.FiveStar {
		color = encounter.ColorWin
	}
	_, err = r.Send(ctx, encounter.View{Title: fmt.Sprintf("%d× pull", n), Description: sb.String(), Color: color})
	return err
}

// isUserError reports errors that are shown to the player rather than
// treated as failures.
func isUserError(err error) bool {
	return errors.Is(err, profile.ErrInsufficientFunds)
}
