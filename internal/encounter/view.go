// Package encounter runs one battle between a player's roster and a wild
// creature or a trainer's team. A Session is a finite-state machine driven
// by interactions pulled from an EventSource; every visible change goes
// through a Renderer.
package encounter

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Color is a hint for the embed accent; the client maps it to a hex value.
type Color string

const (
	ColorNeutral Color = "neutral"
	ColorBattle  Color = "battle"
	ColorWin     Color = "win"
	ColorLose    Color = "lose"
	ColorTimeout Color = "timeout"
)

// Button is one clickable component. ID is echoed back as Interaction.Action.
type Button struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// View is the platform-neutral content of a battle message. Thumbnail and
// Image carry asset references (see SpriteRef, ArtRef) that the client
// resolves to URLs.
type View struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Thumbnail   string   `json:"thumbnail,omitempty"`
	Image       string   `json:"image,omitempty"`
	Color       Color    `json:"color"`
	Components  []Button `json:"components,omitempty"`
}

// Message is a rendered message that can be replaced in place.
type Message interface {
	Edit(ctx context.Context, v View) error
}

type Renderer interface {
	Send(ctx context.Context, v View) (Message, error)
}

// Interaction is one button press.
type Interaction struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id"`
	Action string `json:"action"`
}

// EventSource yields the interactions addressed to one session. Next blocks
// until an interaction arrives or ctx is done.
type EventSource interface {
	Next(ctx context.Context) (Interaction, error)
	Acknowledge(ctx context.Context, in Interaction) error
}

const (
	ActionContinue = "continue"
	ActionFight    = "fight"
	ActionSwitch   = "switch"
	ActionBag      = "bag"
	ActionCancel   = "cancel"

	slotPrefix    = "slot:"
	starterPrefix = "starter:"
)

// SlotAction is the action id for choosing roster slot idx.
func SlotAction(idx int) string { return slotPrefix + strconv.Itoa(idx) }

func parseIndexed(prefix, action string) (int, bool) {
	rest, ok := strings.CutPrefix(action, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SpriteRef and ArtRef are the asset placeholders for a species.
func SpriteRef(speciesID int) string { return fmt.Sprintf("sprite:%d", speciesID) }

func ArtRef(speciesID int) string { return fmt.Sprintf("art:%d", speciesID) }
