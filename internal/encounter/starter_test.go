package encounter

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStarterChoice(t *testing.T) {
	f := newFixture(t)
	f.events = newEvents(
		Interaction{UserID: "gary", Action: "starter:1"},
		press("starter:4"),
	)
	st := &Starter{
		Dex:    f.dex,
		Health: func(int) int { return 15 },
		Deps:   Deps{Store: f.store, Renderer: f.render, Events: f.events, Timeout: time.Second},
	}
	c, err := st.Run(context.Background(), player)
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.Species != 4 || c.Health != 15 {
		t.Fatalf("starter = %+v", c)
	}
	r := f.roster(t)
	if r.Len() != 1 || r.Creatures[0].Species != 4 {
		t.Fatalf("roster = %+v", r)
	}

	if _, err := st.Run(context.Background(), player); !errors.Is(err, ErrHasTeam) {
		t.Fatalf("want ErrHasTeam, got %v", err)
	}
}

func TestStarterTimeout(t *testing.T) {
	f := newFixture(t)
	st := &Starter{
		Dex:    f.dex,
		Health: func(int) int { return 15 },
		Deps:   Deps{Store: f.store, Renderer: f.render, Events: f.events, Timeout: 20 * time.Millisecond},
	}
	c, err := st.Run(context.Background(), player)
	if err != nil || c != nil {
		t.Fatalf("got %v, %v", c, err)
	}
	if f.render.last().Title != "Response timed out" {
		t.Fatalf("last view = %+v", f.render.last())
	}
	if r := f.roster(t); !r.Empty() {
		t.Fatal("timed-out starter changed the roster")
	}
}
