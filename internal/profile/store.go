package profile

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Persister is the durable backing of the store.
type Persister interface {
	// Load returns ErrNotFound for unknown users.
	Load(ctx context.Context, userID string) (Profile, error)
	Save(ctx context.Context, p Profile) error
}

// Store keeps one lock per player; there is no process-wide lock held
// during reads or mutations. Locks are never held across caller I/O other
// than the persister write that commits a mutation.
type Store struct {
	persist       Persister
	startingCoins int

	mu      sync.Mutex // guards entries only
	entries map[string]*entry
}

type entry struct {
	mu      sync.RWMutex
	loaded  bool
	profile Profile
}

type Option func(*Store)

// WithPersister writes every committed mutation through p.
func WithPersister(p Persister) Option { return func(s *Store) { s.persist = p } }

// WithStartingCoins sets the balance of brand-new profiles.
func WithStartingCoins(n int) Option { return func(s *Store) { s.startingCoins = n } }

func NewStore(opts ...Option) *Store {
	s := &Store{entries: make(map[string]*entry)}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) entry(userID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{}
		s.entries[userID] = e
	}
	return e
}

// ensureLoaded must be called with e.mu held for writing.
func (s *Store) ensureLoaded(ctx context.Context, userID string, e *entry) error {
	if e.loaded {
		return nil
	}
	p := Profile{UserID: userID, Coins: s.startingCoins}
	if s.persist != nil {
		loaded, err := s.persist.Load(ctx, userID)
		switch {
		case err == nil:
			p = loaded
		case errors.Is(err, ErrNotFound):
		default:
			return fmt.Errorf("load profile %s: %w", userID, err)
		}
	}
	e.profile = p
	e.loaded = true
	return nil
}

// View runs fn under the player's read lock. fn must not retain p's
// slices or maps.
func (s *Store) View(ctx context.Context, userID string, fn func(p Profile) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := s.entry(userID)
	e.mu.RLock()
	if !e.loaded {
		e.mu.RUnlock()
		e.mu.Lock()
		err := s.ensureLoaded(ctx, userID, e)
		e.mu.Unlock()
		if err != nil {
			return err
		}
		e.mu.RLock()
	}
	defer e.mu.RUnlock()
	return fn(e.profile)
}

// Get returns a copy of the profile.
func (s *Store) Get(ctx context.Context, userID string) (Profile, error) {
	var out Profile
	err := s.View(ctx, userID, func(p Profile) error {
		out = p.Clone()
		return nil
	})
	return out, err
}

// Update runs fn on a copy under the player's write lock. The copy replaces
// the stored profile only if fn and the persister both succeed.
func (s *Store) Update(ctx context.Context, userID string, fn func(p *Profile) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.ensureLoaded(ctx, userID, e); err != nil {
		return err
	}
	next := e.profile.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if s.persist != nil {
		if err := s.persist.Save(ctx, next); err != nil {
			return fmt.Errorf("save profile %s: %w", userID, err)
		}
	}
	e.profile = next
	return nil
}

// Credit adds currency and returns the new balance.
func (s *Store) Credit(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var balance int
	err := s.Update(ctx, userID, func(p *Profile) error {
		p.Coins += amount
		balance = p.Coins
		return nil
	})
	return balance, err
}

// Debit removes currency and returns the new balance.
func (s *Store) Debit(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	var balance int
	err := s.Update(ctx, userID, func(p *Profile) error {
		if p.Coins < amount {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, p.Coins, amount)
		}
		p.Coins -= amount
		balance = p.Coins
		return nil
	})
	return balance, err
}
