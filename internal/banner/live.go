package banner

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/xtding233/pocket-encounters/internal/gacha"
	"github.com/xtding233/pocket-encounters/internal/token"
)

// Live holds the banner currently served and swaps it on reload.
type Live struct {
	loader *Loader
	name   string

	mu     sync.RWMutex
	banner *gacha.Banner
	cost   token.Token
}

// NewLive loads the named banner; it fails when the initial config is invalid.
func NewLive(loader *Loader, name string) (*Live, error) {
	l := &Live{loader: loader, name: name}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Current returns the active banner and its price.
func (l *Live) Current() (*gacha.Banner, token.Token) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.banner, l.cost
}

// Reload re-reads the files. An invalid config keeps the previous banner.
func (l *Live) Reload() error {
	l.loader.Invalidate()
	b, cost, err := l.loader.Load(l.name)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.banner, l.cost = b, cost
	l.mu.Unlock()
	return nil
}

// Watch reloads whenever the default or banner file changes, until ctx ends.
func (l *Live) Watch(ctx context.Context, interval time.Duration) {
	paths := []string{l.loader.Paths().DefaultPath()}
	if l.name != "" && l.name != DefaultName {
		paths = append(paths, l.loader.Paths().BannerPath(l.name))
	}
	w := NewFileWatcher(paths, interval, func(path string) {
		if err := l.Reload(); err != nil {
			log.Printf("banner: reload after %s changed: %v (keeping previous)", path, err)
			return
		}
		log.Printf("banner: reloaded %s", l.name)
	})
	w.Run(ctx)
}
