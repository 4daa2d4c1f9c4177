package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/xtding233/pocket-encounters/internal/banner"
	"github.com/xtding233/pocket-encounters/internal/bot"
	"github.com/xtding233/pocket-encounters/internal/config"
	"github.com/xtding233/pocket-encounters/internal/dex"
	"github.com/xtding233/pocket-encounters/internal/gateway"
	"github.com/xtding233/pocket-encounters/internal/profile"
	"github.com/xtding233/pocket-encounters/internal/profile/sqlite"
	"github.com/xtding233/pocket-encounters/internal/rpc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	d, err := dex.Load()
	if err != nil {
		log.Fatalf("load dex: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open profile db: %v", err)
	}
	defer db.Close()
	store := profile.NewStore(profile.WithPersister(db), profile.WithStartingCoins(cfg.StartingCoins))

	live, err := banner.NewLive(banner.NewLoader(cfg.ConfigDir), cfg.Banner)
	if err != nil {
		log.Fatalf("load banner %q: %v", cfg.Banner, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.ReloadInterval > 0 {
		go live.Watch(ctx, cfg.ReloadInterval)
	}

	b := bot.New(bot.Options{
		Dex:     d,
		Store:   store,
		Banner:  live,
		Timeout: cfg.InteractionTimeout,
	})
	ws := gateway.NewServer(b, gateway.Assets{SpriteURL: cfg.SpriteURL, ArtURL: cfg.ArtURL})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newMux(&api{pulls: b, profiles: store, board: db}, ws),
		ReadHeaderTimeout: 10 * time.Second,
	}

	rpcDone := make(chan struct{})
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("listen on %s: %v", cfg.GRPCAddr, err)
		}
		go func() {
			defer close(rpcDone)
			if err := rpc.NewServer(rpc.NewService(b, store)).Serve(ctx, lis); err != nil {
				log.Printf("rpc: %v", err)
			}
		}()
	} else {
		close(rpcDone)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s ...", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	<-rpcDone
}
