package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sakshamg567/hangman/internal/auth"
	"github.com/sakshamg567/hangman/internal/config"
	"github.com/sakshamg567/hangman/internal/room"
	"github.com/sakshamg567/hangman/internal/server"
	"github.com/sakshamg567/hangman/internal/store"
	"github.com/sakshamg567/hangman/logger"
)

const (
	sweepInterval = time.Minute
	roomIdleTTL   = 10 * time.Minute
	shutdownWait  = 10 * time.Second
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	addr := flag.String("addr", "", "listen address (overrides HANGMAN_ADDR)")
	flag.Parse()

	if err := run(*envFile, *addr); err != nil {
		logger.Error("server: %v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(envFile, addrOverride string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger.Init(cfg.Debug)
	defer logger.Sync()

	if addrOverride != "" {
		cfg.Addr = addrOverride
	}
	if cfg.GeneratedSecret {
		logger.Warn("HANGMAN_JWT_SECRET not set, tokens will not survive a restart")
	}

	bank, err := cfg.WordBank()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rm := room.NewRoomManager(bank, store.NewRecorder(st))
	go rm.RunJanitor(ctx, sweepInterval, roomIdleTTL)

	srv := server.New(server.Options{
		Rooms:     rm,
		Issuer:    auth.NewIssuer(cfg.JWTSecret),
		Store:     st,
		PublicURL: cfg.PublicURL,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(cfg.Addr) }()
	logger.Info("hangman server on %s (store=%s, words=%d)", cfg.Addr, cfg.Store, bank.Len())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := rm.Shutdown(sctx); err != nil {
		logger.Warn("rooms did not stop in time: %v", err)
	}
	return srv.Shutdown(sctx)
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return store.OpenSQLite(cfg.SQLitePath)
	case config.StoreRedis:
		return store.OpenRedis(ctx, cfg.RedisAddr)
	case config.StoreMemory:
		return store.NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}
