package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	figure "github.com/common-nighthawk/go-figure"

	"github.com/sofianehd/linkup/internal/config"
	"github.com/sofianehd/linkup/internal/server"
	"github.com/sofianehd/linkup/internal/storage/sqlite"
)

func main() {
	figure.NewFigure("LinkUp", "slant", true).Print()

	cfg := config.LoadServerConfig()

	store, err := sqlite.NewStore(cfg.Database)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}
	defer store.Close()

	app := server.NewApp(cfg, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("listening on %s", cfg.ListenAddr)
	if err := app.Run(ctx); err != nil {
		log.Fatalf("server shutdown: %v", err)
	}
}
