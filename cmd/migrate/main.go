package main

import (
	"context"
	"flag"
	"log"

	"docquiz/internal/config"
	"docquiz/internal/database"
	"docquiz/internal/logger"

	"go.uber.org/zap"
)

func main() {
	direction := flag.String("direction", string(database.Up), "migration direction: up or down")
	flag.Parse()
	if flag.NArg() > 0 {
		*direction = flag.Arg(0)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	db, err := database.NewPostgresDB(context.Background(), cfg.DB, cfg.GetDSN())
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db.DB, database.Direction(*direction)); err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err))
	}
}
