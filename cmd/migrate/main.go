package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/noah-isme/exam-slot-api/pkg/config"
	"github.com/noah-isme/exam-slot-api/pkg/database"
	"github.com/noah-isme/exam-slot-api/pkg/logger"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 1, "number of migrations to roll back when direction=down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	switch *direction {
	case "up":
		err = database.RunMigrations(db.DB, logr)
	case "down":
		err = database.RollbackMigrations(db.DB, *steps, logr)
	default:
		logr.Fatal("unknown direction", zap.String("direction", *direction))
	}
	if err != nil {
		logr.Fatal("migration failed", zap.Error(err))
	}
}
