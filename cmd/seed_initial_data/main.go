package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"docquiz/cmd/seed_initial_data/internal/seedmodels"
	"docquiz/internal/config"
	"docquiz/internal/database"
	"docquiz/internal/domain"
	"docquiz/internal/logger"
	"docquiz/internal/repository"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const defaultSeedFile = "configs/seed_data/dev_fixtures.json"

func main() {
	seedFile := flag.String("file", defaultSeedFile, "fixture file")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	db, err := database.NewPostgresDB(ctx, cfg.DB, cfg.GetDSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	byteValue, err := os.ReadFile(*seedFile)
	if err != nil {
		log.Fatal("Failed to read seed file", zap.String("path", *seedFile), zap.Error(err))
	}
	var users []seedmodels.SeedUser
	if err := json.Unmarshal(byteValue, &users); err != nil {
		log.Fatal("Failed to unmarshal seed data", zap.Error(err))
	}
	log.Info("Loaded seed data", zap.Int("users", len(users)))

	if cfg.Storage.Backend != "local" {
		log.Warn("Document files are only copied for the local storage backend; upload them to their storage_path manually",
			zap.String("backend", cfg.Storage.Backend))
	}

	s := &seeder{
		db:        db,
		log:       log,
		baseDir:   filepath.Dir(*seedFile),
		localRoot: cfg.Storage.LocalRoot,
		copyFiles: cfg.Storage.Backend == "local",
	}
	for _, u := range users {
		if err := s.seedUser(ctx, u); err != nil {
			log.Error("Error seeding user, transaction rolled back", zap.String("user", u.UserID), zap.Error(err))
		}
	}
	log.Info("Seeding completed")
}

type seeder struct {
	db        *sqlx.DB
	log       *zap.Logger
	baseDir   string
	localRoot string
	copyFiles bool
}

func (s *seeder) seedUser(ctx context.Context, u seedmodels.SeedUser) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for user %s: %w", u.UserID, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
		} else if err = tx.Commit(); err == nil {
			s.log.Info("Seeded user", zap.String("user", u.UserID))
		}
	}()

	repo := repository.NewFixtureDatabaseAdapter(tx)

	if u.Plan != "" {
		ok, err := repo.SaveSubscription(ctx, "sub_"+u.UserID, u.UserID, u.Plan)
		if err != nil {
			return err
		}
		if !ok {
			s.log.Warn("Unknown plan, user stays on Free", zap.String("user", u.UserID), zap.String("plan", u.Plan))
		}
	}

	for _, sd := range u.Documents {
		doc, err := s.document(u.UserID, sd)
		if err != nil {
			return err
		}
		if err := repo.SaveDocument(ctx, doc); err != nil {
			return err
		}
		s.log.Info("Seeded document", zap.String("id", doc.ID), zap.String("mime", doc.MimeType))
	}

	for _, sq := range u.Quizzes {
		quiz := &domain.Quiz{ID: sq.ID, OwnerID: u.UserID, Title: sq.Title, Description: sq.Description}
		if err := repo.SaveQuiz(ctx, quiz); err != nil {
			return err
		}
	}
	return nil
}

// document reads the fixture file and, for the local backend, copies it to
// where the blob store will look for it.
func (s *seeder) document(owner string, sd seedmodels.SeedDocument) (*domain.Document, error) {
	src := sd.File
	if !filepath.IsAbs(src) {
		src = filepath.Join(s.baseDir, src)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", src, err)
	}

	filename := filepath.Base(src)
	storagePath := owner + "/" + sd.ID + "-" + filename
	if s.copyFiles {
		dst := filepath.Join(s.localRoot, filepath.FromSlash(storagePath))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to copy document: %w", err)
		}
	}

	return &domain.Document{
		ID:          sd.ID,
		OwnerID:     owner,
		StoragePath: storagePath,
		MimeType:    mimetype.Detect(data).String(),
		Filename:    filename,
		FileSize:    int64(len(data)),
	}, nil
}
