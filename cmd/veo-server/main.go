package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/mrbaitop40-blip/veo/internal/api"
	"github.com/mrbaitop40-blip/veo/internal/auth"
	"github.com/mrbaitop40-blip/veo/internal/config"
	"github.com/mrbaitop40-blip/veo/internal/credential"
	"github.com/mrbaitop40-blip/veo/internal/events"
	"github.com/mrbaitop40-blip/veo/internal/genai"
	"github.com/mrbaitop40-blip/veo/internal/generate"
	"github.com/mrbaitop40-blip/veo/internal/history"
	"github.com/mrbaitop40-blip/veo/internal/media"
	"github.com/mrbaitop40-blip/veo/internal/model"
	"github.com/mrbaitop40-blip/veo/internal/scene"
	"github.com/mrbaitop40-blip/veo/internal/storage"
	"github.com/mrbaitop40-blip/veo/internal/store"
	"github.com/mrbaitop40-blip/veo/internal/telemetry"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := telemetry.NewLogger()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error("create data dir failed", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	db, err := storage.Open(filepath.Join(cfg.DataDir, "veo.db"))
	if err != nil {
		logger.Error("open database failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	st := store.NewMemoryStore()
	authSvc := auth.NewService(st, cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	if err := authSvc.SeedOwner(cfg.OwnerEmail, cfg.OwnerPassword); err != nil {
		logger.Error("seed owner failed", "error", err)
		os.Exit(1)
	}

	creds := credential.NewService(db)
	client := genai.NewClient(creds, genai.Config{
		BaseURL:      cfg.GenAIBaseURL,
		PollInterval: cfg.PollInterval,
		Logger:       logger,
	})

	videos := history.NewLedger[model.GenerationSettings](
		history.KeyVideoHistory, db, db.Blobs(storage.TableVideos), media.VideoThumbnail, logger)
	images := history.NewLedger[model.ImageGenerationSettings](
		history.KeyImageHistory, db, db.Blobs(storage.TableImages), media.ImageThumbnail, logger)
	if err := videos.Load(); err != nil {
		logger.Error("load video history failed", "error", err)
		os.Exit(1)
	}
	if err := images.Load(); err != nil {
		logger.Error("load image history failed", "error", err)
		os.Exit(1)
	}

	hub := events.NewHub()
	genSvc := generate.NewService(st, hub, client, videos, images, creds, logger, "")
	session := scene.NewSession()
	defer session.Close()

	srv := api.NewServer(authSvc, st, session, genSvc, hub, creds, client, videos, images, logger)
	router := srv.Router()

	logger.Info("server_start",
		"addr", cfg.Addr,
		"owner", cfg.OwnerEmail,
		"data_dir", cfg.DataDir,
	)
	if err := router.Run(cfg.Addr); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
