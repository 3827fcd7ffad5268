package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/mrbaitop40-blip/veo/internal/auth"
	"github.com/mrbaitop40-blip/veo/internal/credential"
	"github.com/mrbaitop40-blip/veo/internal/events"
	"github.com/mrbaitop40-blip/veo/internal/generate"
	"github.com/mrbaitop40-blip/veo/internal/history"
	"github.com/mrbaitop40-blip/veo/internal/model"
	"github.com/mrbaitop40-blip/veo/internal/scene"
	"github.com/mrbaitop40-blip/veo/internal/store"
)

type Server struct {
	auth        *auth.Service
	store       *store.MemoryStore
	scene       *scene.Session
	generations *generate.Service
	hub         *events.Hub
	creds       *credential.Service
	analyzer    scene.Analyzer
	videos      *history.Ledger[model.GenerationSettings]
	images      *history.Ledger[model.ImageGenerationSettings]
	log         *slog.Logger
}

func NewServer(
	authSvc *auth.Service,
	st *store.MemoryStore,
	sceneSession *scene.Session,
	generations *generate.Service,
	hub *events.Hub,
	creds *credential.Service,
	analyzer scene.Analyzer,
	videos *history.Ledger[model.GenerationSettings],
	images *history.Ledger[model.ImageGenerationSettings],
	logger *slog.Logger,
) *Server {
	return &Server{
		auth:        authSvc,
		store:       st,
		scene:       sceneSession,
		generations: generations,
		hub:         hub,
		creds:       creds,
		analyzer:    analyzer,
		videos:      videos,
		images:      images,
		log:         logger,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(TraceMiddleware())
	r.Use(RequestLogMiddleware(s.log))

	v1 := r.Group("/api/v1")
	v1.GET("/healthz", func(c *gin.Context) {
		writeData(c, 200, gin.H{"status": "ok"})
	})

	v1.POST("/auth/login", s.login)
	v1.POST("/auth/refresh", s.refresh)

	authed := v1.Group("")
	authed.Use(AuthMiddleware(s.auth))
	{
		authed.POST("/auth/logout", s.logout)
		authed.GET("/me", s.me)

		authed.GET("/credential", s.getCredential)
		authed.PUT("/credential", s.putCredential)
		authed.DELETE("/credential", s.deleteCredential)

		authed.GET("/scene", s.getScene)
		authed.GET("/scene/options", s.getSceneOptions)
		authed.PUT("/scene/environment", s.putEnvironment)

		authed.POST("/scene/characters", s.addCharacter)
		authed.PATCH("/scene/characters/:character_id", s.patchCharacter)
		authed.DELETE("/scene/characters/:character_id", s.removeCharacter)
		authed.PUT("/scene/characters/:character_id/reference", s.putReference)
		authed.GET("/scene/characters/:character_id/reference", s.getReference)
		authed.DELETE("/scene/characters/:character_id/reference", s.deleteReference)
		authed.POST("/scene/characters/:character_id/analyze", s.analyzeCharacter)

		authed.POST("/scene/dialogues", s.addDialogue)
		authed.PATCH("/scene/dialogues/:dialogue_id", s.patchDialogue)
		authed.DELETE("/scene/dialogues/:dialogue_id", s.removeDialogue)

		authed.GET("/generations", s.listGenerations)
		authed.POST("/generations/video", s.startVideoGeneration)
		authed.POST("/generations/image", s.startImageGeneration)
		authed.GET("/generations/:generation_id", s.getGeneration)
		authed.GET("/generations/:generation_id/events", s.streamGenerationEvents)

		authed.GET("/history/videos", s.listVideoHistory)
		authed.GET("/history/videos/:record_id/media", s.downloadVideo)
		authed.DELETE("/history/videos/:record_id", s.removeVideoRecord)
		authed.DELETE("/history/videos", s.clearVideoHistory)

		authed.GET("/history/images", s.listImageHistory)
		authed.GET("/history/images/:record_id/media", s.downloadImage)
		authed.DELETE("/history/images/:record_id", s.removeImageRecord)
		authed.DELETE("/history/images", s.clearImageHistory)
	}

	return r
}
