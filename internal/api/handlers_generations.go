package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrbaitop40-blip/veo/internal/genai"
	"github.com/mrbaitop40-blip/veo/internal/generate"
	"github.com/mrbaitop40-blip/veo/internal/model"
	"github.com/mrbaitop40-blip/veo/internal/store"
)

func (s *Server) startVideoGeneration(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var settings model.GenerationSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid generation payload", false, nil)
		return
	}
	gen, err := s.generations.StartVideo(c.Request.Context(), settings, traceIDFromContext(c))
	if err != nil {
		writeGenerationStartError(c, err)
		return
	}
	writeData(c, http.StatusCreated, gen)
}

func (s *Server) startImageGeneration(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var settings model.ImageGenerationSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid generation payload", false, nil)
		return
	}
	gen, err := s.generations.StartImage(c.Request.Context(), settings, traceIDFromContext(c))
	if err != nil {
		writeGenerationStartError(c, err)
		return
	}
	writeData(c, http.StatusCreated, gen)
}

func writeGenerationStartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, generate.ErrNoScenes):
		writeError(c, http.StatusBadRequest, "NO_SCENES", "At least one scene is required", false, nil)
	case errors.Is(err, generate.ErrPromptRequired):
		writeError(c, http.StatusBadRequest, "PROMPT_REQUIRED", "Every scene needs a prompt", false, nil)
	case errors.Is(err, generate.ErrImageRequired):
		writeError(c, http.StatusBadRequest, "IMAGE_REQUIRED", "The edit model needs at least one input image", false, nil)
	case errors.Is(err, genai.ErrAPIKeyMissing):
		writeError(c, http.StatusPreconditionFailed, "API_KEY_MISSING", "Configure a Gemini API key first", false, nil)
	default:
		writeError(c, http.StatusInternalServerError, "START_FAILED", "Failed to start generation", true, nil)
	}
}

func (s *Server) listGenerations(c *gin.Context) {
	kind := model.GenerationKind(c.Query("kind"))
	if kind != "" && kind != model.GenerationVideo && kind != model.GenerationImage {
		writeError(c, http.StatusBadRequest, "INVALID_KIND", "Unknown generation kind", false, nil)
		return
	}
	writeData(c, http.StatusOK, gin.H{"generations": s.generations.ListGenerations(kind)})
}

func (s *Server) getGeneration(c *gin.Context) {
	gen, err := s.generations.GetGeneration(c.Param("generation_id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeNotFound(c, "GENERATION_NOT_FOUND", "Generation not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load generation", false, nil)
		return
	}
	writeData(c, http.StatusOK, gen)
}

func (s *Server) streamGenerationEvents(c *gin.Context) {
	generationID := c.Param("generation_id")
	if _, err := s.generations.GetGeneration(generationID); err != nil {
		writeNotFound(c, "GENERATION_NOT_FOUND", "Generation not found")
		return
	}

	fromSeq := parseLastEventSeq(c.GetHeader("Last-Event-ID"))
	if q := c.Query("from_seq"); q != "" {
		if v, err := strconv.ParseInt(q, 10, 64); err == nil && v > 0 {
			fromSeq = v
		}
	}

	backlog, _ := s.generations.ListEventsFrom(generationID, fromSeq)
	_, sub, unsubscribe := s.hub.Subscribe(generationID, 128)
	defer unsubscribe()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		writeError(c, http.StatusInternalServerError, "SSE_UNSUPPORTED", "Streaming unsupported", false, nil)
		return
	}

	terminal := false
	for _, evt := range backlog {
		writeSSE(c, evt)
		if model.IsGenerationTerminalEvent(evt.Type) {
			terminal = true
		}
	}
	flusher.Flush()
	if terminal {
		return
	}

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case evt, ok := <-sub:
			if !ok {
				return
			}
			writeSSE(c, evt)
			flusher.Flush()
			if model.IsGenerationTerminalEvent(evt.Type) {
				return
			}
		case <-heartbeat.C:
			fmt.Fprintf(c.Writer, ": ping %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}

func writeSSE(c *gin.Context, evt model.GenerationEvent) {
	payload, _ := json.Marshal(evt)
	fmt.Fprintf(c.Writer, "id: %d\n", evt.Seq)
	fmt.Fprintf(c.Writer, "event: %s\n", evt.Type)
	fmt.Fprintf(c.Writer, "data: %s\n\n", string(payload))
}

func parseLastEventSeq(v string) int64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
