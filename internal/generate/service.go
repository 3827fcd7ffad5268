// Package generate orchestrates video and image generations: prompt
// assembly, scene chaining, history recording, and the event log the
// SSE stream replays.
package generate

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrbaitop40-blip/veo/internal/events"
	"github.com/mrbaitop40-blip/veo/internal/genai"
	"github.com/mrbaitop40-blip/veo/internal/history"
	"github.com/mrbaitop40-blip/veo/internal/media"
	"github.com/mrbaitop40-blip/veo/internal/model"
	"github.com/mrbaitop40-blip/veo/internal/store"
)

var (
	ErrNoScenes       = errors.New("generate: at least one scene is required")
	ErrPromptRequired = errors.New("generate: scene prompt must not be empty")
	ErrImageRequired  = errors.New("generate: edit model requires at least one input image")
)

// Generator is the remote model surface the service drives.
type Generator interface {
	GenerateVideo(ctx context.Context, req genai.VideoRequest) ([]byte, error)
	EditImage(ctx context.Context, req genai.ImageRequest) ([]byte, string, error)
}

// VideoHistory records finished videos.
type VideoHistory interface {
	Add(ctx context.Context, media []byte, settings model.GenerationSettings) (history.Record[model.GenerationSettings], error)
}

// ImageHistory records finished images.
type ImageHistory interface {
	Add(ctx context.Context, media []byte, settings model.ImageGenerationSettings) (history.Record[model.ImageGenerationSettings], error)
}

type Service struct {
	store        *store.MemoryStore
	hub          *events.Hub
	gen          Generator
	videoHistory VideoHistory
	imageHistory ImageHistory
	creds        genai.KeySource
	log          *slog.Logger
	workDir      string
}

func NewService(st *store.MemoryStore, hub *events.Hub, gen Generator, vh VideoHistory, ih ImageHistory, creds genai.KeySource, logger *slog.Logger, workDir string) *Service {
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Service{
		store:        st,
		hub:          hub,
		gen:          gen,
		videoHistory: vh,
		imageHistory: ih,
		creds:        creds,
		log:          logger,
		workDir:      workDir,
	}
}

// StartVideo validates the request, registers a queued generation,
// and runs it in the background.
func (s *Service) StartVideo(ctx context.Context, settings model.GenerationSettings, traceID string) (model.Generation, error) {
	if len(settings.Scenes) == 0 {
		return model.Generation{}, ErrNoScenes
	}
	for _, sc := range settings.Scenes {
		if strings.TrimSpace(sc.Prompt) == "" {
			return model.Generation{}, ErrPromptRequired
		}
	}
	if _, err := s.creds.APIKey(); err != nil {
		return model.Generation{}, err
	}

	gen := model.Generation{
		ID:         uuid.NewString(),
		Kind:       model.GenerationVideo,
		Status:     model.GenerationQueued,
		SceneCount: len(settings.Scenes),
		TraceID:    traceID,
		CreatedAt:  time.Now().UTC(),
	}
	created, err := s.store.CreateGeneration(gen)
	if err != nil {
		return model.Generation{}, err
	}
	s.publishEvent(created, model.EventGenerationQueued, map[string]any{
		"status": created.Status,
		"scenes": created.SceneCount,
	})

	go s.runVideo(created.ID, settings)
	return created, nil
}

// StartImage validates the request, registers a queued generation,
// and runs it in the background.
func (s *Service) StartImage(ctx context.Context, settings model.ImageGenerationSettings, traceID string) (model.Generation, error) {
	if strings.TrimSpace(settings.Prompt) == "" {
		return model.Generation{}, ErrPromptRequired
	}
	if settings.Model == model.ImageModelFlash && len(settings.OriginalImages) == 0 {
		return model.Generation{}, ErrImageRequired
	}
	if _, err := s.creds.APIKey(); err != nil {
		return model.Generation{}, err
	}

	gen := model.Generation{
		ID:        uuid.NewString(),
		Kind:      model.GenerationImage,
		Status:    model.GenerationQueued,
		TraceID:   traceID,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.store.CreateGeneration(gen)
	if err != nil {
		return model.Generation{}, err
	}
	s.publishEvent(created, model.EventGenerationQueued, map[string]any{
		"status": created.Status,
	})

	go s.runImage(created.ID, settings)
	return created, nil
}

// ListGenerations returns generations newest first, optionally filtered
// by kind.
func (s *Service) ListGenerations(kind model.GenerationKind) []model.Generation {
	return s.store.ListGenerations(kind)
}

func (s *Service) GetGeneration(id string) (model.Generation, error) {
	return s.store.GetGeneration(id)
}

func (s *Service) ListEventsFrom(generationID string, fromSeq int64) ([]model.GenerationEvent, error) {
	return s.store.ListGenerationEventsFromSeq(generationID, fromSeq)
}

func (s *Service) runVideo(generationID string, settings model.GenerationSettings) {
	ctx := context.Background()
	gen, err := s.markRunning(generationID)
	if err != nil {
		return
	}

	dir, err := os.MkdirTemp(s.workDir, "veo-gen-*")
	if err != nil {
		s.fail(gen, "WORKSPACE_FAILED", err.Error())
		return
	}
	defer os.RemoveAll(dir)

	clipPaths := make([]string, 0, len(settings.Scenes))
	for i, sc := range settings.Scenes {
		s.publishEvent(gen, model.EventSceneStarted, map[string]any{
			"scene_index": i,
		})

		seed, err := s.sceneSeed(ctx, i, sc, settings, clipPaths)
		if err != nil {
			s.fail(gen, "FRAME_EXTRACTION_FAILED", err.Error())
			return
		}

		prompt := sc.Prompt
		if !sc.IsJSONPrompt {
			prompt = buildVideoPrompt(sc.Prompt, settings)
		}
		clip, err := s.gen.GenerateVideo(ctx, genai.VideoRequest{
			Model:       settings.VeoModel,
			Prompt:      prompt,
			AspectRatio: settings.AspectRatio,
			Resolution:  settings.Resolution,
			EnableSound: settings.EnableSound,
			Image:       seed,
		})
		if err != nil {
			s.fail(gen, "GENERATION_FAILED", err.Error())
			return
		}

		path := filepath.Join(dir, fmt.Sprintf("scene-%d.mp4", i))
		if err := os.WriteFile(path, clip, 0o644); err != nil {
			s.fail(gen, "WORKSPACE_FAILED", err.Error())
			return
		}
		clipPaths = append(clipPaths, path)

		gen.Progress = float64(i+1) / float64(len(settings.Scenes))
		_ = s.store.UpdateGeneration(gen)
		payload := map[string]any{
			"scene_index": i,
			"progress":    gen.Progress,
		}
		if secs, err := media.Duration(ctx, path); err == nil {
			payload["duration_sec"] = secs
		}
		s.publishEvent(gen, model.EventSceneCompleted, payload)
	}

	final, err := s.assembleVideo(ctx, dir, clipPaths)
	if err != nil {
		s.fail(gen, "CONCAT_FAILED", err.Error())
		return
	}

	rec, err := s.videoHistory.Add(ctx, final, settings)
	if err != nil {
		// The video exists even if the ledger write failed; the
		// generation still succeeds, just without a history link.
		s.log.Warn("video history save failed", "generation_id", gen.ID, "error", err)
		s.publishEvent(gen, model.EventHistorySaveFailed, map[string]any{
			"error": err.Error(),
		})
	} else {
		gen.HistoryID = rec.ID
		s.publishEvent(gen, model.EventHistorySaved, map[string]any{
			"history_id": rec.ID,
		})
	}

	s.succeed(gen)
}

func (s *Service) runImage(generationID string, settings model.ImageGenerationSettings) {
	ctx := context.Background()
	gen, err := s.markRunning(generationID)
	if err != nil {
		return
	}

	images := make([]model.ImagePart, 0, len(settings.OriginalImages))
	for _, ref := range settings.OriginalImages {
		images = append(images, model.ImagePart{
			ImageBase64:   ref.Base64,
			ImageMimeType: ref.MimeType,
		})
	}

	data, _, err := s.gen.EditImage(ctx, genai.ImageRequest{
		Model:       settings.Model,
		Prompt:      settings.Prompt,
		AspectRatio: settings.AspectRatio,
		Images:      images,
	})
	if err != nil {
		code := "GENERATION_FAILED"
		var re *genai.RemoteError
		if errors.As(err, &re) {
			// Surface what the model said instead of a pixel answer.
			gen.ResultText = re.Message
		}
		s.fail(gen, code, err.Error())
		return
	}

	rec, err := s.imageHistory.Add(ctx, data, settings)
	if err != nil {
		s.log.Warn("image history save failed", "generation_id", gen.ID, "error", err)
		s.publishEvent(gen, model.EventHistorySaveFailed, map[string]any{
			"error": err.Error(),
		})
	} else {
		gen.HistoryID = rec.ID
		s.publishEvent(gen, model.EventHistorySaved, map[string]any{
			"history_id": rec.ID,
		})
	}

	s.succeed(gen)
}

// sceneSeed returns the first-frame image for the scene: the uploaded
// start image for the first scene, or the last frame of the previous
// clip when the scene chains.
func (s *Service) sceneSeed(ctx context.Context, index int, sc model.SceneSpec, settings model.GenerationSettings, clipPaths []string) (*model.ImagePart, error) {
	if index == 0 {
		if settings.StartImage != nil {
			return &model.ImagePart{
				ImageBase64:   settings.StartImage.Base64,
				ImageMimeType: settings.StartImage.MimeType,
			}, nil
		}
		return nil, nil
	}
	if !sc.UsePreviousScene {
		return nil, nil
	}
	frame, err := media.ExtractEndFrame(ctx, clipPaths[index-1])
	if err != nil {
		return nil, fmt.Errorf("seed frame for scene %d: %w", index, err)
	}
	return &model.ImagePart{
		ImageBase64:   base64.StdEncoding.EncodeToString(frame),
		ImageMimeType: "image/jpeg",
	}, nil
}

func (s *Service) assembleVideo(ctx context.Context, dir string, clipPaths []string) ([]byte, error) {
	if len(clipPaths) == 1 {
		return os.ReadFile(clipPaths[0])
	}
	outPath := filepath.Join(dir, "final.mp4")
	if err := media.ConcatClips(ctx, clipPaths, outPath); err != nil {
		return nil, err
	}
	return os.ReadFile(outPath)
}

func (s *Service) markRunning(generationID string) (model.Generation, error) {
	gen, err := s.store.GetGeneration(generationID)
	if err != nil {
		return model.Generation{}, err
	}
	gen.Status = model.GenerationRunning
	gen.StartedAt = time.Now().UTC()
	if err := s.store.UpdateGeneration(gen); err != nil {
		return model.Generation{}, err
	}
	s.publishEvent(gen, model.EventGenerationRunning, map[string]any{
		"status": gen.Status,
	})
	return gen, nil
}

func (s *Service) succeed(gen model.Generation) {
	gen.Status = model.GenerationSucceeded
	gen.Progress = 1
	gen.EndedAt = time.Now().UTC()
	_ = s.store.UpdateGeneration(gen)
	s.publishEvent(gen, model.EventGenerationSucceeded, map[string]any{
		"status":     gen.Status,
		"history_id": gen.HistoryID,
	})
}

func (s *Service) fail(gen model.Generation, code, msg string) {
	gen.Status = model.GenerationFailed
	gen.ErrorCode = code
	gen.ErrorMessage = msg
	gen.EndedAt = time.Now().UTC()
	_ = s.store.UpdateGeneration(gen)
	s.publishEvent(gen, model.EventGenerationFailed, map[string]any{
		"status":        gen.Status,
		"error_code":    code,
		"error_message": msg,
	})
}

func (s *Service) publishEvent(gen model.Generation, eventType model.GenerationEventType, payload map[string]any) {
	evt, err := s.store.AppendGenerationEvent(gen.ID, model.GenerationEvent{
		Type:    eventType,
		TS:      time.Now().UTC(),
		Payload: payload,
	})
	if err != nil {
		s.log.Error("append event failed", "generation_id", gen.ID, "error", err)
		return
	}
	s.hub.Publish(gen.ID, evt)
}

// buildVideoPrompt appends the technical directives block the video
// model expects after the scene narrative.
func buildVideoPrompt(prompt string, settings model.GenerationSettings) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\n--- Technical Directives ---")
	fmt.Fprintf(&b, "\nRender in %s resolution.", settings.Resolution)
	if settings.EnableSound {
		b.WriteString("\nGenerate with full ambient sound and sound effects.")
	} else {
		b.WriteString("\nGenerate without any sound.")
	}
	switch settings.CharacterVoice {
	case model.VoiceEnglish:
		b.WriteString("\nAll character dialogue must be spoken in English.")
	case model.VoiceIndonesian:
		b.WriteString("\nAll character dialogue must be spoken in Bahasa Indonesia.")
	}
	if settings.VisualStyle != "" && settings.VisualStyle != model.StyleRealistic {
		fmt.Fprintf(&b, "\nThe overall visual style must be %s.", settings.VisualStyle)
	}
	return b.String()
}
