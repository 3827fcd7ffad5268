package generate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbaitop40-blip/veo/internal/events"
	"github.com/mrbaitop40-blip/veo/internal/genai"
	"github.com/mrbaitop40-blip/veo/internal/history"
	"github.com/mrbaitop40-blip/veo/internal/model"
	"github.com/mrbaitop40-blip/veo/internal/store"
)

type fakeGenerator struct {
	mu        sync.Mutex
	videoReqs []genai.VideoRequest
	videoOut  []byte
	videoErr  error
	imageReqs []genai.ImageRequest
	imageOut  []byte
	imageErr  error
}

func (f *fakeGenerator) GenerateVideo(_ context.Context, req genai.VideoRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoReqs = append(f.videoReqs, req)
	if f.videoErr != nil {
		return nil, f.videoErr
	}
	return f.videoOut, nil
}

func (f *fakeGenerator) EditImage(_ context.Context, req genai.ImageRequest) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.imageReqs = append(f.imageReqs, req)
	if f.imageErr != nil {
		return nil, "", f.imageErr
	}
	return f.imageOut, "image/png", nil
}

type fakeVideoHistory struct {
	mu    sync.Mutex
	saved [][]byte
	err   error
}

func (f *fakeVideoHistory) Add(_ context.Context, media []byte, _ model.GenerationSettings) (history.Record[model.GenerationSettings], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return history.Record[model.GenerationSettings]{}, f.err
	}
	f.saved = append(f.saved, media)
	return history.Record[model.GenerationSettings]{ID: "hist-1"}, nil
}

type fakeImageHistory struct {
	mu    sync.Mutex
	saved [][]byte
	err   error
}

func (f *fakeImageHistory) Add(_ context.Context, media []byte, _ model.ImageGenerationSettings) (history.Record[model.ImageGenerationSettings], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return history.Record[model.ImageGenerationSettings]{}, f.err
	}
	f.saved = append(f.saved, media)
	return history.Record[model.ImageGenerationSettings]{ID: "hist-img-1"}, nil
}

type staticKey string

func (k staticKey) APIKey() (string, error) { return string(k), nil }

type noKey struct{}

func (noKey) APIKey() (string, error) { return "", genai.ErrAPIKeyMissing }

type fixture struct {
	svc   *Service
	store *store.MemoryStore
	gen   *fakeGenerator
	vh    *fakeVideoHistory
	ih    *fakeImageHistory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.NewMemoryStore()
	gen := &fakeGenerator{videoOut: []byte("mp4"), imageOut: []byte("png")}
	vh := &fakeVideoHistory{}
	ih := &fakeImageHistory{}
	svc := NewService(st, events.NewHub(), gen, vh, ih, staticKey("k"), slog.Default(), t.TempDir())
	return &fixture{svc: svc, store: st, gen: gen, vh: vh, ih: ih}
}

func waitTerminal(t *testing.T, st *store.MemoryStore, id string) model.Generation {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		gen, err := st.GetGeneration(id)
		require.NoError(t, err)
		if model.IsGenerationTerminal(gen.Status) {
			return gen
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("generation did not reach a terminal state")
	return model.Generation{}
}

func videoSettings(prompts ...string) model.GenerationSettings {
	scenes := make([]model.SceneSpec, 0, len(prompts))
	for i, p := range prompts {
		scenes = append(scenes, model.SceneSpec{ID: int64(i + 1), Prompt: p})
	}
	return model.GenerationSettings{
		Scenes:      scenes,
		AspectRatio: model.AspectLandscape,
		Resolution:  model.Resolution720p,
		VeoModel:    model.Veo31FastPreview,
		VisualStyle: model.StyleRealistic,
	}
}

func TestStartVideoValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartVideo(context.Background(), model.GenerationSettings{}, "t1")
	assert.ErrorIs(t, err, ErrNoScenes)

	_, err = f.svc.StartVideo(context.Background(), videoSettings("  "), "t1")
	assert.ErrorIs(t, err, ErrPromptRequired)
}

func TestStartVideoRequiresAPIKey(t *testing.T) {
	f := newFixture(t)
	f.svc.creds = noKey{}

	_, err := f.svc.StartVideo(context.Background(), videoSettings("a cat"), "t1")
	assert.ErrorIs(t, err, genai.ErrAPIKeyMissing)
}

func TestStartVideoSingleScene(t *testing.T) {
	f := newFixture(t)

	gen, err := f.svc.StartVideo(context.Background(), videoSettings("a cat in the rain"), "t1")
	require.NoError(t, err)
	assert.Equal(t, model.GenerationVideo, gen.Kind)
	assert.Equal(t, 1, gen.SceneCount)

	final := waitTerminal(t, f.store, gen.ID)
	assert.Equal(t, model.GenerationSucceeded, final.Status)
	assert.Equal(t, "hist-1", final.HistoryID)
	assert.EqualValues(t, 1, final.Progress)

	require.Len(t, f.gen.videoReqs, 1)
	assert.Contains(t, f.gen.videoReqs[0].Prompt, "a cat in the rain")
	assert.Contains(t, f.gen.videoReqs[0].Prompt, "--- Technical Directives ---")
	require.Len(t, f.vh.saved, 1)
	assert.Equal(t, []byte("mp4"), f.vh.saved[0])

	evts, err := f.store.ListGenerationEventsFromSeq(gen.ID, 0)
	require.NoError(t, err)
	types := make([]model.GenerationEventType, 0, len(evts))
	for _, e := range evts {
		types = append(types, e.Type)
	}
	assert.Contains(t, types, model.EventSceneStarted)
	assert.Contains(t, types, model.EventSceneCompleted)
	assert.Contains(t, types, model.EventHistorySaved)
	assert.Contains(t, types, model.EventGenerationSucceeded)
}

func TestStartVideoJSONPromptPassthrough(t *testing.T) {
	f := newFixture(t)

	settings := videoSettings(`{"scene":{}}`)
	settings.Scenes[0].IsJSONPrompt = true
	gen, err := f.svc.StartVideo(context.Background(), settings, "t1")
	require.NoError(t, err)
	waitTerminal(t, f.store, gen.ID)

	require.Len(t, f.gen.videoReqs, 1)
	assert.Equal(t, `{"scene":{}}`, f.gen.videoReqs[0].Prompt)
}

func TestStartVideoStartImageSeedsFirstScene(t *testing.T) {
	f := newFixture(t)

	settings := videoSettings("opening shot")
	settings.StartImage = &model.ImageRef{Base64: "aW1n", MimeType: "image/jpeg", Name: "seed.jpg"}
	gen, err := f.svc.StartVideo(context.Background(), settings, "t1")
	require.NoError(t, err)
	waitTerminal(t, f.store, gen.ID)

	require.Len(t, f.gen.videoReqs, 1)
	require.NotNil(t, f.gen.videoReqs[0].Image)
	assert.Equal(t, "aW1n", f.gen.videoReqs[0].Image.ImageBase64)
}

func TestStartVideoGenerationFailure(t *testing.T) {
	f := newFixture(t)
	f.gen.videoErr = &genai.RemoteError{Op: "generate video", Message: "quota exhausted"}

	gen, err := f.svc.StartVideo(context.Background(), videoSettings("a cat"), "t1")
	require.NoError(t, err)

	final := waitTerminal(t, f.store, gen.ID)
	assert.Equal(t, model.GenerationFailed, final.Status)
	assert.Equal(t, "GENERATION_FAILED", final.ErrorCode)
	assert.Contains(t, final.ErrorMessage, "quota exhausted")
	assert.Empty(t, f.vh.saved)
}

func TestStartVideoHistorySaveFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.vh.err = errors.New("disk full")

	gen, err := f.svc.StartVideo(context.Background(), videoSettings("a cat"), "t1")
	require.NoError(t, err)

	final := waitTerminal(t, f.store, gen.ID)
	assert.Equal(t, model.GenerationSucceeded, final.Status)
	assert.Empty(t, final.HistoryID)

	evts, err := f.store.ListGenerationEventsFromSeq(gen.ID, 0)
	require.NoError(t, err)
	found := false
	for _, e := range evts {
		if e.Type == model.EventHistorySaveFailed {
			found = true
		}
	}
	assert.True(t, found)
}

func TestStartImageValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartImage(context.Background(), model.ImageGenerationSettings{Model: model.ImageModelImagen}, "t1")
	assert.ErrorIs(t, err, ErrPromptRequired)

	_, err = f.svc.StartImage(context.Background(), model.ImageGenerationSettings{
		Prompt: "add a hat",
		Model:  model.ImageModelFlash,
	}, "t1")
	assert.ErrorIs(t, err, ErrImageRequired)
}

func TestStartImageHappyPath(t *testing.T) {
	f := newFixture(t)

	gen, err := f.svc.StartImage(context.Background(), model.ImageGenerationSettings{
		Prompt:      "a lighthouse",
		Model:       model.ImageModelImagen,
		AspectRatio: model.AspectSquare,
	}, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.GenerationImage, gen.Kind)

	final := waitTerminal(t, f.store, gen.ID)
	assert.Equal(t, model.GenerationSucceeded, final.Status)
	assert.Equal(t, "hist-img-1", final.HistoryID)
	require.Len(t, f.ih.saved, 1)
	assert.Equal(t, []byte("png"), f.ih.saved[0])
}

func TestStartImageEditFailureCarriesModelText(t *testing.T) {
	f := newFixture(t)
	f.gen.imageErr = &genai.RemoteError{Op: "edit image", Message: "I cannot edit this image."}

	gen, err := f.svc.StartImage(context.Background(), model.ImageGenerationSettings{
		Prompt: "x",
		Model:  model.ImageModelFlash,
		OriginalImages: []model.ImageRef{
			{Base64: "aW1n", MimeType: "image/jpeg"},
		},
	}, "t1")
	require.NoError(t, err)

	final := waitTerminal(t, f.store, gen.ID)
	assert.Equal(t, model.GenerationFailed, final.Status)
	assert.Equal(t, "I cannot edit this image.", final.ResultText)
}

func TestBuildVideoPrompt(t *testing.T) {
	settings := model.GenerationSettings{
		Resolution:     model.Resolution1080p,
		EnableSound:    true,
		CharacterVoice: model.VoiceIndonesian,
		VisualStyle:    model.StyleAnime,
	}
	got := buildVideoPrompt("a duel at dawn", settings)

	assert.True(t, len(got) > len("a duel at dawn"))
	assert.Contains(t, got, "a duel at dawn\n\n--- Technical Directives ---")
	assert.Contains(t, got, "1080p resolution")
	assert.Contains(t, got, "ambient sound")
	assert.Contains(t, got, "Bahasa Indonesia")
	assert.Contains(t, got, "visual style must be Anime")
}

func TestBuildVideoPromptRealisticOmitsStyle(t *testing.T) {
	settings := model.GenerationSettings{
		Resolution:  model.Resolution720p,
		VisualStyle: model.StyleRealistic,
	}
	got := buildVideoPrompt("p", settings)
	assert.NotContains(t, got, "visual style")
	assert.Contains(t, got, "without any sound")
}
