package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mrbaitop40-blip/veo/internal/auth"
	"github.com/mrbaitop40-blip/veo/internal/credential"
	"github.com/mrbaitop40-blip/veo/internal/events"
	"github.com/mrbaitop40-blip/veo/internal/genai"
	"github.com/mrbaitop40-blip/veo/internal/generate"
	"github.com/mrbaitop40-blip/veo/internal/history"
	"github.com/mrbaitop40-blip/veo/internal/model"
	"github.com/mrbaitop40-blip/veo/internal/scene"
	"github.com/mrbaitop40-blip/veo/internal/storage"
	"github.com/mrbaitop40-blip/veo/internal/store"
)

type testGenerator struct{}

func (testGenerator) GenerateVideo(context.Context, genai.VideoRequest) ([]byte, error) {
	return []byte("mp4-bytes"), nil
}

func (testGenerator) EditImage(context.Context, genai.ImageRequest) ([]byte, string, error) {
	return []byte("png-bytes"), "image/png", nil
}

type testAnalyzer struct{}

func (testAnalyzer) AnalyzeCharacter(context.Context, string, string) (model.CharacterAnalysis, error) {
	return model.CharacterAnalysis{Race: "Asia Timur", Gender: "Wanita", Age: "30"}, nil
}

func stubThumb(context.Context, []byte) (string, error) {
	return "data:image/jpeg;base64,thumb", nil
}

type testEnv struct {
	router http.Handler
	store  *store.MemoryStore
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st := store.NewMemoryStore()
	authSvc := auth.NewService(st, "test-secret", 15*time.Minute, 24*time.Hour)
	if err := authSvc.SeedOwner("owner@veo.local", "owner123456"); err != nil {
		t.Fatalf("seed owner: %v", err)
	}

	creds := credential.NewService(db)
	videos := history.NewLedger[model.GenerationSettings](
		history.KeyVideoHistory, db, db.Blobs(storage.TableVideos), stubThumb, slog.Default())
	images := history.NewLedger[model.ImageGenerationSettings](
		history.KeyImageHistory, db, db.Blobs(storage.TableImages), stubThumb, slog.Default())
	if err := videos.Load(); err != nil {
		t.Fatalf("load video history: %v", err)
	}
	if err := images.Load(); err != nil {
		t.Fatalf("load image history: %v", err)
	}

	hub := events.NewHub()
	genSvc := generate.NewService(st, hub, testGenerator{}, videos, images, creds, slog.Default(), t.TempDir())
	session := scene.NewSession()

	s := NewServer(authSvc, st, session, genSvc, hub, creds, testAnalyzer{}, videos, images, slog.Default())
	return &testEnv{router: s.Router(), store: st}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "owner@veo.local",
		"password": "owner123456",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Data.AccessToken == "" {
		t.Fatalf("empty access token")
	}
	return resp.Data.AccessToken
}

func TestAuthRequired(t *testing.T) {
	env := setupTestServer(t)
	rec := env.do(t, http.MethodGet, "/api/v1/scene", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSceneLifecycle(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)

	// Add a character.
	rec := env.do(t, http.MethodPost, "/api/v1/scene/characters", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add character status=%d body=%s", rec.Code, rec.Body.String())
	}
	var addResp struct {
		Data model.Character `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &addResp); err != nil {
		t.Fatalf("decode character: %v", err)
	}
	charID := addResp.Data.ID
	if charID == 0 {
		t.Fatalf("character id missing")
	}

	// Patch it.
	charPath := "/api/v1/scene/characters/" + jsonNumber(charID)
	rec = env.do(t, http.MethodPatch, charPath, token, map[string]any{
		"outfit": "jas hitam",
		"age":    "40",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch character status=%d body=%s", rec.Code, rec.Body.String())
	}

	// Invalid vocabulary is rejected.
	rec = env.do(t, http.MethodPatch, charPath, token, map[string]any{"race": "Martian"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown race, got %d", rec.Code)
	}

	// Add a dialogue bound to the character.
	rec = env.do(t, http.MethodPost, "/api/v1/scene/dialogues", token, map[string]any{
		"text": "Halo dunia",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add dialogue status=%d body=%s", rec.Code, rec.Body.String())
	}

	// Set the environment.
	rec = env.do(t, http.MethodPut, "/api/v1/scene/environment", token, map[string]any{
		"description": "pasar malam",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put environment status=%d body=%s", rec.Code, rec.Body.String())
	}

	// The scene view includes composed prompts.
	rec = env.do(t, http.MethodGet, "/api/v1/scene", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get scene status=%d", rec.Code)
	}
	var sceneResp struct {
		Data struct {
			Characters []model.Character `json:"characters"`
			Prompts    struct {
				Indonesian string `json:"indonesian"`
			} `json:"prompts"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sceneResp); err != nil {
		t.Fatalf("decode scene: %v", err)
	}
	if len(sceneResp.Data.Characters) != 1 {
		t.Fatalf("expected 1 character, got %d", len(sceneResp.Data.Characters))
	}
	if sceneResp.Data.Prompts.Indonesian == "" {
		t.Fatalf("expected a composed prompt")
	}

	// Removing the character cascades to its dialogue.
	rec = env.do(t, http.MethodDelete, charPath, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove character status=%d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/scene", token, nil)
	var afterResp struct {
		Data struct {
			Characters []model.Character `json:"characters"`
			Dialogues  []model.Dialogue  `json:"dialogues"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &afterResp); err != nil {
		t.Fatalf("decode scene: %v", err)
	}
	if len(afterResp.Data.Characters) != 0 || len(afterResp.Data.Dialogues) != 0 {
		t.Fatalf("expected empty scene, got %d characters %d dialogues",
			len(afterResp.Data.Characters), len(afterResp.Data.Dialogues))
	}
}

func TestSceneOptions(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)

	rec := env.do(t, http.MethodGet, "/api/v1/scene/options", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("options status=%d", rec.Code)
	}
	var resp struct {
		Data struct {
			Races  []model.Option `json:"races"`
			Voices []model.Option `json:"voices"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode options: %v", err)
	}
	if len(resp.Data.Races) == 0 || len(resp.Data.Voices) == 0 {
		t.Fatalf("expected vocabularies in response")
	}
}

func TestCredentialRoundTrip(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)

	rec := env.do(t, http.MethodGet, "/api/v1/credential", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get credential status=%d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"configured":false`)) {
		t.Fatalf("expected unconfigured, body=%s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPut, "/api/v1/credential", token, map[string]any{
		"api_key": "AIza-test",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put credential status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/credential", token, nil)
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"configured":true`)) {
		t.Fatalf("expected configured, body=%s", rec.Body.String())
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/credential", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete credential status=%d", rec.Code)
	}
}

func TestStartVideoRequiresAPIKey(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/v1/generations/video", token, map[string]any{
		"scenes":      []map[string]any{{"id": 1, "prompt": "a cat"}},
		"veoModel":    string(model.Veo31FastPreview),
		"aspectRatio": "16:9",
		"resolution":  "720p",
	})
	if rec.Code != http.StatusPreconditionFailed {
		t.Fatalf("expected 412, got %d body=%s", rec.Code, rec.Body.String())
	}
}

// completeVideoGeneration configures a key, starts a one-scene video, and
// polls until the generation reaches a terminal state.
func completeVideoGeneration(t *testing.T, env *testEnv, token string) model.Generation {
	t.Helper()
	rec := env.do(t, http.MethodPut, "/api/v1/credential", token, map[string]any{"api_key": "AIza-test"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put credential status=%d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/generations/video", token, map[string]any{
		"scenes":      []map[string]any{{"id": 1, "prompt": "a cat in the rain"}},
		"veoModel":    string(model.Veo31FastPreview),
		"aspectRatio": "16:9",
		"resolution":  "720p",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start video status=%d body=%s", rec.Code, rec.Body.String())
	}
	var startResp struct {
		Data model.Generation `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &startResp); err != nil {
		t.Fatalf("decode generation: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec = env.do(t, http.MethodGet, "/api/v1/generations/"+startResp.Data.ID, token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("get generation status=%d", rec.Code)
		}
		var getResp struct {
			Data model.Generation `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &getResp); err != nil {
			t.Fatalf("decode generation: %v", err)
		}
		if model.IsGenerationTerminal(getResp.Data.Status) {
			return getResp.Data
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("generation %s never reached a terminal state", startResp.Data.ID)
	return model.Generation{}
}

func TestVideoGenerationEndToEnd(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)

	final := completeVideoGeneration(t, env, token)
	if final.Status != model.GenerationSucceeded {
		t.Fatalf("generation did not succeed: %+v", final)
	}
	if final.HistoryID == "" {
		t.Fatalf("expected a history link")
	}

	// The finished video is listed and downloadable.
	rec := env.do(t, http.MethodGet, "/api/v1/history/videos", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list history status=%d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/v1/history/videos/"+final.HistoryID+"/media", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status=%d", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte("mp4-bytes")) {
		t.Fatalf("unexpected media body")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestEventStreamReturnsAfterTerminalBacklog(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)
	final := completeVideoGeneration(t, env, token)

	// The backlog already holds the terminal event, so the stream must
	// replay it and end instead of holding the connection for heartbeats.
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- env.do(t, http.MethodGet, "/api/v1/generations/"+final.ID+"/events", token, nil)
	}()
	select {
	case rec := <-done:
		if rec.Code != http.StatusOK {
			t.Fatalf("events status=%d body=%s", rec.Code, rec.Body.String())
		}
		if !bytes.Contains(rec.Body.Bytes(), []byte("event: generation_succeeded")) {
			t.Fatalf("terminal event missing from replay: %s", rec.Body.String())
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("event stream did not end after terminal backlog")
	}
}

func TestListGenerations(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)
	final := completeVideoGeneration(t, env, token)

	rec := env.do(t, http.MethodGet, "/api/v1/generations", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status=%d body=%s", rec.Code, rec.Body.String())
	}
	var listResp struct {
		Data struct {
			Generations []model.Generation `json:"generations"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listResp.Data.Generations) != 1 || listResp.Data.Generations[0].ID != final.ID {
		t.Fatalf("unexpected listing: %+v", listResp.Data.Generations)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/generations?kind=image", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("filtered list status=%d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte(final.ID)) {
		t.Fatalf("video generation leaked into image listing: %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/generations?kind=audio", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown kind, got %d", rec.Code)
	}
}

func TestAnalyzeCharacterEndpoint(t *testing.T) {
	env := setupTestServer(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/api/v1/scene/characters", token, nil)
	var addResp struct {
		Data model.Character `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &addResp); err != nil {
		t.Fatalf("decode character: %v", err)
	}
	charPath := "/api/v1/scene/characters/" + jsonNumber(addResp.Data.ID)

	// Without a reference image the analyze call is rejected.
	rec = env.do(t, http.MethodPost, charPath+"/analyze", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without reference, got %d", rec.Code)
	}

	// Upload a reference image as a raw body.
	req := httptest.NewRequest(http.MethodPut, charPath+"/reference", bytes.NewReader([]byte("jpeg-bytes")))
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("Authorization", "Bearer "+token)
	uploadRec := httptest.NewRecorder()
	env.router.ServeHTTP(uploadRec, req)
	if uploadRec.Code != http.StatusOK {
		t.Fatalf("upload reference status=%d body=%s", uploadRec.Code, uploadRec.Body.String())
	}

	rec = env.do(t, http.MethodPost, charPath+"/analyze", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze status=%d body=%s", rec.Code, rec.Body.String())
	}
	var analyzed struct {
		Data model.Character `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &analyzed); err != nil {
		t.Fatalf("decode analyzed character: %v", err)
	}
	if analyzed.Data.Race != "Asia Timur" || analyzed.Data.Gender != "Wanita" {
		t.Fatalf("analysis not applied: %+v", analyzed.Data)
	}
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
