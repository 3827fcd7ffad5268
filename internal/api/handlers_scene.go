package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrbaitop40-blip/veo/internal/model"
	"github.com/mrbaitop40-blip/veo/internal/scene"
)

// 8 MiB is generous for a reference photo.
const maxReferenceImageBytes = 8 << 20

func (s *Server) getScene(c *gin.Context) {
	characters, dialogues, env := s.scene.Snapshot()
	prompts := s.scene.Prompts()
	writeData(c, http.StatusOK, gin.H{
		"characters":  characters,
		"dialogues":   dialogues,
		"environment": env,
		"prompts":     prompts,
	})
}

func (s *Server) getSceneOptions(c *gin.Context) {
	writeData(c, http.StatusOK, gin.H{
		"races":         model.Races,
		"genders":       model.Genders,
		"voices":        model.Voices,
		"lighting":      model.LightingOptions,
		"camera_angles": model.CameraAngles,
		"shot_types":    model.ShotTypes,
	})
}

type environmentRequest struct {
	Description *string `json:"description"`
	VisualStyle *string `json:"visualStyle"`
	Lighting    *string `json:"lighting"`
	CameraAngle *string `json:"cameraAngle"`
	ShotType    *string `json:"shotType"`
}

func (s *Server) putEnvironment(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req environmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid environment payload", false, nil)
		return
	}
	env := s.scene.UpdateEnvironment(scene.EnvironmentPatch{
		Description: req.Description,
		VisualStyle: req.VisualStyle,
		Lighting:    req.Lighting,
		CameraAngle: req.CameraAngle,
		ShotType:    req.ShotType,
	})
	writeData(c, http.StatusOK, env)
}

func (s *Server) addCharacter(c *gin.Context) {
	writeData(c, http.StatusCreated, s.scene.AddCharacter())
}

type characterRequest struct {
	Race        *string `json:"race"`
	CustomRace  *string `json:"customRace"`
	Gender      *string `json:"gender"`
	Age         *string `json:"age"`
	Outfit      *string `json:"outfit"`
	Hairstyle   *string `json:"hairstyle"`
	Voice       *string `json:"voice"`
	Description *string `json:"description"`
}

func (s *Server) patchCharacter(c *gin.Context) {
	id, ok := idParam(c, "character_id")
	if !ok {
		return
	}
	if !requireJSON(c) {
		return
	}
	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid character payload", false, nil)
		return
	}
	char, err := s.scene.UpdateCharacter(id, scene.CharacterPatch{
		Race:        req.Race,
		CustomRace:  req.CustomRace,
		Gender:      req.Gender,
		Age:         req.Age,
		Outfit:      req.Outfit,
		Hairstyle:   req.Hairstyle,
		Voice:       req.Voice,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, scene.ErrNotFound) {
			writeNotFound(c, "CHARACTER_NOT_FOUND", "Character not found")
			return
		}
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), false, nil)
		return
	}
	writeData(c, http.StatusOK, char)
}

func (s *Server) removeCharacter(c *gin.Context) {
	id, ok := idParam(c, "character_id")
	if !ok {
		return
	}
	if err := s.scene.RemoveCharacter(id); err != nil {
		writeNotFound(c, "CHARACTER_NOT_FOUND", "Character not found")
		return
	}
	writeData(c, http.StatusOK, gin.H{"ok": true})
}

func (s *Server) putReference(c *gin.Context) {
	id, ok := idParam(c, "character_id")
	if !ok {
		return
	}
	mime := c.ContentType()
	if !strings.HasPrefix(mime, "image/") {
		writeError(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Reference must be an image", false, nil)
		return
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxReferenceImageBytes+1))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Failed to read image body", false, nil)
		return
	}
	if len(data) == 0 || len(data) > maxReferenceImageBytes {
		writeError(c, http.StatusBadRequest, "INVALID_IMAGE", "Image is empty or too large", false, nil)
		return
	}
	char, err := s.scene.SetReferenceImage(id, data, mime)
	if err != nil {
		writeNotFound(c, "CHARACTER_NOT_FOUND", "Character not found")
		return
	}
	writeData(c, http.StatusOK, char)
}

func (s *Server) getReference(c *gin.Context) {
	id, ok := idParam(c, "character_id")
	if !ok {
		return
	}
	data, mime, err := s.scene.ReferenceImage(id)
	if err != nil {
		writeNotFound(c, "REFERENCE_NOT_FOUND", "Reference image not found")
		return
	}
	c.Data(http.StatusOK, mime, data)
}

func (s *Server) deleteReference(c *gin.Context) {
	id, ok := idParam(c, "character_id")
	if !ok {
		return
	}
	char, err := s.scene.ClearReferenceImage(id)
	if err != nil {
		writeNotFound(c, "CHARACTER_NOT_FOUND", "Character not found")
		return
	}
	writeData(c, http.StatusOK, char)
}

func (s *Server) analyzeCharacter(c *gin.Context) {
	id, ok := idParam(c, "character_id")
	if !ok {
		return
	}
	char, err := s.scene.AnalyzeReference(c.Request.Context(), id, s.analyzer)
	if err != nil {
		switch {
		case errors.Is(err, scene.ErrNotFound):
			writeNotFound(c, "CHARACTER_NOT_FOUND", "Character not found")
		case errors.Is(err, scene.ErrNoReference):
			writeError(c, http.StatusBadRequest, "REFERENCE_REQUIRED", "Upload a reference image first", false, nil)
		default:
			writeError(c, http.StatusBadGateway, "ANALYSIS_FAILED", err.Error(), true, nil)
		}
		return
	}
	writeData(c, http.StatusOK, char)
}

type dialogueRequest struct {
	CharacterID *int64  `json:"characterId"`
	Text        *string `json:"text"`
}

func (s *Server) addDialogue(c *gin.Context) {
	if !requireJSON(c) {
		return
	}
	var req dialogueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid dialogue payload", false, nil)
		return
	}
	var characterID int64
	if req.CharacterID != nil {
		characterID = *req.CharacterID
	}
	var text string
	if req.Text != nil {
		text = *req.Text
	}
	d, err := s.scene.AddDialogue(characterID, text)
	if err != nil {
		switch {
		case errors.Is(err, scene.ErrNoCharacters):
			writeError(c, http.StatusConflict, "NO_CHARACTERS", "Add a character before adding dialogue", false, nil)
		case errors.Is(err, scene.ErrNotFound):
			writeNotFound(c, "CHARACTER_NOT_FOUND", "Character not found")
		default:
			writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add dialogue", false, nil)
		}
		return
	}
	writeData(c, http.StatusCreated, d)
}

func (s *Server) patchDialogue(c *gin.Context) {
	id, ok := idParam(c, "dialogue_id")
	if !ok {
		return
	}
	if !requireJSON(c) {
		return
	}
	var req dialogueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid dialogue payload", false, nil)
		return
	}
	d, err := s.scene.UpdateDialogue(id, scene.DialoguePatch{
		CharacterID: req.CharacterID,
		Text:        req.Text,
	})
	if err != nil {
		writeNotFound(c, "DIALOGUE_NOT_FOUND", "Dialogue or character not found")
		return
	}
	writeData(c, http.StatusOK, d)
}

func (s *Server) removeDialogue(c *gin.Context) {
	id, ok := idParam(c, "dialogue_id")
	if !ok {
		return
	}
	if err := s.scene.RemoveDialogue(id); err != nil {
		writeNotFound(c, "DIALOGUE_NOT_FOUND", "Dialogue not found")
		return
	}
	writeData(c, http.StatusOK, gin.H{"ok": true})
}
