// Package scene holds the mutable working state of the studio: the
// characters, dialogues, and environment the prompt composer reads.
package scene

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mrbaitop40-blip/veo/internal/model"
	"github.com/mrbaitop40-blip/veo/internal/prompt"
)

var (
	ErrNotFound     = errors.New("scene: not found")
	ErrNoCharacters = errors.New("scene: no characters")
	ErrNoReference  = errors.New("scene: character has no reference image")
)

// Analyzer describes a character from a reference photo.
type Analyzer interface {
	AnalyzeCharacter(ctx context.Context, imageBase64, mimeType string) (model.CharacterAnalysis, error)
}

// Session is the in-memory scene state. All methods are safe for
// concurrent use.
type Session struct {
	mu          sync.Mutex
	characters  []model.Character
	dialogues   []model.Dialogue
	environment model.EnvironmentSettings
	lastID      int64
}

func NewSession() *Session {
	return &Session{environment: model.DefaultEnvironment()}
}

// allocID issues ids that stay unique even when calls land inside the
// same millisecond.
func (s *Session) allocID() int64 {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// AddCharacter appends a character with default attributes and
// returns it.
func (s *Session) AddCharacter() model.Character {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := model.Character{
		ID:     s.allocID(),
		Race:   model.Races[0].Value,
		Gender: model.Genders[0].Value,
		Voice:  model.Voices[0].Value,
	}
	s.characters = append(s.characters, c)
	return c
}

// CharacterPatch carries the fields an update may change. Nil fields
// are left untouched.
type CharacterPatch struct {
	Race        *string
	CustomRace  *string
	Gender      *string
	Age         *string
	Outfit      *string
	Hairstyle   *string
	Voice       *string
	Description *string
}

// UpdateCharacter applies the patch to the character with the given
// id.
func (s *Session) UpdateCharacter(id int64, p CharacterPatch) (model.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.find(id)
	if c == nil {
		return model.Character{}, fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	if p.Race != nil {
		if !model.IsRace(*p.Race) {
			return model.Character{}, fmt.Errorf("character %d: unknown race %q", id, *p.Race)
		}
		c.Race = *p.Race
		if c.Race != model.RaceOther {
			c.CustomRace = ""
		}
	}
	if p.CustomRace != nil {
		c.CustomRace = *p.CustomRace
	}
	if p.Gender != nil {
		if !model.IsGender(*p.Gender) {
			return model.Character{}, fmt.Errorf("character %d: unknown gender %q", id, *p.Gender)
		}
		c.Gender = *p.Gender
	}
	if p.Age != nil {
		c.Age = *p.Age
	}
	if p.Outfit != nil {
		c.Outfit = *p.Outfit
	}
	if p.Hairstyle != nil {
		c.Hairstyle = *p.Hairstyle
	}
	if p.Voice != nil {
		if !model.IsVoice(*p.Voice) {
			return model.Character{}, fmt.Errorf("character %d: unknown voice %q", id, *p.Voice)
		}
		c.Voice = *p.Voice
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	return *c, nil
}

// RemoveCharacter deletes the character and every dialogue line
// assigned to it.
func (s *Session) RemoveCharacter(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.characters {
		if s.characters[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	releaseReference(&s.characters[idx])
	s.characters = append(s.characters[:idx], s.characters[idx+1:]...)
	s.pruneDialogues(id)
	return nil
}

// releaseReference drops a character's reference image bytes and the
// preview path derived from them.
func releaseReference(c *model.Character) {
	c.ReferenceImage = nil
	c.ReferenceImageMime = ""
	c.HasReferenceImage = false
	c.PreviewPath = ""
}

// Close releases every outstanding reference image.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.characters {
		releaseReference(&s.characters[i])
	}
}

// pruneDialogues drops every dialogue line referring to the given
// character id. Caller holds the lock.
func (s *Session) pruneDialogues(characterID int64) {
	kept := s.dialogues[:0]
	for _, d := range s.dialogues {
		if d.CharacterID != characterID {
			kept = append(kept, d)
		}
	}
	s.dialogues = kept
}

// SetReferenceImage attaches a reference photo to the character.
func (s *Session) SetReferenceImage(id int64, data []byte, mimeType string) (model.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.find(id)
	if c == nil {
		return model.Character{}, fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	releaseReference(c)
	c.ReferenceImage = data
	c.ReferenceImageMime = mimeType
	c.HasReferenceImage = true
	c.PreviewPath = fmt.Sprintf("/api/v1/scene/characters/%d/reference", id)
	return *c, nil
}

// ClearReferenceImage detaches the character's reference photo.
func (s *Session) ClearReferenceImage(id int64) (model.Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.find(id)
	if c == nil {
		return model.Character{}, fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	releaseReference(c)
	return *c, nil
}

// ReferenceImage returns the character's reference photo bytes.
func (s *Session) ReferenceImage(id int64) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.find(id)
	if c == nil {
		return nil, "", fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	if !c.HasReferenceImage {
		return nil, "", fmt.Errorf("character %d: %w", id, ErrNoReference)
	}
	return c.ReferenceImage, c.ReferenceImageMime, nil
}

// AnalyzeReference sends the character's reference photo to the
// analyzer and fills the described attributes in. The lock is
// released for the duration of the remote call; the character is
// re-resolved afterwards in case it was removed meanwhile.
func (s *Session) AnalyzeReference(ctx context.Context, id int64, analyzer Analyzer) (model.Character, error) {
	s.mu.Lock()
	c := s.find(id)
	if c == nil {
		s.mu.Unlock()
		return model.Character{}, fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	if !c.HasReferenceImage {
		s.mu.Unlock()
		return model.Character{}, fmt.Errorf("character %d: %w", id, ErrNoReference)
	}
	c.IsAnalyzing = true
	img := base64.StdEncoding.EncodeToString(c.ReferenceImage)
	mime := c.ReferenceImageMime
	s.mu.Unlock()

	analysis, err := analyzer.AnalyzeCharacter(ctx, img, mime)

	s.mu.Lock()
	defer s.mu.Unlock()
	c = s.find(id)
	if c == nil {
		return model.Character{}, fmt.Errorf("character %d: %w", id, ErrNotFound)
	}
	c.IsAnalyzing = false
	if err != nil {
		return *c, fmt.Errorf("analyze character %d: %w", id, err)
	}
	// The model's guess is best-effort: values outside the constrained
	// vocabularies and empty fields keep what the character already has.
	if analysis.Race != "" {
		if model.IsRace(analysis.Race) && analysis.Race != model.RaceOther {
			c.Race = analysis.Race
			c.CustomRace = ""
		} else {
			c.Race = model.RaceOther
			c.CustomRace = analysis.Race
		}
	}
	if model.IsGender(analysis.Gender) {
		c.Gender = analysis.Gender
	}
	if analysis.Age != "" {
		c.Age = analysis.Age
	}
	if analysis.Outfit != "" {
		c.Outfit = analysis.Outfit
	}
	if analysis.Hairstyle != "" {
		c.Hairstyle = analysis.Hairstyle
	}
	if analysis.Description != "" {
		c.Description = analysis.Description
	}
	return *c, nil
}

// AddDialogue appends a dialogue line assigned to the first character
// unless a live character id is given.
func (s *Session) AddDialogue(characterID int64, text string) (model.Dialogue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.characters) == 0 {
		return model.Dialogue{}, ErrNoCharacters
	}
	if characterID == 0 {
		characterID = s.characters[0].ID
	} else if s.find(characterID) == nil {
		return model.Dialogue{}, fmt.Errorf("character %d: %w", characterID, ErrNotFound)
	}
	d := model.Dialogue{ID: s.allocID(), CharacterID: characterID, Text: text}
	s.dialogues = append(s.dialogues, d)
	return d, nil
}

// DialoguePatch carries the fields a dialogue update may change.
type DialoguePatch struct {
	CharacterID *int64
	Text        *string
}

// UpdateDialogue applies the patch to the dialogue line with the
// given id. A new character assignment must name a live character.
func (s *Session) UpdateDialogue(id int64, p DialoguePatch) (model.Dialogue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var d *model.Dialogue
	for i := range s.dialogues {
		if s.dialogues[i].ID == id {
			d = &s.dialogues[i]
			break
		}
	}
	if d == nil {
		return model.Dialogue{}, fmt.Errorf("dialogue %d: %w", id, ErrNotFound)
	}
	if p.CharacterID != nil {
		if s.find(*p.CharacterID) == nil {
			return model.Dialogue{}, fmt.Errorf("character %d: %w", *p.CharacterID, ErrNotFound)
		}
		d.CharacterID = *p.CharacterID
	}
	if p.Text != nil {
		d.Text = *p.Text
	}
	return *d, nil
}

// RemoveDialogue deletes the dialogue line with the given id.
func (s *Session) RemoveDialogue(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.dialogues {
		if s.dialogues[i].ID == id {
			s.dialogues = append(s.dialogues[:i], s.dialogues[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("dialogue %d: %w", id, ErrNotFound)
}

// EnvironmentPatch carries the fields an environment update may
// change.
type EnvironmentPatch struct {
	Description *string
	VisualStyle *string
	Lighting    *string
	CameraAngle *string
	ShotType    *string
}

// UpdateEnvironment applies the patch and returns the new settings.
func (s *Session) UpdateEnvironment(p EnvironmentPatch) model.EnvironmentSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Description != nil {
		s.environment.Description = *p.Description
	}
	if p.VisualStyle != nil {
		s.environment.VisualStyle = *p.VisualStyle
	}
	if p.Lighting != nil {
		s.environment.Lighting = *p.Lighting
	}
	if p.CameraAngle != nil {
		s.environment.CameraAngle = *p.CameraAngle
	}
	if p.ShotType != nil {
		s.environment.ShotType = *p.ShotType
	}
	return s.environment
}

// Snapshot returns copies of the current characters, dialogues, and
// environment.
func (s *Session) Snapshot() ([]model.Character, []model.Dialogue, model.EnvironmentSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chars := make([]model.Character, len(s.characters))
	copy(chars, s.characters)
	dials := make([]model.Dialogue, len(s.dialogues))
	copy(dials, s.dialogues)
	return chars, dials, s.environment
}

// Prompts composes the three prompt renditions from the current
// state.
func (s *Session) Prompts() prompt.Prompts {
	chars, dials, env := s.Snapshot()
	return prompt.Compose(chars, dials, env)
}

func (s *Session) find(id int64) *model.Character {
	for i := range s.characters {
		if s.characters[i].ID == id {
			return &s.characters[i]
		}
	}
	return nil
}
