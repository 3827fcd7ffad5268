package model

import "time"

// VeoModel identifies a remote video generation model.
type VeoModel string

const (
	Veo31FastPreview VeoModel = "veo-3.1-fast-generate-preview"
	Veo31Preview     VeoModel = "veo-3.1-generate-preview"
	Veo30Preview     VeoModel = "veo-3.0-generate-preview"
	Veo30            VeoModel = "veo-3.0-generate-001"
	Veo30Fast        VeoModel = "veo-3.0-fast-generate-001"
	Veo20            VeoModel = "veo-2.0-generate-001"
)

// ImageModel identifies a remote image generation/editing model.
type ImageModel string

const (
	ImageModelFlash  ImageModel = "gemini-2.5-flash-image-preview"
	ImageModelImagen ImageModel = "imagen-4.0-generate-001"
)

type AspectRatio string

const (
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectSquare    AspectRatio = "1:1"
)

type Resolution string

const (
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
)

// CharacterVoice selects the spoken-dialogue language for generated videos.
type CharacterVoice string

const (
	VoiceNone       CharacterVoice = "none"
	VoiceEnglish    CharacterVoice = "english"
	VoiceIndonesian CharacterVoice = "bahasa-indonesia"
)

type VisualStyle string

const (
	StyleRealistic VisualStyle = "Realistic"
	StyleCinematic VisualStyle = "Cinematic"
	StyleAnime     VisualStyle = "Anime"
	StylePixar3D   VisualStyle = "Pixar3D"
	StyleCyberpunk VisualStyle = "Cyberpunk"
	StyleRetro80s  VisualStyle = "Retro 80's"
)

// Character is one entry of the scene model. Reference-image bytes and the
// derived preview handle live only in memory; they are never persisted.
type Character struct {
	ID          int64  `json:"id"`
	Race        string `json:"race"`
	CustomRace  string `json:"customRace"`
	Gender      string `json:"gender"`
	Age         string `json:"age"`
	Outfit      string `json:"outfit"`
	Hairstyle   string `json:"hairstyle"`
	Voice       string `json:"voice"`
	Description string `json:"description"`

	ReferenceImage     []byte `json:"-"`
	ReferenceImageMime string `json:"-"`
	PreviewPath        string `json:"-"`
	HasReferenceImage  bool   `json:"hasReferenceImage"`
	IsAnalyzing        bool   `json:"isAnalyzing"`
}

// Dialogue is one spoken line, attributed to a live character.
type Dialogue struct {
	ID          int64  `json:"id"`
	CharacterID int64  `json:"characterId"`
	Text        string `json:"text"`
}

// EnvironmentSettings is the per-session scene environment singleton.
type EnvironmentSettings struct {
	Description string `json:"description"`
	VisualStyle string `json:"visualStyle"`
	Lighting    string `json:"lighting"`
	CameraAngle string `json:"cameraAngle"`
	ShotType    string `json:"shotType"`
}

// SceneSpec describes one scene of a multi-scene video request.
type SceneSpec struct {
	ID               int64  `json:"id"`
	Prompt           string `json:"prompt"`
	UsePreviousScene bool   `json:"usePreviousScene"`
	IsJSONPrompt     bool   `json:"isJsonPrompt"`
}

// ImageRef carries an inline-encoded input image through a settings snapshot,
// so reloading a history entry can reconstruct the original inputs.
type ImageRef struct {
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType"`
	Name     string `json:"name"`
}

// GenerationSettings is the self-contained snapshot of one video generation,
// sufficient to reproduce the request. Field names match the persisted
// history format.
type GenerationSettings struct {
	Scenes         []SceneSpec    `json:"scenes"`
	StartImage     *ImageRef      `json:"startImage,omitempty"`
	AspectRatio    AspectRatio    `json:"aspectRatio"`
	EnableSound    bool           `json:"enableSound"`
	Resolution     Resolution     `json:"resolution"`
	VeoModel       VeoModel       `json:"veoModel"`
	VisualStyle    VisualStyle    `json:"visualStyle"`
	CharacterVoice CharacterVoice `json:"characterVoice"`
}

// ImageGenerationSettings is the snapshot of one image edit/generation.
type ImageGenerationSettings struct {
	Prompt         string      `json:"prompt"`
	Model          ImageModel  `json:"model"`
	AspectRatio    AspectRatio `json:"aspectRatio"`
	OriginalImages []ImageRef  `json:"originalImages"`
}

// ImagePart is one inline image sent to the remote image model.
type ImagePart struct {
	ImageBase64   string `json:"imageBase64"`
	ImageMimeType string `json:"imageMimeType"`
}

// CharacterAnalysis is the structured best-effort guess returned by the
// remote character-analysis call.
type CharacterAnalysis struct {
	Race        string `json:"race"`
	Gender      string `json:"gender"`
	Age         string `json:"age"`
	Outfit      string `json:"outfit"`
	Hairstyle   string `json:"hairstyle"`
	Description string `json:"description"`
}

type UserRole string

const RoleOwner UserRole = "owner"

// User is the single local owner account of this client-local server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
