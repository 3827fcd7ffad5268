// Package prompt renders the structured scene model into the three parallel
// prompt representations shown to the user: an Indonesian prompt, an English
// prompt, and a machine-readable JSON document.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mrbaitop40-blip/veo/internal/model"
)

// Prompts holds the three rendered representations of one scene.
type Prompts struct {
	Indonesian string `json:"indonesian"`
	English    string `json:"english"`
	JSON       string `json:"json"`
}

type sceneDocument struct {
	Scene sceneBody `json:"scene"`
}

type sceneBody struct {
	Environment environmentEntry `json:"environment"`
	Camera      cameraEntry      `json:"camera"`
	Characters  []characterEntry `json:"characters"`
	Dialogue    []dialogueEntry  `json:"dialogue"`
}

type environmentEntry struct {
	Description string `json:"description"`
	VisualStyle string `json:"visual_style"`
	Lighting    string `json:"lighting"`
}

type cameraEntry struct {
	Angle    string `json:"angle"`
	ShotType string `json:"shot_type"`
}

type characterEntry struct {
	Name    string           `json:"name"`
	Details characterDetails `json:"details"`
}

type characterDetails struct {
	Race      string `json:"race"`
	Gender    string `json:"gender"`
	Age       string `json:"age"`
	Outfit    string `json:"outfit"`
	Hairstyle string `json:"hairstyle"`
	Voice     string `json:"voice"`
	Action    string `json:"action"`
}

type dialogueEntry struct {
	Speaker string `json:"speaker"`
	Line    string `json:"line"`
}

// Compose deterministically renders the scene state. It is total over its
// domain: it never fails, and a dialogue whose character cannot be resolved
// is omitted rather than reported. When the whole scene is empty (no
// characters, no dialogues, empty environment description and visual style)
// all three outputs are empty strings.
func Compose(characters []model.Character, dialogues []model.Dialogue, env model.EnvironmentSettings) Prompts {
	if len(characters) == 0 && len(dialogues) == 0 && env.Description == "" && env.VisualStyle == "" {
		return Prompts{}
	}

	return Prompts{
		Indonesian: composeIndonesian(characters, dialogues, env),
		English:    composeEnglish(characters, dialogues, env),
		JSON:       composeJSON(characters, dialogues, env),
	}
}

// resolveRace substitutes the free-text custom race when the race enum is the
// "Other..." sentinel; the sentinel itself never reaches an output.
func resolveRace(c model.Character) string {
	if c.Race == model.RaceOther {
		return c.CustomRace
	}
	return c.Race
}

// ordinalOf returns the 1-based ordinal position of the character with the
// given id, or 0 when it is not part of the current set. Downstream consumers
// of the prompt see characters by position, not by stable id.
func ordinalOf(characters []model.Character, id int64) int {
	for i, c := range characters {
		if c.ID == id {
			return i + 1
		}
	}
	return 0
}

func composeJSON(characters []model.Character, dialogues []model.Dialogue, env model.EnvironmentSettings) string {
	doc := sceneDocument{
		Scene: sceneBody{
			Environment: environmentEntry{
				Description: env.Description,
				VisualStyle: env.VisualStyle,
				Lighting:    env.Lighting,
			},
			Camera: cameraEntry{
				Angle:    env.CameraAngle,
				ShotType: env.ShotType,
			},
			Characters: make([]characterEntry, 0, len(characters)),
			Dialogue:   make([]dialogueEntry, 0, len(dialogues)),
		},
	}
	for i, c := range characters {
		doc.Scene.Characters = append(doc.Scene.Characters, characterEntry{
			Name: fmt.Sprintf("Karakter %d", i+1),
			Details: characterDetails{
				Race:      resolveRace(c),
				Gender:    c.Gender,
				Age:       c.Age,
				Outfit:    c.Outfit,
				Hairstyle: c.Hairstyle,
				Voice:     c.Voice,
				Action:    c.Description,
			},
		})
	}
	for _, d := range dialogues {
		ord := ordinalOf(characters, d.CharacterID)
		if ord == 0 {
			continue
		}
		doc.Scene.Dialogue = append(doc.Scene.Dialogue, dialogueEntry{
			Speaker: fmt.Sprintf("Karakter %d", ord),
			Line:    d.Text,
		})
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		// The document is plain strings and slices; this cannot happen.
		return ""
	}
	return string(raw)
}

func fallback(v, alt string) string {
	if v == "" {
		return alt
	}
	return v
}

func composeIndonesian(characters []model.Character, dialogues []model.Dialogue, env model.EnvironmentSettings) string {
	var b strings.Builder
	if env.Description != "" {
		fmt.Fprintf(&b, "Sebuah adegan di %s. ", env.Description)
	}
	if env.VisualStyle != "" {
		fmt.Fprintf(&b, "Gaya visualnya adalah %s. ", env.VisualStyle)
	}
	if env.Lighting != "" {
		fmt.Fprintf(&b, "Pencahayaan %s. ", env.Lighting)
	}
	if env.CameraAngle != "" && env.ShotType != "" {
		fmt.Fprintf(&b, "Pengambilan gambar menggunakan %s dengan %s. ", env.ShotType, env.CameraAngle)
	}

	if len(characters) > 0 {
		b.WriteString("\n\nKarakter yang terlibat:\n")
		for i, c := range characters {
			fmt.Fprintf(&b,
				"- Karakter %d: Seorang %s ras %s, diperkirakan berusia %s tahun. Mengenakan %s, dengan gaya rambut %s. Suaranya %s. Aksi/deskripsi: %s.\n",
				i+1,
				c.Gender,
				resolveRace(c),
				fallback(c.Age, "tidak diketahui"),
				fallback(c.Outfit, "pakaian tidak dijelaskan"),
				fallback(c.Hairstyle, "tidak dijelaskan"),
				c.Voice,
				fallback(c.Description, "tidak ada"),
			)
		}
	}

	if len(dialogues) > 0 {
		b.WriteString("\nDialog:\n")
		for _, d := range dialogues {
			if ord := ordinalOf(characters, d.CharacterID); ord != 0 {
				fmt.Fprintf(&b, "Karakter %d: \"%s\"\n", ord, d.Text)
			}
		}
	}

	return strings.TrimSpace(b.String())
}

// englishGender maps the Indonesian gender vocabulary to English lexical
// equivalents; the English prompt is not a literal substitution of the
// Indonesian template.
func englishGender(gender string) string {
	switch gender {
	case "Pria":
		return "male"
	case "Wanita":
		return "female"
	default:
		return "non-binary"
	}
}

func composeEnglish(characters []model.Character, dialogues []model.Dialogue, env model.EnvironmentSettings) string {
	var b strings.Builder
	if env.Description != "" {
		fmt.Fprintf(&b, "A scene at %s. ", env.Description)
	}
	if env.VisualStyle != "" {
		fmt.Fprintf(&b, "The visual style is %s. ", env.VisualStyle)
	}
	if env.Lighting != "" {
		fmt.Fprintf(&b, "The lighting is %s. ", env.Lighting)
	}
	if env.CameraAngle != "" && env.ShotType != "" {
		fmt.Fprintf(&b, "The shot is a %s with a %s. ", env.ShotType, env.CameraAngle)
	}

	if len(characters) > 0 {
		b.WriteString("\n\nCharacters involved:\n")
		for i, c := range characters {
			fmt.Fprintf(&b,
				"- Character %d: A %s of %s ethnicity, estimated to be %s years old. Wearing %s, with a %s hairstyle. Their voice is %s. Action/description: %s.\n",
				i+1,
				englishGender(c.Gender),
				resolveRace(c),
				fallback(c.Age, "unknown"),
				fallback(c.Outfit, "unspecified clothing"),
				fallback(c.Hairstyle, "unspecified"),
				c.Voice,
				fallback(c.Description, "none"),
			)
		}
	}

	if len(dialogues) > 0 {
		b.WriteString("\nDialogue:\n")
		for _, d := range dialogues {
			if ord := ordinalOf(characters, d.CharacterID); ord != 0 {
				fmt.Fprintf(&b, "Character %d: \"%s\"\n", ord, d.Text)
			}
		}
	}

	return strings.TrimSpace(b.String())
}
