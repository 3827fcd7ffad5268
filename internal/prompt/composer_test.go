package prompt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrbaitop40-blip/veo/internal/model"
)

func sampleScene() ([]model.Character, []model.Dialogue, model.EnvironmentSettings) {
	chars := []model.Character{
		{
			ID:          1,
			Race:        "Eropa",
			Gender:      "Pria",
			Age:         "30",
			Outfit:      "jaket kulit",
			Hairstyle:   "cepak",
			Voice:       "berat dan dalam",
			Description: "berjalan di trotoar",
		},
	}
	dials := []model.Dialogue{{ID: 10, CharacterID: 1, Text: "Hujan lagi."}}
	env := model.EnvironmentSettings{
		Description: "jalanan kota malam hari",
		VisualStyle: "Cinematic",
		Lighting:    "neon lighting",
		CameraAngle: "eye level",
		ShotType:    "medium shot",
	}
	return chars, dials, env
}

func TestComposeEmptySceneIsEmpty(t *testing.T) {
	env := model.DefaultEnvironment()
	p := Compose(nil, nil, env)
	assert.Empty(t, p.Indonesian)
	assert.Empty(t, p.English)
	assert.Empty(t, p.JSON)
}

func TestComposeDeterministic(t *testing.T) {
	chars, dials, env := sampleScene()
	a := Compose(chars, dials, env)
	b := Compose(chars, dials, env)
	assert.Equal(t, a, b)
}

func TestComposeIndonesian(t *testing.T) {
	chars, dials, env := sampleScene()
	p := Compose(chars, dials, env)

	assert.True(t, strings.HasPrefix(p.Indonesian,
		"Sebuah adegan di jalanan kota malam hari. "), p.Indonesian)
	assert.Contains(t, p.Indonesian, "Pencahayaan neon lighting.")
	assert.Contains(t, p.Indonesian,
		"- Karakter 1: Seorang Pria ras Eropa, diperkirakan berusia 30 tahun.")
	assert.Contains(t, p.Indonesian, "Karakter 1: \"Hujan lagi.\"")
}

func TestComposeEnglish(t *testing.T) {
	chars, dials, env := sampleScene()
	p := Compose(chars, dials, env)

	assert.Contains(t, p.English, "A scene at jalanan kota malam hari.")
	assert.Contains(t, p.English,
		"- Character 1: A male of Eropa ethnicity, estimated to be 30 years old.")
	assert.Contains(t, p.English, "Character 1: \"Hujan lagi.\"")
}

func TestComposeJSONShape(t *testing.T) {
	chars, dials, env := sampleScene()
	p := Compose(chars, dials, env)

	var doc struct {
		Scene struct {
			Environment struct {
				Description string `json:"description"`
				VisualStyle string `json:"visual_style"`
			} `json:"environment"`
			Characters []struct {
				Name    string `json:"name"`
				Details struct {
					Race string `json:"race"`
				} `json:"details"`
			} `json:"characters"`
			Dialogue []struct {
				Speaker string `json:"speaker"`
				Line    string `json:"line"`
			} `json:"dialogue"`
		} `json:"scene"`
	}
	require.NoError(t, json.Unmarshal([]byte(p.JSON), &doc))
	assert.Equal(t, "jalanan kota malam hari", doc.Scene.Environment.Description)
	require.Len(t, doc.Scene.Characters, 1)
	assert.Equal(t, "Karakter 1", doc.Scene.Characters[0].Name)
	assert.Equal(t, "Eropa", doc.Scene.Characters[0].Details.Race)
	require.Len(t, doc.Scene.Dialogue, 1)
	assert.Equal(t, "Karakter 1", doc.Scene.Dialogue[0].Speaker)
}

func TestComposeCustomRace(t *testing.T) {
	chars, dials, env := sampleScene()
	chars[0].Race = model.RaceOther
	chars[0].CustomRace = "Half-Elf"
	p := Compose(chars, dials, env)

	assert.Contains(t, p.Indonesian, "ras Half-Elf")
	assert.Contains(t, p.English, "Half-Elf ethnicity")
	assert.NotContains(t, p.JSON, model.RaceOther)
}

func TestComposeOrphanedDialogueOmitted(t *testing.T) {
	chars, dials, env := sampleScene()
	dials = append(dials, model.Dialogue{ID: 11, CharacterID: 777, Text: "ghost line"})
	p := Compose(chars, dials, env)

	assert.NotContains(t, p.Indonesian, "ghost line")
	assert.NotContains(t, p.English, "ghost line")
	assert.NotContains(t, p.JSON, "ghost line")
}

func TestComposeFallbackTokens(t *testing.T) {
	chars, _, env := sampleScene()
	chars[0].Age = ""
	chars[0].Outfit = ""
	chars[0].Hairstyle = ""
	chars[0].Description = ""
	p := Compose(chars, nil, env)

	assert.Contains(t, p.Indonesian, "berusia tidak diketahui tahun")
	assert.Contains(t, p.Indonesian, "Mengenakan pakaian tidak dijelaskan")
	assert.Contains(t, p.Indonesian, "Aksi/deskripsi: tidak ada.")
	assert.Contains(t, p.English, "unknown years old")
	assert.Contains(t, p.English, "Wearing unspecified clothing")
	assert.Contains(t, p.English, "Action/description: none.")
}

func TestComposeJSONEmptyCollectionsAreArrays(t *testing.T) {
	env := model.EnvironmentSettings{Description: "pantai"}
	p := Compose(nil, nil, env)
	assert.Contains(t, p.JSON, `"characters": []`)
	assert.Contains(t, p.JSON, `"dialogue": []`)
}
