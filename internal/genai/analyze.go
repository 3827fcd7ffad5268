package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mrbaitop40-blip/veo/internal/model"
)

const analyzeModel = "gemini-2.5-flash"

// AnalyzeCharacter asks the flash text model to describe the person
// in the reference photo using the studio's constrained vocabulary.
func (c *Client) AnalyzeCharacter(ctx context.Context, imageBase64, mimeType string) (model.CharacterAnalysis, error) {
	instruction := fmt.Sprintf(
		"Analyze the person in this image. Respond with a JSON object containing these keys: "+
			"race (one of: %s), gender (one of: %s), age (estimated age as a string), "+
			"outfit (clothing description in Indonesian), hairstyle (in Indonesian), "+
			"description (one sentence about pose and expression, in Indonesian). "+
			"If the race does not match the list, use the closest free-text description.",
		strings.Join(model.RaceValues(), ", "),
		"Pria, Wanita",
	)

	body := generateContentRequest{
		GenerationConfig: map[string]any{
			"responseMimeType": "application/json",
		},
	}
	body.Contents = append(body.Contents, struct {
		Parts []contentPart `json:"parts"`
	}{Parts: []contentPart{
		{InlineData: &inlineData{MimeType: mimeType, Data: imageBase64}},
		{Text: instruction},
	}})

	var resp generateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", analyzeModel)
	if err := c.postJSON(ctx, "analyze character", path, body, &resp); err != nil {
		return model.CharacterAnalysis{}, err
	}
	if len(resp.Candidates) == 0 {
		return model.CharacterAnalysis{}, &RemoteError{Op: "analyze character", Message: "no candidates returned"}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	raw := stripFences(text.String())

	var analysis model.CharacterAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return model.CharacterAnalysis{}, fmt.Errorf("genai: parse analysis: %w", err)
	}
	return analysis, nil
}

// stripFences removes a surrounding markdown code fence, which some
// model versions emit around JSON even when asked not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
