package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mrbaitop40-blip/veo/internal/model"
)

// ImageRequest describes one image generation or edit.
type ImageRequest struct {
	Model       model.ImageModel
	Prompt      string
	AspectRatio model.AspectRatio
	// Images are the inputs to edit. Required for the flash model,
	// ignored by the imagen model.
	Images []model.ImagePart
}

// ErrImageRequired is returned when the flash edit model is invoked
// without input images.
var ErrImageRequired = &RemoteError{Op: "edit image", Message: "flash model requires at least one input image"}

type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContentRequest struct {
	Contents []struct {
		Parts []contentPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig map[string]any `json:"generationConfig,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []contentPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// EditImage produces a PNG from the prompt, editing the given input
// images with the flash model or generating from scratch with imagen.
// The returned string is the image MIME type.
func (c *Client) EditImage(ctx context.Context, req ImageRequest) ([]byte, string, error) {
	if req.Model == model.ImageModelImagen {
		return c.imagenGenerate(ctx, req)
	}
	return c.flashEdit(ctx, req)
}

func (c *Client) flashEdit(ctx context.Context, req ImageRequest) ([]byte, string, error) {
	if len(req.Images) == 0 {
		return nil, "", ErrImageRequired
	}
	parts := make([]contentPart, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, contentPart{InlineData: &inlineData{
			MimeType: img.ImageMimeType,
			Data:     img.ImageBase64,
		}})
	}
	parts = append(parts, contentPart{Text: req.Prompt})

	body := generateContentRequest{
		GenerationConfig: map[string]any{
			"responseModalities": []string{"IMAGE", "TEXT"},
		},
	}
	body.Contents = append(body.Contents, struct {
		Parts []contentPart `json:"parts"`
	}{Parts: parts})

	var resp generateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", req.Model)
	if err := c.postJSON(ctx, "edit image", path, body, &resp); err != nil {
		return nil, "", err
	}
	if len(resp.Candidates) == 0 {
		return nil, "", &RemoteError{Op: "edit image", Message: "no candidates returned"}
	}

	var textOnly strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil {
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, "", fmt.Errorf("genai: decode image data: %w", err)
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return data, mime, nil
		}
		if part.Text != "" {
			textOnly.WriteString(part.Text)
		}
	}
	// The model answered in prose instead of pixels; surface what it
	// said so the caller can show it.
	msg := strings.TrimSpace(textOnly.String())
	if msg == "" {
		msg = "no image in response"
	}
	return nil, "", &RemoteError{Op: "edit image", Message: msg}
}

func (c *Client) imagenGenerate(ctx context.Context, req ImageRequest) ([]byte, string, error) {
	body := map[string]any{
		"instances": []map[string]any{{"prompt": req.Prompt}},
		"parameters": map[string]any{
			"sampleCount":      1,
			"aspectRatio":      string(req.AspectRatio),
			"outputMimeType":   "image/png",
			"personGeneration": "allow_adult",
		},
	}
	var resp struct {
		Predictions []struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
			MimeType           string `json:"mimeType"`
		} `json:"predictions"`
	}
	path := fmt.Sprintf("/models/%s:predict", req.Model)
	if err := c.postJSON(ctx, "generate image", path, body, &resp); err != nil {
		return nil, "", err
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return nil, "", &RemoteError{Op: "generate image", Message: "no image returned"}
	}
	data, err := base64.StdEncoding.DecodeString(resp.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, "", fmt.Errorf("genai: decode image data: %w", err)
	}
	mime := resp.Predictions[0].MimeType
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, nil
}
