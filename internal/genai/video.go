package genai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrbaitop40-blip/veo/internal/model"
)

// VideoRequest describes one clip to generate.
type VideoRequest struct {
	Model       model.VeoModel
	Prompt      string
	AspectRatio model.AspectRatio
	Resolution  model.Resolution
	EnableSound bool
	// Image seeds the first frame of the clip when set.
	Image *model.ImagePart
}

type videoInstance struct {
	Prompt string      `json:"prompt"`
	Image  *videoImage `json:"image,omitempty"`
}

type videoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type videoParameters struct {
	AspectRatio   string `json:"aspectRatio"`
	Resolution    string `json:"resolution"`
	GenerateAudio bool   `json:"generateAudio"`
	SampleCount   int    `json:"sampleCount"`
}

type operationStatus struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Response struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
}

// Poll loop states for one long-running video operation.
type videoPhase int

const (
	phaseSubmitted videoPhase = iota
	phasePolling
	phaseSucceeded
	phaseFailed
)

// GenerateVideo submits a long-running generation, polls it to
// completion, and downloads the resulting clip. It blocks until the
// operation finishes or ctx is canceled; there is no attempt cap, the
// remote signals completion.
func (c *Client) GenerateVideo(ctx context.Context, req VideoRequest) ([]byte, error) {
	instance := videoInstance{Prompt: req.Prompt}
	if req.Image != nil {
		instance.Image = &videoImage{
			BytesBase64Encoded: req.Image.ImageBase64,
			MimeType:           req.Image.ImageMimeType,
		}
	}
	body := map[string]any{
		"instances": []videoInstance{instance},
		"parameters": videoParameters{
			AspectRatio:   string(req.AspectRatio),
			Resolution:    string(req.Resolution),
			GenerateAudio: req.EnableSound,
			SampleCount:   1,
		},
	}

	var op operationStatus
	path := fmt.Sprintf("/models/%s:predictLongRunning", req.Model)
	if err := c.postJSON(ctx, "generate video", path, body, &op); err != nil {
		return nil, err
	}
	c.log.Info("video operation submitted", "operation", op.Name)

	phase := phaseSubmitted
	for {
		switch phase {
		case phaseSubmitted:
			if op.Done {
				phase = donePhase(&op)
				continue
			}
			phase = phasePolling

		case phasePolling:
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pollInterval):
			}
			if err := c.getJSON(ctx, "poll video operation", "/"+op.Name, &op); err != nil {
				return nil, err
			}
			if op.Done {
				phase = donePhase(&op)
			}

		case phaseFailed:
			return nil, &RemoteError{Op: "generate video", Message: op.Error.Message}

		case phaseSucceeded:
			samples := op.Response.GenerateVideoResponse.GeneratedSamples
			if len(samples) == 0 || samples[0].Video.URI == "" {
				return nil, &RemoteError{Op: "generate video", Message: "operation finished without a video"}
			}
			return c.downloadVideo(ctx, samples[0].Video.URI)
		}
	}
}

func donePhase(op *operationStatus) videoPhase {
	if op.Error != nil {
		return phaseFailed
	}
	return phaseSucceeded
}

// downloadVideo fetches the finished clip. The file endpoint
// authenticates by query key rather than header.
func (c *Client) downloadVideo(ctx context.Context, uri string) ([]byte, error) {
	key, err := c.keys.APIKey()
	if err != nil {
		return nil, err
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	full := uri + sep + "key=" + url.QueryEscape(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("genai: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genai: download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteError{Op: "download video", Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "video/") {
		return nil, &RemoteError{Op: "download video", Message: fmt.Sprintf("unexpected content type %q", ct)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("genai: read video body: %w", err)
	}
	return data, nil
}
