package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// VideoThumbnail writes the video bytes to a scratch file, extracts
// the start frame, and returns it as a JPEG data URL.
func VideoThumbnail(ctx context.Context, video []byte) (string, error) {
	dir, err := os.MkdirTemp("", "veo-thumb-*")
	if err != nil {
		return "", fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, video, 0o644); err != nil {
		return "", fmt.Errorf("write clip: %w", err)
	}
	frame, err := ExtractStartFrame(ctx, path)
	if err != nil {
		return "", err
	}
	return DataURL("image/jpeg", frame), nil
}

// ImageThumbnail returns the image itself as a PNG data URL. Generated
// images are small enough to serve directly as their own preview.
func ImageThumbnail(_ context.Context, image []byte) (string, error) {
	return DataURL("image/png", image), nil
}
