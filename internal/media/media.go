// Package media shells out to ffmpeg for frame extraction and clip
// concatenation, and builds the data URLs the history ledgers store.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// DataURL encodes data as a base64 data URL with the given MIME type.
func DataURL(mime string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

// Duration returns the length of the video file in seconds.
func Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return d, nil
}

// ExtractStartFrame grabs a JPEG frame just after the start of the
// clip. The small offset skips leading black frames.
func ExtractStartFrame(ctx context.Context, path string) ([]byte, error) {
	return extractFrame(ctx, path, "-ss", "0.1")
}

// ExtractEndFrame grabs a JPEG frame just before the end of the clip.
func ExtractEndFrame(ctx context.Context, path string) ([]byte, error) {
	return extractFrame(ctx, path, "-sseof", "-0.1")
}

func extractFrame(ctx context.Context, path string, seekFlag, seekVal string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		seekFlag, seekVal,
		"-i", path,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame from %s: %w: %s", path, err, stderrExcerpt(&stderr))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg frame from %s: empty output", path)
	}
	return stdout.Bytes(), nil
}

// ConcatClips joins the clips into a single video using the concat
// demuxer with stream copy. All clips must share codec parameters,
// which holds for clips from the same generation run.
func ConcatClips(ctx context.Context, clipPaths []string, outPath string) error {
	if len(clipPaths) == 0 {
		return fmt.Errorf("concat: no clips")
	}
	playlist := concatPlaylist(clipPaths)
	listPath := filepath.Join(filepath.Dir(outPath), "concat.txt")
	if err := os.WriteFile(listPath, []byte(playlist), 0o644); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	defer os.Remove(listPath)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w: %s", err, stderrExcerpt(&stderr))
	}
	return nil
}

// concatPlaylist renders the concat demuxer file list. Single quotes
// inside paths are escaped the way the demuxer expects.
func concatPlaylist(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		escaped := strings.ReplaceAll(p, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return b.String()
}

func stderrExcerpt(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	lines := strings.Split(s, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
