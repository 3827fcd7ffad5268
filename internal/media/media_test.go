package media

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURL(t *testing.T) {
	got := DataURL("image/png", []byte{0x89, 0x50})
	assert.Equal(t, "data:image/png;base64,iVA=", got)
}

func TestImageThumbnail(t *testing.T) {
	got, err := ImageThumbnail(context.Background(), []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, DataURL("image/png", []byte("png-bytes")), got)
}

func TestConcatPlaylist(t *testing.T) {
	got := concatPlaylist([]string{"/tmp/a.mp4", "/tmp/b.mp4"})
	assert.Equal(t, "file '/tmp/a.mp4'\nfile '/tmp/b.mp4'\n", got)
}

func TestConcatPlaylistEscapesQuotes(t *testing.T) {
	got := concatPlaylist([]string{"/tmp/it's.mp4"})
	assert.Equal(t, "file '/tmp/it'\\''s.mp4'\n", got)
}

func TestStderrExcerptKeepsTail(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("one\ntwo\nthree\nfour\nfive\n")
	assert.Equal(t, "three | four | five", stderrExcerpt(&buf))
}
