package blogfront

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestProcessImageDownscalesWideImages(t *testing.T) {
	att, err := ProcessImage(pngOf(t, 1600, 400), "holiday photo.png", 800)
	require.NoError(t, err)
	assert.Equal(t, "holiday photo.jpg", att.Filename)
	assert.Equal(t, "image/jpeg", att.ContentType)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(att.Data))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestProcessImageKeepsNarrowImages(t *testing.T) {
	att, err := ProcessImage(pngOf(t, 300, 100), "dir/icon", 800)
	require.NoError(t, err)
	assert.Equal(t, "icon.jpg", att.Filename)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(att.Data))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	_, err := ProcessImage(strings.NewReader("not an image"), "x.png", 800)
	assert.ErrorContains(t, err, "decode image")
}
