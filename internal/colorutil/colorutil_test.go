package colorutil

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestToHex(t *testing.T) {
	assert.Equal(t, ToHex(RGBA{R: 1, G: 0, B: 0, A: Alpha(1)}), "#ff0000")
	assert.Equal(t, ToHex(RGBA{R: 1, G: 0, B: 0, A: Alpha(0.5)}), "#ff000080")
	assert.Equal(t, ToHex(RGBA{R: 0, G: 0, B: 0}), "#000000")
	assert.Equal(t, ToHex(RGBA{R: 1, G: 1, B: 1, A: Alpha(0)}), "#ffffff00")
	assert.Equal(t, ToHex(RGBA{R: 0.2, G: 0.4, B: 0.6}), "#336699")
}

func TestToHexClampsOutOfRange(t *testing.T) {
	assert.Equal(t, ToHex(RGBA{R: 2, G: -1, B: 0.5}), "#ff0080")
}

func TestBase64(t *testing.T) {
	assert.Equal(t, Base64([]byte("png")), "cG5n")
	assert.Equal(t, Base64(nil), "")
}
