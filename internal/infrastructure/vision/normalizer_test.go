package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizer_PNGToJPEG(t *testing.T) {
	n := NewNormalizer(0)
	require.Equal(t, DefaultJPEGQuality, n.Quality)

	out, err := n.Normalize(encodePNG(t))
	require.NoError(t, err)
	require.True(t, isJPEG(out))

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 16, img.Bounds().Dx())
}

func TestNormalizer_JPEGPassthrough(t *testing.T) {
	n := NewNormalizer(80)
	in := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("rest")...)

	out, err := n.Normalize(in)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestNormalizer_Garbage(t *testing.T) {
	_, err := NewNormalizer(80).Normalize([]byte("not an image"))
	require.Error(t, err)
}
