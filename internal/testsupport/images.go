package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// PNG returns an encoded solid-colour image of the given size. The shade
// varies the pixel data so distinct fixtures hash differently.
func PNG(t testing.TB, width, height int, shade uint8) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	fill := color.RGBA{R: shade, G: 255 - shade, B: shade / 2, A: 255}
	for y := range height {
		for x := range width {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// SmallPNG is an 8x8 fixture for tests that only need a decodable image.
func SmallPNG(t testing.TB) []byte {
	t.Helper()
	return PNG(t, 8, 8, 64)
}
