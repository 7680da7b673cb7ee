package classifier

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Layout is the memory order of the input tensor.
type Layout int

const (
	// NHWC stores pixels row by row with interleaved channels.
	NHWC Layout = iota
	// NCHW stores one full plane per channel.
	NCHW
)

// ImageNet channel statistics used by the pretrained backbone.
var (
	channelMean = [3]float32{0.485, 0.456, 0.406}
	channelStd  = [3]float32{0.229, 0.224, 0.225}
)

// Decode parses an encoded PNG, JPEG, GIF, or WebP image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Resize scales img to a size x size square with bilinear interpolation.
func Resize(img image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Tensor resizes img and returns normalized float32 pixels in the requested
// layout, ready to copy into a model input tensor.
func Tensor(img image.Image, size int, layout Layout) []float32 {
	resized := Resize(img, size)
	plane := size * size
	out := make([]float32, plane*3)
	for y := range size {
		for x := range size {
			offset := resized.PixOffset(x, y)
			px := resized.Pix[offset : offset+3 : offset+3]
			for c := range 3 {
				v := (float32(px[c])/255 - channelMean[c]) / channelStd[c]
				if layout == NCHW {
					out[c*plane+y*size+x] = v
				} else {
					out[(y*size+x)*3+c] = v
				}
			}
		}
	}
	return out
}
