// Package imaging decodes uploaded leaf photographs and prepares them for the
// classifier and the severity estimator.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"

	// Registered decoders for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	xdraw "golang.org/x/image/draw"
)

var ErrEmptyImage = errors.New("image is empty")

// DecodeRGB decodes any registered raster format and returns it as a
// non-premultiplied 8-bit image. Alpha is discarded by the consumers, the same
// way a 3-channel decode drops it.
func DecodeRGB(data []byte) (*image.NRGBA, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, format, ErrEmptyImage
	}
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n, format, nil
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, format, nil
}

// ResizeSquare scales img to size×size with a bilinear kernel, ignoring aspect ratio.
func ResizeSquare(img image.Image, size int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// ToCHW converts img into a planar float32 tensor [3, H, W] with channel values
// scaled to [0,1]. No mean/std normalization is applied.
func ToCHW(img *image.NRGBA) []float32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := w * h
	out := make([]float32, 3*plane)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			i := y*w + x
			out[i] = float32(row[x*4]) / 255
			out[plane+i] = float32(row[x*4+1]) / 255
			out[2*plane+i] = float32(row[x*4+2]) / 255
		}
	}
	return out
}
