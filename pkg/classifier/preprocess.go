package classifier

import (
	"image"

	"plantguard-be/pkg/imaging"
)

// Preprocess resizes img to size×size and returns a [3, size, size] tensor in
// [0,1]. It must match training exactly: Resize + ToTensor, no normalization.
func Preprocess(img *image.NRGBA, size int) []float32 {
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		img = imaging.ResizeSquare(img, size)
	}
	return imaging.ToCHW(img)
}
