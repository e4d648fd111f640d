// Package vision estimates visible disease extent on a leaf by HSV color
// segmentation. It does not depend on the classifier.
package vision

import (
	"fmt"
	"image"
	"math"

	"plantguard-be/internal/pkg/logger"
	"plantguard-be/pkg/imaging"
)

const module = "vision"

// HSVRange is an inclusive threshold box in 8-bit HSV (H in [0,180), S and V in [0,255]).
type HSVRange struct {
	Lower [3]uint8
	Upper [3]uint8
}

func (r HSVRange) contains(h, s, v uint8) bool {
	return h >= r.Lower[0] && h <= r.Upper[0] &&
		s >= r.Lower[1] && s <= r.Upper[1] &&
		v >= r.Lower[2] && v <= r.Upper[2]
}

var (
	// HealthyRange selects green leaf tissue.
	HealthyRange = HSVRange{Lower: [3]uint8{25, 40, 40}, Upper: [3]uint8{90, 255, 255}}
	// DiseasedRange selects yellow and brown lesions.
	DiseasedRange = HSVRange{Lower: [3]uint8{5, 50, 50}, Upper: [3]uint8{25, 255, 255}}
)

// MaskCounts holds the number of pixels selected by each mask. A pixel may be
// counted in both when it sits on the shared hue boundary.
type MaskCounts struct {
	Healthy  int
	Diseased int
}

// Severity returns diseased / (diseased + healthy) * 100 rounded to two
// decimals, or 0 when no leaf-like pixel was found.
func (c MaskCounts) Severity() float64 {
	total := c.Healthy + c.Diseased
	if total == 0 {
		return 0
	}
	return math.Round(float64(c.Diseased)/float64(total)*100*100) / 100
}

type Estimator struct {
	log logger.ILogger
}

func NewEstimator(log logger.ILogger) *Estimator {
	return &Estimator{log: log}
}

// Estimate computes the severity percentage of an encoded image. It never
// fails: undecodable input and processing faults map to 0.
func (e *Estimator) Estimate(imageBytes []byte) (severity float64) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn(module, "Severity calculation error", map[string]interface{}{"error": fmt.Sprint(r)})
			severity = 0
		}
	}()

	img, _, err := imaging.DecodeRGB(imageBytes)
	if err != nil {
		e.log.Warn(module, "Severity calculation error", map[string]interface{}{"error": err.Error()})
		return 0
	}
	return Count(img).Severity()
}

// Count applies both masks to img.
func Count(img *image.NRGBA) MaskCounts {
	var counts MaskCounts
	b := img.Bounds()
	w, hgt := b.Dx(), b.Dy()
	for y := 0; y < hgt; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			h, s, v := RGBToHSV(row[x*4], row[x*4+1], row[x*4+2])
			if HealthyRange.contains(h, s, v) {
				counts.Healthy++
			}
			if DiseasedRange.contains(h, s, v) {
				counts.Diseased++
			}
		}
	}
	return counts
}

const hsvShift = 12

// Fixed-point reciprocal tables of OpenCV's 8-bit HSV conversion.
var sdivTable, hdivTable = hsvTables()

func hsvTables() (sdiv, hdiv [256]int) {
	for i := 1; i < 256; i++ {
		sdiv[i] = int(math.Round(float64(255<<hsvShift) / float64(i)))
		hdiv[i] = int(math.Round(float64(180<<hsvShift) / (6 * float64(i))))
	}
	return sdiv, hdiv
}

// RGBToHSV converts one pixel the way OpenCV's 8-bit COLOR_RGB2HSV does: hue
// is halved to fit [0,180), saturation and value are scaled to [0,255]. The
// arithmetic is fixed-point so hue edges land on the same integers.
func RGBToHSV(r, g, b uint8) (h, s, v uint8) {
	ri, gi, bi := int(r), int(g), int(b)
	vi := max(ri, gi, bi)
	diff := vi - min(ri, gi, bi)
	half := 1 << (hsvShift - 1)

	si := (diff*sdivTable[vi] + half) >> hsvShift

	var hi int
	switch vi {
	case ri:
		hi = gi - bi
	case gi:
		hi = bi - ri + 2*diff
	default:
		hi = ri - gi + 4*diff
	}
	hi = (hi*hdivTable[diff] + half) >> hsvShift
	if hi < 0 {
		hi += 180
	}
	return uint8(hi), uint8(si), uint8(vi)
}
