package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"plantguard-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	leafGreen  = color.NRGBA{R: 0, G: 200, B: 0, A: 255}
	lesionBrwn = color.NRGBA{R: 150, G: 75, B: 0, A: 255}
	skyBlue    = color.NRGBA{R: 0, G: 0, B: 255, A: 255}
)

// striped paints the first n columns with a and the rest with b.
func striped(t *testing.T, w, h, n int, a, b color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < n {
				img.Set(x, y, a)
			} else {
				img.Set(x, y, b)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		h, s, v uint8
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 0, 0, 255},
		{"red", 255, 0, 0, 0, 255, 255},
		{"green", 0, 200, 0, 60, 255, 200},
		{"blue", 0, 0, 255, 120, 255, 255},
		{"brown", 150, 75, 0, 15, 255, 150},
		{"magenta wraps", 255, 0, 128, 165, 255, 255},
		{"cyan hue edge rounds like opencv", 0, 127, 129, 91, 255, 129},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, v := RGBToHSV(tt.r, tt.g, tt.b)
			assert.Equal(t, []uint8{tt.h, tt.s, tt.v}, []uint8{h, s, v})
		})
	}
}

func TestEstimate(t *testing.T) {
	est := NewEstimator(logger.NewNopLogger())

	tests := []struct {
		name string
		data []byte
		want float64
	}{
		{"fully healthy leaf", striped(t, 8, 8, 8, leafGreen, leafGreen), 0},
		{"fully diseased leaf", striped(t, 8, 8, 8, lesionBrwn, lesionBrwn), 100},
		{"half and half", striped(t, 8, 8, 4, lesionBrwn, leafGreen), 50},
		{"quarter diseased", striped(t, 8, 4, 2, lesionBrwn, leafGreen), 25},
		{"one third diseased", striped(t, 3, 1, 1, lesionBrwn, leafGreen), 33.33},
		{"no leaf pixels", striped(t, 8, 8, 8, skyBlue, skyBlue), 0},
		{"blue background ignored", striped(t, 8, 8, 4, skyBlue, lesionBrwn), 100},
		{"undecodable bytes", []byte("not an image"), 0},
		{"empty input", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := est.Estimate(tt.data)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestCount_SharedHueBoundary(t *testing.T) {
	// hue 50 degrees -> 25 in 8-bit space, inside both masks
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 240, G: 200, B: 0, A: 255})

	counts := Count(img)
	assert.Equal(t, MaskCounts{Healthy: 1, Diseased: 1}, counts)
	assert.Equal(t, 50.0, counts.Severity())
}

func TestMaskCounts_ZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, MaskCounts{}.Severity())
}
