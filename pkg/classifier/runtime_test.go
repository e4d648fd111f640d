package classifier

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"plantguard-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tinyArch keeps tests fast while exercising all five blocks.
var tinyArch = Architecture{InputSize: 96, Widths: [5]int{2, 2, 2, 2, 2}, Hidden: 4, Classes: len(Taxonomy)}

// encodeSafetensors serializes F32 tensors the way safetensors.torch.save_file does.
func encodeSafetensors(t *testing.T, tensors map[string]tensor) []byte {
	t.Helper()
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := map[string]interface{}{"__metadata__": map[string]string{"format": "pt"}}
	var body bytes.Buffer
	for _, name := range names {
		tn := tensors[name]
		start := body.Len()
		for _, v := range tn.data {
			require.NoError(t, binary.Write(&body, binary.LittleEndian, math.Float32bits(v)))
		}
		header[name] = map[string]interface{}{
			"dtype":        "F32",
			"shape":        tn.shape,
			"data_offsets": []int{start, body.Len()},
		}
	}
	hdr, err := json.Marshal(header)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, binary.Write(&out, binary.LittleEndian, uint64(len(hdr))))
	out.Write(hdr)
	out.Write(body.Bytes())
	return out.Bytes()
}

// plantWeights builds a full state dict for arch. fill returns each value.
func plantWeights(arch Architecture, fill func(name string, i int) float32) map[string]tensor {
	tensors := map[string]tensor{}
	add := func(name string, shape ...int) {
		n := 1
		for _, d := range shape {
			n *= d
		}
		data := make([]float32, n)
		for i := range data {
			data[i] = fill(name, i)
		}
		tensors[name] = tensor{shape: shape, data: data}
	}
	in := 3
	for i := 0; i < 10; i++ {
		out := arch.Widths[i/2]
		add(convTensorName(i)+".weight", out, in, 3, 3)
		add(convTensorName(i)+".bias", out)
		in = out
	}
	add(hiddenTensorName+".weight", arch.Hidden, arch.FlattenSize())
	add(hiddenTensorName+".bias", arch.Hidden)
	add(outputTensorName+".weight", arch.Classes, arch.Hidden)
	add(outputTensorName+".bias", arch.Classes)
	return tensors
}

// winnerWeights zeroes everything except the output bias of class winner.
func winnerWeights(arch Architecture, winner int) map[string]tensor {
	return plantWeights(arch, func(name string, i int) float32 {
		if name == outputTensorName+".bias" && i == winner {
			return 10
		}
		return 0
	})
}

func writeWeights(t *testing.T, tensors map[string]tensor) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plant_disease_model.safetensors")
	require.NoError(t, os.WriteFile(path, encodeSafetensors(t, tensors), 0o644))
	return path
}

func leafPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 6), G: 180, B: uint8(y * 8), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLabelFor(t *testing.T) {
	assert.Len(t, Taxonomy, 38)
	assert.Equal(t, "Apple___Apple_scab", LabelFor(Taxonomy, 0))
	assert.Equal(t, "Tomato___healthy", LabelFor(Taxonomy, 37))
	assert.Equal(t, "class_38", LabelFor(Taxonomy, 38))
	assert.Equal(t, "class_-1", LabelFor(Taxonomy, -1))
}

func TestArchitecture(t *testing.T) {
	require.NoError(t, PlantCNN.Validate())
	assert.Equal(t, 2, PlantCNN.FinalSpatial())
	assert.Equal(t, 512*2*2, PlantCNN.FlattenSize())
	assert.Equal(t, 38, PlantCNN.Classes)

	require.NoError(t, tinyArch.Validate())
	assert.Equal(t, 1, tinyArch.FinalSpatial())

	small := tinyArch
	small.InputSize = 64
	assert.Error(t, small.Validate())

	zero := tinyArch
	zero.Widths[3] = 0
	assert.Error(t, zero.Validate())
}

func TestConvTensorName(t *testing.T) {
	want := []string{
		"features.0", "features.2", "features.5", "features.7", "features.10",
		"features.12", "features.15", "features.17", "features.20", "features.22",
	}
	for i, name := range want {
		assert.Equal(t, name, convTensorName(i))
	}
}

func TestConv3x3(t *testing.T) {
	input := []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}
	ones := []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}

	padded := make([]float32, 9)
	conv3x3(padded, input, ones, 0, 1, 3, 3, 1)
	assert.Equal(t, []float32{
		12, 21, 16,
		27, 45, 33,
		24, 39, 28,
	}, padded)

	valid := make([]float32, 1)
	conv3x3(valid, input, ones, -50, 1, 3, 1, 0)
	assert.Equal(t, []float32{0}, valid, "ReLU clamps 45-50")

	identity := []float32{0, 0, 0, 0, 1, 0, 0, 0, 0}
	same := make([]float32, 9)
	conv3x3(same, input, identity, 0, 1, 3, 3, 1)
	assert.Equal(t, input, same)
}

func TestMaxPool2(t *testing.T) {
	input := []float32{
		1, 2, 3, 0, 9,
		4, 5, 1, 7, 9,
		0, 0, 2, 2, 9,
		3, 1, 8, 0, 9,
		9, 9, 9, 9, 9,
	}
	out, side := maxPool2(input, 1, 5)
	assert.Equal(t, 2, side)
	assert.Equal(t, []float32{5, 7, 3, 8}, out)
}

func TestArgmaxSoftmax(t *testing.T) {
	idx, p := argmaxSoftmax([]float32{0, 0, 0, 0})
	assert.Equal(t, 0, idx)
	assert.InDelta(t, 0.25, p, 1e-9)

	idx, p = argmaxSoftmax([]float32{1, 3, 2})
	assert.Equal(t, 1, idx)
	assert.InDelta(t, math.Exp(3)/(math.Exp(1)+math.Exp(2)+math.Exp(3)), p, 1e-9)
}

func TestLoad_MissingWeightsIsDemo(t *testing.T) {
	rt := Load(Options{WeightsPath: filepath.Join(t.TempDir(), "absent.safetensors")}, logger.NewNopLogger())

	assert.Equal(t, "demo", rt.Mode())
	assert.IsType(t, Unavailable{}, rt.State())
	assert.Equal(t, Device(""), rt.Device())

	res, err := rt.Predict(context.Background(), []byte("anything"), "general")
	require.NoError(t, err)
	assert.Equal(t, Result{Disease: "Tomato___Late_blight", Confidence: 0.87, ModelUsed: "general (demo)"}, res)
}

func TestLoad_BadWeightsIsDemo(t *testing.T) {
	mismatch := winnerWeights(tinyArch, 0)
	mismatch[hiddenTensorName+".weight"] = tensor{shape: []int{4, 3}, data: make([]float32, 12)}

	missing := winnerWeights(tinyArch, 0)
	delete(missing, convTensorName(4)+".bias")

	tests := []struct {
		name string
		path string
	}{
		{"corrupt file", func() string {
			p := filepath.Join(t.TempDir(), "corrupt.safetensors")
			require.NoError(t, os.WriteFile(p, []byte("PK\x03\x04 torch zip"), 0o644))
			return p
		}()},
		{"truncated", func() string {
			p := filepath.Join(t.TempDir(), "short.safetensors")
			require.NoError(t, os.WriteFile(p, []byte{1, 2}, 0o644))
			return p
		}()},
		{"shape mismatch", writeWeights(t, mismatch)},
		{"missing tensor", writeWeights(t, missing)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := Load(Options{WeightsPath: tt.path, Architecture: tinyArch}, logger.NewNopLogger())
			require.IsType(t, Unavailable{}, rt.State())
			assert.Error(t, rt.State().(Unavailable).Reason)
		})
	}
}

func TestPredict_Ready(t *testing.T) {
	path := writeWeights(t, winnerWeights(tinyArch, 30))
	rt := Load(Options{WeightsPath: path, Architecture: tinyArch, Workers: 2}, logger.NewNopLogger())
	require.Equal(t, "ready", rt.Mode())
	assert.Equal(t, DeviceCPU, rt.Device())

	res, err := rt.Predict(context.Background(), leafPNG(t), "general")
	require.NoError(t, err)

	want := math.Exp(10) / (math.Exp(10) + float64(len(Taxonomy)-1))
	assert.Equal(t, "Tomato___Late_blight", res.Disease)
	assert.Equal(t, math.Round(want*1e4)/1e4, res.Confidence)
	assert.Equal(t, "general", res.ModelUsed)
	assert.False(t, res.IsPlaceholder())
}

func TestPredict_OutOfTaxonomyIndex(t *testing.T) {
	arch := tinyArch
	arch.Classes = len(Taxonomy) + 2
	rt := Load(Options{WeightsPath: writeWeights(t, winnerWeights(arch, 39)), Architecture: arch}, logger.NewNopLogger())
	require.Equal(t, "ready", rt.Mode())

	res, err := rt.Predict(context.Background(), leafPNG(t), "")
	require.NoError(t, err)
	assert.Equal(t, "class_39", res.Disease)
	assert.Equal(t, DefaultModelKey, res.ModelUsed)
}

func TestPredict_RandomWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tensors := plantWeights(tinyArch, func(string, int) float32 { return float32(rng.NormFloat64() * 0.3) })
	rt := Load(Options{WeightsPath: writeWeights(t, tensors), Architecture: tinyArch}, logger.NewNopLogger())
	require.Equal(t, "ready", rt.Mode())

	img := leafPNG(t)
	first, err := rt.Predict(context.Background(), img, "general")
	require.NoError(t, err)
	assert.Contains(t, Taxonomy, first.Disease)
	assert.GreaterOrEqual(t, first.Confidence, 0.0)
	assert.LessOrEqual(t, first.Confidence, 1.0)
	assert.InDelta(t, first.Confidence*1e4, math.Round(first.Confidence*1e4), 1e-6)

	// concurrent reads of the shared network give identical results
	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = rt.Predict(context.Background(), img, "general")
		}()
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, first, r)
	}
}

func TestPredict_Placeholders(t *testing.T) {
	rt := Load(Options{WeightsPath: writeWeights(t, winnerWeights(tinyArch, 0)), Architecture: tinyArch}, logger.NewNopLogger())
	demo := Load(Options{WeightsPath: "missing.safetensors"}, logger.NewNopLogger())

	for _, r := range []*Runtime{rt, demo} {
		for _, key := range []string{"soynet", "fivecrop"} {
			res, err := r.Predict(context.Background(), nil, key)
			require.NoError(t, err)
			assert.True(t, res.IsPlaceholder())
			assert.Equal(t, key+" model coming soon — stay tuned.", res.Status)
			assert.Equal(t, key, res.ModelUsed)
			assert.Equal(t, key, r.CurrentModelKey())
		}
	}
}

func TestPredict_InvalidImage(t *testing.T) {
	rt := Load(Options{WeightsPath: writeWeights(t, winnerWeights(tinyArch, 0)), Architecture: tinyArch}, logger.NewNopLogger())

	_, err := rt.Predict(context.Background(), []byte("not an image"), "general")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestPredict_Canceled(t *testing.T) {
	rt := Load(Options{WeightsPath: writeWeights(t, winnerWeights(tinyArch, 0)), Architecture: tinyArch}, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rt.Predict(ctx, leafPNG(t), "general")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadSafetensors_RejectsNonF32(t *testing.T) {
	hdr := []byte(`{"w":{"dtype":"F16","shape":[1],"data_offsets":[0,2]}}`)
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint64(len(hdr))))
	buf.Write(hdr)
	buf.Write([]byte{0, 0})
	path := filepath.Join(t.TempDir(), "f16.safetensors")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	_, err := loadSafetensors(path)
	assert.ErrorContains(t, err, "F16")
}
