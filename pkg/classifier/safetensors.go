package classifier

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
)

// tensor is a dense float32 array decoded from a safetensors file.
type tensor struct {
	shape []int
	data  []float32
}

// loadSafetensors reads every F32 tensor in a safetensors file. The layout is
// an 8-byte little-endian header length, a JSON header, then raw tensor bytes.
func loadSafetensors(path string) (map[string]tensor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("safetensors: %w", err)
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("safetensors: file too small: %d bytes", len(data))
	}

	headerLen := binary.LittleEndian.Uint64(data[:8])
	if uint64(len(data))-8 < headerLen {
		return nil, fmt.Errorf("safetensors: header length %d exceeds file size", headerLen)
	}

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &header); err != nil {
		return nil, fmt.Errorf("safetensors: failed to parse header: %w", err)
	}

	body := data[8+headerLen:]
	tensors := make(map[string]tensor, len(header))
	for name, raw := range header {
		if name == "__metadata__" {
			continue
		}

		var meta struct {
			Dtype       string `json:"dtype"`
			Shape       []int  `json:"shape"`
			DataOffsets [2]int `json:"data_offsets"`
		}
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("safetensors: tensor %q: bad metadata: %w", name, err)
		}
		if meta.Dtype != "F32" {
			return nil, fmt.Errorf("safetensors: tensor %q: expected dtype F32, got %s", name, meta.Dtype)
		}

		numFloats := 1
		for _, d := range meta.Shape {
			numFloats *= d
		}
		start, end := meta.DataOffsets[0], meta.DataOffsets[1]
		if start < 0 || end < start || end > len(body) {
			return nil, fmt.Errorf("safetensors: tensor %q: data range [%d:%d] exceeds file size", name, start, end)
		}
		if end-start != numFloats*4 {
			return nil, fmt.Errorf("safetensors: tensor %q: data size %d doesn't match shape %v", name, end-start, meta.Shape)
		}

		values := make([]float32, numFloats)
		for i := range values {
			off := start + i*4
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[off : off+4]))
		}
		tensors[name] = tensor{shape: meta.Shape, data: values}
	}
	return tensors, nil
}

// take fetches name from tensors and checks its shape.
func take(tensors map[string]tensor, name string, shape ...int) ([]float32, error) {
	t, ok := tensors[name]
	if !ok {
		return nil, fmt.Errorf("weights: tensor %q not found", name)
	}
	if !slices.Equal(t.shape, shape) {
		return nil, fmt.Errorf("weights: tensor %q has shape %v, expected %v", name, t.shape, shape)
	}
	return t.data, nil
}
