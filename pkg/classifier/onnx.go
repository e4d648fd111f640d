package classifier

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// onnxNetwork runs an exported PlantCNN through ONNX Runtime. The session is
// created once; Run is safe to call from multiple goroutines.
type onnxNetwork struct {
	arch       Architecture
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
}

var _ Network = (*onnxNetwork)(nil)

// newONNXNetwork opens modelPath on the requested device. With DeviceAuto the
// CUDA execution provider is tried first and the CPU is used when it cannot be
// initialized. It returns the device actually selected.
func newONNXNetwork(modelPath, libPath string, arch Architecture, device Device) (*onnxNetwork, Device, error) {
	if err := arch.Validate(); err != nil {
		return nil, "", err
	}
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, "", fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, "", fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, "", fmt.Errorf("onnx: expected 1 input and at least 1 output, got %d/%d", len(inputs), len(outputs))
	}
	if err := checkIODims(inputs[0].Dimensions, outputs[0].Dimensions, arch); err != nil {
		return nil, "", err
	}

	var session *ort.DynamicAdvancedSession
	selected := DeviceCPU
	if device == DeviceCUDA || device == DeviceAuto {
		session, err = newORTSession(modelPath, inputs[0].Name, outputs[0].Name, true)
		if err == nil {
			selected = DeviceCUDA
		} else if device == DeviceCUDA {
			return nil, "", err
		}
	}
	if session == nil {
		session, err = newORTSession(modelPath, inputs[0].Name, outputs[0].Name, false)
		if err != nil {
			return nil, "", err
		}
	}

	return &onnxNetwork{
		arch:       arch,
		session:    session,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
	}, selected, nil
}

// checkIODims matches the model's declared tensor shapes against arch.
// Non-positive dimensions are dynamic and accepted.
func checkIODims(in, out ort.Shape, arch Architecture) error {
	fixed := func(d int64, want int) bool { return d <= 0 || int(d) == want }
	if len(in) != 4 || !fixed(in[1], 3) || !fixed(in[2], arch.InputSize) || !fixed(in[3], arch.InputSize) {
		return fmt.Errorf("onnx: expected [N,3,%d,%d] input tensor, got %v", arch.InputSize, arch.InputSize, in)
	}
	if len(out) != 2 || !fixed(out[1], arch.Classes) {
		return fmt.Errorf("onnx: expected [N,%d] output tensor, got %v", arch.Classes, out)
	}
	return nil
}

func newORTSession(modelPath, input, output string, cuda bool) (*ort.DynamicAdvancedSession, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)

	if cuda {
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("onnx: cuda provider unavailable: %w", err)
		}
		defer cudaOpts.Destroy()
		if err := opts.AppendExecutionProviderCUDA(cudaOpts); err != nil {
			return nil, fmt.Errorf("onnx: failed to enable cuda provider: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{input}, []string{output}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}
	return session, nil
}

func (n *onnxNetwork) Architecture() Architecture { return n.arch }

func (n *onnxNetwork) Forward(ctx context.Context, input []float32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	size := int64(n.arch.InputSize)
	tIn, err := ort.NewTensor(ort.NewShape(1, 3, size, size), input)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(n.arch.Classes)))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := n.session.Run([]ort.Value{tIn}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	// Copy data out before tensor is destroyed.
	src := tOut.GetData()
	logits := make([]float32, len(src))
	copy(logits, src)
	return logits, nil
}

func (n *onnxNetwork) Close() error {
	return n.session.Destroy()
}
