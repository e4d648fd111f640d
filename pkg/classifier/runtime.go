// Package classifier owns the trained leaf-disease network: loading, the
// preprocessing contract, device selection and prediction.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"plantguard-be/internal/pkg/logger"
	"plantguard-be/pkg/imaging"
)

const module = "classifier"

// ErrInvalidImage is returned by Predict when a real inference is requested
// for bytes that do not decode to an image.
var ErrInvalidImage = errors.New("classifier: invalid image")

type Device string

const (
	DeviceAuto Device = "auto"
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

const (
	DefaultModelKey = "general"

	demoLabel      = "Tomato___Late_blight"
	demoConfidence = 0.87
	demoModelUsed  = "general (demo)"
)

// placeholderModels are specialist variants announced but not shipped yet.
var placeholderModels = map[string]bool{
	"soynet":   true,
	"fivecrop": true,
}

// IsPlaceholderModel reports whether key names a "coming soon" variant.
func IsPlaceholderModel(key string) bool {
	return placeholderModels[key]
}

// State is either Ready or Unavailable.
type State interface {
	isState()
}

// Ready holds a loaded network and the device it runs on.
type Ready struct {
	Network Network
	Device  Device
}

// Unavailable means weights could not be loaded; predictions run in demo mode.
type Unavailable struct {
	Reason error
}

func (Ready) isState()       {}
func (Unavailable) isState() {}

// Result is one prediction. Placeholder results carry only Status and ModelUsed.
type Result struct {
	Disease    string
	Confidence float64
	ModelUsed  string
	Status     string
}

// IsPlaceholder reports whether r is a "coming soon" stub without a diagnosis.
func (r Result) IsPlaceholder() bool {
	return r.Disease == ""
}

type Options struct {
	WeightsPath  string
	Device       Device
	OnnxLibPath  string
	Architecture Architecture
	Workers      int // native backend only; 0 = NumCPU
}

// Runtime is constructed once at startup and shared by all requests.
type Runtime struct {
	state    State
	taxonomy []string
	arch     Architecture
	current  atomic.Value // string, last requested model key
	log      logger.ILogger
}

// Load builds the network described by opts. It never fails: a missing or
// incompatible weights file puts the runtime in demo mode.
func Load(opts Options, log logger.ILogger) *Runtime {
	if opts.Architecture == (Architecture{}) {
		opts.Architecture = PlantCNN
	}
	if opts.Device == "" {
		opts.Device = DeviceAuto
	}

	r := &Runtime{taxonomy: Taxonomy, arch: opts.Architecture, log: log}
	r.current.Store(DefaultModelKey)

	if _, err := os.Stat(opts.WeightsPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn(module, "Weights not found, running in DEMO mode", map[string]interface{}{"path": opts.WeightsPath})
		} else {
			log.Warn(module, "Cannot access weights, running in DEMO mode", map[string]interface{}{"path": opts.WeightsPath, "error": err.Error()})
		}
		r.state = Unavailable{Reason: err}
		return r
	}

	net, device, err := openNetwork(opts, log)
	if err != nil {
		log.Warn(module, "Error loading model, running in DEMO mode", map[string]interface{}{"path": opts.WeightsPath, "error": err.Error()})
		r.state = Unavailable{Reason: err}
		return r
	}

	log.Info(module, "Model loaded", map[string]interface{}{"path": opts.WeightsPath, "device": string(device)})
	r.state = Ready{Network: net, Device: device}
	return r
}

// New wraps an already constructed network. Used by tests and alternative loaders.
func New(net Network, device Device, taxonomy []string, log logger.ILogger) *Runtime {
	r := &Runtime{taxonomy: taxonomy, arch: net.Architecture(), log: log}
	r.current.Store(DefaultModelKey)
	r.state = Ready{Network: net, Device: device}
	return r
}

func openNetwork(opts Options, log logger.ILogger) (Network, Device, error) {
	if strings.EqualFold(filepath.Ext(opts.WeightsPath), ".onnx") {
		return newONNXNetwork(opts.WeightsPath, opts.OnnxLibPath, opts.Architecture, opts.Device)
	}
	if opts.Device == DeviceCUDA {
		log.Warn(module, "CUDA requested but native backend is CPU only", nil)
	}
	net, err := newNativeNetwork(opts.WeightsPath, opts.Architecture, opts.Workers)
	if err != nil {
		return nil, "", err
	}
	return net, DeviceCPU, nil
}

func (r *Runtime) State() State { return r.state }

// Mode is "ready" or "demo".
func (r *Runtime) Mode() string {
	if _, ok := r.state.(Ready); ok {
		return "ready"
	}
	return "demo"
}

// Device returns the compute device, empty in demo mode.
func (r *Runtime) Device() Device {
	if ready, ok := r.state.(Ready); ok {
		return ready.Device
	}
	return ""
}

// CurrentModelKey is the last requested model key. Informational only.
func (r *Runtime) CurrentModelKey() string {
	return r.current.Load().(string)
}

// Predict classifies an encoded leaf image.
func (r *Runtime) Predict(ctx context.Context, imageBytes []byte, modelKey string) (Result, error) {
	if modelKey == "" {
		modelKey = DefaultModelKey
	}
	r.current.Store(modelKey)

	if IsPlaceholderModel(modelKey) {
		return Result{
			Status:    fmt.Sprintf("%s model coming soon — stay tuned.", modelKey),
			ModelUsed: modelKey,
		}, nil
	}

	switch st := r.state.(type) {
	case Unavailable:
		return Result{Disease: demoLabel, Confidence: demoConfidence, ModelUsed: demoModelUsed}, nil
	case Ready:
		return r.infer(ctx, st.Network, imageBytes, modelKey)
	default:
		return Result{}, fmt.Errorf("classifier: unknown runtime state %T", st)
	}
}

func (r *Runtime) infer(ctx context.Context, net Network, imageBytes []byte, modelKey string) (Result, error) {
	img, _, err := imaging.DecodeRGB(imageBytes)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	input := Preprocess(img, r.arch.InputSize)

	logits, err := net.Forward(ctx, input)
	if err != nil {
		return Result{}, fmt.Errorf("classifier: forward pass: %w", err)
	}

	idx, prob := argmaxSoftmax(logits)
	return Result{
		Disease:    LabelFor(r.taxonomy, idx),
		Confidence: math.Round(prob*1e4) / 1e4,
		ModelUsed:  modelKey,
	}, nil
}

// Close releases backend resources.
func (r *Runtime) Close() error {
	if ready, ok := r.state.(Ready); ok {
		return ready.Network.Close()
	}
	return nil
}

// argmaxSoftmax returns the index of the largest logit and its softmax probability.
func argmaxSoftmax(logits []float32) (int, float64) {
	if len(logits) == 0 {
		return 0, 0
	}
	best := 0
	for i, v := range logits {
		if v > logits[best] {
			best = i
		}
	}
	maxLogit := float64(logits[best])
	var sum float64
	for _, v := range logits {
		sum += math.Exp(float64(v) - maxLogit)
	}
	return best, 1 / sum
}
