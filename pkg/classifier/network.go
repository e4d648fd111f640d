package classifier

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Network runs a forward pass over one preprocessed image.
type Network interface {
	// Forward takes a [3, S, S] tensor and returns one logit per class.
	Forward(ctx context.Context, input []float32) ([]float32, error)
	Architecture() Architecture
	Close() error
}

type convLayer struct {
	weight []float32 // [out, in, 3, 3]
	bias   []float32 // [out]
	in     int
	out    int
	pad    int
}

type linearLayer struct {
	weight []float32 // row-major [out, in]
	bias   []float32
	in     int
	out    int
}

// nativeNetwork evaluates PlantCNN on the CPU. Weights are read-only after
// construction so Forward is safe for concurrent use.
type nativeNetwork struct {
	arch    Architecture
	convs   [10]convLayer
	hidden  linearLayer
	output  linearLayer
	workers int
}

var _ Network = (*nativeNetwork)(nil)

// newNativeNetwork loads PlantCNN weights from a safetensors file and checks
// every tensor against arch.
func newNativeNetwork(path string, arch Architecture, workers int) (*nativeNetwork, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	tensors, err := loadSafetensors(path)
	if err != nil {
		return nil, err
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	n := &nativeNetwork{arch: arch, workers: workers}

	in := 3
	for i := range n.convs {
		out := arch.Widths[i/2]
		name := convTensorName(i)
		w, err := take(tensors, name+".weight", out, in, 3, 3)
		if err != nil {
			return nil, err
		}
		b, err := take(tensors, name+".bias", out)
		if err != nil {
			return nil, err
		}
		pad := 1
		if i%2 == 1 {
			pad = 0
		}
		n.convs[i] = convLayer{weight: w, bias: b, in: in, out: out, pad: pad}
		in = out
	}

	flat := arch.FlattenSize()
	if n.hidden, err = loadLinear(tensors, hiddenTensorName, flat, arch.Hidden); err != nil {
		return nil, err
	}
	if n.output, err = loadLinear(tensors, outputTensorName, arch.Hidden, arch.Classes); err != nil {
		return nil, err
	}
	return n, nil
}

func loadLinear(tensors map[string]tensor, name string, in, out int) (linearLayer, error) {
	w, err := take(tensors, name+".weight", out, in)
	if err != nil {
		return linearLayer{}, err
	}
	b, err := take(tensors, name+".bias", out)
	if err != nil {
		return linearLayer{}, err
	}
	return linearLayer{weight: w, bias: b, in: in, out: out}, nil
}

func (n *nativeNetwork) Architecture() Architecture { return n.arch }

func (n *nativeNetwork) Close() error { return nil }

func (n *nativeNetwork) Forward(ctx context.Context, input []float32) ([]float32, error) {
	size := n.arch.InputSize
	if len(input) != 3*size*size {
		return nil, fmt.Errorf("forward: expected %d input values, got %d", 3*size*size, len(input))
	}

	x, side := input, size
	for i := range n.convs {
		var err error
		x, side, err = n.conv(ctx, &n.convs[i], x, side)
		if err != nil {
			return nil, err
		}
		if i%2 == 1 {
			x, side = maxPool2(x, n.convs[i].out, side)
		}
	}

	// flatten is a no-op: x is already [C*H*W] in channel-major order
	h, err := n.linear(ctx, &n.hidden, x, true)
	if err != nil {
		return nil, err
	}
	return n.linear(ctx, &n.output, h, false)
}

// conv applies a 3x3 convolution with stride 1 followed by ReLU. Output
// channels are computed in parallel; each goroutine owns a disjoint slice.
func (n *nativeNetwork) conv(ctx context.Context, l *convLayer, input []float32, side int) ([]float32, int, error) {
	outSide := side + 2*l.pad - 2
	plane := outSide * outSide
	out := make([]float32, l.out*plane)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)
	for o := 0; o < l.out; o++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			conv3x3(out[o*plane:(o+1)*plane], input, l.weight[o*l.in*9:(o+1)*l.in*9], l.bias[o], l.in, side, outSide, l.pad)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return out, outSide, nil
}

// conv3x3 computes one output channel. kernel is [in, 3, 3].
func conv3x3(dst, input, kernel []float32, bias float32, inC, side, outSide, pad int) {
	for i := range dst {
		dst[i] = bias
	}
	inPlane := side * side
	for c := 0; c < inC; c++ {
		src := input[c*inPlane : (c+1)*inPlane]
		for ky := 0; ky < 3; ky++ {
			for kx := 0; kx < 3; kx++ {
				w := kernel[(c*3+ky)*3+kx]
				if w == 0 {
					continue
				}
				// valid x range where 0 <= x+kx-pad < side
				x0, x1 := 0, outSide
				if pad-kx > 0 {
					x0 = pad - kx
				}
				if lim := side - kx + pad; lim < x1 {
					x1 = lim
				}
				for y := 0; y < outSide; y++ {
					iy := y + ky - pad
					if iy < 0 || iy >= side {
						continue
					}
					row := dst[y*outSide : (y+1)*outSide]
					base := iy*side + kx - pad
					for x := x0; x < x1; x++ {
						row[x] += w * src[base+x]
					}
				}
			}
		}
	}
	for i, v := range dst {
		if v < 0 {
			dst[i] = 0
		}
	}
}

// maxPool2 applies 2x2 max pooling with stride 2, dropping an odd trailing row/column.
func maxPool2(input []float32, channels, side int) ([]float32, int) {
	outSide := side / 2
	out := make([]float32, channels*outSide*outSide)
	for c := 0; c < channels; c++ {
		src := input[c*side*side:]
		dst := out[c*outSide*outSide:]
		for y := 0; y < outSide; y++ {
			for x := 0; x < outSide; x++ {
				i := 2*y*side + 2*x
				m := src[i]
				if v := src[i+1]; v > m {
					m = v
				}
				if v := src[i+side]; v > m {
					m = v
				}
				if v := src[i+side+1]; v > m {
					m = v
				}
				dst[y*outSide+x] = m
			}
		}
	}
	return out, outSide
}

func (n *nativeNetwork) linear(ctx context.Context, l *linearLayer, input []float32, relu bool) ([]float32, error) {
	if len(input) != l.in {
		return nil, fmt.Errorf("forward: linear layer expects %d inputs, got %d", l.in, len(input))
	}
	out := make([]float32, l.out)

	chunk := (l.out + n.workers - 1) / n.workers
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < l.out; start += chunk {
		end := min(start+chunk, l.out)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for o := start; o < end; o++ {
				row := l.weight[o*l.in : (o+1)*l.in]
				sum := l.bias[o]
				for i, w := range row {
					sum += w * input[i]
				}
				if relu && sum < 0 {
					sum = 0
				}
				out[o] = sum
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
