package classifier

import (
	"fmt"
	"strconv"
)

// Architecture describes the PlantCNN layout: five blocks of
// conv3x3(pad 1) → ReLU → conv3x3(pad 0) → ReLU → maxpool2, then
// flatten → linear(Hidden) → ReLU → linear(Classes).
type Architecture struct {
	InputSize int
	Widths    [5]int
	Hidden    int
	Classes   int
}

// PlantCNN is the production network trained on 128×128 PlantVillage images.
var PlantCNN = Architecture{
	InputSize: 128,
	Widths:    [5]int{32, 64, 128, 256, 512},
	Hidden:    1500,
	Classes:   len(Taxonomy),
}

// FinalSpatial is the feature-map side length after the last pooling layer.
func (a Architecture) FinalSpatial() int {
	s := a.InputSize
	for range a.Widths {
		s = (s - 2) / 2
	}
	return s
}

// FlattenSize is the input width of the first linear layer.
func (a Architecture) FlattenSize() int {
	s := a.FinalSpatial()
	return a.Widths[4] * s * s
}

func (a Architecture) Validate() error {
	s := a.InputSize
	for i, w := range a.Widths {
		if w <= 0 {
			return fmt.Errorf("architecture: block %d width must be positive, got %d", i, w)
		}
		if s-2 < 2 {
			return fmt.Errorf("architecture: input size %d too small for five blocks", a.InputSize)
		}
		s = (s - 2) / 2
	}
	if a.Hidden <= 0 || a.Classes <= 0 {
		return fmt.Errorf("architecture: hidden (%d) and classes (%d) must be positive", a.Hidden, a.Classes)
	}
	return nil
}

// convTensorName returns the state-dict prefix of the i-th convolution
// (0..9). Each block occupies five sequential slots: conv, relu, conv, relu, pool.
func convTensorName(i int) string {
	return "features." + strconv.Itoa(5*(i/2)+2*(i%2))
}

const (
	hiddenTensorName = "classifier.1"
	outputTensorName = "classifier.4"
)
