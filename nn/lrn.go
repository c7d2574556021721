package nn

import (
	"errors"
	"fmt"
)

// NormRegion selects which neighborhood the normalization window slides over.
type NormRegion int

const (
	// NormAcrossChannels slides the window along the channel axis,
	// independently per spatial location.
	NormAcrossChannels NormRegion = iota
	// NormWithinChannel slides a 2D window spatially within each channel.
	// Recognized in configuration but not implemented by this package.
	NormWithinChannel
)

func (r NormRegion) String() string {
	switch r {
	case NormAcrossChannels:
		return "across_channels"
	case NormWithinChannel:
		return "within_channel"
	default:
		return fmt.Sprintf("NormRegion(%d)", int(r))
	}
}

var (
	// ErrUnknownNormRegion reports a region value outside the enum. This is
	// rejected once at construction, never at call time.
	ErrUnknownNormRegion = errors.New("lrn: unknown normalization region")

	// ErrWithinChannel reports the within-channel mode, which needs a 2D
	// spatial reduction this package does not provide.
	ErrWithinChannel = errors.New("lrn: within-channel normalization is not supported")
)

// LRNConfig holds the normalization hyperparameters, fixed for the layer's
// lifetime. Size is the channel window length (conventionally odd); Alpha,
// Beta and K follow the AlexNet formulation
// scale = K + Alpha/Size * windowed sum of squares, out = in * scale^-Beta.
type LRNConfig struct {
	Size   int
	Alpha  float64
	Beta   float64
	K      float64
	Region NormRegion
}

func (c LRNConfig) validate() error {
	if c.Size < 1 {
		return fmt.Errorf("lrn: window size must be >= 1, got %d", c.Size)
	}
	switch c.Region {
	case NormAcrossChannels:
		return nil
	case NormWithinChannel:
		return ErrWithinChannel
	default:
		return fmt.Errorf("%w: %d", ErrUnknownNormRegion, int(c.Region))
	}
}

// Layer is a cross-channel LRN layer over one storage/accumulation pairing.
// Instantiate explicitly for a supported combination, e.g.
//
//	layer, err := NewLayer[float32, float32, F32](cfg)
//	layer, err := NewLayer[Float16, float32, F16](cfg)
//
// The layer owns its scale buffer, an intermediate cache shaped like the
// input: Forward writes it and Backward reads it without recomputation, so
// Backward must follow the Forward call it belongs to.
type Layer[S any, A Accum, P Numerics[S, A]] struct {
	cfg   LRNConfig
	p     P
	run   Runner
	scale *Tensor[S]
}

// NewLayer validates the configuration and builds a layer. Invalid or
// unsupported regions fail here with a typed error.
func NewLayer[S any, A Accum, P Numerics[S, A]](cfg LRNConfig) (*Layer[S, A, P], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Layer[S, A, P]{cfg: cfg, run: RunParallel}, nil
}

// Config returns the immutable layer configuration.
func (l *Layer[S, A, P]) Config() LRNConfig { return l.cfg }

// Scale returns the internal scale buffer from the latest Forward call.
func (l *Layer[S, A, P]) Scale() *Tensor[S] { return l.scale }

// SetRunner swaps the task runner (default RunParallel). Useful for
// deterministic single-threaded debugging with RunSerial.
func (l *Layer[S, A, P]) SetRunner(run Runner) {
	if run != nil {
		l.run = run
	}
}

// Forward computes top = bottom * scale^-Beta, refreshing the scale buffer.
// bottom and top must share a shape; both are borrowed for the call only.
func (l *Layer[S, A, P]) Forward(bottom, top *Tensor[S]) {
	if l.scale == nil || l.scale.Shape != bottom.Shape {
		s := bottom.Shape
		l.scale = NewTensor[S](s[0], s[1], s[2], s[3])
	}
	alphaOverSize := A(l.cfg.Alpha / float64(l.cfg.Size))
	ScaleFill[S, A, P](l.p, l.run, bottom, l.scale, l.cfg.Size, alphaOverSize, A(l.cfg.K))
	OutputCompute[S, A, P](l.p, l.run, bottom, l.scale, top, A(l.cfg.Beta))
}

// Backward reads the upstream gradient from top.Grad and writes the input
// gradient to bottom.Grad, using the scale buffer produced by the matching
// Forward call.
func (l *Layer[S, A, P]) Backward(bottom, top *Tensor[S]) {
	DiffCompute[S, A, P](l.p, l.run, bottom, top, l.scale, l.cfg.Size, A(l.cfg.Alpha), A(l.cfg.Beta))
}
