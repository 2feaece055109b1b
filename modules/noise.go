package modules

import (
	"math/rand"
	"time"

	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

var (
	// NoiseOut is uniform white noise.
	NoiseOut = module.NewOutput[value.Float]("noise.out", "Noise")

	// NoiseModule generates white noise.
	NoiseModule = module.Describe("noise", "Noise", func() module.Module {
		return NewNoise(time.Now().UnixNano())
	}).Output(NoiseOut)
)

// Noise emits uniform samples in [-1, 1).
type Noise struct {
	rand *rand.Rand
}

// NewNoise returns seeded noise generator.
func NewNoise(seed int64) *Noise {
	return &Noise{rand: rand.New(rand.NewSource(seed))}
}

// Process implements module.Module.
func (n *Noise) Process(ctx module.Context) {
	module.Set(ctx, NoiseOut, value.Float(n.rand.Float64()*2-1))
}
