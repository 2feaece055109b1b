package modules

import (
	"fmt"
	"math"

	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

// Wave is a shape of oscillator signal.
type Wave int

const (
	// Sine wave.
	Sine Wave = iota
	// Square wave.
	Square
	// Triangle wave.
	Triangle
	// Saw wave.
	Saw
)

var waveNames = [...]string{"sine", "square", "triangle", "saw"}

func (w Wave) String() string {
	if w < 0 || int(w) >= len(waveNames) {
		return fmt.Sprintf("wave(%d)", int(w))
	}
	return waveNames[w]
}

// ParseWave returns the wave by its name.
func ParseWave(s string) (Wave, error) {
	for i, name := range waveNames {
		if name == s {
			return Wave(i), nil
		}
	}
	return 0, fmt.Errorf("unknown wave %q", s)
}

var (
	// OscillatorFreq is a frequency in Hz.
	OscillatorFreq = module.NewInput("oscillator.freq", "Frequency", value.Float(70),
		module.Range(0, 20000),
		module.Inspect(hertz))
	// OscillatorSample is the generated sample.
	OscillatorSample = module.NewOutput[value.Float]("oscillator.sample", "Sample")

	// OscillatorModule generates periodic waves.
	OscillatorModule = module.Describe("oscillator", "Oscillator", func() module.Module {
		return NewOscillator(Sine)
	}).Input(OscillatorFreq).Output(OscillatorSample)
)

// Oscillator generates periodic signal. Phase is kept in [0, 1).
type Oscillator struct {
	Wave Wave
	// Alternating output is in [-1, 1], otherwise it's in [0, 1].
	Alternating bool

	phase float64
}

// NewOscillator returns alternating oscillator of the wave.
func NewOscillator(w Wave) *Oscillator {
	return &Oscillator{
		Wave:        w,
		Alternating: true,
	}
}

// Process implements module.Module.
func (o *Oscillator) Process(ctx module.Context) {
	freq := float64(module.Get(ctx, OscillatorFreq))

	var v float64
	switch o.Wave {
	case Sine:
		v = math.Sin(o.phase * 2 * math.Pi)
	case Square:
		v = math.Round(o.phase)*2 - 1
	case Triangle:
		v = math.Abs((1-o.phase)*4-2) - 1
	case Saw:
		v = o.phase*2 - 1
	}
	if !o.Alternating {
		v = (v + 1) / 2
	}

	o.phase = math.Mod(o.phase+freq/float64(ctx.SampleRate()), 1)
	if o.phase < 0 {
		o.phase++
	}
	module.Set(ctx, OscillatorSample, value.Float(v))
}

// Describe implements module.Describer.
func (o *Oscillator) Describe() string {
	if o.Alternating {
		return o.Wave.String()
	}
	return o.Wave.String() + " unipolar"
}

func hertz(v value.Value) string {
	return fmt.Sprintf("%.1f Hz", v.Preview())
}
