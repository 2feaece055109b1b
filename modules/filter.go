package modules

import (
	"fmt"
	"math"

	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

// FilterType selects biquad response.
type FilterType int

const (
	// LowPass passes frequencies below cutoff.
	LowPass FilterType = iota
	// HighPass passes frequencies above cutoff.
	HighPass
)

func (t FilterType) String() string {
	if t == HighPass {
		return "highpass"
	}
	return "lowpass"
}

var (
	// FilterIn is the filtered signal.
	FilterIn = module.NewInput("filter.in", "Input", value.Silence,
		module.Accept(func(f value.Float) value.Frame {
			return value.Mono(float64(f))
		}))
	// FilterCutoff is the cutoff frequency in Hz.
	FilterCutoff = module.NewInput("filter.cutoff", "Cutoff", value.Float(50),
		module.Range(1, 20000),
		module.Inspect(hertz))
	// FilterOut is the filtered signal.
	FilterOut = module.NewOutput[value.Frame]("filter.out", "Output")

	// FilterModule is a butterworth biquad filter.
	FilterModule = module.Describe("filter", "Filter", func() module.Module {
		return &Filter{}
	}).Input(FilterIn, FilterCutoff).Output(FilterOut)
)

// butterworthQ is the quality factor of the second order butterworth.
var butterworthQ = 1 / math.Sqrt2

// biquad is a transposed direct form II section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	d0, d1             float64
}

func (s *biquad) process(x float64) float64 {
	y := s.b0*x + s.d0
	s.d0 = s.b1*x - s.a1*y + s.d1
	s.d1 = s.b2*x - s.a2*y
	return y
}

// design sets coefficients and keeps the state.
func (s *biquad) design(t FilterType, freq, sampleRate float64) {
	w0 := 2 * math.Pi * freq / sampleRate
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * butterworthQ)
	a0 := 1 + alpha
	var b0, b1, b2 float64
	if t == HighPass {
		b0, b1, b2 = (1+cw)/2, -(1 + cw), (1+cw)/2
	} else {
		b0, b1, b2 = (1-cw)/2, 1-cw, (1-cw)/2
	}
	s.b0, s.b1, s.b2 = b0/a0, b1/a0, b2/a0
	s.a1, s.a2 = -2*cw/a0, (1-alpha)/a0
}

// Filter applies biquad per channel. Coefficients are recomputed when
// type, cutoff or sample rate change.
type Filter struct {
	Type FilterType

	left, right biquad
	designed    bool
	typ         FilterType
	cutoff      float64
	sampleRate  int
}

// Process implements module.Module.
func (f *Filter) Process(ctx module.Context) {
	cutoff := clampCutoff(float64(module.Get(ctx, FilterCutoff)), ctx.SampleRate())
	if !f.designed || cutoff != f.cutoff || f.Type != f.typ || ctx.SampleRate() != f.sampleRate {
		f.left.design(f.Type, cutoff, float64(ctx.SampleRate()))
		f.right.design(f.Type, cutoff, float64(ctx.SampleRate()))
		f.designed, f.cutoff, f.typ, f.sampleRate = true, cutoff, f.Type, ctx.SampleRate()
	}

	in := module.Get(ctx, FilterIn)
	var out value.Frame
	if in.Stereo {
		out = value.Stereo(f.left.process(in.Left), f.right.process(in.Right))
	} else {
		out = value.Mono(f.left.process(in.Left))
	}
	module.Set(ctx, FilterOut, out)
}

// Describe implements module.Describer.
func (f *Filter) Describe() string {
	return fmt.Sprintf("%v %.0f Hz", f.Type, f.cutoff)
}

// clampCutoff keeps cutoff in [1, nyquist).
func clampCutoff(freq float64, sampleRate int) float64 {
	nyquist := float64(sampleRate)/2 - 1
	if freq > nyquist {
		freq = nyquist
	}
	if freq < 1 || math.IsNaN(freq) {
		freq = 1
	}
	return freq
}
