package value

import (
	"fmt"
	"strconv"
)

// Built-in type tags.
const (
	FloatType = Type("float")
	BoolType  = Type("bool")
	FrameType = Type("frame")
)

// Float is a scalar control or audio sample value.
type Float float64

// Type implements Value.
func (Float) Type() Type { return FloatType }

// Clone implements Value.
func (f Float) Clone() Value { return f }

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'f', 2, 64) }

// Preview implements Value.
func (f Float) Preview() float64 { return float64(f) }

// Bool is a gate or switch value.
type Bool bool

// Type implements Value.
func (Bool) Type() Type { return BoolType }

// Clone implements Value.
func (b Bool) Clone() Value { return b }

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Preview implements Value.
func (b Bool) Preview() float64 {
	if b {
		return 1
	}
	return 0
}

// Frame is a single audio frame. A mono frame keeps its sample in Left.
type Frame struct {
	Left   float64
	Right  float64
	Stereo bool
}

// Silence is a mono frame of zero amplitude.
var Silence = Frame{}

// Mono returns a mono frame.
func Mono(sample float64) Frame {
	return Frame{Left: sample}
}

// Stereo returns a stereo frame.
func Stereo(left, right float64) Frame {
	return Frame{Left: left, Right: right, Stereo: true}
}

// Type implements Value.
func (Frame) Type() Type { return FrameType }

// Clone implements Value.
func (f Frame) Clone() Value { return f }

func (f Frame) String() string {
	if f.Stereo {
		return fmt.Sprintf("Stereo(%.3f,%.3f)", f.Left, f.Right)
	}
	return fmt.Sprintf("Mono(%.3f)", f.Left)
}

// Preview implements Value.
func (f Frame) Preview() float64 { return f.Mono() }

// Mono returns mean of channels.
func (f Frame) Mono() float64 {
	if f.Stereo {
		return (f.Left + f.Right) / 2
	}
	return f.Left
}

// Channels returns left and right samples. Mono frames are duplicated.
func (f Frame) Channels() (float64, float64) {
	if f.Stereo {
		return f.Left, f.Right
	}
	return f.Left, f.Left
}

// Add sums two frames. The result is stereo if any of operands is stereo.
func (f Frame) Add(o Frame) Frame {
	if !f.Stereo && !o.Stereo {
		return Mono(f.Left + o.Left)
	}
	l1, r1 := f.Channels()
	l2, r2 := o.Channels()
	return Stereo(l1+l2, r1+r2)
}

// Scale multiplies every channel by k.
func (f Frame) Scale(k float64) Frame {
	return Frame{Left: f.Left * k, Right: f.Right * k, Stereo: f.Stereo}
}
