// Package signal converts between rack frames and PCM data:
//	- interleaved int samples to frames and back
//	- frame sequences between sample rates
package signal

import (
	"math"
	"time"

	"github.com/dudk/rack/value"
)

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// max returns the largest magnitude of the bit depth.
func (bitDepth BitDepth) max() float64 {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// DurationOf returns time duration of frames for this sample rate.
func DurationOf(sampleRate int, frames int64) time.Duration {
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}

// FramesIn returns number of whole frames in the duration.
func FramesIn(sampleRate int, d time.Duration) int {
	return int(float64(sampleRate) * d.Seconds())
}

// FromInts converts interleaved int samples to frames. Mono data results
// in mono frames, the first two channels are used otherwise. Incomplete
// trailing frame is dropped.
func FromInts(data []int, numChannels int, bitDepth BitDepth) []value.Frame {
	if numChannels <= 0 || len(data) < numChannels {
		return nil
	}
	div := bitDepth.max()
	frames := make([]value.Frame, len(data)/numChannels)
	for i := range frames {
		pos := i * numChannels
		if numChannels == 1 {
			frames[i] = value.Mono(float64(data[pos]) / div)
			continue
		}
		frames[i] = value.Stereo(float64(data[pos])/div, float64(data[pos+1])/div)
	}
	return frames
}

// ToInts converts frames to interleaved int samples. Samples are clipped
// to [-1, 1].
func ToInts(frames []value.Frame, numChannels int, bitDepth BitDepth) []int {
	if numChannels <= 0 {
		return nil
	}
	mul := bitDepth.max()
	ints := make([]int, len(frames)*numChannels)
	for i, f := range frames {
		pos := i * numChannels
		if numChannels == 1 {
			ints[pos] = int(clip(f.Mono()) * mul)
			continue
		}
		l, r := f.Channels()
		ints[pos] = int(clip(l) * mul)
		ints[pos+1] = int(clip(r) * mul)
	}
	return ints
}

// Interleave writes frames into interleaved float32 buffer and returns
// number of frames written.
func Interleave(frames []value.Frame, numChannels int, out []float32) int {
	n := len(out) / numChannels
	if len(frames) < n {
		n = len(frames)
	}
	for i := 0; i < n; i++ {
		if numChannels == 1 {
			out[i] = float32(frames[i].Mono())
			continue
		}
		l, r := frames[i].Channels()
		out[i*numChannels] = float32(l)
		out[i*numChannels+1] = float32(r)
	}
	return n
}

// Resample converts frames between sample rates with linear interpolation.
func Resample(frames []value.Frame, from, to int) []value.Frame {
	if from == to || from <= 0 || to <= 0 || len(frames) == 0 {
		return frames
	}
	ratio := float64(from) / float64(to)
	size := int(float64(len(frames)) / ratio)
	result := make([]value.Frame, size)
	for i := range result {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(frames)-1 {
			result[i] = frames[len(frames)-1]
			continue
		}
		frac := pos - float64(idx)
		result[i] = frames[idx].Scale(1 - frac).Add(frames[idx+1].Scale(frac))
	}
	return result
}

func clip(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
