package signal_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/rack/signal"
	"github.com/dudk/rack/value"
)

func TestFromInts(t *testing.T) {
	tests := []struct {
		ints        []int
		numChannels int
		bitDepth    signal.BitDepth
		expected    []value.Frame
	}{
		{
			ints:        []int{1, 2, 1, 2},
			numChannels: 2,
			expected:    []value.Frame{value.Stereo(1, 2), value.Stereo(1, 2)},
		},
		{
			ints:        []int{1, 2, 1},
			numChannels: 2,
			expected:    []value.Frame{value.Stereo(1, 2)},
		},
		{
			ints:        []int{math.MaxInt16, -math.MaxInt16},
			numChannels: 1,
			bitDepth:    signal.BitDepth16,
			expected:    []value.Frame{value.Mono(1), value.Mono(-1)},
		},
		{
			ints:        []int{1, 2, 3, 4, 5, 6},
			numChannels: 3,
			expected:    []value.Frame{value.Stereo(1, 2), value.Stereo(4, 5)},
		},
		{
			ints:     nil,
			expected: nil,
		},
		{
			ints:     []int{1, 2, 3},
			expected: nil,
		},
	}

	for _, test := range tests {
		result := signal.FromInts(test.ints, test.numChannels, test.bitDepth)
		assert.Equal(t, test.expected, result)
	}
}

func TestToInts(t *testing.T) {
	frames := []value.Frame{value.Mono(0.5), value.Stereo(2, -1)}
	assert.Equal(t, []int{63, 63, 127, -127}, signal.ToInts(frames, 2, signal.BitDepth8))
	assert.Equal(t, []int{63, 63}, signal.ToInts(frames, 1, signal.BitDepth8))
	assert.Nil(t, signal.ToInts(frames, 0, signal.BitDepth8))
}

func TestInterleave(t *testing.T) {
	out := make([]float32, 4)
	n := signal.Interleave([]value.Frame{value.Stereo(0.5, -0.5), value.Mono(0.25), value.Mono(1)}, 2, out)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float32{0.5, -0.5, 0.25, 0.25}, out)
}

func TestResample(t *testing.T) {
	frames := []value.Frame{value.Mono(0), value.Mono(1), value.Mono(0), value.Mono(1)}
	up := signal.Resample(frames, 1, 2)
	assert.Len(t, up, 8)
	assert.InDelta(t, 0.5, up[1].Mono(), 1e-9)
	assert.Equal(t, frames[3], up[7])

	down := signal.Resample(frames, 2, 1)
	assert.Equal(t, []value.Frame{value.Mono(0), value.Mono(0)}, down)
	assert.Equal(t, frames, signal.Resample(frames, 44100, 44100))
}

func TestDuration(t *testing.T) {
	assert.Equal(t, time.Second, signal.DurationOf(44100, 44100))
	assert.Equal(t, 6615, signal.FramesIn(44100, 150*time.Millisecond))
}
