package wav_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/rack/loader"
	"github.com/dudk/rack/signal"
	"github.com/dudk/rack/value"
	"github.com/dudk/rack/wav"
)

func TestSink(t *testing.T) {
	tests := []struct {
		numChannels int
		bitDepth    signal.BitDepth
		expected    []value.Frame
	}{
		{
			numChannels: 2,
			bitDepth:    signal.BitDepth16,
			expected:    []value.Frame{value.Stereo(1, -1), value.Stereo(0, 0), value.Stereo(0.5, 0.5)},
		},
		{
			numChannels: 1,
			bitDepth:    signal.BitDepth32,
			expected:    []value.Frame{value.Mono(0), value.Mono(0), value.Mono(0.5)},
		},
	}
	frames := []value.Frame{value.Stereo(1, -1), value.Silence, value.Mono(0.5)}
	for _, test := range tests {
		path := filepath.Join(t.TempDir(), "out.wav")
		sink, err := wav.NewSink(path, 8000, test.numChannels, test.bitDepth)
		require.NoError(t, err)
		require.NoError(t, sink.Write(frames[:2]))
		require.NoError(t, sink.Write(frames[2:]))
		require.NoError(t, sink.Close())

		clip, err := loader.Decode(path)
		require.NoError(t, err)
		assert.Equal(t, 8000, clip.SampleRate)
		require.Len(t, clip.Frames, len(test.expected))
		for i, f := range clip.Frames {
			assert.Equal(t, test.expected[i].Stereo, f.Stereo)
			assert.InDelta(t, test.expected[i].Left, f.Left, 1e-3)
			assert.InDelta(t, test.expected[i].Right, f.Right, 1e-3)
		}
	}

	_, err := wav.NewSink(filepath.Join(t.TempDir(), "out.wav"), 8000, 2, signal.BitDepth8)
	assert.ErrorIs(t, err, wav.ErrUnsupportedBitDepth)
}
