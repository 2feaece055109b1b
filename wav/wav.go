// Package wav writes rendered frames to wav files.
package wav

import (
	"errors"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dudk/rack/signal"
	"github.com/dudk/rack/value"
)

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth is supported")

// pcmFormat is the wav format tag of integer PCM.
const pcmFormat = 1

// Sink saves frames to wav file.
type Sink struct {
	bitDepth    signal.BitDepth
	numChannels int
	file        *os.File
	encoder     *wav.Encoder
	buf         *audio.IntBuffer
}

// NewSink creates the file and writes wav header.
func NewSink(path string, sampleRate, numChannels int, bitDepth signal.BitDepth) (*Sink, error) {
	if bitDepth != signal.BitDepth16 && bitDepth != signal.BitDepth32 {
		return nil, ErrUnsupportedBitDepth
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Sink{
		bitDepth:    bitDepth,
		numChannels: numChannels,
		file:        f,
		encoder:     wav.NewEncoder(f, sampleRate, int(bitDepth), numChannels, pcmFormat),
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: numChannels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: int(bitDepth),
		},
	}, nil
}

// Write appends frames.
func (s *Sink) Write(frames []value.Frame) error {
	s.buf.Data = signal.ToInts(frames, s.numChannels, s.bitDepth)
	return s.encoder.Write(s.buf)
}

// Close flushes encoder and closes the file.
func (s *Sink) Close() error {
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
