// Package portaudio provides output device backed by the default portaudio
// output stream.
package portaudio

import (
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/dudk/rack/output"
	"github.com/dudk/rack/signal"
	"github.com/dudk/rack/value"
)

// Device plays frames with default output device.
type Device struct {
	sampleRate      int
	numChannels     int
	framesPerBuffer int
	stream          *portaudio.Stream
	src             output.Source
	failed          atomic.Bool
	underruns       atomic.Int64
}

// Opener returns opener of the default device. Zero sample rate means
// default rate of the device.
func Opener(sampleRate, framesPerBuffer int) output.Opener {
	return func() (output.Device, error) {
		return Open(sampleRate, framesPerBuffer)
	}
}

// Open initializes portaudio and resolves device parameters.
func Open(sampleRate, framesPerBuffer int) (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	info, err := portaudio.DefaultOutputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if sampleRate == 0 {
		sampleRate = int(info.DefaultSampleRate)
	}
	numChannels := 2
	if info.MaxOutputChannels < numChannels {
		numChannels = info.MaxOutputChannels
	}
	if numChannels < 1 {
		portaudio.Terminate()
		return nil, fmt.Errorf("device %s has no output channels", info.Name)
	}
	return &Device{
		sampleRate:      sampleRate,
		numChannels:     numChannels,
		framesPerBuffer: framesPerBuffer,
	}, nil
}

// SampleRate implements output.Device.
func (d *Device) SampleRate() int {
	return d.sampleRate
}

// Start opens the stream which consumes the source.
func (d *Device) Start(src output.Source) error {
	d.src = src
	stream, err := portaudio.OpenDefaultStream(0, d.numChannels, float64(d.sampleRate), d.framesPerBuffer, d.process)
	if err != nil {
		d.failed.Store(true)
		return err
	}
	if err := stream.Start(); err != nil {
		d.failed.Store(true)
		stream.Close()
		return err
	}
	d.stream = stream
	return nil
}

// process is called on the real-time thread. It substitutes silence when
// the source is empty.
func (d *Device) process(out []float32) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Store(true)
			for i := range out {
				out[i] = 0
			}
		}
	}()
	if d.failed.Load() {
		for i := range out {
			out[i] = 0
		}
		return
	}
	var frame [1]value.Frame
	for i := 0; i < len(out)/d.numChannels; i++ {
		f, ok := d.src.Pop()
		if !ok {
			d.underruns.Add(1)
		}
		frame[0] = f
		signal.Interleave(frame[:], d.numChannels, out[i*d.numChannels:(i+1)*d.numChannels])
	}
}

// Underruns returns number of frames substituted with silence.
func (d *Device) Underruns() int64 {
	return d.underruns.Load()
}

// Failed implements output.Device.
func (d *Device) Failed() bool {
	return d.failed.Load()
}

// Close stops the stream and terminates portaudio.
func (d *Device) Close() error {
	if d.stream != nil {
		if err := d.stream.Stop(); err != nil {
			return err
		}
		if err := d.stream.Close(); err != nil {
			return err
		}
		d.stream = nil
	}
	return portaudio.Terminate()
}
