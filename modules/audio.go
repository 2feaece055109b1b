package modules

import (
	"fmt"

	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

var (
	// AudioIn is the signal sent to the output device.
	AudioIn = module.NewInput("audio.in", "Audio", value.Silence,
		module.Accept(func(f value.Float) value.Frame {
			return value.Mono(float64(f))
		}))

	// AudioModule sends its input to the output device.
	AudioModule = module.Describe("audio", "Audio output", func() module.Module {
		return NewAudio()
	}).Input(AudioIn)
)

// Audio is a sink. It contributes scaled input to the output mix.
type Audio struct {
	Volume float64

	frame value.Frame
}

// NewAudio returns sink with unit volume.
func NewAudio() *Audio {
	return &Audio{Volume: 1}
}

// Process implements module.Module.
func (a *Audio) Process(ctx module.Context) {
	a.frame = module.Get(ctx, AudioIn).Scale(a.Volume)
}

// Frame implements module.Sink.
func (a *Audio) Frame() (value.Frame, bool) {
	return a.frame, true
}

// Describe implements module.Describer.
func (a *Audio) Describe() string {
	return fmt.Sprintf("volume %.0f%%", a.Volume*100)
}
