package output

import "github.com/dudk/rack/value"

// Source is consumed by device callback. Pop must not block.
type Source interface {
	Pop() (value.Frame, bool)
}

// Device is a real-time audio output.
type Device interface {
	// SampleRate of the device.
	SampleRate() int
	// Start begins consumption of the source. Device substitutes silence
	// when source is empty.
	Start(Source) error
	// Failed reports if device stopped consuming because of error.
	Failed() bool
	// Close stops the device and releases its resources.
	Close() error
}

// Opener initializes device. It's called in background.
type Opener func() (Device, error)

// Underrunner is implemented by devices which count frames played as
// silence because the source was empty.
type Underrunner interface {
	Underruns() int64
}
