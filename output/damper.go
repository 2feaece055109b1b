package output

import "math"

// DefaultCutoff is the rate of amplitude change in Hz which is not heard
// as a click.
const DefaultCutoff = 20

// Damper limits change of amplitude per sample.
type Damper struct {
	MaxStep float64
	Current float64
}

// NewCutoffDamper returns damper which goes from 0 to 1 in sampleRate/hz
// samples.
func NewCutoffDamper(sampleRate int, hz float64) Damper {
	return Damper{MaxStep: hz / float64(sampleRate)}
}

// Step moves current amplitude towards target and returns it.
func (d *Damper) Step(target float64) float64 {
	switch delta := target - d.Current; {
	case delta > d.MaxStep:
		d.Current += d.MaxStep
	case delta < -d.MaxStep:
		d.Current -= d.MaxStep
	default:
		d.Current = target
	}
	return d.Current
}

// StepsTo returns number of steps needed to reach the target.
func (d Damper) StepsTo(target float64) int {
	if d.MaxStep <= 0 {
		if target == d.Current {
			return 0
		}
		return math.MaxInt32
	}
	return int(math.Ceil(math.Abs(target-d.Current) / d.MaxStep))
}

// Samples returns number of samples of full amplitude swing.
func (d Damper) Samples() int {
	if d.MaxStep <= 0 {
		return math.MaxInt32
	}
	return int(math.Ceil(1 / d.MaxStep))
}
