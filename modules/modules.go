// Package modules contains module kinds available in the rack.
package modules

import (
	"github.com/dudk/rack/loader"
	"github.com/dudk/rack/module"
)

// All returns descriptions of every module kind. Samplers use the loader.
func All(l *loader.Loader) []*module.Description {
	return []*module.Description{
		OscillatorModule,
		AudioModule,
		ValueModule,
		OperationModule,
		NoiseModule,
		ScopeModule,
		KeyboardModule,
		FilterModule,
		NewSamplerModule(l),
	}
}
