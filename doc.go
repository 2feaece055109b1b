/*
Package rack allows to build and evaluate modular signal processing graphs.

Concept

This package offers a patch-cable perspective to DSP. A rack contains
instances of modules, which are connected output to input:

    Module - the unit of processing with declared input and output ports;
    Instance - the module placed into the rack, identified by handle;
    Sink - the module which contributes frames to the output mix;

It implies the following constraints:

    Every input has at most one source;
    Connections never form a cycle;
    Every instance is processed once per frame in dependency order.

Modules

Module kinds are declared with descriptions. Description carries the kind
name, the factory and the typed ports:

    Freq = module.NewInput("osc.freq", "Frequency", value.Float(440))
    Sample = module.NewOutput[value.Float]("osc.sample", "Sample")

    Osc = module.Describe("osc", "Oscillator", func() module.Module {
        return &Osc{}
    }).Input(Freq).Output(Sample)

Process method reads inputs and writes outputs through the context. Inputs
which are not connected return the default value of the port:

    func (o *Osc) Process(ctx module.Context) {
        freq := module.Get(ctx, Freq)
        ...
        module.Set(ctx, Sample, value.Float(v))
    }

Routing

Instances are added by kind and connected with ports:

    r, err := rack.New(rack.WithModules(modules.All(loader.New())...))
    osc, err := r.AddModule(modules.OscillatorModule.Kind)
    out, err := r.AddModule(modules.AudioModule.Kind)
    result, err := r.Connect(
        graph.PortOf(osc, modules.OscillatorSample),
        graph.PortOf(out, modules.AudioIn),
    )

Ports of different types are connected when a conversion is registered or
the input accepts the source type. Connecting an input that already has a
source replaces the old connection. Connection which would form a cycle is
rejected and the graph is left unchanged.

Evaluation

Rack is evaluated one frame at a time:

    frame, err := r.Mix(sampleRate)

Output package paces evaluation by the device buffer or by wall clock when
no device is available. Rack is not safe for concurrent use, all edits and
evaluation must happen on the same goroutine.
*/
package rack
