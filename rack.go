package rack

import (
	"fmt"

	"github.com/dudk/rack/graph"
	"github.com/dudk/rack/log"
	"github.com/dudk/rack/module"
	"github.com/dudk/rack/value"
)

// Rack owns module instances and the connection graph between them.
// It's not safe for concurrent use.
type Rack struct {
	logger      log.Logger
	conversions *value.Conversions
	kinds       map[string]*module.Description
	kindOrder   []string
	pending     []*module.Description

	io     *graph.Io
	arena  arena
	panels [][]graph.Handle

	// ordered instances of the order revision.
	ordered  []*instance
	revision uint64
	frames   []value.Frame
}

// Option configures the rack.
type Option func(*Rack)

// WithLogger sets logger of the rack.
func WithLogger(l log.Logger) Option {
	return func(r *Rack) {
		r.logger = l
	}
}

// WithConversions replaces the registry of conversions. Default one
// contains conversions between built-in scalar types.
func WithConversions(c *value.Conversions) Option {
	return func(r *Rack) {
		r.conversions = c
	}
}

// WithModules registers module kinds.
func WithModules(descs ...*module.Description) Option {
	return func(r *Rack) {
		r.pending = append(r.pending, descs...)
	}
}

// New returns an empty rack.
func New(options ...Option) (*Rack, error) {
	r := Rack{
		logger: log.With(log.GetLogger(), "rack"),
		kinds:  make(map[string]*module.Description),
		arena:  newArena(),
	}
	for _, option := range options {
		option(&r)
	}
	if r.conversions == nil {
		r.conversions = value.NewConversions()
		value.RegisterDefaults(r.conversions)
	}
	r.io = graph.New(r.conversions)
	for _, desc := range r.pending {
		if err := r.Register(desc); err != nil {
			return nil, err
		}
	}
	r.pending = nil
	return &r, nil
}

// Register adds module kind. Conversions accepted by its inputs are added
// to the registry as port-specific entries.
func (r *Rack) Register(desc *module.Description) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	if _, ok := r.kinds[desc.Kind]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModule, desc.Kind)
	}
	for _, p := range desc.Inputs {
		for _, c := range p.Conversions {
			r.conversions.Register(c.From, p.ID.Type, p.ID.Role, c.Convert)
		}
	}
	r.kinds[desc.Kind] = desc
	r.kindOrder = append(r.kindOrder, desc.Kind)
	return nil
}

// Modules returns registered module kinds in registration order.
func (r *Rack) Modules() []*module.Description {
	descs := make([]*module.Description, 0, len(r.kindOrder))
	for _, kind := range r.kindOrder {
		descs = append(descs, r.kinds[kind])
	}
	return descs
}

// Conversions returns the registry used by the rack.
func (r *Rack) Conversions() *value.Conversions {
	return r.conversions
}

// AddModule instantiates registered module kind in the first panel.
func (r *Rack) AddModule(kind string) (graph.Handle, error) {
	return r.AddModuleTo(kind, 0)
}

// AddModuleTo instantiates registered module kind in the panel. Panels
// are created as needed.
func (r *Rack) AddModuleTo(kind string, panel int) (graph.Handle, error) {
	desc, ok := r.kinds[kind]
	if !ok {
		return graph.Handle{}, fmt.Errorf("%w: %s", ErrUnknownModule, kind)
	}
	if panel < 0 {
		return graph.Handle{}, fmt.Errorf("%w: %d", ErrInvalidPanel, panel)
	}
	h := graph.NewHandle()
	if err := r.io.AddInstance(h, desc); err != nil {
		return graph.Handle{}, err
	}
	inst := instance{
		handle: h,
		desc:   desc,
		module: desc.New(),
		panel:  panel,
		ctx:    processContext{io: r.io, handle: h},
	}
	inst.sink, _ = inst.module.(module.Sink)
	r.arena.insert(&inst)
	for len(r.panels) <= panel {
		r.panels = append(r.panels, nil)
	}
	r.panels[panel] = append(r.panels[panel], h)
	r.logger.Debug(fmt.Sprintf("added %s %v to panel %d", kind, h.Short(), panel))
	return h, nil
}

// RemoveInstance removes instance with all its connections.
func (r *Rack) RemoveInstance(h graph.Handle) error {
	inst, ok := r.arena.get(h)
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownInstance, h)
	}
	r.arena.remove(h)
	handles := r.panels[inst.panel]
	for i := range handles {
		if handles[i] == h {
			r.panels[inst.panel] = append(handles[:i], handles[i+1:]...)
			break
		}
	}
	r.logger.Debug(fmt.Sprintf("removed %v", h.Short()))
	return r.io.RemoveInstance(h)
}

// Len returns number of instances.
func (r *Rack) Len() int {
	return r.arena.len()
}

// Instances returns handles in the order they were added.
func (r *Rack) Instances() []graph.Handle {
	return r.io.Instances()
}

// Panels returns instances grouped by panel in the order they were added.
func (r *Rack) Panels() [][]graph.Handle {
	panels := make([][]graph.Handle, len(r.panels))
	for i, handles := range r.panels {
		panels[i] = append([]graph.Handle(nil), handles...)
	}
	return panels
}

// Panel returns panel of the instance.
func (r *Rack) Panel(h graph.Handle) (int, bool) {
	inst, ok := r.arena.get(h)
	if !ok {
		return 0, false
	}
	return inst.panel, true
}

// Module returns module state of the instance.
func (r *Rack) Module(h graph.Handle) (module.Module, bool) {
	inst, ok := r.arena.get(h)
	if !ok {
		return nil, false
	}
	return inst.module, true
}

// Description returns module kind of the instance.
func (r *Rack) Description(h graph.Handle) (*module.Description, bool) {
	return r.io.Description(h)
}

// CanConnect checks if ports can be connected.
func (r *Rack) CanConnect(from, to graph.Port) graph.Result {
	return r.io.CanConnect(from, to)
}

// Connect connects output to input. If input is already connected, the
// returned result has Replace status.
func (r *Rack) Connect(from, to graph.Port) (graph.Result, error) {
	res, err := r.io.Connect(from, to)
	if err != nil {
		return res, err
	}
	if res.Status == graph.Replace {
		r.logger.Debug(fmt.Sprintf("%v replaced by %v into %v", res.Replaced, from, to))
	}
	return res, nil
}

// Disconnect removes connection. It returns false if ports aren't
// connected.
func (r *Rack) Disconnect(from, to graph.Port) bool {
	return r.io.Disconnect(from, to)
}

// SetInput sets value of unconnected input.
func (r *Rack) SetInput(p graph.Port, v value.Value) error {
	return r.io.SetInput(p, v)
}

// Input returns value of the input as the module sees it.
func (r *Rack) Input(p graph.Port) (value.Value, error) {
	return r.io.Input(p)
}

// InputBoxed returns staged value of the input.
func (r *Rack) InputBoxed(p graph.Port) (value.Value, bool) {
	return r.io.InputBoxed(p)
}

// OutputBoxed returns the last value written to the output.
func (r *Rack) OutputBoxed(p graph.Port) (value.Value, bool) {
	return r.io.OutputBoxed(p)
}

// HasConnection reports if port is connected.
func (r *Rack) HasConnection(p graph.Port) bool {
	return r.io.HasConnection(p)
}

// Edges returns all connections.
func (r *Rack) Edges() []graph.Edge {
	return r.io.Edges()
}

// Order returns the processing order.
func (r *Rack) Order() ([]graph.Handle, error) {
	return r.io.Order()
}

// orderedInstances returns instances in processing order. The slice is
// rebuilt only when the order changes.
func (r *Rack) orderedInstances() ([]*instance, error) {
	order, err := r.io.Order()
	if err != nil {
		return nil, err
	}
	if r.ordered != nil && r.revision == r.io.Revision() {
		return r.ordered, nil
	}
	ordered := make([]*instance, 0, len(order))
	for _, h := range order {
		inst, ok := r.arena.get(h)
		if !ok {
			panic(fmt.Sprintf("instance %v is ordered but not allocated", h))
		}
		ordered = append(ordered, inst)
	}
	r.ordered, r.revision = ordered, r.io.Revision()
	return ordered, nil
}

// Process evaluates every instance once and returns frames contributed by
// sinks. The returned slice is reused by the next call.
func (r *Rack) Process(sampleRate int) ([]value.Frame, error) {
	ordered, err := r.orderedInstances()
	if err != nil {
		return nil, err
	}
	r.frames = r.frames[:0]
	for _, inst := range ordered {
		inst.ctx.sampleRate = sampleRate
		inst.module.Process(&inst.ctx)
		if inst.sink == nil {
			continue
		}
		if f, ok := inst.sink.Frame(); ok {
			r.frames = append(r.frames, f)
		}
	}
	return r.frames, nil
}

// Mix evaluates every instance once and returns the sum of sink frames.
func (r *Rack) Mix(sampleRate int) (value.Frame, error) {
	frames, err := r.Process(sampleRate)
	if err != nil {
		return value.Silence, err
	}
	mixed := value.Silence
	for _, f := range frames {
		mixed = mixed.Add(f)
	}
	return mixed, nil
}

// ProcessAmount evaluates the rack n times and returns mixed frames.
func (r *Rack) ProcessAmount(sampleRate, n int) ([]value.Frame, error) {
	frames := make([]value.Frame, n)
	for i := range frames {
		f, err := r.Mix(sampleRate)
		if err != nil {
			return nil, err
		}
		frames[i] = f
	}
	return frames, nil
}

// TypedHandle is a handle of instance with known module type.
type TypedHandle[M module.Module] struct {
	graph.Handle
}

// Add registers module kind if needed and adds its instance. The factory
// must produce modules of type M.
func Add[M module.Module](r *Rack, desc *module.Description) (TypedHandle[M], error) {
	if registered, ok := r.kinds[desc.Kind]; !ok {
		if err := r.Register(desc); err != nil {
			return TypedHandle[M]{}, err
		}
	} else if registered != desc {
		return TypedHandle[M]{}, fmt.Errorf("%w: %s", ErrDuplicateModule, desc.Kind)
	}
	h, err := r.AddModule(desc.Kind)
	if err != nil {
		return TypedHandle[M]{}, err
	}
	if _, ok := ModuleOf(r, TypedHandle[M]{Handle: h}); !ok {
		_ = r.RemoveInstance(h)
		return TypedHandle[M]{}, fmt.Errorf("%w: %s", ErrModuleType, desc.Kind)
	}
	return TypedHandle[M]{Handle: h}, nil
}

// ModuleOf returns module state of the typed instance.
func ModuleOf[M module.Module](r *Rack, h TypedHandle[M]) (M, bool) {
	inst, ok := r.arena.get(h.Handle)
	if !ok {
		var zero M
		return zero, false
	}
	m, ok := inst.module.(M)
	return m, ok
}
