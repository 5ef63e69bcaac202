package board

import (
	"context"
	"io"
	"math"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/wiring/logging"
)

// A Registry owns the pin address space. Native pins are served by a native backend; every
// other pin is served by the node whose range contains it. Nodes are only ever added, never
// removed or resized, so a pin's owner is fixed from the moment its node is registered.
//
// A Registry is itself a Driver implementing every capability, so drivers that need to drive
// other pins (such as a shift register bit-banging native GPIO) can be handed the registry.
type Registry struct {
	mu     sync.RWMutex
	nodes  []*Node
	native Driver
	logger logging.Logger
}

// NewRegistry returns an empty registry backed by native. A nil native makes pins that no node
// claims inert; a nil logger means logging.Global().
func NewRegistry(native Driver, logger logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Global()
	}
	return &Registry{native: native, logger: logger}
}

// Native returns the native backend.
func (r *Registry) Native() Driver {
	return r.native
}

// RegisterNode claims the pin range [base, base+count) and returns the new node with no driver
// installed. Registration either fully succeeds or leaves the registry unchanged.
func (r *Registry) RegisterNode(base, count int) (*Node, error) {
	return r.addNode(base, count, nil)
}

// AddNode registers a node with d already installed as its driver.
func (r *Registry) AddNode(base, count int, d Driver) (*Node, error) {
	return r.addNode(base, count, d)
}

func (r *Registry) addNode(base, count int, d Driver) (*Node, error) {
	if count <= 0 {
		return nil, errors.Wrapf(ErrInvalidWidth, "got %d", count)
	}
	if base < 0 {
		return nil, errors.Wrapf(ErrInvalidBase, "got %d", base)
	}
	if base > math.MaxInt-count+1 {
		return nil, errors.Wrapf(ErrInvalidWidth, "range starting at %d with %d pins does not fit", base, count)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.nodes {
		if n.overlaps(base, count) {
			return nil, errors.Wrapf(ErrRangeOverlap, "pins %d..%d collide with node %d..%d",
				base, base+count-1, n.Base(), n.Last())
		}
	}
	n := newNode(base, count)
	n.SetDriver(d)
	r.nodes = append(r.nodes, n)
	r.logger.Debugw("registered pin node", "pin_base", base, "count", count)
	return n, nil
}

// FindNode returns the node whose range contains pin, or nil if pin is native.
func (r *Registry) FindNode(pin int) *Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.nodes {
		if n.Contains(pin) {
			return n
		}
	}
	return nil
}

// Nodes returns the registered nodes in registration order.
func (r *Registry) Nodes() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Node(nil), r.nodes...)
}

// resolve returns the driver and the pin number it should see for a global pin.
func (r *Registry) resolve(pin int) (Driver, int) {
	if n := r.FindNode(pin); n != nil {
		return n.Driver(), pin - n.Base()
	}
	return r.native, pin
}

// PinMode sets the mode of pin.
func (r *Registry) PinMode(ctx context.Context, pin int, mode PinMode) error {
	d, local := r.resolve(pin)
	if s, ok := d.(PinModeSetter); ok {
		return s.PinMode(ctx, local, mode)
	}
	return nil
}

// PullUpDnControl sets the pull resistor of pin.
func (r *Registry) PullUpDnControl(ctx context.Context, pin int, pull Pull) error {
	d, local := r.resolve(pin)
	if c, ok := d.(PullController); ok {
		return c.PullUpDnControl(ctx, local, pull)
	}
	return nil
}

// DigitalRead reads the level of pin. Pins whose driver cannot read return Low.
func (r *Registry) DigitalRead(ctx context.Context, pin int) (int, error) {
	d, local := r.resolve(pin)
	if rd, ok := d.(DigitalReader); ok {
		return rd.DigitalRead(ctx, local)
	}
	return Low, nil
}

// DigitalWrite drives pin to value.
func (r *Registry) DigitalWrite(ctx context.Context, pin, value int) error {
	d, local := r.resolve(pin)
	if w, ok := d.(DigitalWriter); ok {
		return w.DigitalWrite(ctx, local, value)
	}
	return nil
}

// AnalogRead reads a sample from pin. Pins whose driver cannot read return 0.
func (r *Registry) AnalogRead(ctx context.Context, pin int) (int, error) {
	d, local := r.resolve(pin)
	if rd, ok := d.(AnalogReader); ok {
		return rd.AnalogRead(ctx, local)
	}
	return 0, nil
}

// AnalogWrite writes value to pin.
func (r *Registry) AnalogWrite(ctx context.Context, pin, value int) error {
	d, local := r.resolve(pin)
	if w, ok := d.(AnalogWriter); ok {
		return w.AnalogWrite(ctx, local, value)
	}
	return nil
}

// PWMWrite sets the PWM value of pin.
func (r *Registry) PWMWrite(ctx context.Context, pin, value int) error {
	d, local := r.resolve(pin)
	if w, ok := d.(PWMWriter); ok {
		return w.PWMWrite(ctx, local, value)
	}
	return nil
}

// Close closes every node driver and the native backend that implement io.Closer, most recently
// registered first. Nodes stay registered.
func (r *Registry) Close() error {
	nodes := r.Nodes()

	var err error
	for i := len(nodes) - 1; i >= 0; i-- {
		if c, ok := nodes[i].Driver().(io.Closer); ok {
			err = multierr.Combine(err, c.Close())
		}
	}
	if c, ok := r.native.(io.Closer); ok {
		err = multierr.Combine(err, c.Close())
	}
	return err
}
