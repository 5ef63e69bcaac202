// Package fake implements in-memory pin backends and buses for tests.
package fake

import (
	"context"
	"sync"

	"go.viam.com/wiring/components/board"
)

// A Call records one operation made on a Native.
type Call struct {
	Op    string
	Pin   int
	Value int
}

// Native is a driver implementing every capability. Writes are stored per pin and read back by
// the matching read, so it serves as a loopback; every call is recorded.
type Native struct {
	mu      sync.Mutex
	calls   []Call
	digital map[int]int
	analog  map[int]int
	pwm     map[int]int
	modes   map[int]board.PinMode
	pulls   map[int]board.Pull
	closed  bool

	// Err, if set, is returned by every operation.
	Err error
}

// NewNative returns an empty Native.
func NewNative() *Native {
	return &Native{
		digital: map[int]int{},
		analog:  map[int]int{},
		pwm:     map[int]int{},
		modes:   map[int]board.PinMode{},
		pulls:   map[int]board.Pull{},
	}
}

func (n *Native) record(op string, pin, value int) error {
	n.calls = append(n.calls, Call{Op: op, Pin: pin, Value: value})
	return n.Err
}

// PinMode records the mode of pin.
func (n *Native) PinMode(ctx context.Context, pin int, mode board.PinMode) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.modes[pin] = mode
	return n.record("PinMode", pin, int(mode))
}

// PullUpDnControl records the pull of pin.
func (n *Native) PullUpDnControl(ctx context.Context, pin int, pull board.Pull) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pulls[pin] = pull
	return n.record("PullUpDnControl", pin, int(pull))
}

// DigitalRead returns the last level written to pin.
func (n *Native) DigitalRead(ctx context.Context, pin int) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v := n.digital[pin]
	return v, n.record("DigitalRead", pin, v)
}

// DigitalWrite stores value as the level of pin.
func (n *Native) DigitalWrite(ctx context.Context, pin, value int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digital[pin] = value
	return n.record("DigitalWrite", pin, value)
}

// AnalogRead returns the last analog value written to pin.
func (n *Native) AnalogRead(ctx context.Context, pin int) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v := n.analog[pin]
	return v, n.record("AnalogRead", pin, v)
}

// AnalogWrite stores value as the analog value of pin.
func (n *Native) AnalogWrite(ctx context.Context, pin, value int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.analog[pin] = value
	return n.record("AnalogWrite", pin, value)
}

// PWMWrite stores value as the PWM value of pin.
func (n *Native) PWMWrite(ctx context.Context, pin, value int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pwm[pin] = value
	return n.record("PWMWrite", pin, value)
}

// SetDigital sets the level DigitalRead returns for pin without recording a call.
func (n *Native) SetDigital(pin, value int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.digital[pin] = value
}

// SetAnalog sets the value AnalogRead returns for pin without recording a call.
func (n *Native) SetAnalog(pin, value int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.analog[pin] = value
}

// Mode returns the last mode set on pin.
func (n *Native) Mode(pin int) board.PinMode {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.modes[pin]
}

// PWM returns the last PWM value written to pin.
func (n *Native) PWM(pin int) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pwm[pin]
}

// Calls returns every call made so far.
func (n *Native) Calls() []Call {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Call(nil), n.calls...)
}

// CallsTo returns the calls made to op.
func (n *Native) CallsTo(op string) []Call {
	var out []Call
	for _, c := range n.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets all recorded calls.
func (n *Native) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = nil
}

// Close marks the backend closed.
func (n *Native) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

// Closed reports whether Close was called.
func (n *Native) Closed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}
