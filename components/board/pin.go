// Package board defines the pin address space shared by native GPIO and the virtual pins that
// device drivers expose, and the registry that routes pin operations to whichever backend owns
// a pin.
package board

import "context"

// Digital levels.
const (
	Low  = 0
	High = 1
)

// A PinMode selects how a pin is driven.
type PinMode int

// Pin modes understood by PinModeSetter.
const (
	Input PinMode = iota
	Output
	PWMOutput
)

func (m PinMode) String() string {
	switch m {
	case Input:
		return "input"
	case Output:
		return "output"
	case PWMOutput:
		return "pwm_output"
	default:
		return "unknown"
	}
}

// A Pull selects the pull resistor connected to an input pin.
type Pull int

// Pull settings understood by PullController.
const (
	PullOff Pull = iota
	PullDown
	PullUp
)

// A Driver is the operation set behind a range of pins. It implements any subset of the
// capability interfaces below; operations it does not implement are inert. Every pin a Driver
// sees is local to its own range, starting at 0.
//
// A Driver that also implements io.Closer owns a backend resource and is closed when the
// registry is torn down.
type Driver interface{}

// A DigitalReader reads the digital level of a pin.
type DigitalReader interface {
	DigitalRead(ctx context.Context, pin int) (int, error)
}

// A DigitalWriter drives a pin to a digital level.
type DigitalWriter interface {
	DigitalWrite(ctx context.Context, pin, value int) error
}

// An AnalogReader reads an integer sample from a pin.
type AnalogReader interface {
	AnalogRead(ctx context.Context, pin int) (int, error)
}

// An AnalogWriter writes an integer value to a pin.
type AnalogWriter interface {
	AnalogWrite(ctx context.Context, pin, value int) error
}

// A PWMWriter sets the PWM duty value of a pin.
type PWMWriter interface {
	PWMWrite(ctx context.Context, pin, value int) error
}

// A PinModeSetter changes the mode of a pin.
type PinModeSetter interface {
	PinMode(ctx context.Context, pin int, mode PinMode) error
}

// A PullController changes the pull resistor of a pin.
type PullController interface {
	PullUpDnControl(ctx context.Context, pin int, pull Pull) error
}
