// Package pcf8574 drives the PCF8574 quasi-bidirectional 8-bit I/O expander over I2C.
//
// The part has no registers. Each pin is either driven low or released high through a weak
// pull-up; to use a pin as an input, write it high and read whether something pulls it low.
package pcf8574

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the expander registers under.
const ExtensionName = "pcf8574"

const pinCount = 8

func init() {
	board.RegisterExtension(ExtensionName, board.ExtensionRegistration{
		Params: []string{"i2c"},
		Constructor: func(
			ctx context.Context,
			deps board.ExtensionDependencies,
			pinBase int,
			attributes map[string]interface{},
		) (*board.Node, error) {
			var conf devices.I2CConfig
			if err := board.DecodeAttributes(attributes, &conf); err != nil {
				return nil, err
			}
			bus, err := deps.I2CBus()
			if err != nil {
				return nil, err
			}
			return Setup(ctx, deps.Registry, bus, pinBase, byte(conf.Address), deps.Logger)
		},
	})
}

// Setup reads the current port state of the expander at addr and registers its 8 pins at
// pinBase.
func Setup(
	ctx context.Context,
	registry *board.Registry,
	bus buses.I2C,
	pinBase int,
	addr byte,
	logger logging.Logger,
) (*board.Node, error) {
	handle, err := bus.OpenHandle(addr)
	if err != nil {
		return nil, board.BusUnavailableError(err, "opening pcf8574 at %#x", addr)
	}
	// the chip doesn't have any registers and just returns the data directly when read
	b, err := handle.Read(ctx, 1)
	if err != nil {
		return nil, multierr.Combine(board.BusUnavailableError(err, "reading pcf8574 at %#x", addr), handle.Close())
	}
	node, err := registry.AddNode(pinBase, pinCount, &expander{handle: handle, state: b[0]})
	if err != nil {
		return nil, multierr.Combine(err, handle.Close())
	}
	logger.Debugw("pcf8574 ready", "pin_base", pinBase, "address", addr)
	return node, nil
}

type expander struct {
	handle buses.I2CHandle

	mu sync.Mutex
	// current state of pins as we've defined them
	state byte
}

func (e *expander) DigitalWrite(ctx context.Context, pin, value int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.state
	if value == board.Low {
		next &^= 1 << (pin & 7)
	} else {
		next |= 1 << (pin & 7)
	}
	if err := e.handle.Write(ctx, []byte{next}); err != nil {
		return err
	}
	e.state = next
	return nil
}

func (e *expander) DigitalRead(ctx context.Context, pin int) (int, error) {
	b, err := e.handle.Read(ctx, 1)
	if err != nil {
		return board.Low, err
	}
	if b[0]&(1<<(pin&7)) == 0 {
		return board.Low, nil
	}
	return board.High, nil
}

func (e *expander) Close() error {
	return e.handle.Close()
}
