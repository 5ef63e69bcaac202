// Package sn3218 drives the SN3218 18-channel LED driver over I2C. Each pin is one channel and
// AnalogWrite sets its 8-bit PWM brightness.
package sn3218

import (
	"context"

	"go.uber.org/multierr"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the LED driver registers under.
const ExtensionName = "sn3218"

// Address is the fixed I2C address of the part.
const Address = 0x54

const (
	pinCount = 18

	regShutdown = 0x00
	regPWMBase  = 0x01
	regControl1 = 0x13 // enables LEDs 0-5
	regControl2 = 0x14 // enables LEDs 6-11
	regControl3 = 0x15 // enables LEDs 12-17
	regUpdate   = 0x16

	normalOperation = 0x01
	allEnabled      = 0x3F
)

func init() {
	board.RegisterExtension(ExtensionName, board.ExtensionRegistration{
		Constructor: func(
			ctx context.Context,
			deps board.ExtensionDependencies,
			pinBase int,
			attributes map[string]interface{},
		) (*board.Node, error) {
			if err := board.DecodeAttributes(attributes, &struct{}{}); err != nil {
				return nil, err
			}
			bus, err := deps.I2CBus()
			if err != nil {
				return nil, err
			}
			return Setup(ctx, deps.Registry, bus, pinBase, deps.Logger)
		},
	})
}

// Setup wakes the part, enables every channel with all LEDs off, and registers the 18 channels
// at pinBase.
func Setup(
	ctx context.Context,
	registry *board.Registry,
	bus buses.I2C,
	pinBase int,
	logger logging.Logger,
) (*board.Node, error) {
	handle, err := bus.OpenHandle(Address)
	if err != nil {
		return nil, board.BusUnavailableError(err, "opening sn3218")
	}
	for _, w := range []struct{ reg, value byte }{
		{regShutdown, normalOperation},
		{regControl1, allEnabled},
		{regControl2, allEnabled},
		{regControl3, allEnabled},
		{regUpdate, 0},
	} {
		if err := handle.WriteByteData(ctx, w.reg, w.value); err != nil {
			return nil, multierr.Combine(board.BusUnavailableError(err, "initializing sn3218"), handle.Close())
		}
	}
	node, err := registry.AddNode(pinBase, pinCount, &ledDriver{handle: handle})
	if err != nil {
		return nil, multierr.Combine(err, handle.Close())
	}
	logger.Debugw("sn3218 ready", "pin_base", pinBase)
	return node, nil
}

type ledDriver struct {
	handle buses.I2CHandle
}

// AnalogWrite latches a new brightness; the part only applies PWM registers on an update write.
func (d *ledDriver) AnalogWrite(ctx context.Context, pin, value int) error {
	if err := d.handle.WriteByteData(ctx, regPWMBase+byte(pin), byte(value&0xFF)); err != nil {
		return err
	}
	return d.handle.WriteByteData(ctx, regUpdate, 0)
}

func (d *ledDriver) Close() error {
	return d.handle.Close()
}
