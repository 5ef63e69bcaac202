// Package pcf8591 drives the PCF8591 4-channel 8-bit ADC with a single DAC output over I2C.
// AnalogRead on pins 0-3 samples the matching input; AnalogWrite on any pin sets the DAC.
package pcf8591

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the converter registers under.
const ExtensionName = "pcf8591"

const (
	pinCount = 4

	// control byte: analog output enabled, single-ended inputs, channel in the low two bits
	ctrlOutputEnable = 0x40
	ctrlChannelMask  = 0x03
)

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

// Setup registers the converter at addr on pinBase.
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
		return nil, board.BusUnavailableError(err, "opening pcf8591 at %#x", addr)
	}
	node, err := registry.AddNode(pinBase, pinCount, &converter{handle: handle})
	if err != nil {
		return nil, multierr.Combine(err, handle.Close())
	}
	logger.Debugw("pcf8591 ready", "pin_base", pinBase, "address", addr)
	return node, nil
}

type converter struct {
	mu     sync.Mutex
	handle buses.I2CHandle
}

func (c *converter) AnalogWrite(ctx context.Context, pin, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle.Write(ctx, []byte{ctrlOutputEnable, byte(value & 0xFF)})
}

// AnalogRead selects the channel and returns the second byte read. The first is the result of
// the conversion started by the previous read.
func (c *converter) AnalogRead(ctx context.Context, pin int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.handle.Write(ctx, []byte{ctrlOutputEnable | byte(pin)&ctrlChannelMask}); err != nil {
		return 0, err
	}
	if _, err := c.handle.Read(ctx, 1); err != nil {
		return 0, err
	}
	b, err := c.handle.Read(ctx, 1)
	if err != nil {
		return 0, err
	}
	return int(b[0]), nil
}

func (c *converter) Close() error {
	return c.handle.Close()
}
