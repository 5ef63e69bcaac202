// Package max5322 drives the MAX5322 dual 12-bit DAC over SPI. Pin 0 is DAC A and pin 1 DAC B.
package max5322

import (
	"context"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the DAC registers under.
const ExtensionName = "max5322"

const (
	pinCount = 2
	baud     = 8000000

	cmdLoadA     = 0x40
	cmdLoadB     = 0x50
	cmdEnableAll = 0xE0
)

func init() {
	board.RegisterExtension(ExtensionName, board.ExtensionRegistration{
		Params: []string{"spi"},
		Constructor: func(
			ctx context.Context,
			deps board.ExtensionDependencies,
			pinBase int,
			attributes map[string]interface{},
		) (*board.Node, error) {
			var conf devices.SPIConfig
			if err := board.DecodeAttributes(attributes, &conf); err != nil {
				return nil, err
			}
			bus, err := deps.SPIBus()
			if err != nil {
				return nil, err
			}
			return Setup(ctx, deps.Registry, bus, pinBase, conf.ChipSelect, deps.Logger)
		},
	})
}

// Setup enables both DACs on chipSelect and registers them at pinBase.
func Setup(
	ctx context.Context,
	registry *board.Registry,
	bus buses.SPI,
	pinBase int,
	chipSelect string,
	logger logging.Logger,
) (*board.Node, error) {
	if _, err := buses.Xfer(ctx, bus, baud, chipSelect, 0, []byte{cmdEnableAll, 0}); err != nil {
		return nil, board.BusUnavailableError(err, "enabling max5322 on chip select %s", chipSelect)
	}
	node, err := registry.AddNode(pinBase, pinCount, &dac{bus: bus, chipSelect: chipSelect})
	if err != nil {
		return nil, err
	}
	logger.Debugw("max5322 ready", "pin_base", pinBase, "chip_select", chipSelect)
	return node, nil
}

type dac struct {
	bus        buses.SPI
	chipSelect string
}

// encode builds the load command for one channel. The top 4 of the 12 data bits share a byte
// with the command.
func encode(channel, value int) []byte {
	cmd := byte(cmdLoadA)
	if channel != 0 {
		cmd = cmdLoadB
	}
	return []byte{
		cmd | byte(value>>8)&0x0F,
		byte(value & 0xFF),
	}
}

func (d *dac) AnalogWrite(ctx context.Context, pin, value int) error {
	_, err := buses.Xfer(ctx, d.bus, baud, d.chipSelect, 0, encode(pin, value))
	return err
}
