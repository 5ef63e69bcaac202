// Package mcp4802 drives the MCP4802 dual 8-bit DAC over SPI. Pin 0 is output A and pin 1
// output B.
package mcp4802

import (
	"context"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the DAC registers under.
const ExtensionName = "mcp4802"

const (
	pinCount = 2
	baud     = 1000000

	selectB  = 0x80
	gain1x   = 0x20
	activeOn = 0x10
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

// Setup registers the DAC on chipSelect at pinBase.
func Setup(
	ctx context.Context,
	registry *board.Registry,
	bus buses.SPI,
	pinBase int,
	chipSelect string,
	logger logging.Logger,
) (*board.Node, error) {
	if err := devices.ProbeSPI(ctx, bus, baud, chipSelect, 0); err != nil {
		return nil, board.BusUnavailableError(err, "opening mcp4802 on chip select %s", chipSelect)
	}
	node, err := registry.AddNode(pinBase, pinCount, &dac{bus: bus, chipSelect: chipSelect})
	if err != nil {
		return nil, err
	}
	logger.Debugw("mcp4802 ready", "pin_base", pinBase, "chip_select", chipSelect)
	return node, nil
}

type dac struct {
	bus        buses.SPI
	chipSelect string
}

// encode builds the write command for one channel. Only the low 8 bits of value are used.
func encode(channel, value int) []byte {
	cmd := byte(gain1x | activeOn)
	if channel != 0 {
		cmd |= selectB
	}
	return []byte{
		cmd | byte(value>>4)&0x0F,
		byte(value<<4) & 0xF0,
	}
}

func (d *dac) AnalogWrite(ctx context.Context, pin, value int) error {
	_, err := buses.Xfer(ctx, d.bus, baud, d.chipSelect, 0, encode(pin, value))
	return err
}
