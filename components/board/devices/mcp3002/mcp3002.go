// Package mcp3002 drives the MCP3002 dual 10-bit ADC over SPI.
package mcp3002

import (
	"context"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the ADC registers under.
const ExtensionName = "mcp3002"

const (
	pinCount = 2
	baud     = 1000000

	// start bit, single-ended, MSB first; bit 5 picks channel 1
	cmdReadCh0 = 0xD0
	cmdReadCh1 = 0xF0
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

// Setup registers the ADC on chipSelect at pinBase.
func Setup(
	ctx context.Context,
	registry *board.Registry,
	bus buses.SPI,
	pinBase int,
	chipSelect string,
	logger logging.Logger,
) (*board.Node, error) {
	if err := devices.ProbeSPI(ctx, bus, baud, chipSelect, 0); err != nil {
		return nil, board.BusUnavailableError(err, "opening mcp3002 on chip select %s", chipSelect)
	}
	node, err := registry.AddNode(pinBase, pinCount, &adc{bus: bus, chipSelect: chipSelect})
	if err != nil {
		return nil, err
	}
	logger.Debugw("mcp3002 ready", "pin_base", pinBase, "chip_select", chipSelect)
	return node, nil
}

type adc struct {
	bus        buses.SPI
	chipSelect string
}

func (a *adc) AnalogRead(ctx context.Context, pin int) (int, error) {
	cmd := byte(cmdReadCh0)
	if pin != 0 {
		cmd = cmdReadCh1
	}
	rx, err := buses.Xfer(ctx, a.bus, baud, a.chipSelect, 0, []byte{cmd, 0})
	if err != nil {
		return 0, err
	}
	return decode(rx), nil
}

func decode(rx []byte) int {
	return (int(rx[0])<<7 | int(rx[1])>>1) & 0x3FF
}
