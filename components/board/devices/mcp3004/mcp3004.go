// Package mcp3004 drives the MCP3004 and MCP3008 10-bit ADCs over SPI. Pins 0-7 read the
// single-ended channels; the MCP3004 only has the first four.
package mcp3004

import (
	"context"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the ADC registers under.
const ExtensionName = "mcp3004"

const (
	pinCount = 8
	baud     = 1000000

	startBit     = 0x01
	singleEnded  = 0x80
	channelShift = 4
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
		return nil, board.BusUnavailableError(err, "opening mcp3004 on chip select %s", chipSelect)
	}
	node, err := registry.AddNode(pinBase, pinCount, &adc{bus: bus, chipSelect: chipSelect})
	if err != nil {
		return nil, err
	}
	logger.Debugw("mcp3004 ready", "pin_base", pinBase, "chip_select", chipSelect)
	return node, nil
}

type adc struct {
	bus        buses.SPI
	chipSelect string
}

func (a *adc) AnalogRead(ctx context.Context, pin int) (int, error) {
	tx := []byte{startBit, singleEnded | byte(pin&7)<<channelShift, 0}
	rx, err := buses.Xfer(ctx, a.bus, baud, a.chipSelect, 0, tx)
	if err != nil {
		return 0, err
	}
	return (int(rx[1])<<8 | int(rx[2])) & 0x3FF, nil
}
