// Package mcp23s17 drives the MCP23S17 16-bit I/O expander over SPI. Pins 0-7 are port A and
// pins 8-15 port B. Up to eight parts can share one chip select, told apart by their hardware
// address pins.
package mcp23s17

import (
	"context"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices/mcp23x"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the expander registers under.
const ExtensionName = "mcp23s17"

func init() {
	board.RegisterExtension(ExtensionName, board.ExtensionRegistration{
		Params: []string{"spi", "port"},
		Constructor: func(
			ctx context.Context,
			deps board.ExtensionDependencies,
			pinBase int,
			attributes map[string]interface{},
		) (*board.Node, error) {
			var conf mcp23x.SPIConfig
			if err := board.DecodeAttributes(attributes, &conf); err != nil {
				return nil, err
			}
			bus, err := deps.SPIBus()
			if err != nil {
				return nil, err
			}
			return Setup(ctx, deps.Registry, bus, pinBase, conf.ChipSelect, byte(conf.DeviceID), deps.Logger)
		},
	})
}

// Setup enables hardware addressing on the expander with the given device id and registers its
// 16 pins at pinBase.
func Setup(
	ctx context.Context,
	registry *board.Registry,
	bus buses.SPI,
	pinBase int,
	chipSelect string,
	deviceID byte,
	logger logging.Logger,
) (*board.Node, error) {
	regs := mcp23x.SPIRegisters{Bus: bus, ChipSelect: chipSelect, DeviceID: deviceID}
	for _, reg := range []byte{mcp23x.MCP23x17IOCON, mcp23x.MCP23x17IOCONB} {
		if err := regs.WriteRegister(ctx, reg, mcp23x.IOCONInit|mcp23x.IOCONHAEN); err != nil {
			return nil, board.BusUnavailableError(err, "configuring mcp23s17 %d on chip select %s", deviceID, chipSelect)
		}
	}
	exp, err := mcp23x.New(ctx, regs, mcp23x.Layout17)
	if err != nil {
		return nil, board.BusUnavailableError(err, "reading mcp23s17 %d latches", deviceID)
	}
	node, err := registry.AddNode(pinBase, exp.Width(), exp)
	if err != nil {
		return nil, err
	}
	logger.Debugw("mcp23s17 ready", "pin_base", pinBase, "chip_select", chipSelect, "device_id", deviceID)
	return node, nil
}
