// Package mcp23008 drives the MCP23008 8-bit I/O expander over I2C.
package mcp23008

import (
	"context"

	"go.uber.org/multierr"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices"
	"go.viam.com/wiring/components/board/devices/mcp23x"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the expander registers under.
const ExtensionName = "mcp23008"

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

// Setup initializes the expander at addr and registers its 8 pins at pinBase.
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
		return nil, board.BusUnavailableError(err, "opening mcp23008 at %#x", addr)
	}
	regs := mcp23x.I2CRegisters{Handle: handle}
	if err := regs.WriteRegister(ctx, mcp23x.MCP23x08IOCON, mcp23x.IOCONInit); err != nil {
		return nil, multierr.Combine(board.BusUnavailableError(err, "configuring mcp23008 at %#x", addr), handle.Close())
	}
	exp, err := mcp23x.New(ctx, regs, mcp23x.Layout08)
	if err != nil {
		return nil, multierr.Combine(board.BusUnavailableError(err, "reading mcp23008 latches at %#x", addr), handle.Close())
	}
	node, err := registry.AddNode(pinBase, exp.Width(), exp)
	if err != nil {
		return nil, multierr.Combine(err, handle.Close())
	}
	logger.Debugw("mcp23008 ready", "pin_base", pinBase, "address", addr)
	return node, nil
}
