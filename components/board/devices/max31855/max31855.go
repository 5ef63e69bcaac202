// Package max31855 drives the MAX31855 thermocouple-to-digital converter over SPI.
//
// Pin 0 reads the thermocouple temperature in quarter degrees Celsius. Pin 1 reads the fault
// bits: 1 for an open circuit, 2 for a short to ground and 4 for a short to VCC.
//
// Datasheet: https://datasheets.maximintegrated.com/en/ds/MAX31855.pdf
package max31855

import (
	"context"
	"encoding/binary"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the converter registers under.
const ExtensionName = "max31855"

const (
	pinCount = 2
	baud     = 5000000

	// the thermocouple reading is the signed top 14 bits of the 32-bit frame
	thermocoupleShift = 18
	faultMask         = 0x07
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

// Setup registers the converter on chipSelect at pinBase.
func Setup(
	ctx context.Context,
	registry *board.Registry,
	bus buses.SPI,
	pinBase int,
	chipSelect string,
	logger logging.Logger,
) (*board.Node, error) {
	if err := devices.ProbeSPI(ctx, bus, baud, chipSelect, 0); err != nil {
		return nil, board.BusUnavailableError(err, "opening max31855 on chip select %s", chipSelect)
	}
	node, err := registry.AddNode(pinBase, pinCount, &converter{bus: bus, chipSelect: chipSelect})
	if err != nil {
		return nil, err
	}
	logger.Debugw("max31855 ready", "pin_base", pinBase, "chip_select", chipSelect)
	return node, nil
}

type converter struct {
	bus        buses.SPI
	chipSelect string
}

func (c *converter) AnalogRead(ctx context.Context, pin int) (int, error) {
	// Perform a 32-bit read of the device.
	rx, err := buses.Xfer(ctx, c.bus, baud, c.chipSelect, 0, make([]byte, 4))
	if err != nil {
		return 0, err
	}
	frame := binary.BigEndian.Uint32(rx)
	if pin == 0 {
		return int(int32(frame) >> thermocoupleShift), nil
	}
	return int(frame & faultMask), nil
}
