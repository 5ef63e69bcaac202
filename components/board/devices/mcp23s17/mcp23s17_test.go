package mcp23s17

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices/mcp23x"
	"go.viam.com/wiring/components/board/fake"
	"go.viam.com/wiring/logging"
)

// registerFile answers SPI register reads and writes for one part.
func registerFile(regs map[byte]byte) func(string, []byte) []byte {
	return func(chipSelect string, tx []byte) []byte {
		if tx[0]&1 == 1 {
			return []byte{0, 0, regs[tx[1]]}
		}
		regs[tx[1]] = tx[2]
		return nil
	}
}

func TestSetup(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	regs := map[byte]byte{mcp23x.MCP23x17OLATA: 0x01}
	bus := fake.NewSPI()
	bus.Responder = registerFile(regs)

	node, err := Setup(ctx, r, bus, 100, "0", 2, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, node.Count(), test.ShouldEqual, 16)

	xfers := bus.Transfers()
	test.That(t, xfers[0].Tx, test.ShouldResemble, []byte{0x44, mcp23x.MCP23x17IOCON, 0x28})
	test.That(t, xfers[1].Tx, test.ShouldResemble, []byte{0x44, mcp23x.MCP23x17IOCONB, 0x28})
	test.That(t, xfers[2].Tx, test.ShouldResemble, []byte{0x45, mcp23x.MCP23x17OLATA, 0})
	test.That(t, xfers[3].Tx, test.ShouldResemble, []byte{0x45, mcp23x.MCP23x17OLATB, 0})

	test.That(t, r.DigitalWrite(ctx, 101, board.High), test.ShouldBeNil)
	test.That(t, regs[mcp23x.MCP23x17GPIOA], test.ShouldEqual, byte(0x03))

	test.That(t, r.PinMode(ctx, 115, board.Input), test.ShouldBeNil)
	test.That(t, regs[mcp23x.MCP23x17IODIRB], test.ShouldEqual, byte(0x80))
}

func TestSetupFailure(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewSPI()
	bus.XferErr = errors.New("spidev missing")

	_, err := Setup(ctx, r, bus, 100, "0", 0, logger)
	test.That(t, errors.Is(err, board.ErrBusUnavailable), test.ShouldBeTrue)
	test.That(t, r.Nodes(), test.ShouldBeEmpty)
}

func TestExtension(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewSPI()
	deps := board.ExtensionDependencies{Registry: r, SPI: bus, Logger: logger}

	node, err := board.LoadExtension(ctx, deps, "mcp23s17:100:1:7")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, node.Base(), test.ShouldEqual, 100)
	test.That(t, bus.Transfers()[0].ChipSelect, test.ShouldEqual, "1")
	test.That(t, bus.Transfers()[0].Tx[0], test.ShouldEqual, byte(0x4E))

	_, err = board.LoadExtension(ctx, deps, "mcp23s17:200:1:9")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = board.LoadExtension(ctx, deps, "mcp23s17:200:1")
	test.That(t, err, test.ShouldNotBeNil)
}
