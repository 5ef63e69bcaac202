package mcp23017

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

func TestSetup(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewI2C()
	dev := bus.Device(0x20)
	dev.SetRegister(mcp23x.MCP23x17OLATB, 0x10)

	node, err := Setup(ctx, r, bus, 100, 0x20, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, node.Base(), test.ShouldEqual, 100)
	test.That(t, node.Count(), test.ShouldEqual, 16)
	test.That(t, dev.RegisterWrites()[0], test.ShouldResemble,
		fake.RegisterWrite{Register: mcp23x.MCP23x17IOCON, Value: mcp23x.IOCONInit})

	test.That(t, r.DigitalWrite(ctx, 109, board.High), test.ShouldBeNil)
	test.That(t, dev.Register(mcp23x.MCP23x17GPIOB), test.ShouldEqual, byte(0x12))

	dev.SetRegister(mcp23x.MCP23x17GPIOA, 0x04)
	v, err := r.DigitalRead(ctx, 102)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, board.High)

	test.That(t, r.Close(), test.ShouldBeNil)
	test.That(t, dev.Open(), test.ShouldEqual, 0)
}

func TestSetupFailures(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	t.Run("bus unavailable", func(t *testing.T) {
		r := board.NewRegistry(nil, logger)
		bus := fake.NewI2C()
		bus.OpenErr = errors.New("no /dev/i2c-1")
		_, err := Setup(ctx, r, bus, 100, 0x20, logger)
		test.That(t, errors.Is(err, board.ErrBusUnavailable), test.ShouldBeTrue)
		test.That(t, r.Nodes(), test.ShouldBeEmpty)
	})

	t.Run("device does not answer", func(t *testing.T) {
		r := board.NewRegistry(nil, logger)
		bus := fake.NewI2C()
		bus.Device(0x20).Err = errors.New("nack")
		_, err := Setup(ctx, r, bus, 100, 0x20, logger)
		test.That(t, errors.Is(err, board.ErrBusUnavailable), test.ShouldBeTrue)
		test.That(t, r.Nodes(), test.ShouldBeEmpty)
		test.That(t, bus.Device(0x20).Open(), test.ShouldEqual, 0)
	})

	t.Run("range taken", func(t *testing.T) {
		r := board.NewRegistry(nil, logger)
		_, err := r.RegisterNode(110, 1)
		test.That(t, err, test.ShouldBeNil)
		bus := fake.NewI2C()
		_, err = Setup(ctx, r, bus, 100, 0x20, logger)
		test.That(t, errors.Is(err, board.ErrRangeOverlap), test.ShouldBeTrue)
		test.That(t, bus.Device(0x20).Open(), test.ShouldEqual, 0)
	})
}

func TestExtension(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewI2C()
	deps := board.ExtensionDependencies{Registry: r, I2C: bus, Logger: logger}

	node, err := board.LoadExtension(ctx, deps, "mcp23017:100:0x21")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, node.Count(), test.ShouldEqual, 16)
	test.That(t, bus.Device(0x21).Open(), test.ShouldEqual, 1)

	_, err = board.LoadExtension(ctx, deps, "mcp23017:200:0x99")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = board.LoadExtension(ctx, board.ExtensionDependencies{Registry: r}, "mcp23017:200:0x22")
	test.That(t, errors.Is(err, board.ErrBusUnavailable), test.ShouldBeTrue)
}
