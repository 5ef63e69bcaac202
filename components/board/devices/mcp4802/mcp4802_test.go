package mcp4802

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/fake"
	"go.viam.com/wiring/logging"
)

func TestEncode(t *testing.T) {
	test.That(t, encode(0, 0xAB), test.ShouldResemble, []byte{0x3A, 0xB0})
	test.That(t, encode(1, 0xAB), test.ShouldResemble, []byte{0xBA, 0xB0})
	test.That(t, encode(0, 0), test.ShouldResemble, []byte{0x30, 0x00})
	test.That(t, encode(1, 0x1FF), test.ShouldResemble, []byte{0xBF, 0xF0})
}

func TestAnalogWrite(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewSPI()

	_, err := board.LoadExtension(ctx, board.ExtensionDependencies{Registry: r, SPI: bus, Logger: logger}, "mcp4802:100:1")
	test.That(t, err, test.ShouldBeNil)

	test.That(t, r.AnalogWrite(ctx, 101, 200), test.ShouldBeNil)
	xfers := bus.Transfers()
	test.That(t, len(xfers), test.ShouldEqual, 1)
	test.That(t, xfers[0], test.ShouldResemble, fake.Transfer{
		Baud: baud, ChipSelect: "1", Tx: []byte{0xBC, 0x80}, Rx: []byte{0, 0},
	})
}

func TestSetupFailure(t *testing.T) {
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewSPI()
	bus.OpenErr = errors.New("no spidev")

	_, err := Setup(context.Background(), r, bus, 100, "0", logger)
	test.That(t, errors.Is(err, board.ErrBusUnavailable), test.ShouldBeTrue)
	test.That(t, r.Nodes(), test.ShouldBeEmpty)

	// the bus opens but the chip select has no port behind it
	bus.OpenErr = nil
	bus.PortErr = errors.New("no SPI0.5")
	_, err = Setup(context.Background(), r, bus, 100, "5", logger)
	test.That(t, errors.Is(err, board.ErrBusUnavailable), test.ShouldBeTrue)
	test.That(t, r.Nodes(), test.ShouldBeEmpty)
	test.That(t, bus.Transfers(), test.ShouldBeEmpty)
}
