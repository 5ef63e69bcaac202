package mcp3004

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/fake"
	"go.viam.com/wiring/logging"
)

func TestAnalogRead(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewSPI()
	bus.Responder = func(chipSelect string, tx []byte) []byte {
		// echo the channel in the high bits so each read is distinguishable
		ch := (tx[1] >> 4) & 7
		return []byte{0, 0xFC | ch&3, 0x10 + ch}
	}

	node, err := board.LoadExtension(ctx, board.ExtensionDependencies{Registry: r, SPI: bus, Logger: logger}, "mcp3004:300:0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, node.Count(), test.ShouldEqual, 8)

	v, err := r.AnalogRead(ctx, 306)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 0x216)
	test.That(t, bus.Transfers()[0].Tx, test.ShouldResemble, []byte{0x01, 0xE0, 0x00})

	v, err = r.AnalogRead(ctx, 300)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 0x010)
	test.That(t, bus.Transfers()[1].Tx, test.ShouldResemble, []byte{0x01, 0x80, 0x00})
}
