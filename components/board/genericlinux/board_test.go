package genericlinux

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/fake"
	"go.viam.com/wiring/logging"
)

func TestNewBoard(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	native := fake.NewNative()
	i2cBus := fake.NewI2C()
	spiBus := fake.NewSPI()

	conf := &Config{Extensions: []board.ExtensionConfig{
		{Spec: "mcp23017:100:0x20"},
		{Type: "mcp23017", PinBase: 116, Attributes: map[string]interface{}{"i2c": "0x21"}},
	}}
	b, err := newBoard(ctx, conf, native, i2cBus, spiBus, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Nodes(), test.ShouldHaveLength, 2)
	test.That(t, b.I2C(), test.ShouldEqual, i2cBus)
	test.That(t, b.SPI(), test.ShouldEqual, spiBus)

	test.That(t, b.DigitalWrite(ctx, 3, board.High), test.ShouldBeNil)
	test.That(t, native.CallsTo("DigitalWrite"), test.ShouldResemble, []fake.Call{
		{Op: "DigitalWrite", Pin: 3, Value: board.High},
	})
	test.That(t, b.DigitalWrite(ctx, 117, board.High), test.ShouldBeNil)
	test.That(t, len(native.CallsTo("DigitalWrite")), test.ShouldEqual, 1)

	test.That(t, b.Close(ctx), test.ShouldBeNil)
	test.That(t, native.Closed(), test.ShouldBeTrue)
	test.That(t, spiBus.Closed(), test.ShouldBeTrue)
	test.That(t, i2cBus.Device(0x20).Open(), test.ShouldEqual, 0)
	test.That(t, i2cBus.Device(0x21).Open(), test.ShouldEqual, 0)
}

func TestNewBoardExtensionFailure(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	native := fake.NewNative()
	i2cBus := fake.NewI2C()
	i2cBus.Device(0x21).Err = errors.New("nack")

	conf := &Config{Extensions: []board.ExtensionConfig{
		{Spec: "mcp23017:100:0x20"},
		{Spec: "mcp23017:116:0x21"},
	}}
	_, err := newBoard(ctx, conf, native, i2cBus, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, board.ErrBusUnavailable), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "loading extension 1 (mcp23017:116:0x21)")

	// the first expander and the native backend are closed again
	test.That(t, i2cBus.Device(0x20).Open(), test.ShouldEqual, 0)
	test.That(t, native.Closed(), test.ShouldBeTrue)
}

func TestNewBoardWithoutBus(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)

	conf := &Config{Extensions: []board.ExtensionConfig{{Spec: "mcp23017:100:0x20"}}}
	_, err := newBoard(ctx, conf, fake.NewNative(), nil, nil, logger)
	test.That(t, errors.Is(err, board.ErrBusUnavailable), test.ShouldBeTrue)
}
