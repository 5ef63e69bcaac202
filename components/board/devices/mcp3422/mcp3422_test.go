package mcp3422

import (
	"context"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/fake"
	"go.viam.com/wiring/logging"
)

func TestDecode(t *testing.T) {
	for _, tc := range []struct {
		rate     SampleRate
		buf      []byte
		expected int
	}{
		{SampleRate3_75, []byte{0xFF, 0x12, 0x34, 0x00}, 0x31234},
		{SampleRate15, []byte{0x12, 0x34, 0x00}, 0x1234},
		{SampleRate60, []byte{0xFF, 0x34, 0x00}, 0x3F34},
		{SampleRate240, []byte{0xFF, 0x34, 0x00}, 0xF34},
	} {
		test.That(t, decode(tc.rate, tc.buf), test.ShouldEqual, tc.expected)
	}
}

func TestAnalogRead(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewI2C()
	dev := bus.Device(0x68)

	_, err := Setup(ctx, r, bus, 400, 0x68, SampleRate15, Gain4, logger)
	test.That(t, err, test.ShouldBeNil)

	dev.QueueRead(0x00, 0x00, 0x80)
	dev.QueueRead(0x01, 0x02, 0x00)
	v, err := r.AnalogRead(ctx, 402)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 0x0102)
	// start | channel 2 | 15 SPS | x4
	test.That(t, dev.Writes(), test.ShouldResemble, [][]byte{{0x80 | 2<<5 | 1<<2 | 2}})

	test.That(t, r.Close(), test.ShouldBeNil)
	test.That(t, dev.Open(), test.ShouldEqual, 0)
}

func TestAnalogReadCancel(t *testing.T) {
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewI2C()
	dev := bus.Device(0x68)

	_, err := setupWithClock(context.Background(), r, bus, 400, 0x68, SampleRate240, Gain1, clock.NewMock(), logger)
	test.That(t, err, test.ShouldBeNil)

	dev.QueueRead(0x00, 0x00, 0x80)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.AnalogRead(ctx, 400)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestConfigValidate(t *testing.T) {
	test.That(t, (&Config{Address: 0x68, SampleRate: 3, Gain: 3}).Validate("path"), test.ShouldBeNil)
	test.That(t, (&Config{SampleRate: 3}).Validate("path"), test.ShouldNotBeNil)

	err := (&Config{Address: 0x68, SampleRate: 4}).Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sample_rate")

	err = (&Config{Address: 0x68, Gain: -1}).Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "gain")
}

func TestExtension(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewI2C()
	deps := board.ExtensionDependencies{Registry: r, I2C: bus, Logger: logger}

	_, err := board.LoadExtension(ctx, deps, "mcp3422:400:0x68:3:0")
	test.That(t, err, test.ShouldBeNil)

	bus.Device(0x68).QueueRead(0x0A, 0xBC, 0x00)
	v, err := r.AnalogRead(ctx, 401)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 0xABC)

	_, err = board.LoadExtension(ctx, deps, "mcp3422:500:0x69:7:0")
	test.That(t, err, test.ShouldNotBeNil)
}
