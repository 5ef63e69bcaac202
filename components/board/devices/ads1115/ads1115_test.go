package ads1115

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

func TestConfig(t *testing.T) {
	c := &converter{gain: gains[DefaultGain], dataRate: dataRates[DefaultDataRate]}
	test.That(t, c.config(0), test.ShouldEqual, uint16(0xC383))
	test.That(t, c.config(5), test.ShouldEqual, uint16(0xB383))

	ctx := context.Background()
	test.That(t, c.DigitalWrite(ctx, 0, 3), test.ShouldBeNil)
	test.That(t, c.DigitalWrite(ctx, 1, 6), test.ShouldBeNil)
	test.That(t, c.config(2), test.ShouldEqual, uint16(0xE7C3))

	// out of range falls back to the defaults
	test.That(t, c.DigitalWrite(ctx, 0, 9), test.ShouldBeNil)
	test.That(t, c.DigitalWrite(ctx, 3, -1), test.ShouldBeNil)
	test.That(t, c.config(0), test.ShouldEqual, uint16(0xC383))

	// pin 4 aliases pin 0 for writes
	test.That(t, c.DigitalWrite(ctx, 4, 3), test.ShouldBeNil)
	test.That(t, c.gain, test.ShouldEqual, gains[3])
	test.That(t, c.dataRate, test.ShouldEqual, dataRates[DefaultDataRate])
	test.That(t, c.DigitalWrite(ctx, 6, 0), test.ShouldBeNil)
	test.That(t, c.dataRate, test.ShouldEqual, dataRates[0])
}

func TestAnalogRead(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewI2C()
	dev := bus.Device(0x48)

	_, err := Setup(ctx, r, bus, 200, 0x48, logger)
	test.That(t, err, test.ShouldBeNil)

	dev.SetWord(regConversion, 0x1234)
	dev.QueueWords(regConfig, 0x0000, 0x0000)
	v, err := r.AnalogRead(ctx, 201)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 0x1234)
	test.That(t, dev.WordWrites(), test.ShouldResemble, []fake.RegisterWrite{
		{Register: regConfig, Value: 0xD383},
	})

	t.Run("negative single ended clamps to zero", func(t *testing.T) {
		dev.SetWord(regConversion, 0xFFF0)
		v, err := r.AnalogRead(ctx, 200)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldEqual, 0)

		v, err = r.AnalogRead(ctx, 204)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldEqual, -16)
	})

	t.Run("bus error", func(t *testing.T) {
		dev.Err = errors.New("nack")
		defer func() { dev.Err = nil }()
		_, err := r.AnalogRead(ctx, 200)
		test.That(t, err, test.ShouldNotBeNil)
	})

	test.That(t, r.Close(), test.ShouldBeNil)
	test.That(t, dev.Open(), test.ShouldEqual, 0)
}

func TestAnalogReadCancel(t *testing.T) {
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewI2C()
	dev := bus.Device(0x49)

	_, err := setupWithClock(context.Background(), r, bus, 200, 0x49, clock.NewMock(), logger)
	test.That(t, err, test.ShouldBeNil)

	dev.QueueWords(regConfig, 0x0000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.AnalogRead(ctx, 200)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestThresholds(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	bus := fake.NewI2C()
	dev := bus.Device(0x48)

	_, err := Setup(ctx, r, bus, 200, 0x48, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, r.AnalogWrite(ctx, 200, -40000), test.ShouldBeNil)
	test.That(t, r.AnalogWrite(ctx, 201, 40000), test.ShouldBeNil)
	test.That(t, r.AnalogWrite(ctx, 202, 5), test.ShouldBeNil)
	test.That(t, dev.Word(regLoThresh), test.ShouldEqual, uint16(0x8001))
	test.That(t, dev.Word(regHiThresh), test.ShouldEqual, uint16(0x7FFF))
	test.That(t, len(dev.WordWrites()), test.ShouldEqual, 2)

	test.That(t, r.AnalogWrite(ctx, 204, 100), test.ShouldBeNil)
	test.That(t, r.AnalogWrite(ctx, 205, 200), test.ShouldBeNil)
	test.That(t, r.AnalogWrite(ctx, 207, 300), test.ShouldBeNil)
	test.That(t, dev.Word(regLoThresh), test.ShouldEqual, uint16(100))
	test.That(t, dev.Word(regHiThresh), test.ShouldEqual, uint16(200))
	test.That(t, len(dev.WordWrites()), test.ShouldEqual, 4)
}

func TestExtension(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	deps := board.ExtensionDependencies{Registry: r, I2C: fake.NewI2C(), Logger: logger}

	node, err := board.LoadExtension(ctx, deps, "ads1115:200:0x48")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, node.Count(), test.ShouldEqual, 8)
}
