// Package ads1115 drives the TI ADS1115 16-bit 4-channel ADC over I2C.
//
// Pins 0-3 read the single-ended inputs AIN0-AIN3 and pins 4-7 read the differential pairs 0-1,
// 2-3, 0-3 and 1-3. DigitalWrite on pin 0 selects the gain and on any other pin selects the
// data rate; pins 4-7 alias 0-3 for writes. AnalogWrite on pins 0 and 1 sets the comparator's
// low and high thresholds.
package ads1115

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the converter registers under.
const ExtensionName = "ads1115"

const pinCount = 8

// Registers.
const (
	regConversion = 0x00
	regConfig     = 0x01
	regLoThresh   = 0x02
	regHiThresh   = 0x03
)

// Config register bits.
const (
	configOS      = 0x8000 // write starts a single conversion, read 1 means complete
	configMuxMask = 0x7000
	configPGAMask = 0x0E00
	configDRMask  = 0x00E0
	// single-shot, comparator disabled
	configDefault = 0x8583
)

// Gain and data rate settings, indexed by the value passed to DigitalWrite.
var (
	gains = []uint16{
		0x0000, // +/-6.144V
		0x0200, // +/-4.096V
		0x0400, // +/-2.048V
		0x0600, // +/-1.024V
		0x0800, // +/-0.512V
		0x0A00, // +/-0.256V
	}
	dataRates = []uint16{
		0x0000, // 8 SPS
		0x0020, // 16
		0x0040, // 32
		0x0060, // 64
		0x0080, // 128
		0x00A0, // 475
		0x00C0, // 860
	}
	muxes = [pinCount]uint16{
		0x4000, 0x5000, 0x6000, 0x7000, // AIN0..AIN3
		0x0000, // AIN0 - AIN1
		0x3000, // AIN2 - AIN3
		0x1000, // AIN0 - AIN3
		0x2000, // AIN1 - AIN3
	}
)

const (
	// DefaultGain is +/-4.096V.
	DefaultGain = 1
	// DefaultDataRate is 128 samples per second.
	DefaultDataRate = 4

	pollInterval = 100 * time.Microsecond
	maxThreshold = 32767
)

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

// Setup registers the converter at addr on pinBase with the default gain and data rate.
func Setup(
	ctx context.Context,
	registry *board.Registry,
	bus buses.I2C,
	pinBase int,
	addr byte,
	logger logging.Logger,
) (*board.Node, error) {
	return setupWithClock(ctx, registry, bus, pinBase, addr, clock.New(), logger)
}

func setupWithClock(
	ctx context.Context,
	registry *board.Registry,
	bus buses.I2C,
	pinBase int,
	addr byte,
	clk clock.Clock,
	logger logging.Logger,
) (*board.Node, error) {
	handle, err := bus.OpenHandle(addr)
	if err != nil {
		return nil, board.BusUnavailableError(err, "opening ads1115 at %#x", addr)
	}
	adc := &converter{
		handle:   handle,
		clock:    clk,
		gain:     gains[DefaultGain],
		dataRate: dataRates[DefaultDataRate],
	}
	node, err := registry.AddNode(pinBase, pinCount, adc)
	if err != nil {
		return nil, multierr.Combine(err, handle.Close())
	}
	logger.Debugw("ads1115 ready", "pin_base", pinBase, "address", addr)
	return node, nil
}

type converter struct {
	handle buses.I2CHandle
	clock  clock.Clock

	mu       sync.Mutex
	gain     uint16
	dataRate uint16
}

func (c *converter) config(pin int) uint16 {
	config := uint16(configDefault)
	config = config&^configPGAMask | c.gain
	config = config&^configDRMask | c.dataRate
	config = config&^configMuxMask | muxes[pin&7]
	return config | configOS
}

// AnalogRead starts a single conversion and blocks until it completes or ctx is done.
func (c *converter) AnalogRead(ctx context.Context, pin int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.handle.WriteWordData(ctx, regConfig, c.config(pin)); err != nil {
		return 0, err
	}
	for {
		status, err := c.handle.ReadWordData(ctx, regConfig)
		if err != nil {
			return 0, err
		}
		if status&configOS != 0 {
			break
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-c.clock.After(pollInterval):
		}
	}
	raw, err := c.handle.ReadWordData(ctx, regConversion)
	if err != nil {
		return 0, err
	}
	result := int(int16(raw))
	// with a 0V input the internal reference of a single-ended channel can sit above it
	if pin&7 < 4 && result < 0 {
		return 0, nil
	}
	return result, nil
}

// DigitalWrite picks a gain (pins 0 and 4) or data rate (other pins) by index. Out of range
// indices select the default.
func (c *converter) DigitalWrite(ctx context.Context, pin, value int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pin&3 == 0 {
		if value < 0 || value >= len(gains) {
			value = DefaultGain
		}
		c.gain = gains[value]
		return nil
	}
	if value < 0 || value >= len(dataRates) {
		value = DefaultDataRate
	}
	c.dataRate = dataRates[value]
	return nil
}

// AnalogWrite sets the low (pins 0 and 4) or high (pins 1 and 5) comparator threshold.
func (c *converter) AnalogWrite(ctx context.Context, pin, value int) error {
	var reg byte
	switch pin & 3 {
	case 0:
		reg = regLoThresh
	case 1:
		reg = regHiThresh
	default:
		return nil
	}
	if value < -maxThreshold {
		value = -maxThreshold
	} else if value > maxThreshold {
		value = maxThreshold
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle.WriteWordData(ctx, reg, uint16(int16(value)))
}

func (c *converter) Close() error {
	return c.handle.Close()
}
