// Package mcp3422 drives the Microchip MCP3422/3/4 delta-sigma ADCs over I2C in one-shot mode.
package mcp3422

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/devices"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the converter registers under.
const ExtensionName = "mcp3422"

// SampleRate selects conversion speed and resolution.
type SampleRate int

// Sample rates.
const (
	SampleRate3_75 SampleRate = iota // 18 bits
	SampleRate15                     // 16 bits
	SampleRate60                     // 14 bits
	SampleRate240                    // 12 bits
)

// Gain selects the PGA setting.
type Gain int

// Gains.
const (
	Gain1 Gain = iota
	Gain2
	Gain4
	Gain8
)

const (
	pinCount = 4

	configStart  = 0x80 // one-shot, start conversion
	notReady     = 0x80 // set in the trailing config byte until the conversion is done
	pollInterval = time.Millisecond
)

// Config is the extension configuration.
type Config struct {
	Address    int `json:"i2c"`
	SampleRate int `json:"sample_rate"`
	Gain       int `json:"gain"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if err := devices.ValidateI2CAddress(path, conf.Address); err != nil {
		return err
	}
	if conf.SampleRate < int(SampleRate3_75) || conf.SampleRate > int(SampleRate240) {
		return errors.Errorf("%s: sample_rate must be between 0 and 3, got %d", path, conf.SampleRate)
	}
	if conf.Gain < int(Gain1) || conf.Gain > int(Gain8) {
		return errors.Errorf("%s: gain must be between 0 and 3, got %d", path, conf.Gain)
	}
	return nil
}

func init() {
	board.RegisterExtension(ExtensionName, board.ExtensionRegistration{
		Params: []string{"i2c", "sample_rate", "gain"},
		Constructor: func(
			ctx context.Context,
			deps board.ExtensionDependencies,
			pinBase int,
			attributes map[string]interface{},
		) (*board.Node, error) {
			var conf Config
			if err := board.DecodeAttributes(attributes, &conf); err != nil {
				return nil, err
			}
			bus, err := deps.I2CBus()
			if err != nil {
				return nil, err
			}
			return Setup(ctx, deps.Registry, bus, pinBase, byte(conf.Address),
				SampleRate(conf.SampleRate), Gain(conf.Gain), deps.Logger)
		},
	})
}

// Setup registers the converter at addr on pinBase. Every read uses rate and gain.
func Setup(
	ctx context.Context,
	registry *board.Registry,
	bus buses.I2C,
	pinBase int,
	addr byte,
	rate SampleRate,
	gain Gain,
	logger logging.Logger,
) (*board.Node, error) {
	return setupWithClock(ctx, registry, bus, pinBase, addr, rate, gain, clock.New(), logger)
}

func setupWithClock(
	ctx context.Context,
	registry *board.Registry,
	bus buses.I2C,
	pinBase int,
	addr byte,
	rate SampleRate,
	gain Gain,
	clk clock.Clock,
	logger logging.Logger,
) (*board.Node, error) {
	handle, err := bus.OpenHandle(addr)
	if err != nil {
		return nil, board.BusUnavailableError(err, "opening mcp3422 at %#x", addr)
	}
	adc := &converter{handle: handle, clock: clk, rate: rate & 3, gain: gain & 3}
	node, err := registry.AddNode(pinBase, pinCount, adc)
	if err != nil {
		return nil, multierr.Combine(err, handle.Close())
	}
	logger.Debugw("mcp3422 ready", "pin_base", pinBase, "address", addr, "sample_rate", rate, "gain", gain)
	return node, nil
}

type converter struct {
	mu     sync.Mutex
	handle buses.I2CHandle
	clock  clock.Clock
	rate   SampleRate
	gain   Gain
}

func (c *converter) config(pin int) byte {
	return configStart | byte(pin&3)<<5 | byte(c.rate)<<2 | byte(c.gain)
}

// AnalogRead starts a conversion and polls until the device clears its not-ready bit.
func (c *converter) AnalogRead(ctx context.Context, pin int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.handle.Write(ctx, []byte{c.config(pin)}); err != nil {
		return 0, err
	}
	n := 3
	if c.rate == SampleRate3_75 {
		n = 4
	}
	var buf []byte
	for {
		var err error
		if buf, err = c.handle.Read(ctx, n); err != nil {
			return 0, err
		}
		if buf[n-1]&notReady == 0 {
			break
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-c.clock.After(pollInterval):
		}
	}
	return decode(c.rate, buf), nil
}

func decode(rate SampleRate, buf []byte) int {
	switch rate {
	case SampleRate3_75:
		return int(buf[0]&0x03)<<16 | int(buf[1])<<8 | int(buf[2])
	case SampleRate15:
		return int(buf[0])<<8 | int(buf[1])
	case SampleRate60:
		return int(buf[0]&0x3F)<<8 | int(buf[1])
	default:
		return int(buf[0]&0x0F)<<8 | int(buf[1])
	}
}

func (c *converter) Close() error {
	return c.handle.Close()
}
