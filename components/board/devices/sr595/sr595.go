// Package sr595 drives a chain of 74x595 shift registers bit-banged over three pins of the
// registry. The outputs are write-only; the driver keeps the last value shifted out.
package sr595

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/logging"
)

// ExtensionName is the name the shift register registers under.
const ExtensionName = "sr595"

const (
	minPins = 8
	maxPins = 32

	pulse = time.Microsecond
)

// Config is the extension configuration. Data, Clock and Latch are pin numbers in the registry.
type Config struct {
	Pins  int `json:"pins"`
	Data  int `json:"data"`
	Clock int `json:"clock"`
	Latch int `json:"latch"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.Pins < minPins || conf.Pins > maxPins {
		return errors.Errorf("%s: pins must be between %d and %d, got %d", path, minPins, maxPins, conf.Pins)
	}
	for name, pin := range map[string]int{"data": conf.Data, "clock": conf.Clock, "latch": conf.Latch} {
		if pin < 0 {
			return errors.Errorf("%s: %s pin cannot be negative", path, name)
		}
	}
	if conf.Data == conf.Clock || conf.Data == conf.Latch || conf.Clock == conf.Latch {
		return errors.Errorf("%s: data, clock and latch must be different pins", path)
	}
	return nil
}

func init() {
	board.RegisterExtension(ExtensionName, board.ExtensionRegistration{
		Params: []string{"pins", "data", "clock", "latch"},
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
			return Setup(ctx, deps.Registry, pinBase, conf, deps.Logger)
		},
	})
}

// Setup parks the data and clock pins low and the latch high, makes all three outputs, and
// registers conf.Pins outputs at pinBase.
func Setup(ctx context.Context, registry *board.Registry, pinBase int, conf Config, logger logging.Logger) (*board.Node, error) {
	if err := conf.Validate("sr595"); err != nil {
		return nil, err
	}
	// a chain layered on its own outputs would recurse forever
	for _, pin := range []int{conf.Data, conf.Clock, conf.Latch} {
		if pin >= pinBase && pin < pinBase+conf.Pins {
			return nil, errors.Errorf("sr595: control pin %d is inside its own range", pin)
		}
	}

	sr := &shiftRegister{registry: registry, clock: clock.New(), conf: conf}
	if err := sr.init(ctx); err != nil {
		return nil, err
	}
	node, err := registry.AddNode(pinBase, conf.Pins, sr)
	if err != nil {
		return nil, err
	}
	logger.Debugw("sr595 ready", "pin_base", pinBase, "pins", conf.Pins,
		"data", conf.Data, "clock", conf.Clock, "latch", conf.Latch)
	return node, nil
}

type shiftRegister struct {
	registry *board.Registry
	clock    clock.Clock
	conf     Config

	mu     sync.Mutex
	output uint32
}

func (sr *shiftRegister) init(ctx context.Context) error {
	for _, w := range []struct{ pin, value int }{
		{sr.conf.Data, board.Low},
		{sr.conf.Clock, board.Low},
		{sr.conf.Latch, board.High},
	} {
		if err := sr.registry.DigitalWrite(ctx, w.pin, w.value); err != nil {
			return err
		}
	}
	for _, pin := range []int{sr.conf.Data, sr.conf.Clock, sr.conf.Latch} {
		if err := sr.registry.PinMode(ctx, pin, board.Output); err != nil {
			return err
		}
	}
	return nil
}

// DigitalWrite updates one output and shifts the whole chain out, most significant bit first.
// The outputs change on the rising edge of the latch.
func (sr *shiftRegister) DigitalWrite(ctx context.Context, pin, value int) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if value == board.Low {
		sr.output &^= 1 << pin
	} else {
		sr.output |= 1 << pin
	}

	if err := sr.write(ctx, sr.conf.Latch, board.Low); err != nil {
		return err
	}
	for bit := sr.conf.Pins - 1; bit >= 0; bit-- {
		level := board.Low
		if sr.output&(1<<bit) != 0 {
			level = board.High
		}
		if err := sr.registry.DigitalWrite(ctx, sr.conf.Data, level); err != nil {
			return err
		}
		if err := sr.write(ctx, sr.conf.Clock, board.High); err != nil {
			return err
		}
		if err := sr.write(ctx, sr.conf.Clock, board.Low); err != nil {
			return err
		}
	}
	return sr.write(ctx, sr.conf.Latch, board.High)
}

// write drives pin and holds it for one pulse.
func (sr *shiftRegister) write(ctx context.Context, pin, value int) error {
	if err := sr.registry.DigitalWrite(ctx, pin, value); err != nil {
		return err
	}
	sr.clock.Sleep(pulse)
	return nil
}
