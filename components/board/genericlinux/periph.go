package genericlinux

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/logging"
)

// PeriphBackend is a native backend serving pins through periph.io's GPIO registry. Pin n is
// the pin periph names GPIO<n>, which is usually the SoC's global line number. Which mechanism
// periph uses to reach it (memory-mapped registers or sysfs) depends on the host drivers loaded.
type PeriphBackend struct {
	mu     sync.Mutex
	pwms   map[int]gpio.Duty
	freqs  map[int]physic.Frequency
	logger logging.Logger

	byName func(name string) gpio.PinIO
}

// NewPeriphBackend returns a backend over gpioreg. The periph host drivers must already have been
// initialized.
func NewPeriphBackend(logger logging.Logger) *PeriphBackend {
	return &PeriphBackend{
		pwms:   map[int]gpio.Duty{},
		freqs:  map[int]physic.Frequency{},
		logger: logger,
		byName: gpioreg.ByName,
	}
}

func (b *PeriphBackend) gpioLine(pin int) (gpio.PinIO, error) {
	name := fmt.Sprintf("GPIO%d", pin)
	p := b.byName(name)
	if p == nil {
		return nil, errors.Errorf("no global pin found for %q", name)
	}
	return p, nil
}

// PinMode switches a pin between input and output. Output pins start low.
func (b *PeriphBackend) PinMode(ctx context.Context, pin int, mode board.PinMode) error {
	p, err := b.gpioLine(pin)
	if err != nil {
		return err
	}
	switch mode {
	case board.Input:
		b.clearPWM(pin)
		return p.In(gpio.PullNoChange, gpio.NoEdge)
	case board.Output:
		b.clearPWM(pin)
		return p.Out(gpio.Low)
	case board.PWMOutput:
		return p.Out(gpio.Low)
	default:
		return errors.Errorf("unknown pin mode %d", mode)
	}
}

// PullUpDnControl makes the pin an input with the given pull resistor.
func (b *PeriphBackend) PullUpDnControl(ctx context.Context, pin int, pull board.Pull) error {
	p, err := b.gpioLine(pin)
	if err != nil {
		return err
	}
	var pp gpio.Pull
	switch pull {
	case board.PullOff:
		pp = gpio.Float
	case board.PullDown:
		pp = gpio.PullDown
	case board.PullUp:
		pp = gpio.PullUp
	default:
		return errors.Errorf("unknown pull %d", pull)
	}
	return p.In(pp, gpio.NoEdge)
}

// DigitalRead reads the level of a pin.
func (b *PeriphBackend) DigitalRead(ctx context.Context, pin int) (int, error) {
	p, err := b.gpioLine(pin)
	if err != nil {
		return board.Low, err
	}
	if p.Read() == gpio.High {
		return board.High, nil
	}
	return board.Low, nil
}

// DigitalWrite drives a pin.
func (b *PeriphBackend) DigitalWrite(ctx context.Context, pin, value int) error {
	p, err := b.gpioLine(pin)
	if err != nil {
		return err
	}
	b.clearPWM(pin)
	l := gpio.Low
	if value != board.Low {
		l = gpio.High
	}
	return p.Out(l)
}

// PWMWrite starts hardware PWM on a pin with a duty cycle of value/PWMRange.
func (b *PeriphBackend) PWMWrite(ctx context.Context, pin, value int) error {
	p, err := b.gpioLine(pin)
	if err != nil {
		return err
	}
	duty := gpio.Duty(pwmDutyCycle(value) * float64(gpio.DutyMax))

	b.mu.Lock()
	freq, ok := b.freqs[pin]
	if !ok {
		freq = physic.Hertz * DefaultPWMFrequencyHz
	}
	b.pwms[pin] = duty
	b.mu.Unlock()

	if err := p.PWM(duty, freq); err != nil {
		return errors.Wrapf(err, "pin %d does not support hardware pwm", pin)
	}
	return nil
}

// SetPWMFrequency changes the PWM frequency of a pin, reapplying the current duty cycle.
func (b *PeriphBackend) SetPWMFrequency(pin int, freqHz uint) error {
	p, err := b.gpioLine(pin)
	if err != nil {
		return err
	}
	freq := physic.Hertz * physic.Frequency(freqHz)

	b.mu.Lock()
	b.freqs[pin] = freq
	duty, running := b.pwms[pin]
	b.mu.Unlock()

	if !running {
		return nil
	}
	return p.PWM(duty, freq)
}

func (b *PeriphBackend) clearPWM(pin int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pwms, pin)
}

// Close halts every pin left running PWM.
func (b *PeriphBackend) Close() error {
	b.mu.Lock()
	pins := make([]int, 0, len(b.pwms))
	for pin := range b.pwms {
		pins = append(pins, pin)
	}
	b.pwms = map[int]gpio.Duty{}
	b.mu.Unlock()

	for _, pin := range pins {
		if p, err := b.gpioLine(pin); err == nil {
			if err := p.Halt(); err != nil {
				b.logger.Debugw("error halting pwm", "pin", pin, "error", err)
			}
		}
	}
	return nil
}
