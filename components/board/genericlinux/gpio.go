//go:build linux

package genericlinux

import (
	"context"
	"sync"
	"time"

	"github.com/mkch/gpio"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/logging"
)

const consumerName = "wiring-gpio"

// CharDevBackend is a native backend serving the lines of one gpiochip character device through
// the ioctl interface, indirectly by way of mkch's gpio package. Pin n is line offset n of the
// chip. Lines are opened on first use and held until Close.
type CharDevBackend struct {
	devicePath string
	logger     logging.Logger

	mu      sync.Mutex
	pins    map[int]*gpioPin
	closed  bool
	pwmFreq uint

	cancelCtx               context.Context
	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup
}

// NewCharDevBackend returns a backend for the chip at devicePath, such as /dev/gpiochip0. The
// chip is opened once to make sure it exists.
func NewCharDevBackend(devicePath string, logger logging.Logger) (*CharDevBackend, error) {
	chip, err := gpio.OpenChip(devicePath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening gpio chip %q", devicePath)
	}
	utils.UncheckedError(chip.Close())

	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	return &CharDevBackend{
		devicePath: devicePath,
		logger:     logger,
		pins:       map[int]*gpioPin{},
		pwmFreq:    DefaultPWMFrequencyHz,
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
	}, nil
}

func (b *CharDevBackend) pin(n int) (*gpioPin, error) {
	if n < 0 {
		return nil, errors.Errorf("invalid gpio line %d", n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("gpio backend is closed")
	}
	pin, ok := b.pins[n]
	if !ok {
		pin = &gpioPin{
			devicePath: b.devicePath,
			offset:     uint32(n),
			pwmFreqHz:  b.pwmFreq,
			cancelCtx:  b.cancelCtx,
			waitGroup:  &b.activeBackgroundWorkers,
			logger:     b.logger,
		}
		b.pins[n] = pin
	}
	return pin, nil
}

// PinMode reopens the line as an input or output. PWMOutput opens it as an output for PWMWrite.
func (b *CharDevBackend) PinMode(ctx context.Context, pin int, mode board.PinMode) error {
	p, err := b.pin(pin)
	if err != nil {
		return err
	}
	return p.setMode(mode)
}

// DigitalRead reads the level of a line.
func (b *CharDevBackend) DigitalRead(ctx context.Context, pin int) (int, error) {
	p, err := b.pin(pin)
	if err != nil {
		return board.Low, err
	}
	return p.get()
}

// DigitalWrite drives a line, stopping any PWM running on it.
func (b *CharDevBackend) DigitalWrite(ctx context.Context, pin, value int) error {
	p, err := b.pin(pin)
	if err != nil {
		return err
	}
	return p.set(value != board.Low)
}

// PWMWrite drives a software PWM signal on a line with a duty cycle of value/PWMRange.
func (b *CharDevBackend) PWMWrite(ctx context.Context, pin, value int) error {
	p, err := b.pin(pin)
	if err != nil {
		return err
	}
	return p.setPWM(pwmDutyCycle(value))
}

// SetPWMFrequency changes the software PWM frequency of a line.
func (b *CharDevBackend) SetPWMFrequency(pin int, freqHz uint) error {
	p, err := b.pin(pin)
	if err != nil {
		return err
	}
	return p.setPWMFreq(freqHz)
}

// Close stops every PWM loop and releases every open line.
func (b *CharDevBackend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.cancelFunc()
	pins := b.pins
	b.pins = map[int]*gpioPin{}
	b.mu.Unlock()
	b.activeBackgroundWorkers.Wait()

	var err error
	for _, pin := range pins {
		err = multierr.Combine(err, pin.Close())
	}
	return err
}

type gpioPin struct {
	// These values should both be considered immutable.
	devicePath string
	offset     uint32

	// These values are mutable. Lock the mutex when interacting with them.
	line            *gpio.Line
	isInput         bool
	pwmRunning      bool
	pwmFreqHz       uint
	pwmDutyCyclePct float64

	mu        sync.Mutex
	cancelCtx context.Context
	waitGroup *sync.WaitGroup
	logger    logging.Logger
}

// This is a private helper function that should only be called when the mutex is locked. It sets
// pin.line to a valid struct opened in the requested direction or returns an error.
func (pin *gpioPin) openGpioFd(isInput bool) error {
	if pin.line != nil {
		if pin.isInput == isInput {
			return nil // If the pin is already opened the right way, don't re-open it.
		}
		if err := pin.line.Close(); err != nil {
			return err
		}
		pin.line = nil
	}

	chip, err := gpio.OpenChip(pin.devicePath)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(chip.Close)

	// The 0 just means the default value for this pin is off.
	var line *gpio.Line
	if isInput {
		line, err = chip.OpenLine(pin.offset, 0, gpio.Input, consumerName)
	} else {
		line, err = chip.OpenLine(pin.offset, 0, gpio.Output, consumerName)
	}
	if err != nil {
		return err
	}
	pin.line = line
	pin.isInput = isInput
	return nil
}

func (pin *gpioPin) setMode(mode board.PinMode) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if mode != board.PWMOutput {
		pin.pwmRunning = false
	}
	return pin.openGpioFd(mode == board.Input)
}

func (pin *gpioPin) set(isHigh bool) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if err := pin.openGpioFd(false); err != nil {
		return err
	}

	pin.pwmRunning = false
	return pin.setInternal(isHigh)
}

// This function assumes you've already locked the mutex. It sets the value of a pin without
// changing whether the pin is part of a PWM loop.
func (pin *gpioPin) setInternal(isHigh bool) error {
	var value byte
	if isHigh {
		value = 1
	}
	return pin.line.SetValue(value)
}

func (pin *gpioPin) get() (int, error) {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	// An output line reads back the level it is driving.
	if err := pin.openGpioFd(pin.line == nil || pin.isInput); err != nil {
		return board.Low, err
	}

	value, err := pin.line.Value()
	if err != nil {
		return board.Low, err
	}

	// We'd expect value to be either 0 or 1, but any non-zero value should be considered high.
	if value != 0 {
		return board.High, nil
	}
	return board.Low, nil
}

func (pin *gpioPin) setPWM(dutyCyclePct float64) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	if err := pin.openGpioFd(false); err != nil {
		return err
	}
	pin.pwmDutyCyclePct = dutyCyclePct
	return pin.startSoftwarePWM()
}

func (pin *gpioPin) setPWMFreq(freqHz uint) error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	pin.pwmFreqHz = freqHz
	if pin.line == nil {
		return nil
	}
	return pin.startSoftwarePWM()
}

// Lock the mutex before calling this! We'll spin up a background goroutine to create a PWM signal
// in software, if we're supposed to and one isn't already running.
func (pin *gpioPin) startSoftwarePWM() error {
	if pin.pwmDutyCyclePct == 0 || pin.pwmFreqHz == 0 {
		// Stop any PWM loop we might have started already, and turn off the pin.
		pin.pwmRunning = false
		return pin.setInternal(false)
	}
	if pin.pwmDutyCyclePct >= 1 {
		pin.pwmRunning = false
		return pin.setInternal(true)
	}
	if pin.pwmRunning {
		// We're already running a software PWM loop for this pin, so we don't need another.
		return nil
	}

	pin.pwmRunning = true
	pin.waitGroup.Add(1)
	utils.ManagedGo(pin.softwarePwmLoop, pin.waitGroup.Done)
	return nil
}

// We turn the pin either on or off, and then wait until it's time to turn it off or on again (or
// until we're supposed to shut down). We return whether we should continue the software PWM cycle.
func (pin *gpioPin) halfPwmCycle(shouldBeOn bool) bool {
	var dutyCycle float64
	var freqHz uint

	shouldContinue := func() bool {
		pin.mu.Lock()
		defer pin.mu.Unlock()
		if !pin.pwmRunning || pin.line == nil {
			return false
		}

		dutyCycle = pin.pwmDutyCyclePct
		freqHz = pin.pwmFreqHz

		// If there's an error turning the pin on or off, don't stop the whole loop. Hopefully we
		// can toggle it next time.
		if err := pin.setInternal(shouldBeOn); err != nil {
			pin.logger.Debugw("error toggling pwm line", "pin", pin.offset, "error", err)
		}
		return true
	}()

	if !shouldContinue {
		return false
	}

	if !shouldBeOn {
		dutyCycle = 1 - dutyCycle
	}
	duration := time.Duration(float64(time.Second) * dutyCycle / float64(freqHz))
	return utils.SelectContextOrWait(pin.cancelCtx, duration)
}

func (pin *gpioPin) softwarePwmLoop() {
	for {
		if !pin.halfPwmCycle(true) {
			return
		}
		if !pin.halfPwmCycle(false) {
			return
		}
	}
}

func (pin *gpioPin) Close() error {
	pin.mu.Lock()
	defer pin.mu.Unlock()

	pin.pwmRunning = false
	if pin.line == nil {
		return nil // Never opened, so no need to close
	}

	err := pin.line.Close()
	pin.line = nil
	return err
}
