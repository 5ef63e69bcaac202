//go:build !linux

package genericlinux

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/logging"
)

// CharDevBackend is only implemented on Linux. This stub lets non-Linux environments build.
type CharDevBackend struct{}

// NewCharDevBackend always fails outside Linux.
func NewCharDevBackend(devicePath string, logger logging.Logger) (*CharDevBackend, error) {
	return nil, errors.Errorf("gpio character devices are only supported on linux, cannot open %q", devicePath)
}

// PinMode is unsupported.
func (b *CharDevBackend) PinMode(ctx context.Context, pin int, mode board.PinMode) error {
	return errors.New("unsupported")
}

// DigitalRead is unsupported.
func (b *CharDevBackend) DigitalRead(ctx context.Context, pin int) (int, error) {
	return board.Low, errors.New("unsupported")
}

// DigitalWrite is unsupported.
func (b *CharDevBackend) DigitalWrite(ctx context.Context, pin, value int) error {
	return errors.New("unsupported")
}

// PWMWrite is unsupported.
func (b *CharDevBackend) PWMWrite(ctx context.Context, pin, value int) error {
	return errors.New("unsupported")
}

// SetPWMFrequency is unsupported.
func (b *CharDevBackend) SetPWMFrequency(pin int, freqHz uint) error {
	return errors.New("unsupported")
}

// Close does nothing.
func (b *CharDevBackend) Close() error {
	return nil
}
