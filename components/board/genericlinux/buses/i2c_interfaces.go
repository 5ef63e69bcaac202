// Package buses offers the SPI and I2C transaction primitives that device drivers use to talk to
// off-chip peripherals.
package buses

import (
	"context"
)

// I2C represents a shareable I2C bus on the board.
type I2C interface {
	// OpenHandle returns a handle for the device at addr. The handle stays open for as long as
	// the device is in use and MUST be closed when done.
	OpenHandle(addr byte) (I2CHandle, error)
}

// I2CHandle is similar to an io handle for a single device on the bus. Every call is one complete
// bus transaction; implementations serialize transactions on the underlying bus.
type I2CHandle interface {
	Write(ctx context.Context, tx []byte) error
	Read(ctx context.Context, count int) ([]byte, error)

	ReadByteData(ctx context.Context, register byte) (byte, error)
	WriteByteData(ctx context.Context, register, data byte) error

	// ReadWordData and WriteWordData move 16 bits most significant byte first, the order used by
	// register-based devices on the wire.
	ReadWordData(ctx context.Context, register byte) (uint16, error)
	WriteWordData(ctx context.Context, register byte, data uint16) error

	ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error)
	WriteBlockData(ctx context.Context, register byte, data []byte) error

	// Close closes the handle and releases the device.
	Close() error
}

// An I2CRegister is a lightweight wrapper around a handle for a particular register.
type I2CRegister struct {
	Handle   I2CHandle
	Register byte
}

// ReadByteData reads a byte from the I2C channel register.
func (reg *I2CRegister) ReadByteData(ctx context.Context) (byte, error) {
	return reg.Handle.ReadByteData(ctx, reg.Register)
}

// WriteByteData writes a byte to the I2C channel register.
func (reg *I2CRegister) WriteByteData(ctx context.Context, data byte) error {
	return reg.Handle.WriteByteData(ctx, reg.Register, data)
}

// UpdateBit reads the register, sets or clears the bits in mask, and writes it back. It returns
// the value written.
func (reg *I2CRegister) UpdateBit(ctx context.Context, mask byte, set bool) (byte, error) {
	old, err := reg.ReadByteData(ctx)
	if err != nil {
		return 0, err
	}
	if set {
		old |= mask
	} else {
		old &^= mask
	}
	return old, reg.WriteByteData(ctx, old)
}
