package genericlinux

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"

	"go.viam.com/wiring/components/board/genericlinux/buses"
)

// NewI2CBus returns the periph I2C bus with the given name or number, such as "1" for
// /dev/i2c-1. The bus is opened on the first OpenHandle.
func NewI2CBus(name string) *I2CBus {
	return &I2CBus{name: name, open: i2creg.Open}
}

// I2CBus is a periph I2C bus shared by every device on it. Transactions on the bus are
// serialized.
type I2CBus struct {
	name string
	open func(name string) (i2c.BusCloser, error)

	mu  sync.Mutex
	bus i2c.BusCloser
}

// OpenHandle returns a handle for the device at addr, opening the bus if needed.
func (b *I2CBus) OpenHandle(addr byte) (buses.I2CHandle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus == nil {
		bus, err := b.open(b.name)
		if err != nil {
			return nil, errors.Wrapf(err, "opening i2c bus %q", b.name)
		}
		b.bus = bus
	}
	return &i2cHandle{bus: b, addr: uint16(addr)}, nil
}

// Close closes the bus if it was opened.
func (b *I2CBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus == nil {
		return nil
	}
	err := b.bus.Close()
	b.bus = nil
	return err
}

func (b *I2CBus) tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bus == nil {
		return errors.Errorf("i2c bus %q is closed", b.name)
	}
	return b.bus.Tx(addr, w, r)
}

type i2cHandle struct {
	bus  *I2CBus
	addr uint16
}

func (h *i2cHandle) Write(ctx context.Context, tx []byte) error {
	return h.bus.tx(h.addr, tx, nil)
}

func (h *i2cHandle) Read(ctx context.Context, count int) ([]byte, error) {
	r := make([]byte, count)
	if err := h.bus.tx(h.addr, nil, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (h *i2cHandle) ReadByteData(ctx context.Context, register byte) (byte, error) {
	r := make([]byte, 1)
	if err := h.bus.tx(h.addr, []byte{register}, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

func (h *i2cHandle) WriteByteData(ctx context.Context, register, data byte) error {
	return h.bus.tx(h.addr, []byte{register, data}, nil)
}

func (h *i2cHandle) ReadWordData(ctx context.Context, register byte) (uint16, error) {
	r := make([]byte, 2)
	if err := h.bus.tx(h.addr, []byte{register}, r); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r), nil
}

func (h *i2cHandle) WriteWordData(ctx context.Context, register byte, data uint16) error {
	w := []byte{register, 0, 0}
	binary.BigEndian.PutUint16(w[1:], data)
	return h.bus.tx(h.addr, w, nil)
}

func (h *i2cHandle) ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
	r := make([]byte, numBytes)
	if err := h.bus.tx(h.addr, []byte{register}, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (h *i2cHandle) WriteBlockData(ctx context.Context, register byte, data []byte) error {
	// On devices that use registers, this is equivalent to writing the register address and then
	// the relevant bytes.
	w := make([]byte, len(data)+1)
	w[0] = register
	copy(w[1:], data)
	return h.bus.tx(h.addr, w, nil)
}

// The bus outlives its handles; closing a handle releases nothing.
func (h *i2cHandle) Close() error {
	return nil
}
