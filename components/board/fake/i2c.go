package fake

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/wiring/components/board/genericlinux/buses"
)

// I2C is an in-memory I2C bus. Devices are created on first use.
type I2C struct {
	mu      sync.Mutex
	devices map[byte]*I2CDevice

	// OpenErr, if set, is returned by OpenHandle.
	OpenErr error
}

// NewI2C returns an empty bus.
func NewI2C() *I2C {
	return &I2C{devices: map[byte]*I2CDevice{}}
}

// Device returns the device at addr, creating it if needed.
func (b *I2C) Device(addr byte) *I2CDevice {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.devices[addr]
	if !ok {
		d = &I2CDevice{
			Addr:      addr,
			registers: map[byte]byte{},
			words:     map[byte]uint16{},
			wordQueue: map[byte][]uint16{},
		}
		b.devices[addr] = d
	}
	return d
}

// OpenHandle returns a handle on the device at addr.
func (b *I2C) OpenHandle(addr byte) (buses.I2CHandle, error) {
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	d := b.Device(addr)
	d.mu.Lock()
	d.opened++
	d.mu.Unlock()
	return &i2cHandle{dev: d}, nil
}

// A RegisterWrite records one register write.
type RegisterWrite struct {
	Register byte
	Value    int
}

// I2CDevice is one device on an I2C bus with byte and word register files. Raw reads are served
// from a queue; raw writes and register writes are logged in order.
type I2CDevice struct {
	Addr byte

	mu         sync.Mutex
	registers  map[byte]byte
	words      map[byte]uint16
	wordQueue  map[byte][]uint16
	reads      [][]byte
	writes     [][]byte
	regWrites  []RegisterWrite
	wordWrites []RegisterWrite
	opened     int
	closed     int

	// Err, if set, is returned by every transaction.
	Err error
	// OnWrite, if set, is called with every raw write.
	OnWrite func(tx []byte)
}

// SetRegister sets a byte register.
func (d *I2CDevice) SetRegister(register, value byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registers[register] = value
}

// Register returns a byte register.
func (d *I2CDevice) Register(register byte) byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registers[register]
}

// SetWord sets a word register.
func (d *I2CDevice) SetWord(register byte, value uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.words[register] = value
}

// Word returns a word register.
func (d *I2CDevice) Word(register byte) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.words[register]
}

// QueueWords queues values to be returned by successive word reads of register before the
// register file is consulted.
func (d *I2CDevice) QueueWords(register byte, values ...uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wordQueue[register] = append(d.wordQueue[register], values...)
}

// QueueRead queues the bytes returned by the next raw read.
func (d *I2CDevice) QueueRead(data ...byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads = append(d.reads, data)
}

// Writes returns every raw write.
func (d *I2CDevice) Writes() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.writes...)
}

// RegisterWrites returns every byte register write.
func (d *I2CDevice) RegisterWrites() []RegisterWrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]RegisterWrite(nil), d.regWrites...)
}

// WordWrites returns every word register write.
func (d *I2CDevice) WordWrites() []RegisterWrite {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]RegisterWrite(nil), d.wordWrites...)
}

// Open reports the number of handles opened and not yet closed.
func (d *I2CDevice) Open() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened - d.closed
}

type i2cHandle struct {
	dev    *I2CDevice
	closed bool
}

func (h *i2cHandle) Write(ctx context.Context, tx []byte) error {
	d := h.dev
	d.mu.Lock()
	if d.Err != nil {
		d.mu.Unlock()
		return d.Err
	}
	d.writes = append(d.writes, append([]byte(nil), tx...))
	onWrite := d.OnWrite
	d.mu.Unlock()
	if onWrite != nil {
		onWrite(tx)
	}
	return nil
}

func (h *i2cHandle) Read(ctx context.Context, count int) ([]byte, error) {
	d := h.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	out := make([]byte, count)
	if len(d.reads) > 0 {
		copy(out, d.reads[0])
		d.reads = d.reads[1:]
	}
	return out, nil
}

func (h *i2cHandle) ReadByteData(ctx context.Context, register byte) (byte, error) {
	d := h.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return 0, d.Err
	}
	return d.registers[register], nil
}

func (h *i2cHandle) WriteByteData(ctx context.Context, register, data byte) error {
	d := h.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.registers[register] = data
	d.regWrites = append(d.regWrites, RegisterWrite{Register: register, Value: int(data)})
	return nil
}

func (h *i2cHandle) ReadWordData(ctx context.Context, register byte) (uint16, error) {
	d := h.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return 0, d.Err
	}
	if q := d.wordQueue[register]; len(q) > 0 {
		d.wordQueue[register] = q[1:]
		return q[0], nil
	}
	return d.words[register], nil
}

func (h *i2cHandle) WriteWordData(ctx context.Context, register byte, data uint16) error {
	d := h.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.words[register] = data
	d.wordWrites = append(d.wordWrites, RegisterWrite{Register: register, Value: int(data)})
	return nil
}

func (h *i2cHandle) ReadBlockData(ctx context.Context, register byte, numBytes uint8) ([]byte, error) {
	d := h.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	out := make([]byte, numBytes)
	for i := range out {
		out[i] = d.registers[register+byte(i)]
	}
	return out, nil
}

func (h *i2cHandle) WriteBlockData(ctx context.Context, register byte, data []byte) error {
	d := h.dev
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return d.Err
	}
	for i, b := range data {
		d.registers[register+byte(i)] = b
		d.regWrites = append(d.regWrites, RegisterWrite{Register: register + byte(i), Value: int(b)})
	}
	return nil
}

func (h *i2cHandle) Close() error {
	if h.closed {
		return errors.New("i2c handle already closed")
	}
	h.closed = true
	h.dev.mu.Lock()
	h.dev.closed++
	h.dev.mu.Unlock()
	return nil
}
