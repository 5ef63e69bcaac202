// Package mcp23x holds the register maps and pin logic shared by the MCP23008, MCP23017,
// MCP23S08 and MCP23S17 I/O expanders. The I2C and SPI variants differ only in how registers are
// reached.
package mcp23x

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/genericlinux/buses"
)

// Registers of the 8-bit parts.
const (
	MCP23x08IODIR = 0x00
	MCP23x08IOCON = 0x05
	MCP23x08GPPU  = 0x06
	MCP23x08GPIO  = 0x09
	MCP23x08OLAT  = 0x0A
)

// Registers of the 16-bit parts in the power-on bank layout.
const (
	MCP23x17IODIRA = 0x00
	MCP23x17IODIRB = 0x01
	MCP23x17IOCON  = 0x0A
	MCP23x17IOCONB = 0x0B
	MCP23x17GPPUA  = 0x0C
	MCP23x17GPPUB  = 0x0D
	MCP23x17GPIOA  = 0x12
	MCP23x17GPIOB  = 0x13
	MCP23x17OLATA  = 0x14
	MCP23x17OLATB  = 0x15
)

// IOCON bits.
const (
	IOCONHAEN  = 0x08
	IOCONSEQOP = 0x20

	// IOCONInit is written to IOCON at setup.
	IOCONInit = IOCONSEQOP
)

// SPI opcodes. The device id is OR'd in shifted left by one.
const (
	CmdWrite = 0x40
	CmdRead  = 0x41
)

// SPISpeed is the SPI clock used for the SPI parts.
const SPISpeed = 4000000

// A Layout gives the register of each function for every 8-bit port of a part.
type Layout struct {
	IODIR []byte
	GPPU  []byte
	GPIO  []byte
	OLAT  []byte
}

// Layout08 is the register layout of the 8-bit parts.
var Layout08 = Layout{
	IODIR: []byte{MCP23x08IODIR},
	GPPU:  []byte{MCP23x08GPPU},
	GPIO:  []byte{MCP23x08GPIO},
	OLAT:  []byte{MCP23x08OLAT},
}

// Layout17 is the register layout of the 16-bit parts.
var Layout17 = Layout{
	IODIR: []byte{MCP23x17IODIRA, MCP23x17IODIRB},
	GPPU:  []byte{MCP23x17GPPUA, MCP23x17GPPUB},
	GPIO:  []byte{MCP23x17GPIOA, MCP23x17GPIOB},
	OLAT:  []byte{MCP23x17OLATA, MCP23x17OLATB},
}

// Width returns the number of pins of a part with this layout.
func (l Layout) Width() int {
	return 8 * len(l.GPIO)
}

// Registers reads and writes the byte registers of one part.
type Registers interface {
	ReadRegister(ctx context.Context, register byte) (byte, error)
	WriteRegister(ctx context.Context, register, value byte) error
}

// I2CRegisters reaches registers through an I2C handle.
type I2CRegisters struct {
	Handle buses.I2CHandle
}

// ReadRegister reads a register.
func (r I2CRegisters) ReadRegister(ctx context.Context, register byte) (byte, error) {
	return r.Handle.ReadByteData(ctx, register)
}

// WriteRegister writes a register.
func (r I2CRegisters) WriteRegister(ctx context.Context, register, value byte) error {
	return r.Handle.WriteByteData(ctx, register, value)
}

// Close closes the handle.
func (r I2CRegisters) Close() error {
	return r.Handle.Close()
}

// SPIRegisters reaches registers through an SPI bus, addressing the part by its hardware
// address pins when several share a chip select.
type SPIRegisters struct {
	Bus        buses.SPI
	ChipSelect string
	DeviceID   byte
}

// ReadRegister reads a register.
func (r SPIRegisters) ReadRegister(ctx context.Context, register byte) (byte, error) {
	rx, err := buses.Xfer(ctx, r.Bus, SPISpeed, r.ChipSelect, 0, []byte{CmdRead | (r.DeviceID&7)<<1, register, 0})
	if err != nil {
		return 0, err
	}
	return rx[2], nil
}

// WriteRegister writes a register.
func (r SPIRegisters) WriteRegister(ctx context.Context, register, value byte) error {
	_, err := buses.Xfer(ctx, r.Bus, SPISpeed, r.ChipSelect, 0, []byte{CmdWrite | (r.DeviceID&7)<<1, register, value})
	return err
}

// An Expander drives the pins of one part. Output levels are cached so a write to one pin
// doesn't need to read the port back first.
type Expander struct {
	regs   Registers
	layout Layout

	mu   sync.Mutex
	olat []byte
}

// New returns an Expander for the part behind regs, seeding the output cache from its OLAT
// registers.
func New(ctx context.Context, regs Registers, layout Layout) (*Expander, error) {
	e := &Expander{regs: regs, layout: layout, olat: make([]byte, len(layout.OLAT))}
	for port, reg := range layout.OLAT {
		v, err := regs.ReadRegister(ctx, reg)
		if err != nil {
			return nil, err
		}
		e.olat[port] = v
	}
	return e, nil
}

// Width returns the number of pins.
func (e *Expander) Width() int {
	return e.layout.Width()
}

func (e *Expander) locate(pin int) (port int, mask byte, err error) {
	if pin < 0 || pin >= e.Width() {
		return 0, 0, errors.Errorf("pin %d out of range for a %d pin expander", pin, e.Width())
	}
	return pin / 8, 1 << (pin % 8), nil
}

func (e *Expander) update(ctx context.Context, register, mask byte, set bool) error {
	old, err := e.regs.ReadRegister(ctx, register)
	if err != nil {
		return err
	}
	if set {
		old |= mask
	} else {
		old &^= mask
	}
	return e.regs.WriteRegister(ctx, register, old)
}

// PinMode makes a pin an output, or an input for any other mode.
func (e *Expander) PinMode(ctx context.Context, pin int, mode board.PinMode) error {
	port, mask, err := e.locate(pin)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.update(ctx, e.layout.IODIR[port], mask, mode != board.Output)
}

// PullUpDnControl enables the pin's pull-up for PullUp and disables it otherwise. The parts
// have no pull-down.
func (e *Expander) PullUpDnControl(ctx context.Context, pin int, pull board.Pull) error {
	port, mask, err := e.locate(pin)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.update(ctx, e.layout.GPPU[port], mask, pull == board.PullUp)
}

// DigitalWrite sets one output latch bit.
func (e *Expander) DigitalWrite(ctx context.Context, pin, value int) error {
	port, mask, err := e.locate(pin)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	next := e.olat[port]
	if value == board.Low {
		next &^= mask
	} else {
		next |= mask
	}
	if err := e.regs.WriteRegister(ctx, e.layout.GPIO[port], next); err != nil {
		return err
	}
	e.olat[port] = next
	return nil
}

// DigitalRead reads the level of a pin.
func (e *Expander) DigitalRead(ctx context.Context, pin int) (int, error) {
	port, mask, err := e.locate(pin)
	if err != nil {
		return board.Low, err
	}
	v, err := e.regs.ReadRegister(ctx, e.layout.GPIO[port])
	if err != nil {
		return board.Low, err
	}
	if v&mask == 0 {
		return board.Low, nil
	}
	return board.High, nil
}

// Close releases the registers' transport if it holds one.
func (e *Expander) Close() error {
	if c, ok := e.regs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SPIConfig addresses one SPI part.
type SPIConfig struct {
	ChipSelect string `json:"spi"`
	DeviceID   int    `json:"port"`
}

// Validate ensures all parts of the config are valid.
func (conf *SPIConfig) Validate(path string) error {
	if conf.ChipSelect == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "spi")
	}
	if conf.DeviceID < 0 || conf.DeviceID > 7 {
		return errors.Errorf("%s: port must be between 0 and 7, got %d", path, conf.DeviceID)
	}
	return nil
}
