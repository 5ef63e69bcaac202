// Package genericlinux builds the pin registry of a Linux board: a native GPIO backend, the
// board's I2C and SPI buses, and the extensions configured on top of them.
package genericlinux

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/host/v3"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// A Board is a registry wired to a Linux host.
type Board struct {
	*board.Registry

	i2c    buses.I2C
	spi    buses.SPI
	logger logging.Logger
}

// NewBoard initializes the periph host drivers, opens the native backend and buses named by conf,
// and loads every configured extension in order. If anything fails, everything opened so far is
// closed again.
func NewBoard(ctx context.Context, conf *Config, logger logging.Logger) (*Board, error) {
	if err := conf.Validate("board"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Global()
	}
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initializing periph host drivers")
	}

	var native board.Driver
	if conf.UsePeriphGPIO {
		native = NewPeriphBackend(logger.Sublogger("periph"))
	} else {
		cdev, err := NewCharDevBackend(conf.gpioChip(), logger.Sublogger("gpio"))
		if err != nil {
			return nil, err
		}
		native = cdev
	}

	var i2cBus buses.I2C
	if conf.I2CBus != "" {
		i2cBus = NewI2CBus(conf.I2CBus)
	}
	var spiBus buses.SPI
	if conf.SPIBus != "" {
		spiBus = NewSPIBus(conf.SPIBus)
	}
	return newBoard(ctx, conf, native, i2cBus, spiBus, logger)
}

func newBoard(
	ctx context.Context,
	conf *Config,
	native board.Driver,
	i2cBus buses.I2C,
	spiBus buses.SPI,
	logger logging.Logger,
) (*Board, error) {
	b := &Board{
		Registry: board.NewRegistry(native, logger),
		i2c:      i2cBus,
		spi:      spiBus,
		logger:   logger,
	}
	deps := board.ExtensionDependencies{
		Registry: b.Registry,
		I2C:      i2cBus,
		SPI:      spiBus,
		Logger:   logger,
	}
	for idx, ext := range conf.Extensions {
		if _, err := ext.Load(ctx, deps); err != nil {
			err = errors.Wrapf(err, "loading extension %d (%s)", idx, ext)
			return nil, multierr.Combine(err, b.Close(ctx))
		}
	}
	logger.Debugw("board ready", "nodes", len(b.Nodes()))
	return b, nil
}

// I2C returns the board's I2C bus, or nil if none was configured.
func (b *Board) I2C() buses.I2C {
	return b.i2c
}

// SPI returns the board's SPI bus, or nil if none was configured.
func (b *Board) SPI() buses.SPI {
	return b.spi
}

// Close closes every node, the native backend, and the buses.
func (b *Board) Close(ctx context.Context) error {
	err := b.Registry.Close()
	if c, ok := b.i2c.(interface{ Close() error }); ok {
		err = multierr.Combine(err, c.Close())
	}
	if b.spi != nil {
		err = multierr.Combine(err, b.spi.Close(ctx))
	}
	return err
}
