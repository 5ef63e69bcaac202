// Package devices holds the configuration shared by the device drivers in its subpackages. Each
// subpackage drives one chip, registers it as an extension, and exposes its pins as a node.
package devices

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/wiring/components/board/genericlinux/buses"
)

// I2CConfig addresses a device on the board's I2C bus.
type I2CConfig struct {
	Address int `json:"i2c"`
}

// Validate ensures all parts of the config are valid.
func (conf *I2CConfig) Validate(path string) error {
	return ValidateI2CAddress(path, conf.Address)
}

// ValidateI2CAddress fails unless addr is a 7-bit address outside the reserved ranges.
func ValidateI2CAddress(path string, addr int) error {
	if addr == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "i2c")
	}
	if addr < 0x03 || addr > 0x77 {
		return errors.Errorf("%s: i2c address %#x is out of range", path, addr)
	}
	return nil
}

// SPIConfig selects a device on the board's SPI bus.
type SPIConfig struct {
	ChipSelect string `json:"spi"`
}

// Validate ensures all parts of the config are valid.
func (conf *SPIConfig) Validate(path string) error {
	if conf.ChipSelect == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "spi")
	}
	return nil
}

// ProbeSPI checks that the port behind chipSelect on bus can be opened at baud and mode. No
// data is clocked out, so the device is left as it is.
func ProbeSPI(ctx context.Context, bus buses.SPI, baud uint, chipSelect string, mode uint) (err error) {
	handle, err := bus.OpenHandle()
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, handle.Close())
	}()
	return handle.Connect(ctx, baud, chipSelect, mode)
}
