package genericlinux

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/wiring/components/board"
)

// DefaultGPIOChip is the character device used when a Config names none.
const DefaultGPIOChip = "/dev/gpiochip0"

// A Config describes the native backend of a Linux board, its buses, and the extensions to load
// on top of it.
type Config struct {
	GPIOChip      string                  `json:"gpio_chip,omitempty"`
	UsePeriphGPIO bool                    `json:"use_periph_gpio,omitempty"`
	I2CBus        string                  `json:"i2c_bus,omitempty"`
	SPIBus        string                  `json:"spi_bus,omitempty"`
	Extensions    []board.ExtensionConfig `json:"extensions,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.UsePeriphGPIO && conf.GPIOChip != "" {
		return errors.Errorf("%s: gpio_chip cannot be set when use_periph_gpio is true", path)
	}
	for idx := range conf.Extensions {
		if err := conf.Extensions[idx].Validate(fmt.Sprintf("%s.%s.%d", path, "extensions", idx)); err != nil {
			return err
		}
	}
	return nil
}

func (conf *Config) gpioChip() string {
	if conf.GPIOChip == "" {
		return DefaultGPIOChip
	}
	return conf.GPIOChip
}
