package genericlinux

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/wiring/components/board"
	_ "go.viam.com/wiring/components/board/devices/mcp23017"
)

func TestConfigValidate(t *testing.T) {
	conf := &Config{}
	test.That(t, conf.Validate("path"), test.ShouldBeNil)
	test.That(t, conf.gpioChip(), test.ShouldEqual, DefaultGPIOChip)

	conf = &Config{GPIOChip: "/dev/gpiochip4"}
	test.That(t, conf.Validate("path"), test.ShouldBeNil)
	test.That(t, conf.gpioChip(), test.ShouldEqual, "/dev/gpiochip4")

	conf = &Config{GPIOChip: "/dev/gpiochip4", UsePeriphGPIO: true}
	err := conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "use_periph_gpio")

	conf = &Config{
		I2CBus: "1",
		Extensions: []board.ExtensionConfig{
			{Spec: "mcp23017:100:0x20"},
			{Type: "mcp23017", PinBase: 10, Attributes: map[string]interface{}{"i2c": 0x21}},
		},
	}
	err = conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "path.extensions.1")
}
