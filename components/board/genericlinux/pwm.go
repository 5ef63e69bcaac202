package genericlinux

const (
	// PWMRange is the PWMWrite value for a 100% duty cycle.
	PWMRange = 1024
	// DefaultPWMFrequencyHz is the frequency of software PWM until it is changed.
	DefaultPWMFrequencyHz = 100
)

// pwmDutyCycle converts a PWMWrite value to a duty cycle fraction, clamping to [0, PWMRange].
func pwmDutyCycle(value int) float64 {
	switch {
	case value <= 0:
		return 0
	case value >= PWMRange:
		return 1
	default:
		return float64(value) / PWMRange
	}
}
