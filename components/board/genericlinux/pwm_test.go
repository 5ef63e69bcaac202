package genericlinux

import (
	"testing"

	"go.viam.com/test"
)

func TestPWMDutyCycle(t *testing.T) {
	test.That(t, pwmDutyCycle(-5), test.ShouldEqual, 0.0)
	test.That(t, pwmDutyCycle(0), test.ShouldEqual, 0.0)
	test.That(t, pwmDutyCycle(256), test.ShouldEqual, 0.25)
	test.That(t, pwmDutyCycle(512), test.ShouldEqual, 0.5)
	test.That(t, pwmDutyCycle(PWMRange), test.ShouldEqual, 1.0)
	test.That(t, pwmDutyCycle(5000), test.ShouldEqual, 1.0)
}
