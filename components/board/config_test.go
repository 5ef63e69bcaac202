package board_test

import (
	"context"
	"testing"

	"go.viam.com/test"

	"go.viam.com/wiring/components/board"
	"go.viam.com/wiring/logging"
)

func TestExtensionConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		conf board.ExtensionConfig
		msg  string
	}{
		{board.ExtensionConfig{}, `"type" is required`},
		{board.ExtensionConfig{Type: "nope", PinBase: 100}, `unknown extension type "nope"`},
		{board.ExtensionConfig{Type: "testnoparams", PinBase: 10}, "pin_base must be at least 64"},
		{board.ExtensionConfig{Spec: "testnoparams:64", PinBase: 100}, "spec cannot be combined"},
		{board.ExtensionConfig{Spec: "testnoparams"}, "expected name:pin_base"},
	} {
		err := tc.conf.Validate("path.extensions.0")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "path.extensions.0")
		test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
	}

	ok := board.ExtensionConfig{Type: "testexp", PinBase: 64, Attributes: map[string]interface{}{"i2c": 32}}
	test.That(t, ok.Validate("path"), test.ShouldBeNil)
	ok = board.ExtensionConfig{Spec: "testnoparams:65"}
	test.That(t, ok.Validate("path"), test.ShouldBeNil)
}

func TestExtensionConfigLoad(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	r := board.NewRegistry(nil, logger)
	deps := board.ExtensionDependencies{Registry: r, Logger: logger}

	conf := board.ExtensionConfig{
		Type:       "testexp",
		PinBase:    64,
		Attributes: map[string]interface{}{"i2c": float64(0x21), "mode": "slow"},
	}
	n, err := conf.Load(ctx, deps)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n.Base(), test.ShouldEqual, 64)
	test.That(t, lastTestExtension, test.ShouldResemble, testExtensionConfig{Address: 0x21, Mode: "slow"})
	test.That(t, conf.String(), test.ShouldEqual, "testexp:64:33:slow")

	n, err = board.ExtensionConfig{Spec: "testnoparams:90"}.Load(ctx, deps)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n.Base(), test.ShouldEqual, 90)

	_, err = board.ExtensionConfig{Type: "testnoparams"}.Load(ctx, deps)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestExtensionConfigLoadWithoutLogger(t *testing.T) {
	logger, observed := logging.NewObservedTestLogger(t)
	logging.ReplaceGlobal(logger)
	defer logging.ReplaceGlobal(nil)

	r := board.NewRegistry(nil, nil)
	_, err := board.ExtensionConfig{Spec: "testnoparams:95"}.Load(context.Background(), board.ExtensionDependencies{Registry: r})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, observed.FilterMessage("registered pin node").Len(), test.ShouldEqual, 1)
	test.That(t, observed.FilterMessage("extension loaded").Len(), test.ShouldEqual, 1)
}

func TestDecodeAttributes(t *testing.T) {
	var conf testExtensionConfig
	err := board.DecodeAttributes(map[string]interface{}{"i2c": "0x20", "mode": 7}, &conf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf, test.ShouldResemble, testExtensionConfig{Address: 32, Mode: "7"})

	err = board.DecodeAttributes(map[string]interface{}{"i2c": "32", "bogus": 1}, &conf)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bogus")

	err = board.DecodeAttributes(map[string]interface{}{"i2c": "zz"}, &conf)
	test.That(t, err, test.ShouldNotBeNil)

	err = board.DecodeAttributes(map[string]interface{}{"i2c": 1}, &conf)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "attributes")

	var plain struct {
		Name string `json:"name"`
	}
	err = board.DecodeAttributes(nil, &plain)
	test.That(t, err, test.ShouldBeNil)
}
