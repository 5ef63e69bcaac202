package logging

import (
	"context"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestLevelGating(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)

	logger.Debugw("debug message", "pin", 3)
	test.That(t, observed.FilterMessage("debug message").Len(), test.ShouldEqual, 1)

	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)
	logger.Infow("hidden")
	logger.Warnw("shown")
	test.That(t, observed.FilterMessage("hidden").Len(), test.ShouldEqual, 0)
	test.That(t, observed.FilterMessage("shown").Len(), test.ShouldEqual, 1)

	entry := observed.FilterMessage("debug message").All()[0]
	test.That(t, entry.Level, test.ShouldEqual, zapcore.DebugLevel)
	test.That(t, entry.ContextMap()["pin"], test.ShouldEqual, int64(3))
}

func TestDebugModeContext(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.SetLevel(ERROR)

	ctx := context.Background()
	logger.CDebugw(ctx, "quiet")
	test.That(t, observed.FilterMessage("quiet").Len(), test.ShouldEqual, 0)

	ctx = EnableDebugMode(ctx, "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, len(GetName(ctx)), test.ShouldEqual, 6)
	logger.CDebugw(ctx, "loud")
	test.That(t, observed.FilterMessage("loud").Len(), test.ShouldEqual, 1)
}

func TestSublogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	sub := logger.Sublogger("registry")
	sub.Infow("named")

	entries := observed.FilterMessage("named").All()
	test.That(t, len(entries), test.ShouldEqual, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "registry")
}

func TestLevelFromString(t *testing.T) {
	level, err := LevelFromString("WARN")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)

	_, err = LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, levelFromZap(DEBUG.AsZap()), test.ShouldEqual, DEBUG)
	test.That(t, levelFromZap(ERROR.AsZap()), test.ShouldEqual, ERROR)
}

func TestGlobal(t *testing.T) {
	defer ReplaceGlobal(nil)

	ReplaceGlobal(nil)
	first := Global()
	test.That(t, first, test.ShouldNotBeNil)
	test.That(t, first.GetLevel(), test.ShouldEqual, INFO)
	test.That(t, Global(), test.ShouldEqual, first)

	logger, observed := NewObservedTestLogger(t)
	ReplaceGlobal(logger)
	Global().Infow("through global")
	test.That(t, observed.FilterMessage("through global").Len(), test.ShouldEqual, 1)
}
