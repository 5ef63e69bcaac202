package board

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cast"

	"go.viam.com/wiring/components/board/genericlinux/buses"
	"go.viam.com/wiring/logging"
)

// MinExtensionPinBase is the lowest pin base an extension may claim. Pins below it are left to
// the native backend.
const MinExtensionPinBase = 64

// ExtensionDependencies are the resources an extension constructor may use to reach its device.
type ExtensionDependencies struct {
	Registry *Registry
	I2C      buses.I2C
	SPI      buses.SPI
	Logger   logging.Logger
}

// I2CBus returns the board's I2C bus, failing with ErrBusUnavailable if it has none.
func (deps ExtensionDependencies) I2CBus() (buses.I2C, error) {
	if deps.I2C == nil {
		return nil, BusUnavailableError(errors.New("no i2c bus configured"), "looking up i2c bus")
	}
	return deps.I2C, nil
}

// SPIBus returns the board's SPI bus, failing with ErrBusUnavailable if it has none.
func (deps ExtensionDependencies) SPIBus() (buses.SPI, error) {
	if deps.SPI == nil {
		return nil, BusUnavailableError(errors.New("no spi bus configured"), "looking up spi bus")
	}
	return deps.SPI, nil
}

// An ExtensionConstructor sets up one device and registers its node at pinBase.
type ExtensionConstructor func(
	ctx context.Context,
	deps ExtensionDependencies,
	pinBase int,
	attributes map[string]interface{},
) (*Node, error)

// ExtensionRegistration describes how to build an extension. Params names, in order, the
// positional values that follow the pin base in an extension string; each is stored as an
// attribute under that name.
type ExtensionRegistration struct {
	Params      []string
	Constructor ExtensionConstructor
}

var (
	extensionsMu sync.RWMutex
	extensions   = map[string]ExtensionRegistration{}
)

// RegisterExtension registers an extension type under name. It panics if name is already taken
// or the registration has no constructor.
func RegisterExtension(name string, reg ExtensionRegistration) {
	extensionsMu.Lock()
	defer extensionsMu.Unlock()
	if _, ok := extensions[name]; ok {
		panic(errors.Errorf("extension %q already registered", name))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for extension %q", name))
	}
	extensions[name] = reg
}

// LookupExtension returns the registration for name, if any.
func LookupExtension(name string) (ExtensionRegistration, bool) {
	extensionsMu.RLock()
	defer extensionsMu.RUnlock()
	reg, ok := extensions[name]
	return reg, ok
}

// RegisteredExtensions returns the names of all registered extensions, sorted.
func RegisteredExtensions() []string {
	extensionsMu.RLock()
	names := lo.Keys(extensions)
	extensionsMu.RUnlock()
	sort.Strings(names)
	return names
}

// ParseExtension parses an extension string of the form name:pinBase[:param...] into a config.
func ParseExtension(spec string) (ExtensionConfig, error) {
	fields := strings.Split(spec, ":")
	if len(fields) < 2 {
		return ExtensionConfig{}, errors.Errorf("extension %q: expected name:pin_base[:params]", spec)
	}
	name := fields[0]
	reg, ok := LookupExtension(name)
	if !ok {
		return ExtensionConfig{}, errors.Errorf("extension %q: unknown extension %q", spec, name)
	}
	base, err := cast.ToIntE(fields[1])
	if err != nil {
		return ExtensionConfig{}, errors.Wrapf(err, "extension %q: pin base is not a number", spec)
	}
	if base < MinExtensionPinBase {
		return ExtensionConfig{}, errors.Errorf("extension %q: pin base must be at least %d", spec, MinExtensionPinBase)
	}
	params := fields[2:]
	if len(params) != len(reg.Params) {
		return ExtensionConfig{}, errors.Errorf(
			"extension %q: expected %d parameters (%s), got %d",
			spec, len(reg.Params), strings.Join(reg.Params, ", "), len(params))
	}
	attrs := make(map[string]interface{}, len(params))
	for i, p := range params {
		if p == "" {
			return ExtensionConfig{}, errors.Errorf("extension %q: parameter %q is empty", spec, reg.Params[i])
		}
		attrs[reg.Params[i]] = p
	}
	return ExtensionConfig{Type: name, PinBase: base, Attributes: attrs}, nil
}

// LoadExtension parses spec and sets up the extension it names.
func LoadExtension(ctx context.Context, deps ExtensionDependencies, spec string) (*Node, error) {
	conf, err := ParseExtension(spec)
	if err != nil {
		return nil, err
	}
	return conf.Load(ctx, deps)
}

// Load sets up the extension and returns its node.
func (conf ExtensionConfig) Load(ctx context.Context, deps ExtensionDependencies) (*Node, error) {
	if conf.Spec != "" {
		return LoadExtension(ctx, deps, conf.Spec)
	}
	if err := conf.Validate("extension"); err != nil {
		return nil, err
	}
	reg, _ := LookupExtension(conf.Type)
	if deps.Logger == nil {
		deps.Logger = logging.Global()
	}
	deps.Logger = deps.Logger.Sublogger(conf.Type)
	n, err := reg.Constructor(ctx, deps, conf.PinBase, conf.Attributes)
	if err != nil {
		return nil, errors.Wrapf(err, "setting up %s at pin %d", conf.Type, conf.PinBase)
	}
	deps.Logger.Infow("extension loaded", "pin_base", n.Base(), "count", n.Count())
	return n, nil
}
