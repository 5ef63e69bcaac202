package board

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.viam.com/utils"
)

// ExtensionConfig describes one extension, either as an extension string or as a type with a
// pin base and attributes.
type ExtensionConfig struct {
	Spec       string                 `json:"spec,omitempty"`
	Type       string                 `json:"type,omitempty"`
	PinBase    int                    `json:"pin_base,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *ExtensionConfig) Validate(path string) error {
	if conf.Spec != "" {
		if conf.Type != "" || conf.PinBase != 0 || len(conf.Attributes) != 0 {
			return errors.Errorf("%s: spec cannot be combined with type, pin_base or attributes", path)
		}
		_, err := ParseExtension(conf.Spec)
		return errors.Wrap(err, path)
	}
	if conf.Type == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "type")
	}
	if _, ok := LookupExtension(conf.Type); !ok {
		return errors.Errorf("%s: unknown extension type %q", path, conf.Type)
	}
	if conf.PinBase < MinExtensionPinBase {
		return errors.Errorf("%s: pin_base must be at least %d", path, MinExtensionPinBase)
	}
	return nil
}

// String returns the config in extension string form.
func (conf ExtensionConfig) String() string {
	if conf.Spec != "" {
		return conf.Spec
	}
	s := fmt.Sprintf("%s:%d", conf.Type, conf.PinBase)
	if reg, ok := LookupExtension(conf.Type); ok {
		for _, p := range reg.Params {
			if v, ok := conf.Attributes[p]; ok {
				s += ":" + cast.ToString(v)
			}
		}
	}
	return s
}

type validator interface {
	Validate(path string) error
}

// DecodeAttributes decodes attributes into the struct pointed to by to, matching keys against
// json tags. Strings are converted to numbers where needed, so "0x20" decodes as 32. If to has
// a Validate(path string) error method, it is run on the result.
func DecodeAttributes(attributes map[string]interface{}, to interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           to,
	})
	if err != nil {
		return errors.Wrap(err, "creating attribute decoder")
	}
	if err := decoder.Decode(attributes); err != nil {
		return errors.Wrap(err, "decoding attributes")
	}
	if v, ok := to.(validator); ok {
		return v.Validate("attributes")
	}
	return nil
}
