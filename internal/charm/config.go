// Copyright 2024 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

import (
	"io"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"github.com/juju/utils/v4"
	"gopkg.in/yaml.v2"
)

// OptionType enumerates the recognized config option kinds.
type OptionType string

const (
	OptionString  OptionType = "string"
	OptionInt     OptionType = "int"
	OptionBoolean OptionType = "boolean"
)

// Option is a single option declared in a charm's config.yaml file.
type Option struct {
	// Type discriminates how Default and any set value are interpreted.
	Type OptionType

	// Description is the human-readable description of the option.
	Description string

	// Default holds the option default: a string for OptionString (nil
	// when no default is declared), an int64 for OptionInt, a bool for
	// OptionBoolean. Int and boolean options always carry a default.
	Default interface{}
}

// Config holds the content of a charm's config.yaml file.
type Config struct {
	Options map[string]Option
}

var configSchema = schema.StrictFieldMap(
	schema.Fields{
		"options": schema.StringMap(schema.Any()),
	},
	schema.Defaults{},
)

var optionSchema = schema.StrictFieldMap(
	schema.Fields{
		"type": schema.OneOf(
			schema.Const(string(OptionString)),
			schema.Const(string(OptionInt)),
			schema.Const(string(OptionBoolean)),
		),
		"description": schema.String(),
		"default":     schema.Any(),
	},
	schema.Defaults{
		"default": schema.Omit,
	},
)

// ReadConfig reads the content of a config.yaml file and returns its
// representation. Unknown fields and unrecognized option types are
// rejected.
func ReadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewNotValid(err, "config")
	}
	// yaml.v2 decodes mappings with interface{} keys at every level;
	// conform the whole document to string keys before coercion.
	conformed, err := utils.ConformYAML(raw)
	if err != nil {
		return nil, errors.NewNotValid(err, "config")
	}
	v, err := configSchema.Coerce(conformed, nil)
	if err != nil {
		return nil, errors.NewNotValid(err, "config")
	}
	m := v.(map[string]interface{})

	config := &Config{Options: make(map[string]Option)}
	for name, val := range m["options"].(map[string]interface{}) {
		option, err := parseOption(name, val)
		if err != nil {
			return nil, errors.NewNotValid(err, "config")
		}
		config.Options[name] = option
	}
	return config, nil
}

func parseOption(name string, data interface{}) (Option, error) {
	v, err := optionSchema.Coerce(data, []string{"options", name})
	if err != nil {
		return Option{}, errors.Trace(err)
	}
	om := v.(map[string]interface{})

	option := Option{
		Type:        OptionType(om["type"].(string)),
		Description: om["description"].(string),
	}
	value, hasDefault := om["default"]

	switch option.Type {
	case OptionString:
		if hasDefault {
			s, ok := value.(string)
			if !ok {
				return Option{}, errors.NotValidf("default for string option %q", name)
			}
			option.Default = s
		}
	case OptionInt:
		if !hasDefault {
			return Option{}, errors.NotValidf("int option %q without default", name)
		}
		i, err := schema.Int().Coerce(value, []string{"options", name, "default"})
		if err != nil {
			return Option{}, errors.Trace(err)
		}
		option.Default = i.(int64)
	case OptionBoolean:
		if !hasDefault {
			return Option{}, errors.NotValidf("boolean option %q without default", name)
		}
		b, ok := value.(bool)
		if !ok {
			return Option{}, errors.NotValidf("default for boolean option %q", name)
		}
		option.Default = b
	}
	return option, nil
}
