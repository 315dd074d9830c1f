package cfgloader

import (
	"log/slog"
	"reflect"

	"github.com/code19m/errx"
	"gopkg.in/yaml.v3"
)

const maskedValue = "********"

// MaskedYAML renders config as YAML with every `mask:"true"` field hidden.
// Secrets are replaced by a fixed placeholder so their length does not leak.
func MaskedYAML(config any) (string, error) {
	out, err := yaml.Marshal(maskValue(reflect.ValueOf(config)).Interface())
	if err != nil {
		return "", errx.Wrap(err)
	}
	return string(out), nil
}

func printConfig(config any) {
	out, err := MaskedYAML(config)
	if err != nil {
		slog.Error("[cfgloader]: failed to marshal config", "error", err.Error())
		return
	}
	slog.Info("[cfgloader]: loaded config:\n" + out)
}

func maskValue(val reflect.Value) reflect.Value {
	if !val.IsValid() {
		return val
	}

	switch val.Kind() { //nolint:exhaustive // only kinds that can hold tagged fields
	case reflect.Ptr:
		if val.IsNil() {
			return val
		}
		ptr := reflect.New(val.Elem().Type())
		ptr.Elem().Set(maskValue(val.Elem()))
		return ptr

	case reflect.Interface:
		if val.IsNil() {
			return val
		}
		return maskValue(val.Elem())

	case reflect.Struct:
		masked := reflect.New(val.Type()).Elem()
		for i := range val.NumField() {
			field := val.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			if field.Tag.Get("mask") == "true" {
				masked.Field(i).Set(maskSecret(val.Field(i)))
				continue
			}
			masked.Field(i).Set(maskValue(val.Field(i)))
		}
		return masked

	default:
		return val
	}
}

// maskSecret hides a tagged field. Empty strings stay empty so that
// unset secrets remain visible as unset.
func maskSecret(val reflect.Value) reflect.Value {
	switch val.Kind() { //nolint:exhaustive // non-string secrets are zeroed
	case reflect.String:
		if val.Len() == 0 {
			return val
		}
		return reflect.ValueOf(maskedValue).Convert(val.Type())

	case reflect.Slice:
		if val.IsNil() {
			return val
		}
		out := reflect.MakeSlice(val.Type(), val.Len(), val.Len())
		for i := range val.Len() {
			out.Index(i).Set(maskSecret(val.Index(i)))
		}
		return out

	default:
		return reflect.Zero(val.Type())
	}
}
