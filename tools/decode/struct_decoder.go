package decode

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Options 用于定制 Decode 行为。
type Options struct {
	// "123" -> int, 1.0 -> int64 etc. Default true.
	WeaklyTypedInput bool
	// Reject keys that have no matching field.
	ErrorUnused bool
}

func DefaultOptions() Options {
	return Options{
		WeaklyTypedInput: true,
	}
}

// DecodeMap decodes a loosely typed map into T using `json` tags.
func DecodeMap[T any](m map[string]any, opts ...Options) (*T, error) {
	if m == nil {
		return nil, fmt.Errorf("map is nil")
	}

	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var out T
	decCfg := &mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
		ErrorUnused:      cfg.ErrorUnused,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			trimStringHook(),
			floatToIntHook(),
			jsonRawStringToMapHook(),
		),
	}

	dec, err := mapstructure.NewDecoder(decCfg)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decode map: %w", err)
	}
	return &out, nil
}

// DecodeQuery decodes URL query values; single values are flattened, repeated keys stay slices.
func DecodeQuery[T any](q url.Values, opts ...Options) (*T, error) {
	m := make(map[string]any, len(q))
	for k, vs := range q {
		switch len(vs) {
		case 0:
		case 1:
			m[k] = vs[0]
		default:
			m[k] = vs
		}
	}
	return DecodeMap[T](m, opts...)
}

// -----------------------------
// Decode Hooks
// -----------------------------

func trimStringHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Kind, data any) (any, error) {
		if from != reflect.String || to != reflect.String {
			return data, nil
		}
		return strings.TrimSpace(data.(string)), nil
	}
}

// floatToIntHook：把 float64 自动转为 int / int32 / int64。
func floatToIntHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Kind, data any) (any, error) {
		if from != reflect.Float64 {
			return data, nil
		}
		switch to {
		case reflect.Int:
			return int(data.(float64)), nil
		case reflect.Int32:
			return int32(data.(float64)), nil
		case reflect.Int64:
			return int64(data.(float64)), nil
		}
		return data, nil
	}
}

// jsonRawStringToMapHook：把 JSON 字符串自动转为 map[string]any。
func jsonRawStringToMapHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Kind, data any) (any, error) {
		if from != reflect.String || to != reflect.Map {
			return data, nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(data.(string)), &m); err == nil {
			return m, nil
		}
		return data, nil
	}
}
