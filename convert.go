// convert.go: String to typed value conversion for generic accessors
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/go-errors"
)

// convertValue parses raw into a T.
//
// A T whose pointer implements encoding.TextUnmarshaler decodes itself.
// Durations, comma separated string slices and the basic scalar kinds go
// through time and strconv. Anything else is ErrCodeUnsupportedType.
func convertValue[T any](raw string) (T, error) {
	var value T

	// Fast path for common types
	switch p := any(&value).(type) {
	case encoding.TextUnmarshaler:
		if err := p.UnmarshalText([]byte(raw)); err != nil {
			return value, errors.Wrap(err, ErrCodeFlagMalformed, "text unmarshal failed")
		}
		return value, nil
	case *string:
		*p = raw
		return value, nil
	case *time.Duration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return value, errors.Wrap(err, ErrCodeFlagMalformed, "invalid duration")
		}
		*p = d
		return value, nil
	case *[]string:
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		*p = parts
		return value, nil
	}

	// Fallback to reflection for named scalar types
	rv := reflect.ValueOf(&value).Elem()
	if err := setScalar(rv, raw); err != nil {
		return value, err
	}
	return value, nil
}

func setScalar(rv reflect.Value, raw string) error {
	var err error
	switch rv.Kind() {
	case reflect.String:
		rv.SetString(raw)
	case reflect.Bool:
		var b bool
		if b, err = strconv.ParseBool(raw); err == nil {
			rv.SetBool(b)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var i int64
		if i, err = strconv.ParseInt(raw, 10, rv.Type().Bits()); err == nil {
			rv.SetInt(i)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var u uint64
		if u, err = strconv.ParseUint(raw, 10, rv.Type().Bits()); err == nil {
			rv.SetUint(u)
		}
	case reflect.Float32, reflect.Float64:
		var f float64
		if f, err = strconv.ParseFloat(raw, rv.Type().Bits()); err == nil {
			rv.SetFloat(f)
		}
	default:
		return errors.New(ErrCodeUnsupportedType,
			fmt.Sprintf("no string conversion for type %s", rv.Type()))
	}

	if err != nil {
		return errors.Wrap(err, ErrCodeFlagMalformed,
			fmt.Sprintf("cannot parse %q as %s", raw, rv.Type()))
	}
	return nil
}
