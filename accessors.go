// accessors.go: Typed declare-and-read accessors
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"fmt"

	"github.com/agilira/go-errors"
)

// Lookup outcomes recorded by the audit trail
const (
	OutcomePresent   = "present"
	OutcomeAbsent    = "absent"
	OutcomeMalformed = "malformed"
)

// Bool declares key as a bool flag and reports whether it appears as a whole
// token anywhere in the raw arguments, with or without a value.
func (r *Registry) Bool(key, desc string) bool {
	r.declare(key, desc, TypeBool)
	present := r.Present(key)
	if present {
		r.config.Audit.LogLookup(key, TypeBool, OutcomePresent)
	} else {
		r.config.Audit.LogLookup(key, TypeBool, OutcomeAbsent)
	}
	return present
}

// String declares key as a string flag and returns its recorded value.
func (r *Registry) String(key, desc string) (string, bool) {
	return lookupAs[string](r, key, desc, TypeString)
}

// StringOr is String with a fallback for a missing value.
func (r *Registry) StringOr(key, fallback, desc string) string {
	value, ok := r.String(key, desc)
	return orFallback(value, ok, fallback)
}

// Int declares key as an integer flag. It returns false when the flag has no
// recorded value or the value is not a decimal integer.
func (r *Registry) Int(key, desc string) (int, bool) {
	return lookupAs[int](r, key, desc, TypeInteger)
}

// IntOr is Int with a fallback for a missing or malformed value.
func (r *Registry) IntOr(key string, fallback int, desc string) int {
	value, ok := r.Int(key, desc)
	return orFallback(value, ok, fallback)
}

// Uint declares key as an unsigned flag.
func (r *Registry) Uint(key, desc string) (uint, bool) {
	return lookupAs[uint](r, key, desc, TypeUnsigned)
}

// UintOr is Uint with a fallback.
func (r *Registry) UintOr(key string, fallback uint, desc string) uint {
	value, ok := r.Uint(key, desc)
	return orFallback(value, ok, fallback)
}

// Float declares key as a float flag.
func (r *Registry) Float(key, desc string) (float64, bool) {
	return lookupAs[float64](r, key, desc, TypeFloat)
}

// FloatOr is Float with a fallback.
func (r *Registry) FloatOr(key string, fallback float64, desc string) float64 {
	value, ok := r.Float(key, desc)
	return orFallback(value, ok, fallback)
}

// Get declares key with the complex tag and converts its value to T.
// See convertValue for the supported targets.
//
// Example:
//
//	timeout, ok := argreg.Get[time.Duration](reg, "--timeout", "request timeout")
func Get[T any](r *Registry, key, desc string) (T, bool) {
	return lookupAs[T](r, key, desc, TypeComplex)
}

// GetOr is Get with a fallback.
func GetOr[T any](r *Registry, key string, fallback T, desc string) T {
	value, ok := Get[T](r, key, desc)
	return orFallback(value, ok, fallback)
}

// Strict variants

// Parse declares key with the complex tag and converts its value to T,
// reporting why a value is unavailable. The error carries
// ErrCodeFlagAbsent, ErrCodeFlagMalformed or ErrCodeUnsupportedType.
func Parse[T any](r *Registry, key, desc string) (T, error) {
	return parseAs[T](r, key, desc, TypeComplex)
}

// IntStrict is the strict form of Int.
func (r *Registry) IntStrict(key, desc string) (int, error) {
	return parseAs[int](r, key, desc, TypeInteger)
}

// UintStrict is the strict form of Uint.
func (r *Registry) UintStrict(key, desc string) (uint, error) {
	return parseAs[uint](r, key, desc, TypeUnsigned)
}

// FloatStrict is the strict form of Float.
func (r *Registry) FloatStrict(key, desc string) (float64, error) {
	return parseAs[float64](r, key, desc, TypeFloat)
}

// StringStrict is the strict form of String.
func (r *Registry) StringStrict(key, desc string) (string, error) {
	return parseAs[string](r, key, desc, TypeString)
}

// IsAbsent reports whether err says the flag had no recorded value.
func IsAbsent(err error) bool {
	return hasCode(err, ErrCodeFlagAbsent)
}

// IsMalformed reports whether err says the flag value failed to convert.
func IsMalformed(err error) bool {
	return hasCode(err, ErrCodeFlagMalformed)
}

func hasCode(err error, code string) bool {
	if errorCoder, ok := err.(errors.ErrorCoder); ok {
		return string(errorCoder.ErrorCode()) == code
	}
	return false
}

func parseAs[T any](r *Registry, key, desc string, tag TypeTag) (T, error) {
	r.declare(key, desc, tag)

	var zero T
	raw, ok := r.values[key]
	if !ok {
		r.config.Audit.LogLookup(key, tag, OutcomeAbsent)
		return zero, errors.New(ErrCodeFlagAbsent, fmt.Sprintf("flag %s has no value", key))
	}

	value, err := convertValue[T](raw)
	if err != nil {
		r.config.Audit.LogLookup(key, tag, OutcomeMalformed)
		return zero, err
	}

	r.config.Audit.LogLookup(key, tag, OutcomePresent)
	return value, nil
}

// lookupAs collapses every strict failure into "absent".
func lookupAs[T any](r *Registry, key, desc string, tag TypeTag) (T, bool) {
	value, err := parseAs[T](r, key, desc, tag)
	return value, err == nil
}

func orFallback[T any](value T, ok bool, fallback T) T {
	if ok {
		return value
	}
	return fallback
}
