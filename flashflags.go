// flashflags.go: Bridge from declared flags to a flash-flags FlagSet
//
// Copyright (c) 2025 AGILira
// Series: AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"math"
	"strconv"
	"strings"

	flashflags "github.com/agilira/flash-flags"
)

// FlashFlags registers every declared flag on a new flash-flags FlagSet so a
// program can move from declare-on-use to a conventional flag set without
// restating its schema.
//
// Leading dashes are stripped ("--port" becomes "port"); when "-x" and "--x"
// were both declared the first declaration wins. Values already recorded by
// the scan become the defaults. Unsigned flags are registered as Int and
// complex flags as String.
func (r *Registry) FlashFlags(name string) *flashflags.FlagSet {
	fs := flashflags.New(name)
	if r.config.HelpPrefix != "" {
		fs.SetDescription(r.config.HelpPrefix)
	}

	seen := make(map[string]bool, len(r.specs))
	for _, spec := range r.specs {
		flagName := flashFlagName(spec.Key)
		if flagName == "" || seen[flagName] {
			continue
		}
		seen[flagName] = true

		raw, supplied := r.values[spec.Key]
		switch spec.Type {
		case TypeBool:
			fs.Bool(flagName, r.Present(spec.Key), spec.Description)
		case TypeInteger:
			def := 0
			if supplied {
				if n, err := strconv.Atoi(raw); err == nil {
					def = n
				}
			}
			fs.Int(flagName, def, spec.Description)
		case TypeUnsigned:
			def := 0
			if supplied {
				if n, err := strconv.ParseUint(raw, 10, 0); err == nil && n <= math.MaxInt {
					def = int(n)
				}
			}
			fs.Int(flagName, def, spec.Description)
		case TypeFloat:
			def := 0.0
			if supplied {
				if f, err := strconv.ParseFloat(raw, 64); err == nil {
					def = f
				}
			}
			fs.Float64(flagName, def, spec.Description)
		default:
			fs.String(flagName, raw, spec.Description)
		}
	}

	return fs
}

// flashFlagName converts a literal flag token to a flash-flags name.
func flashFlagName(key string) string {
	return strings.TrimLeft(key, "-")
}
