// argreg.go: Argument registry construction and classification scan
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"os"
	"path/filepath"
	"strings"
)

// Version is the argreg release version.
const Version = "1.0.0"

// Error codes for argreg operations
const (
	ErrCodeFlagAbsent          = "ARGREG_FLAG_ABSENT"
	ErrCodeFlagMalformed       = "ARGREG_FLAG_MALFORMED"
	ErrCodeUnsupportedType     = "ARGREG_UNSUPPORTED_TYPE"
	ErrCodeInvalidSchema       = "ARGREG_INVALID_SCHEMA"
	ErrCodeInvalidColumnWidth  = "ARGREG_INVALID_COLUMN_WIDTH"
	ErrCodeInvalidAuditConfig  = "ARGREG_INVALID_AUDIT_CONFIG"
	ErrCodeInvalidBufferSize   = "ARGREG_INVALID_BUFFER_SIZE"
	ErrCodeInvalidOutputFile   = "ARGREG_INVALID_OUTPUT_FILE"
	ErrCodeAuditBackendFailure = "ARGREG_AUDIT_BACKEND_FAILURE"
)

// Registry holds the arguments of a single process invocation together with
// the flags the program declared interest in.
//
// Every accessor both declares a flag (for Help) and reads it. A Registry is
// not safe for concurrent use: accessors mutate the declaration table, so
// callers sharing one across goroutines must guard it themselves.
//
// The zero value is an empty registry with no arguments; use New to scan a
// command line.
type Registry struct {
	args   []string
	values map[string]string

	// declaration table, insertion ordered
	specs []FlagSpec
	index map[string]int

	config Config
}

// New scans args once and returns a Registry over them.
// args[0] is conventionally the program name.
func New(args []string, opts ...Option) *Registry {
	config := Config{}
	for _, opt := range opts {
		opt(&config)
	}

	r := &Registry{
		args:   append([]string(nil), args...),
		values: scan(args),
		index:  make(map[string]int),
		config: *config.WithDefaults(),
	}
	return r
}

// NewFromOS returns a Registry over os.Args.
// Use it at the outermost entry point only; everything else should take a
// Registry or an explicit argument slice.
func NewFromOS(opts ...Option) *Registry {
	return New(os.Args, opts...)
}

// scan classifies tokens left to right with a single pending-flag slot.
//
// A flag with "=" never consumes the following token. A bare flag consumes
// the next token unless that token is itself a flag, in which case the bare
// flag is dropped without a value. A trailing bare flag is never recorded.
func scan(args []string) map[string]string {
	values := make(map[string]string)

	pending := ""
	hasPending := false

	for _, arg := range args {
		isFlag := strings.HasPrefix(arg, "-")

		if isFlag {
			if key, val, found := strings.Cut(arg, "="); found {
				values[key] = val
				hasPending = false
				continue
			}
			pending, hasPending = arg, true
			continue
		}

		if hasPending {
			values[pending] = arg
			hasPending = false
		}
	}

	return values
}

// Lookup returns the raw recorded value for key without declaring it.
func (r *Registry) Lookup(key string) (string, bool) {
	val, ok := r.values[key]
	return val, ok
}

// Supplied reports whether key has a recorded value.
// A bare flag with nothing after it is present (see Bool) but not supplied.
func (r *Registry) Supplied(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Present reports whether key appears as a whole token in the raw arguments.
// Unlike Bool it does not declare the flag.
func (r *Registry) Present(key string) bool {
	for _, arg := range r.args {
		if arg == key {
			return true
		}
	}
	return false
}

// Args returns a copy of the raw argument sequence.
func (r *Registry) Args() []string {
	return append([]string(nil), r.args...)
}

// Values returns a copy of the flag to value mapping built by the scan.
func (r *Registry) Values() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// ProgramName returns the name used on the usage line.
func (r *Registry) ProgramName() string {
	if r.config.ProgramName != "" {
		return r.config.ProgramName
	}
	if len(r.args) > 0 && r.args[0] != "" {
		return filepath.Base(r.args[0])
	}
	return defaultProgramName
}
