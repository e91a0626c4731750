// config.go: Registry configuration, defaults and validation
//
// Copyright (c) 2025 AGILira
// Series: AGILira System Libraries
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"fmt"

	"github.com/agilira/go-errors"
)

const (
	defaultProgramName = "app"
	defaultColumnWidth = 20
	maxColumnWidth     = 200
)

// Validation errors
var (
	ErrInvalidColumnWidth = errors.New(ErrCodeInvalidColumnWidth,
		fmt.Sprintf("column width must be between 1 and %d", maxColumnWidth))
)

// Config controls how a Registry renders help and whether it audits lookups.
// The zero value is usable.
type Config struct {
	// ProgramName overrides the base name of args[0] on the usage line.
	ProgramName string

	// HelpPrefix is printed above the usage line when non-empty.
	HelpPrefix string

	// ColumnWidth is the padded width of the flag column (default 20).
	ColumnWidth int

	// Audit receives declaration and lookup events. Nil disables auditing.
	Audit *AuditLogger
}

// Option configures a Registry at construction time.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(config Config) Option {
	return func(c *Config) { *c = config }
}

// WithProgramName sets the name shown on the usage line.
func WithProgramName(name string) Option {
	return func(c *Config) { c.ProgramName = name }
}

// WithHelpPrefix sets the text printed above the usage line.
func WithHelpPrefix(prefix string) Option {
	return func(c *Config) { c.HelpPrefix = prefix }
}

// WithColumnWidth sets the width of the flag column in the options block.
func WithColumnWidth(width int) Option {
	return func(c *Config) { c.ColumnWidth = width }
}

// WithAudit attaches an audit logger.
func WithAudit(logger *AuditLogger) Option {
	return func(c *Config) { c.Audit = logger }
}

// WithDefaults applies sensible defaults to the configuration
func (c *Config) WithDefaults() *Config {
	config := *c

	if config.ColumnWidth <= 0 {
		config.ColumnWidth = defaultColumnWidth
	}

	// GUARD RAIL: absurd widths only produce walls of spaces
	if config.ColumnWidth > maxColumnWidth {
		config.ColumnWidth = maxColumnWidth
	}

	return &config
}

// Validate reports configuration values that WithDefaults would have to
// correct. A zero ColumnWidth is valid and means the default.
func (c *Config) Validate() error {
	if c.ColumnWidth < 0 || c.ColumnWidth > maxColumnWidth {
		return ErrInvalidColumnWidth
	}
	return nil
}
