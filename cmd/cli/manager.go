// Package cli provides the command-line interface for inspecting how argreg
// classifies an argument list.
//
// Commands:
//   - scan:   show the flag/value table built from a command line
//   - usage:  render help text for a command line and a YAML schema
//   - get:    read one flag through the strict typed path
//   - schema: normalize a YAML schema document
//   - audit:  inspect an audit trail written by argreg.AuditLogger
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/agilira/argreg"
	"github.com/agilira/orpheus/pkg/orpheus"
)

// Manager wires argreg operations to Orpheus commands.
type Manager struct {
	app    *orpheus.App
	out    io.Writer
	logger *slog.Logger
	level  *slog.LevelVar
}

// NewManager creates a CLI manager writing to standard output.
func NewManager() *Manager {
	return NewManagerWithOutput(os.Stdout)
}

// NewManagerWithOutput creates a CLI manager writing command output to out.
// Diagnostics go to standard error through slog.
func NewManagerWithOutput(out io.Writer) *Manager {
	app := orpheus.New("argreg").
		SetDescription("Inspect how command lines are classified into flags and values").
		SetVersion(argreg.Version)

	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)

	manager := &Manager{
		app:    app,
		out:    out,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		level:  level,
	}

	manager.setupInspectCommands()
	manager.setupAuditCommands()

	return manager
}

// WithLogger replaces the diagnostic logger. A replaced logger keeps its own
// level; --verbose only affects the default one.
func (m *Manager) WithLogger(logger *slog.Logger) *Manager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// Run executes the CLI application with the provided arguments
// (without the program name).
func (m *Manager) Run(args []string) error {
	return m.app.Run(args)
}

// setupInspectCommands registers scan, usage, get and schema.
func (m *Manager) setupInspectCommands() {
	// scan "<cmdline>"
	scanCmd := orpheus.NewCommand("scan", "Show the flag/value table for a command line").
		SetHandler(m.handleScan)
	m.addCommonFlags(scanCmd)
	m.app.AddCommand(scanCmd)

	// usage "<cmdline>" [--schema file] [--prefix text] [--width n]
	helpCmd := orpheus.NewCommand("usage", "Render help text for a command line").
		AddFlag("schema", "s", "", "YAML schema declaring the flags").
		AddFlag("prefix", "p", "", "Text printed above the usage line").
		AddIntFlag("width", "w", 0, "Flag column width (0 for default)").
		SetHandler(m.handleHelp)
	m.addCommonFlags(helpCmd)
	m.app.AddCommand(helpCmd)

	// get "<cmdline>" --key=--port [--type integer]
	// The key is a flag value: keys start with a dash and would be taken
	// for flags of this command if passed positionally.
	getCmd := orpheus.NewCommand("get", "Read one flag as a typed value").
		AddFlag("key", "k", "", "Flag to read, e.g. --key=--port").
		AddFlag("type", "t", "string", "Value type (string|integer|unsigned|float|bool|complex)").
		SetHandler(m.handleGet)
	m.addCommonFlags(getCmd)
	m.app.AddCommand(getCmd)

	// schema "<cmdline>" --schema file
	schemaCmd := orpheus.NewCommand("schema", "Normalize a YAML schema document").
		AddFlag("schema", "s", "", "YAML schema declaring the flags").
		SetHandler(m.handleSchema)
	m.addCommonFlags(schemaCmd)
	m.app.AddCommand(schemaCmd)
}

// setupAuditCommands registers the audit command group.
func (m *Manager) setupAuditCommands() {
	auditCmd := orpheus.NewCommand("audit", "Audit trail inspection")

	statsCmd := auditCmd.Subcommand("stats", "Summarize an audit trail", m.handleAuditStats)
	statsCmd.AddFlag("db", "d", "", "Audit trail file (.db or .jsonl)").
		AddBoolFlag("verbose", "v", false, "Log diagnostics to stderr")

	m.app.AddCommand(auditCmd)
}

// addCommonFlags adds the flags every inspect command accepts.
func (m *Manager) addCommonFlags(cmd *orpheus.Command) {
	cmd.AddFlag("audit", "a", "", "Audit trail file (.db or .jsonl)").
		AddBoolFlag("verbose", "v", false, "Log diagnostics to stderr")
}

// applyVerbosity lowers the default logger to debug when --verbose is set.
func (m *Manager) applyVerbosity(ctx *orpheus.Context) {
	if ctx.GetFlagBool("verbose") {
		m.level.Set(slog.LevelDebug)
		m.logger.Debug("verbose logging enabled")
	}
}
