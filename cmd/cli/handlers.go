// Command handlers for the argreg CLI
//
// Each handler pulls its arguments out of the Orpheus context and delegates
// to a plain function that writes to an io.Writer, so the logic can be
// tested without going through command routing.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/agilira/argreg"
	"github.com/agilira/go-errors"
	"github.com/agilira/orpheus/pkg/orpheus"
)

// CLI error codes
const (
	ErrCodeMissingArgument = "ARGREG_CLI_MISSING_ARGUMENT"
	ErrCodeIOError         = "ARGREG_CLI_IO_ERROR"
)

func (m *Manager) handleScan(ctx *orpheus.Context) error {
	m.applyVerbosity(ctx)
	return m.withAudit(ctx.GetFlagString("audit"), func(audit *argreg.AuditLogger) error {
		return runScan(m.out, ctx.GetArg(0), audit)
	})
}

func (m *Manager) handleHelp(ctx *orpheus.Context) error {
	m.applyVerbosity(ctx)
	opts := helpOptions{
		schemaPath: ctx.GetFlagString("schema"),
		prefix:     ctx.GetFlagString("prefix"),
		width:      ctx.GetFlagInt("width"),
	}
	return m.withAudit(ctx.GetFlagString("audit"), func(audit *argreg.AuditLogger) error {
		opts.audit = audit
		return runHelp(m.out, ctx.GetArg(0), opts)
	})
}

func (m *Manager) handleGet(ctx *orpheus.Context) error {
	m.applyVerbosity(ctx)
	return m.withAudit(ctx.GetFlagString("audit"), func(audit *argreg.AuditLogger) error {
		return runGet(m.out, ctx.GetArg(0), ctx.GetFlagString("key"), ctx.GetFlagString("type"), audit)
	})
}

func (m *Manager) handleSchema(ctx *orpheus.Context) error {
	m.applyVerbosity(ctx)
	return m.withAudit(ctx.GetFlagString("audit"), func(audit *argreg.AuditLogger) error {
		return runSchema(m.out, ctx.GetArg(0), ctx.GetFlagString("schema"), audit)
	})
}

func (m *Manager) handleAuditStats(ctx *orpheus.Context) error {
	m.applyVerbosity(ctx)
	m.logger.Debug("reading audit trail", "path", ctx.GetFlagString("db"))
	return runAuditStats(m.out, ctx.GetFlagString("db"))
}

// withAudit opens an audit logger for path (if any), runs fn and closes it.
func (m *Manager) withAudit(path string, fn func(*argreg.AuditLogger) error) error {
	if path == "" {
		return fn(nil)
	}

	config := argreg.DefaultAuditConfig(path)
	config.FlushInterval = 0
	audit, err := argreg.NewAuditLogger(config)
	if err != nil {
		return err
	}
	m.logger.Debug("audit enabled", "path", path)

	runErr := fn(audit)
	if closeErr := audit.Close(); closeErr != nil {
		m.logger.Warn("failed to close audit logger", "path", path, "error", closeErr)
		if runErr == nil {
			return errors.Wrap(closeErr, ErrCodeIOError, "failed to close audit trail")
		}
	}
	return runErr
}

// runScan prints the value table and the bare flags of cmdline.
func runScan(w io.Writer, cmdline string, audit *argreg.AuditLogger) error {
	args, err := splitCommandLine(cmdline)
	if err != nil {
		return err
	}
	reg := argreg.New(args, argreg.WithAudit(audit))

	values := reg.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "program: %s\n", reg.ProgramName())
	for _, k := range keys {
		fmt.Fprintf(w, "%s = %q\n", k, values[k])
	}
	for _, flag := range bareFlags(reg) {
		fmt.Fprintf(w, "%s (present, no value)\n", flag)
	}
	return nil
}

type helpOptions struct {
	schemaPath string
	prefix     string
	width      int
	audit      *argreg.AuditLogger
}

// runHelp declares the schema (if any) against cmdline and prints Help.
func runHelp(w io.Writer, cmdline string, opts helpOptions) error {
	args, err := splitCommandLine(cmdline)
	if err != nil {
		return err
	}

	config := argreg.Config{
		HelpPrefix:  opts.prefix,
		ColumnWidth: opts.width,
		Audit:       opts.audit,
	}
	if err := config.Validate(); err != nil {
		return err
	}
	reg := argreg.New(args, argreg.WithConfig(config))

	if opts.schemaPath != "" {
		data, err := readSchemaFile(opts.schemaPath)
		if err != nil {
			return err
		}
		if err := reg.LoadSchemaYAML(data); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, reg.Help())
	return nil
}

// runGet reads key through the strict path for the requested type.
func runGet(w io.Writer, cmdline, key, typeName string, audit *argreg.AuditLogger) error {
	if key == "" {
		return errors.New(ErrCodeMissingArgument, "--key is required")
	}
	args, err := splitCommandLine(cmdline)
	if err != nil {
		return err
	}
	tag, err := argreg.ParseTypeTag(typeName)
	if err != nil {
		return err
	}

	reg := argreg.New(args, argreg.WithAudit(audit))
	desc := "requested from the command line"

	var value interface{}
	switch tag {
	case argreg.TypeBool:
		value = reg.Bool(key, desc)
	case argreg.TypeInteger:
		value, err = reg.IntStrict(key, desc)
	case argreg.TypeUnsigned:
		value, err = reg.UintStrict(key, desc)
	case argreg.TypeFloat:
		value, err = reg.FloatStrict(key, desc)
	case argreg.TypeComplex:
		value, err = argreg.Parse[string](reg, key, desc)
	default:
		value, err = reg.StringStrict(key, desc)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%v\n", value)
	return nil
}

// runSchema loads a schema, declares it and prints the normalized YAML.
func runSchema(w io.Writer, cmdline, schemaPath string, audit *argreg.AuditLogger) error {
	if schemaPath == "" {
		return errors.New(ErrCodeMissingArgument, "--schema is required")
	}
	args, err := splitCommandLine(cmdline)
	if err != nil {
		return err
	}
	data, err := readSchemaFile(schemaPath)
	if err != nil {
		return err
	}

	reg := argreg.New(args, argreg.WithAudit(audit))
	if err := reg.LoadSchemaYAML(data); err != nil {
		return err
	}
	out, err := reg.MarshalSchemaYAML()
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// runAuditStats prints a summary of the audit trail at path. The trail must
// already exist; opening a logger on a missing path would create an empty one.
func runAuditStats(w io.Writer, path string) (err error) {
	if path == "" {
		return errors.New(ErrCodeMissingArgument, "--db is required")
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return errors.Wrap(statErr, ErrCodeIOError, fmt.Sprintf("cannot access audit trail %s", path))
	}

	config := argreg.DefaultAuditConfig(path)
	config.FlushInterval = 0
	audit, err := argreg.NewAuditLogger(config)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := audit.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, ErrCodeIOError, "failed to close audit trail")
		}
	}()

	stats, err := audit.Stats()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "schema version: %d\n", stats.SchemaVersion)
	printCounts(w, "by event", stats.EventsByName)
	printCounts(w, "by outcome", stats.EventsByOutcome)
	printCounts(w, "by flag", stats.EventsByFlag)
	return nil
}
