// Utility functions for the argreg CLI
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
	"strings"

	"github.com/agilira/argreg"
	"github.com/agilira/go-errors"
)

// maxSchemaSize bounds schema files read by the CLI.
const maxSchemaSize = 1 << 20

// splitCommandLine turns a single command line string into an argument
// vector. Splitting is on whitespace only; quoting is left to the shell that
// invoked us.
func splitCommandLine(cmdline string) ([]string, error) {
	args := strings.Fields(cmdline)
	if len(args) == 0 {
		return nil, errors.New(ErrCodeMissingArgument, "command line is required")
	}
	return args, nil
}

// readSchemaFile reads a YAML schema, refusing oversized files.
func readSchemaFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOError, fmt.Sprintf("cannot access schema %s", path))
	}
	if info.Size() > maxSchemaSize {
		return nil, errors.New(ErrCodeIOError, fmt.Sprintf("schema %s exceeds %d bytes", path, maxSchemaSize))
	}

	// #nosec G304 -- path is provided by the operator on purpose
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIOError, fmt.Sprintf("failed to read schema %s", path))
	}
	return data, nil
}

// bareFlags lists flag tokens that appear without a recorded value, in
// command line order and without duplicates.
func bareFlags(reg *argreg.Registry) []string {
	var out []string
	seen := make(map[string]bool)
	for _, arg := range reg.Args() {
		if !strings.HasPrefix(arg, "-") || strings.Contains(arg, "=") {
			continue
		}
		if reg.Supplied(arg) || seen[arg] {
			continue
		}
		seen[arg] = true
		out = append(out, arg)
	}
	return out
}

func printCounts(w io.Writer, title string, counts map[string]int64) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-20s %d\n", k, counts[k])
	}
}
