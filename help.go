// help.go: Usage and options rendering
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"strings"
)

// SetHelpPrefix sets text printed above the usage line.
func (r *Registry) SetHelpPrefix(msg string) {
	r.config.HelpPrefix = msg
}

// Help renders the usage line and the options block for every flag declared
// so far, in declaration order. It does not modify the registry.
//
//	usage: server [--port, unsigned] [--verbose, bool]
//	options:
//	  --port               listen port
//	  --verbose            chatty logging
func (r *Registry) Help() string {
	var b strings.Builder

	if r.config.HelpPrefix != "" {
		b.WriteString(r.config.HelpPrefix)
		b.WriteByte('\n')
	}

	b.WriteString("usage: ")
	b.WriteString(r.ProgramName())
	for _, spec := range r.specs {
		b.WriteString(" [")
		b.WriteString(spec.Key)
		b.WriteString(", ")
		b.WriteString(spec.Type.String())
		b.WriteByte(']')
	}

	b.WriteString("\noptions:")
	width := r.config.ColumnWidth
	if width <= 0 {
		width = defaultColumnWidth
	}
	for _, spec := range r.specs {
		b.WriteString("\n  ")
		b.WriteString(spec.Key)
		if len(spec.Key) >= width {
			// description moves to its own line, aligned with the others
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", width+2))
		} else {
			b.WriteString(strings.Repeat(" ", width-len(spec.Key)))
		}
		b.WriteByte(' ')
		b.WriteString(spec.Description)
	}

	return b.String()
}
