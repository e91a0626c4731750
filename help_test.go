// help_test.go: Tests for usage and options rendering
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"fmt"
	"strings"
	"testing"
)

func TestHelpEmpty(t *testing.T) {
	reg := New([]string{"/bin/server"})

	want := "usage: server\noptions:"
	if got := reg.Help(); got != want {
		t.Errorf("Help() = %q, want %q", got, want)
	}
}

func TestHelpListsDeclaredFlagsInOrder(t *testing.T) {
	reg := New([]string{"server", "--port", "8080"})
	reg.Bool("--verbose", "chatty logging")
	reg.UintOr("--port", 80, "listen port")
	reg.StringOr("-n", "api", "service name")

	want := strings.Join([]string{
		"usage: server [--verbose, bool] [--port, unsigned] [-n, string]",
		"options:",
		fmt.Sprintf("  %-20s %s", "--verbose", "chatty logging"),
		fmt.Sprintf("  %-20s %s", "--port", "listen port"),
		fmt.Sprintf("  %-20s %s", "-n", "service name"),
	}, "\n")

	if got := reg.Help(); got != want {
		t.Errorf("Help() mismatch\n got: %q\nwant: %q", got, want)
	}

	// rendering twice gives the same text and declares nothing
	if again := reg.Help(); again != want {
		t.Error("Help() is not stable across calls")
	}
	if len(reg.Schema()) != 3 {
		t.Errorf("Help() changed the declaration table: %d entries", len(reg.Schema()))
	}
}

func TestHelpLongFlagName(t *testing.T) {
	reg := New([]string{"app"})
	long := "--a-very-long-flag-name" // 23 characters
	exact := "--exactly-twenty-chr"   // 20 characters
	reg.String(long, "long description")
	reg.String(exact, "exact description")

	lines := strings.Split(reg.Help(), "\n")
	// usage, options, long key, its description, exact key, its description
	if len(lines) != 6 {
		t.Fatalf("Expected 6 lines, got %d: %q", len(lines), lines)
	}

	indent := strings.Repeat(" ", 22)
	if lines[2] != "  "+long {
		t.Errorf("Unexpected key line %q", lines[2])
	}
	if lines[3] != indent+" long description" {
		t.Errorf("Unexpected description line %q", lines[3])
	}
	if len(exact) != 20 {
		t.Fatalf("test key should be 20 characters, is %d", len(exact))
	}
	if lines[4] != "  "+exact || lines[5] != indent+" exact description" {
		t.Errorf("A 20 character key should also wrap, got %q / %q", lines[4], lines[5])
	}
}

func TestHelpPrefixAndWidth(t *testing.T) {
	reg := New([]string{"app"}, WithHelpPrefix("server 1.0 - demo"), WithColumnWidth(8))
	reg.Bool("-v", "verbose")

	want := "server 1.0 - demo\nusage: app [-v, bool]\noptions:\n  -v       verbose"
	if got := reg.Help(); got != want {
		t.Errorf("Help() = %q, want %q", got, want)
	}

	reg.SetHelpPrefix("")
	if strings.HasPrefix(reg.Help(), "server") {
		t.Error("Expected prefix to be cleared")
	}
}
