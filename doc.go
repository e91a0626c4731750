// Package argreg is a small command-line argument registry where reading a
// flag and declaring it are the same call.
//
// # Scanning
//
// A Registry scans its argument list once, left to right. Any token starting
// with a dash is a flag; "-x" and "--x" are different flags. A flag written as
// "--key=value" is split at the first "="; a bare flag takes the next token as
// its value unless that token is itself a flag. Plain tokens that no flag
// claims are ignored.
//
//	reg := argreg.New([]string{"server", "--port", "8080", "--name=api", "-v"})
//
// # Declare and read
//
// Each accessor records the flag, a description and a type tag for Help, then
// returns the value. Missing and malformed values look the same: the optional
// form returns false, the fallback form returns the fallback.
//
//	port := reg.UintOr("--port", 80, "listen port")
//	name, ok := reg.String("--name", "service name")
//	verbose := reg.Bool("-v", "verbose logging")
//	timeout := argreg.GetOr(reg, "--timeout", 5*time.Second, "request timeout")
//
//	if reg.Bool("--help", "show this help") {
//		fmt.Println(reg.Help())
//	}
//
// Callers that need to tell a missing flag from a bad value use the strict
// forms (IntStrict, Parse, ...), which return go-errors values carrying
// ErrCodeFlagAbsent or ErrCodeFlagMalformed.
//
// # Schemas
//
// Flags can also be declared up front with Declare or from a YAML document
// with LoadSchemaYAML, and an existing declaration table can be handed to
// github.com/agilira/flash-flags through FlashFlags.
//
// # Auditing
//
// An AuditLogger attached with WithAudit records every declaration and lookup
// to SQLite or JSONL. The Registry itself does no I/O and is not safe for
// concurrent use.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package argreg
