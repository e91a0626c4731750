// audit_test.go - Tests for the flag audit trail
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestAuditLogger(t *testing.T, name string) (*AuditLogger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	config := DefaultAuditConfig(path)
	config.BufferSize = 4
	config.FlushInterval = 0

	auditor, err := NewAuditLogger(config)
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}
	t.Cleanup(func() {
		if err := auditor.Close(); err != nil {
			t.Errorf("Failed to close auditor: %v", err)
		}
	})
	return auditor, path
}

func exerciseRegistry(auditor *AuditLogger) {
	reg := New([]string{"app", "--port", "80", "--bad=x", "-v"}, WithAudit(auditor))
	reg.Bool("-v", "verbose")        // declared + present
	reg.IntOr("--port", 0, "port")   // declared + present
	reg.IntOr("--bad", 0, "bad")     // declared + malformed
	reg.StringOr("--name", "", "nm") // declared + absent
}

func TestAuditLoggerJSONL(t *testing.T) {
	auditor, path := newTestAuditLogger(t, "audit.jsonl")
	exerciseRegistry(auditor)

	if err := auditor.Flush(); err != nil {
		t.Fatalf("Failed to flush auditor: %v", err)
	}

	events, err := ReadAuditJSONL(path)
	if err != nil {
		t.Fatalf("Failed to read audit file: %v", err)
	}
	if len(events) != 8 {
		t.Fatalf("Expected 8 events, got %d", len(events))
	}

	if events[0].Event != EventFlagDeclared || events[0].Flag != "-v" || events[0].Type != "bool" {
		t.Errorf("Unexpected first event: %+v", events[0])
	}
	if events[1].Event != EventFlagLookup || events[1].Outcome != OutcomePresent {
		t.Errorf("Unexpected second event: %+v", events[1])
	}
	if events[5].Outcome != OutcomeMalformed || events[5].Level != AuditWarn {
		t.Errorf("Expected malformed lookup at warn level, got %+v", events[5])
	}
	if events[7].Outcome != OutcomeAbsent {
		t.Errorf("Expected absent lookup, got %+v", events[7])
	}

	for i, event := range events {
		if !VerifyChecksum(event) {
			t.Errorf("Checksum mismatch for event %d: %+v", i, event)
		}
	}

	tampered := events[0]
	tampered.Flag = "--other"
	if VerifyChecksum(tampered) {
		t.Error("Expected tampered event to fail checksum verification")
	}

	stats, err := auditor.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalEvents != 8 {
		t.Errorf("Expected 8 events in stats, got %d", stats.TotalEvents)
	}
	if stats.EventsByOutcome[OutcomeMalformed] != 1 || stats.EventsByOutcome[OutcomePresent] != 2 {
		t.Errorf("Unexpected outcome counts: %v", stats.EventsByOutcome)
	}
}

func TestAuditLoggerSQLite(t *testing.T) {
	auditor, _ := newTestAuditLogger(t, "audit.db")
	exerciseRegistry(auditor)

	stats, err := auditor.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.TotalEvents != 8 {
		t.Errorf("Expected 8 events, got %d", stats.TotalEvents)
	}
	if stats.EventsByName[EventFlagDeclared] != 4 || stats.EventsByName[EventFlagLookup] != 4 {
		t.Errorf("Unexpected event counts: %v", stats.EventsByName)
	}
	if stats.EventsByFlag["--port"] != 2 {
		t.Errorf("Expected 2 events for --port, got %d", stats.EventsByFlag["--port"])
	}
	if stats.EventsByOutcome[OutcomeAbsent] != 1 {
		t.Errorf("Unexpected outcome counts: %v", stats.EventsByOutcome)
	}
	if stats.SchemaVersion != sqliteSchemaVersion {
		t.Errorf("Expected schema version %d, got %d", sqliteSchemaVersion, stats.SchemaVersion)
	}
	if stats.OldestEvent == nil || stats.NewestEvent == nil {
		t.Error("Expected event time range")
	}
}

func TestAuditLoggerMinLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warn.jsonl")
	config := DefaultAuditConfig(path)
	config.MinLevel = AuditWarn
	config.FlushInterval = 0

	auditor, err := NewAuditLogger(config)
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}
	exerciseRegistry(auditor)
	if err := auditor.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	events, err := ReadAuditJSONL(path)
	if err != nil {
		t.Fatalf("Failed to read audit file: %v", err)
	}
	if len(events) != 1 || events[0].Flag != "--bad" {
		t.Errorf("Expected only the malformed lookup, got %+v", events)
	}
}

func TestAuditLoggerBackgroundFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bg.jsonl")
	config := DefaultAuditConfig(path)
	config.BufferSize = 1000
	config.FlushInterval = 20 * time.Millisecond

	auditor, err := NewAuditLogger(config)
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}
	defer auditor.Close()

	auditor.LogDeclared("--port", TypeUnsigned, "listen port")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events, err := ReadAuditJSONL(path)
		if err == nil && len(events) == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Background flush did not persist the event")
}

func TestAuditConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		config AuditConfig
		code   string
	}{
		{"missing output", AuditConfig{Enabled: true, BufferSize: 1}, ErrCodeInvalidOutputFile},
		{"zero buffer", AuditConfig{Enabled: true, OutputFile: "a.db"}, ErrCodeInvalidBufferSize},
		{"negative interval", AuditConfig{Enabled: true, OutputFile: "a.db", BufferSize: 1, FlushInterval: -time.Second}, ErrCodeInvalidAuditConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAuditLogger(tt.config)
			if !hasCode(err, tt.code) {
				t.Errorf("Expected %s, got %v", tt.code, err)
			}
		})
	}

	if err := (AuditConfig{}).Validate(); err != nil {
		t.Errorf("Disabled config should be valid, got %v", err)
	}
}

func TestDisabledAndNilAuditLogger(t *testing.T) {
	var nilLogger *AuditLogger
	nilLogger.LogDeclared("--x", TypeString, "x")
	nilLogger.LogLookup("--x", TypeString, OutcomeAbsent)
	if err := nilLogger.Flush(); err != nil {
		t.Errorf("nil Flush returned %v", err)
	}
	if err := nilLogger.Close(); err != nil {
		t.Errorf("nil Close returned %v", err)
	}

	disabled, err := NewAuditLogger(AuditConfig{})
	if err != nil {
		t.Fatalf("Disabled logger failed: %v", err)
	}
	exerciseRegistry(disabled)
	if _, err := disabled.Stats(); err == nil {
		t.Error("Expected Stats on a disabled logger to fail")
	}
	if err := disabled.Close(); err != nil {
		t.Errorf("Close returned %v", err)
	}
	if err := disabled.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
}

func TestAuditLevelString(t *testing.T) {
	if AuditInfo.String() != "INFO" || AuditWarn.String() != "WARN" || AuditLevel(9).String() != "UNKNOWN" {
		t.Error("Unexpected audit level names")
	}
}

func TestSQLiteEventTimeRange(t *testing.T) {
	backend, err := newSQLiteBackend(DefaultAuditConfig(filepath.Join(t.TempDir(), "range.db")))
	if err != nil {
		t.Fatalf("Failed to open SQLite backend: %v", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			t.Errorf("Failed to close backend: %v", err)
		}
	}()

	// whole second and a fractional second: the text forms differ in length
	whole := time.Date(2025, 3, 1, 12, 0, 5, 0, time.UTC)
	fraction := whole.Add(100 * time.Millisecond)
	local := whole.Add(-time.Hour).In(time.FixedZone("CET", 3600))

	events := []AuditEvent{
		{Timestamp: fraction, Event: EventFlagLookup, Component: "argreg", Flag: "--a", Type: "string"},
		{Timestamp: whole, Event: EventFlagLookup, Component: "argreg", Flag: "--b", Type: "string"},
		{Timestamp: local, Event: EventFlagLookup, Component: "argreg", Flag: "--c", Type: "string"},
	}
	if err := backend.Write(events); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	stats, err := backend.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.OldestEvent == nil || !stats.OldestEvent.Equal(local) {
		t.Errorf("Expected oldest event %v, got %v", local, stats.OldestEvent)
	}
	if stats.NewestEvent == nil || !stats.NewestEvent.Equal(fraction) {
		t.Errorf("Expected newest event %v, got %v", fraction, stats.NewestEvent)
	}
}
