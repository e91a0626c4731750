// audit.go: Audit trail of flag declarations and lookups
//
// This records which flags a program declared and what it found when it read
// them, so a deployment can answer "which options did this binary actually
// receive" after the fact.
//
// Features:
// - Tamper detection checksums per event
// - Buffered writes with background flushing
// - SQLite or JSONL storage
//
// Copyright (c) 2025 AGILira
// Series: AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// Audit event names
const (
	EventFlagDeclared = "flag_declared"
	EventFlagLookup   = "flag_lookup"
)

// AuditLevel represents the severity of audit events
type AuditLevel int

const (
	AuditInfo AuditLevel = iota
	AuditWarn
)

func (al AuditLevel) String() string {
	switch al {
	case AuditInfo:
		return "INFO"
	case AuditWarn:
		return "WARN"
	default:
		return "UNKNOWN"
	}
}

// AuditEvent represents a single auditable event
type AuditEvent struct {
	Timestamp   time.Time  `json:"timestamp"`
	Level       AuditLevel `json:"level"`
	Event       string     `json:"event"`
	Component   string     `json:"component"`
	Flag        string     `json:"flag"`
	Type        string     `json:"type"`
	Outcome     string     `json:"outcome,omitempty"`
	Description string     `json:"description,omitempty"`
	ProcessID   int        `json:"process_id"`
	ProcessName string     `json:"process_name"`
	Checksum    string     `json:"checksum"` // For tamper detection
}

// AuditConfig configures the audit system
type AuditConfig struct {
	Enabled bool `json:"enabled"`

	// OutputFile selects the backend by extension: ".jsonl" writes JSON
	// lines, anything else is opened as a SQLite database.
	OutputFile    string        `json:"output_file"`
	MinLevel      AuditLevel    `json:"min_level"`
	BufferSize    int           `json:"buffer_size"`
	FlushInterval time.Duration `json:"flush_interval"`
}

// DefaultAuditConfig returns an enabled configuration writing to path.
func DefaultAuditConfig(path string) AuditConfig {
	return AuditConfig{
		Enabled:       true,
		OutputFile:    path,
		MinLevel:      AuditInfo,
		BufferSize:    256,
		FlushInterval: 5 * time.Second,
	}
}

// Validate checks the audit configuration before any backend is opened.
func (c AuditConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.OutputFile == "" {
		return errors.New(ErrCodeInvalidOutputFile, "audit output file path is empty")
	}
	if c.BufferSize <= 0 {
		return errors.New(ErrCodeInvalidBufferSize, "audit buffer size must be positive")
	}
	if c.FlushInterval < 0 {
		return errors.New(ErrCodeInvalidAuditConfig, "audit flush interval must not be negative")
	}
	return nil
}

// AuditLogger buffers audit events and hands them to a storage backend.
//
// Unlike Registry it is safe for concurrent use. A nil *AuditLogger is valid
// and records nothing.
type AuditLogger struct {
	config      AuditConfig
	backend     auditBackend
	buffer      []AuditEvent
	bufferMu    sync.Mutex
	flushTicker *time.Ticker
	stopCh      chan struct{}
	closeOnce   sync.Once
	processID   int
	processName string
}

// NewAuditLogger validates config, opens its backend and starts the
// background flusher when FlushInterval is positive.
func NewAuditLogger(config AuditConfig) (*AuditLogger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var backend auditBackend
	if config.Enabled {
		var err error
		backend, err = createAuditBackend(config)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeAuditBackendFailure, "failed to initialize audit backend")
		}
	}

	logger := &AuditLogger{
		config:      config,
		backend:     backend,
		buffer:      make([]AuditEvent, 0, config.BufferSize),
		stopCh:      make(chan struct{}),
		processID:   os.Getpid(),
		processName: getProcessName(),
	}

	if backend != nil && config.FlushInterval > 0 {
		logger.flushTicker = time.NewTicker(config.FlushInterval)
		go logger.flushLoop()
	}

	return logger, nil
}

// Log records an audit event
func (al *AuditLogger) Log(level AuditLevel, event, flag string, tag TypeTag, outcome, desc string) {
	if al == nil || al.backend == nil || !al.config.Enabled || level < al.config.MinLevel {
		return
	}

	auditEvent := AuditEvent{
		Timestamp:   timecache.CachedTime(),
		Level:       level,
		Event:       event,
		Component:   "argreg",
		Flag:        flag,
		Type:        tag.String(),
		Outcome:     outcome,
		Description: desc,
		ProcessID:   al.processID,
		ProcessName: al.processName,
	}
	auditEvent.Checksum = generateChecksum(auditEvent)

	al.bufferMu.Lock()
	al.buffer = append(al.buffer, auditEvent)
	if len(al.buffer) >= al.config.BufferSize {
		_ = al.flushBufferUnsafe() // retried on the next flush
	}
	al.bufferMu.Unlock()
}

// LogDeclared records that a program declared interest in a flag.
func (al *AuditLogger) LogDeclared(flag string, tag TypeTag, desc string) {
	al.Log(AuditInfo, EventFlagDeclared, flag, tag, "", desc)
}

// LogLookup records the outcome of reading a flag. Malformed values are
// logged at warn level.
func (al *AuditLogger) LogLookup(flag string, tag TypeTag, outcome string) {
	level := AuditInfo
	if outcome == OutcomeMalformed {
		level = AuditWarn
	}
	al.Log(level, EventFlagLookup, flag, tag, outcome, "")
}

// Flush immediately writes all buffered events
func (al *AuditLogger) Flush() error {
	if al == nil || al.backend == nil {
		return nil
	}
	al.bufferMu.Lock()
	defer al.bufferMu.Unlock()
	if err := al.flushBufferUnsafe(); err != nil {
		return err
	}
	return al.backend.Flush()
}

// Stats flushes pending events and returns backend statistics.
func (al *AuditLogger) Stats() (*AuditStats, error) {
	if al == nil || al.backend == nil {
		return nil, errors.New(ErrCodeInvalidAuditConfig, "audit logger is disabled")
	}
	if err := al.Flush(); err != nil {
		return nil, err
	}
	return al.backend.GetStats()
}

// Close stops the flusher, writes what is buffered and releases the backend.
// Calling Close more than once is harmless.
func (al *AuditLogger) Close() error {
	if al == nil {
		return nil
	}

	var err error
	al.closeOnce.Do(func() {
		close(al.stopCh)
		if al.flushTicker != nil {
			al.flushTicker.Stop()
		}
		if al.backend == nil {
			return
		}

		if flushErr := al.Flush(); flushErr != nil {
			err = fmt.Errorf("failed to flush audit logger during close: %w", flushErr)
			return
		}
		if closeErr := al.backend.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close audit backend: %w", closeErr)
		}
	})
	return err
}

func (al *AuditLogger) flushLoop() {
	for {
		select {
		case <-al.flushTicker.C:
			_ = al.Flush()
		case <-al.stopCh:
			return
		}
	}
}

// flushBufferUnsafe writes buffer to the backend (caller must hold bufferMu).
func (al *AuditLogger) flushBufferUnsafe() error {
	if len(al.buffer) == 0 {
		return nil
	}
	if err := al.backend.Write(al.buffer); err != nil {
		return fmt.Errorf("failed to write audit events to backend: %w", err)
	}
	al.buffer = al.buffer[:0]
	return nil
}

// generateChecksum creates a tamper-detection checksum using SHA-256
func generateChecksum(event AuditEvent) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s:%s",
		event.Timestamp.Format(time.RFC3339Nano),
		event.Event, event.Flag, event.Type, event.Outcome, event.Description)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// VerifyChecksum reports whether event still matches its checksum.
func VerifyChecksum(event AuditEvent) bool {
	return event.Checksum == generateChecksum(event)
}

func getProcessName() string {
	if len(os.Args) > 0 && os.Args[0] != "" {
		return filepath.Base(os.Args[0])
	}
	return "argreg"
}
