// audit_backend.go: Storage backends for the argreg audit trail
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package argreg

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// auditBackend abstracts where audit events end up.
type auditBackend interface {
	// Write persists a batch of audit events.
	Write(events []AuditEvent) error

	// Flush commits pending writes to storage.
	Flush() error

	// Close releases all resources. The backend must not be used afterwards.
	Close() error

	// GetStats summarizes what has been stored.
	GetStats() (*AuditStats, error)
}

// AuditStats summarizes a stored audit trail.
type AuditStats struct {
	TotalEvents     int64            `json:"total_events"`
	EventsByName    map[string]int64 `json:"events_by_name"`
	EventsByOutcome map[string]int64 `json:"events_by_outcome"`
	EventsByFlag    map[string]int64 `json:"events_by_flag"`
	OldestEvent     *time.Time       `json:"oldest_event,omitempty"`
	NewestEvent     *time.Time       `json:"newest_event,omitempty"`
	StorageSize     int64            `json:"storage_size_bytes"`
	SchemaVersion   int              `json:"schema_version"`
}

func newAuditStats() *AuditStats {
	return &AuditStats{
		EventsByName:    make(map[string]int64),
		EventsByOutcome: make(map[string]int64),
		EventsByFlag:    make(map[string]int64),
	}
}

// createAuditBackend picks the backend from the output file extension.
func createAuditBackend(config AuditConfig) (auditBackend, error) {
	if filepath.Ext(config.OutputFile) == ".jsonl" {
		return newJSONLBackend(config)
	}
	return newSQLiteBackend(config)
}

// sqliteAuditBackend stores events in a single SQLite table.
type sqliteAuditBackend struct {
	db         *sql.DB
	dbPath     string
	insertStmt *sql.Stmt
	mu         sync.RWMutex
	closed     bool
}

const sqliteSchemaVersion = 1

func newSQLiteBackend(config AuditConfig) (*sqliteAuditBackend, error) {
	if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0750); err != nil {
		return nil, fmt.Errorf("failed to create audit database directory: %w", err)
	}

	db, err := openSQLiteDatabase(config.OutputFile)
	if err != nil {
		return nil, err
	}

	backend := &sqliteAuditBackend{
		db:     db,
		dbPath: config.OutputFile,
	}

	if err := backend.initializeSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize audit database schema: %w", err)
	}

	if err := backend.prepareStatements(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare audit database statements: %w", err)
	}

	return backend, nil
}

// openSQLiteDatabase opens the database in WAL mode with a busy timeout so
// several processes can share one audit file.
func openSQLiteDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database (close error: %v): %w", closeErr, err)
		}
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	return db, nil
}

func (s *sqliteAuditBackend) initializeSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS schema_info (
			version INTEGER PRIMARY KEY,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS flag_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			level TEXT NOT NULL,
			event TEXT NOT NULL,
			component TEXT NOT NULL,
			flag TEXT NOT NULL,
			type TEXT NOT NULL,
			outcome TEXT,
			description TEXT,
			process_id INTEGER NOT NULL,
			process_name TEXT NOT NULL,
			checksum TEXT
		)`,
		"CREATE INDEX IF NOT EXISTS idx_flag_events_flag ON flag_events(flag, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_flag_events_event ON flag_events(event, outcome)",
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	_, err := s.db.Exec("INSERT OR REPLACE INTO schema_info (version) VALUES (?)", sqliteSchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

func (s *sqliteAuditBackend) prepareStatements() error {
	stmt, err := s.db.Prepare(`
	INSERT INTO flag_events (
		timestamp, level, event, component, flag, type,
		outcome, description, process_id, process_name, checksum
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	s.insertStmt = stmt
	return nil
}

// Write inserts a batch inside one transaction.
func (s *sqliteAuditBackend) Write(events []AuditEvent) (err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("cannot write to closed SQLite audit backend")
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txStmt := tx.Stmt(s.insertStmt)
	defer txStmt.Close()

	for _, event := range events {
		_, err = txStmt.Exec(
			formatStoredTime(event.Timestamp),
			event.Level.String(),
			event.Event,
			event.Component,
			event.Flag,
			event.Type,
			event.Outcome,
			event.Description,
			event.ProcessID,
			event.ProcessName,
			event.Checksum,
		)
		if err != nil {
			return fmt.Errorf("failed to insert audit event: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit transaction: %w", err)
	}
	return nil
}

// Flush forces a WAL checkpoint.
func (s *sqliteAuditBackend) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to flush SQLite audit backend: %w", err)
	}
	return nil
}

func (s *sqliteAuditBackend) GetStats() (*AuditStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("cannot read stats from closed SQLite audit backend")
	}

	stats := newAuditStats()
	if err := s.db.QueryRow("SELECT COUNT(*) FROM flag_events").Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("failed to get total events count: %w", err)
	}

	groups := []struct {
		column string
		into   map[string]int64
	}{
		{"event", stats.EventsByName},
		{"outcome", stats.EventsByOutcome},
		{"flag", stats.EventsByFlag},
	}
	for _, g := range groups {
		if err := s.countBy(g.column, g.into); err != nil {
			return nil, err
		}
	}

	var oldest, newest sql.NullString
	err := s.db.QueryRow("SELECT MIN(timestamp), MAX(timestamp) FROM flag_events").Scan(&oldest, &newest)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get event time range: %w", err)
	}
	stats.OldestEvent = parseStoredTime(oldest)
	stats.NewestEvent = parseStoredTime(newest)

	err = s.db.QueryRow("SELECT version FROM schema_info ORDER BY version DESC LIMIT 1").Scan(&stats.SchemaVersion)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		stats.StorageSize = info.Size()
	}

	return stats, nil
}

// countBy fills into with row counts grouped by a fixed column name.
func (s *sqliteAuditBackend) countBy(column string, into map[string]int64) error {
	// #nosec G201 -- column comes from a fixed list in GetStats
	rows, err := s.db.Query(fmt.Sprintf(
		"SELECT COALESCE(%s, ''), COUNT(*) FROM flag_events GROUP BY %s", column, column))
	if err != nil {
		return fmt.Errorf("failed to group events by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s stats: %w", column, err)
		}
		if key == "" {
			continue
		}
		into[key] = count
	}
	return rows.Err()
}

// storedTimeLayout keeps every fraction digit so stored timestamps sort
// lexically in time order. Values are always written in UTC.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatStoredTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseStoredTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := time.Parse(storedTimeLayout, value.String)
	if err != nil {
		return nil
	}
	return &t
}

// Close checkpoints the WAL and closes the database. Safe to call twice.
func (s *sqliteAuditBackend) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.insertStmt != nil {
		if err := s.insertStmt.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close insert statement: %w", err))
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing SQLite audit backend: %v", errs)
	}
	return nil
}

// jsonlAuditBackend appends one JSON object per line.
type jsonlAuditBackend struct {
	file       *os.File
	sourceFile string
	mu         sync.Mutex
	closed     bool
}

func newJSONLBackend(config AuditConfig) (*jsonlAuditBackend, error) {
	if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0750); err != nil {
		return nil, fmt.Errorf("failed to create JSONL audit log directory: %w", err)
	}

	// owner read/write only
	file, err := os.OpenFile(config.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL audit log file: %w", err)
	}

	return &jsonlAuditBackend{
		file:       file,
		sourceFile: config.OutputFile,
	}, nil
}

func (j *jsonlAuditBackend) Write(events []AuditEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return fmt.Errorf("cannot write to closed JSONL audit backend")
	}

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to serialize audit event: %w", err)
		}
		data = append(data, '\n')
		if _, err := j.file.Write(data); err != nil {
			return fmt.Errorf("failed to write audit event to JSONL: %w", err)
		}
	}
	return nil
}

func (j *jsonlAuditBackend) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync JSONL audit file: %w", err)
	}
	return nil
}

// GetStats rereads the whole file. Audit files for a single process stay
// small, so there is no cached count.
func (j *jsonlAuditBackend) GetStats() (*AuditStats, error) {
	events, err := ReadAuditJSONL(j.sourceFile)
	if err != nil {
		return nil, err
	}

	stats := newAuditStats()
	stats.SchemaVersion = 1
	for i := range events {
		event := events[i]
		stats.TotalEvents++
		stats.EventsByName[event.Event]++
		stats.EventsByFlag[event.Flag]++
		if event.Outcome != "" {
			stats.EventsByOutcome[event.Outcome]++
		}
		if stats.OldestEvent == nil || event.Timestamp.Before(*stats.OldestEvent) {
			stats.OldestEvent = &event.Timestamp
		}
		if stats.NewestEvent == nil || event.Timestamp.After(*stats.NewestEvent) {
			stats.NewestEvent = &event.Timestamp
		}
	}

	if info, err := os.Stat(j.sourceFile); err == nil {
		stats.StorageSize = info.Size()
	}
	return stats, nil
}

func (j *jsonlAuditBackend) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}

// ReadAuditJSONL loads every event from a JSONL audit file.
func ReadAuditJSONL(path string) ([]AuditEvent, error) {
	file, err := os.Open(path) // #nosec G304 -- path is the configured audit file
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL audit file: %w", err)
	}
	defer file.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event AuditEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("failed to decode audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read JSONL audit file: %w", err)
	}
	return events, nil
}
