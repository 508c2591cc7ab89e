// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

package logger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure-Go SQLite3 driver
)

// SQLiteBackend stores log entries in a SQLite database so operators can
// query feedback activity after the fact without journald access.
type SQLiteBackend struct {
	db *sql.DB
	mu sync.Mutex
}

const logsSchema = `
	CREATE TABLE IF NOT EXISTS logs (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp  TEXT NOT NULL,
		level      TEXT NOT NULL,
		component  TEXT NOT NULL,
		message    TEXT NOT NULL,
		fields     TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_logs_component ON logs(component);
`

// NewSQLiteBackend opens (creating if needed) the log database at path
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping log database: %w", err)
	}

	if _, err := db.Exec(logsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create logs table: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Write inserts a log entry into the logs table
func (b *SQLiteBackend) Write(entry *Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	fields := ""
	if len(entry.Fields) > 0 {
		data, err := json.Marshal(entry.Fields)
		if err != nil {
			return err
		}
		fields = string(data)
	}

	_, err := b.db.Exec(
		`INSERT INTO logs (timestamp, level, component, message, fields) VALUES (?, ?, ?, ?, ?)`,
		entry.Timestamp, entry.Level, entry.Component, entry.Message, fields)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}
	return nil
}

// Close closes the database
func (b *SQLiteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		return err
	}
	return nil
}
