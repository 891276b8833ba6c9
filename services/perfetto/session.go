// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package perfetto

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/MotionLens/pkg/logging"
)

// Sentinel errors for the perfetto session.
var (
	// ErrSessionClosed indicates the session was already closed.
	ErrSessionClosed = errors.New("session closed")

	// ErrNoTraceLoaded indicates Query was called before LoadTrace.
	ErrNoTraceLoaded = errors.New("no trace loaded")

	// ErrTraceAlreadyLoaded indicates LoadTrace was called twice.
	// Sessions hold exactly one trace; open a new session per file.
	ErrTraceAlreadyLoaded = errors.New("trace already loaded")
)

// tableSchema creates the trace-processor table surface.
const tableSchema = `
CREATE TABLE args (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    arg_set_id  INTEGER NOT NULL,
    flat_key    TEXT NOT NULL,
    key         TEXT NOT NULL,
    int_value   INTEGER,
    string_value TEXT,
    real_value  REAL,
    value_type  TEXT NOT NULL
);
CREATE INDEX args_arg_set_id ON args(arg_set_id);

CREATE TABLE android_windowmanager (
    id         INTEGER PRIMARY KEY,
    ts         INTEGER NOT NULL,
    arg_set_id INTEGER NOT NULL
);

CREATE TABLE window_manager_shell_transitions (
    id            INTEGER PRIMARY KEY,
    ts            INTEGER,
    transition_id INTEGER NOT NULL,
    arg_set_id    INTEGER NOT NULL
);

CREATE TABLE window_manager_shell_transition_handlers (
    handler_id   INTEGER NOT NULL,
    handler_name TEXT NOT NULL
);
`

// Canonical queries used by the state and transition parsers. The
// column names are part of the contract with the builders; they match
// the Perfetto android.winscope stdlib module.
const (
	// WindowManagerQuery returns every args row of every windowmanager
	// entry, ordered by entry then by insertion order.
	WindowManagerQuery = `
SELECT wm.id AS entry_id, wm.ts AS ts,
       a.flat_key, a.key, a.int_value, a.string_value, a.real_value, a.value_type
FROM android_windowmanager wm
JOIN args a ON a.arg_set_id = wm.arg_set_id
ORDER BY wm.id, a.id`

	// ShellTransitionsQuery returns every args row of every shell
	// transition entry, keyed by transition_entry_id for grouping.
	ShellTransitionsQuery = `
SELECT st.id AS transition_entry_id, st.ts AS ts,
       a.flat_key, a.key, a.int_value, a.string_value, a.real_value, a.value_type
FROM window_manager_shell_transitions st
JOIN args a ON a.arg_set_id = st.arg_set_id
ORDER BY st.id, a.id`

	// TransitionHandlersQuery returns the handler id/name registry.
	TransitionHandlersQuery = `
SELECT handler_id, handler_name
FROM window_manager_shell_transition_handlers
ORDER BY handler_id`
)

// Session is a query engine instance loaded with one decoded trace.
//
// See the package documentation for lifecycle and thread-safety notes.
type Session struct {
	db     *sql.DB
	logger *logging.Logger
	tracer trace.Tracer
	loaded bool
	closed bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger used by the session.
func WithLogger(logger *logging.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession opens an empty in-memory session.
func NewSession(opts ...SessionOption) (*Session, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	// A :memory: database exists per connection; keep exactly one.
	db.SetMaxOpenConns(1)

	s := &Session{
		db:     db,
		tracer: otel.Tracer("motionlens/perfetto"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Default()
	}

	if _, err := db.Exec(tableSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session tables: %w", err)
	}
	return s, nil
}

// LoadTrace decodes raw Perfetto trace bytes into the session tables.
//
// The input is immutable byte data; the session never mutates rows
// after load. Wire-level corruption is a hard error; unknown packet
// payloads and unknown proto fields are skipped silently.
func (s *Session) LoadTrace(ctx context.Context, data []byte) error {
	if s.closed {
		return ErrSessionClosed
	}
	if s.loaded {
		return ErrTraceAlreadyLoaded
	}

	ctx, span := s.tracer.Start(ctx, "perfetto.LoadTrace",
		trace.WithAttributes(attribute.Int("trace.bytes", len(data))))
	defer span.End()

	packets, err := decodeTrace(data)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}
	defer tx.Rollback()

	insertArg, err := tx.PrepareContext(ctx, `
INSERT INTO args (arg_set_id, flat_key, key, int_value, string_value, real_value, value_type)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare args insert: %w", err)
	}
	defer insertArg.Close()

	var (
		argSetID     int64
		wmEntries    int64
		transitions  int64
		handlerCount int64
	)

	for _, p := range packets {
		switch {
		case p.windowManager != nil:
			argSetID++
			if err := insertArgRows(ctx, insertArg, argSetID, p.windowManager); err != nil {
				return err
			}
			ts := p.timestamp
			if ts == 0 {
				ts = findIntArg(p.windowManager, "elapsed_realtime_nanos")
			}
			wmEntries++
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO android_windowmanager (id, ts, arg_set_id) VALUES (?, ?, ?)`,
				wmEntries, ts, argSetID); err != nil {
				return fmt.Errorf("insert windowmanager entry: %w", err)
			}

		case p.shellTransition != nil:
			argSetID++
			if err := insertArgRows(ctx, insertArg, argSetID, p.shellTransition); err != nil {
				return err
			}
			transitions++
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO window_manager_shell_transitions (id, ts, transition_id, arg_set_id) VALUES (?, ?, ?, ?)`,
				transitions, p.timestamp, findIntArg(p.shellTransition, "id"), argSetID); err != nil {
				return fmt.Errorf("insert shell transition entry: %w", err)
			}

		case p.handlerMappings != nil:
			for _, m := range p.handlerMappings {
				handlerCount++
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO window_manager_shell_transition_handlers (handler_id, handler_name) VALUES (?, ?)`,
					m.id, m.name); err != nil {
					return fmt.Errorf("insert transition handler: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit load transaction: %w", err)
	}

	s.loaded = true
	s.logger.Debug("trace loaded",
		"wm_entries", wmEntries,
		"transitions", transitions,
		"handlers", handlerCount,
		"arg_sets", argSetID,
	)
	span.SetAttributes(
		attribute.Int64("trace.wm_entries", wmEntries),
		attribute.Int64("trace.transitions", transitions),
	)
	return nil
}

// Query runs a SQL query against the loaded trace and returns fully
// materialized rows. Column values are typed by SQLite storage class;
// args-table values additionally carry their value_type column.
func (s *Session) Query(ctx context.Context, query string) ([]Row, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if !s.loaded {
		return nil, ErrNoTraceLoaded
	}

	ctx, span := s.tracer.Start(ctx, "perfetto.Query")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = driverValue(raw[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	span.SetAttributes(attribute.Int("query.rows", len(out)))
	return out, nil
}

// Close releases the session database.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// insertArgRows writes the flattened rows of one arg set.
func insertArgRows(ctx context.Context, stmt *sql.Stmt, argSetID int64, rows []argRow) error {
	for _, r := range rows {
		var (
			intVal  any
			strVal  any
			realVal any
		)
		switch r.value.Type {
		case TypeInt, TypeUint, TypeBool:
			intVal = r.value.Int
		case TypeString:
			strVal = r.value.Str
		case TypeReal:
			realVal = r.value.Real
		}
		if _, err := stmt.ExecContext(ctx, argSetID, r.flatKey, r.key, intVal, strVal, realVal, string(r.value.Type)); err != nil {
			return fmt.Errorf("insert arg %q: %w", r.key, err)
		}
	}
	return nil
}

// findIntArg returns the first int value for the given flat key, 0
// when absent.
func findIntArg(rows []argRow, flatKey string) int64 {
	for _, r := range rows {
		if r.flatKey == flatKey {
			return r.value.AsInt()
		}
	}
	return 0
}

// driverValue converts a database/sql scan result to a typed Value.
//
// SQLite only reports storage classes, so bool args come back as int
// here; the args value_type column is authoritative for arg typing and
// the builders re-type values through it.
func driverValue(v any) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case int64:
		return IntValue(t)
	case float64:
		return RealValue(t)
	case string:
		return StringValue(t)
	case []byte:
		return StringValue(string(t))
	case bool:
		return BoolValue(t)
	default:
		return StringValue(fmt.Sprint(t))
	}
}
