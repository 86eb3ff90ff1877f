// Package audit keeps an append-only trail of destructive and account-level
// operations on clinic records.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

// Action names an audited operation.
type Action string

const (
	ActionSetup  Action = "record.setup"
	ActionReset  Action = "record.reset"
	ActionExport Action = "record.export"
)

// Event is an immutable audit record.
type Event struct {
	ID        string          `json:"id"`
	Action    Action          `json:"action"`
	RecordKey string          `json:"record_key"`
	Actor     string          `json:"actor,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// Querier reads events back.
type Querier interface {
	Query(ctx context.Context, filter Filter) ([]Event, error)
}

// Filter specifies criteria for querying events.
type Filter struct {
	RecordKey string
	Action    Action
	Limit     int
}

// SQLRecorder writes events to the record_audit_events table.
type SQLRecorder struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to Postgres through lib/pq.
func Open(databaseURL string) (*SQLRecorder, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}
	return NewSQLRecorder(db), nil
}

func NewSQLRecorder(db *sql.DB) *SQLRecorder {
	return &SQLRecorder{db: db, now: time.Now}
}

// Record stores event, filling in its id and timestamp when missing.
func (s *SQLRecorder) Record(ctx context.Context, event Event) error {
	event = prepare(event, s.now)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO record_audit_events (id, action, record_key, actor, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		event.ID,
		event.Action,
		event.RecordKey,
		nullString(event.Actor),
		nullDetails(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: failed to record event: %w", err)
	}
	return nil
}

// Query returns the most recent events for a record key.
func (s *SQLRecorder) Query(ctx context.Context, filter Filter) ([]Event, error) {
	query := `
		SELECT id, action, record_key, actor, details, created_at
		FROM record_audit_events
		WHERE record_key = $1
	`
	args := []interface{}{filter.RecordKey}
	if filter.Action != "" {
		query += " AND action = $2"
		args = append(args, filter.Action)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: failed to query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var actor sql.NullString
		var details []byte
		if err := rows.Scan(&e.ID, &e.Action, &e.RecordKey, &actor, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: failed to scan event: %w", err)
		}
		e.Actor = actor.String
		if len(details) > 0 {
			e.Details = json.RawMessage(details)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: failed to read events: %w", err)
	}
	return events, nil
}

var (
	_ Recorder = (*SQLRecorder)(nil)
	_ Querier  = (*SQLRecorder)(nil)
	_ Recorder = (*LogRecorder)(nil)
)

func (s *SQLRecorder) Close() error {
	return s.db.Close()
}

// LogRecorder writes events to the structured log. It is used when no audit
// database is configured.
type LogRecorder struct {
	logger *logging.Logger
	now    func() time.Time
}

func NewLogRecorder(logger *logging.Logger) *LogRecorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogRecorder{logger: logger, now: time.Now}
}

func (r *LogRecorder) Record(_ context.Context, event Event) error {
	event = prepare(event, r.now)
	r.logger.Info("audit event",
		"audit_id", event.ID,
		"action", string(event.Action),
		"record_key", event.RecordKey,
		"actor", event.Actor,
		"details", string(event.Details),
	)
	return nil
}

// Details marshals v for Event.Details, dropping values that cannot be encoded.
func Details(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func prepare(event Event, now func() time.Time) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now().UTC()
	}
	return event
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDetails(d json.RawMessage) interface{} {
	if len(d) == 0 {
		return nil
	}
	return []byte(d)
}
