// Package store persists clinic records as one JSON document per key.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/medic-pro/internal/clinic"
)

// AppKey is the single-tenant record key used by the browser application.
const AppKey = "medic_pro_db_v1"

const (
	ScopeApp  = "app"
	ScopeUser = "user"
)

// ErrCorruptRecord indicates a stored document that is not a valid record.
var ErrCorruptRecord = errors.New("store: corrupt record")

// Adapter is the record persistence contract. Every write replaces the whole
// document; there is no merging or versioning.
type Adapter interface {
	// Load returns (nil, nil) when nothing is stored under key.
	Load(ctx context.Context, key string) (*clinic.Record, error)
	Save(ctx context.Context, key string, rec *clinic.Record) error
	Clear(ctx context.Context, key string) error
}

// RecordKey returns the key for an account. In the app scope every account
// shares AppKey.
func RecordKey(scope, email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if scope == ScopeApp || email == "" {
		return AppKey
	}
	return AppKey + ":" + email
}

// Encode serializes rec the same way for every backend so that saving a
// freshly loaded record leaves the stored bytes unchanged.
func Encode(rec *clinic.Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("store: record cannot be nil")
	}
	normalized := rec.Clone()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, fmt.Errorf("store: encode record: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a stored document. Malformed input, including a document
// whose isSetup flag is not true, wraps ErrCorruptRecord: only setup writes
// a record.
func Decode(data []byte) (*clinic.Record, error) {
	var rec clinic.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if !rec.IsSetup {
		return nil, fmt.Errorf("%w: record is not set up", ErrCorruptRecord)
	}
	rec.Normalize()
	return &rec, nil
}
