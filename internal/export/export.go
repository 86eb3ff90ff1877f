// Package export writes point-in-time snapshots of clinic records to S3.
package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/wolfman30/medic-pro/internal/audit"
	"github.com/wolfman30/medic-pro/internal/clinic"
	"github.com/wolfman30/medic-pro/internal/store"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

var ErrDisabled = errors.New("export: no bucket configured")

// S3API is the subset of the S3 client used by Exporter.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Snapshot describes one exported object.
type Snapshot struct {
	Bucket     string    `json:"bucket"`
	Key        string    `json:"key"`
	Size       int       `json:"size"`
	ExportedAt time.Time `json:"exportedAt"`
}

type Exporter struct {
	client S3API
	bucket string
	audit  audit.Recorder
	logger *logging.Logger
	now    func() time.Time
}

// NewExporter returns an exporter. With an empty bucket every Export fails
// with ErrDisabled.
func NewExporter(client S3API, bucket string, recorder audit.Recorder, logger *logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Exporter{client: client, bucket: bucket, audit: recorder, logger: logger, now: time.Now}
}

func (e *Exporter) Enabled() bool {
	return e != nil && e.bucket != "" && e.client != nil
}

// Export uploads rec as JSON. The object path is derived from a hash of
// recordKey so account emails never appear in bucket listings.
func (e *Exporter) Export(ctx context.Context, recordKey, actor string, rec *clinic.Record) (Snapshot, error) {
	if !e.Enabled() {
		return Snapshot{}, ErrDisabled
	}
	if rec == nil {
		return Snapshot{}, fmt.Errorf("export: nil record")
	}

	data, err := store.Encode(rec)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export: encode: %w", err)
	}

	now := e.now().UTC()
	key := ObjectKey(recordKey, now, uuid.NewString())
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(e.bucket),
		Key:                  aws.String(key),
		Body:                 bytes.NewReader(data),
		ContentType:          aws.String("application/json"),
		ServerSideEncryption: s3types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("export: s3 put %s: %w", key, err)
	}

	snap := Snapshot{Bucket: e.bucket, Key: key, Size: len(data), ExportedAt: now}
	e.logger.Info("exported clinic record", "s3_key", key, "bytes", len(data))

	if e.audit != nil {
		event := audit.Event{
			Action:    audit.ActionExport,
			RecordKey: recordKey,
			Actor:     actor,
			Details:   audit.Details(map[string]string{"bucket": e.bucket, "key": key}),
			CreatedAt: now,
		}
		if err := e.audit.Record(ctx, event); err != nil {
			e.logger.Error("audit write failed", "action", string(event.Action), "error", err.Error())
		}
	}
	return snap, nil
}

// ObjectKey lays snapshots out by owner hash and date.
func ObjectKey(recordKey string, at time.Time, id string) string {
	sum := sha256.Sum256([]byte(recordKey))
	owner := hex.EncodeToString(sum[:8])
	return fmt.Sprintf("exports/v1/%s/%d/%02d/%02d/%s.json", owner, at.Year(), at.Month(), at.Day(), id)
}
