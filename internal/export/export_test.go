package export

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/medic-pro/internal/audit"
	"github.com/wolfman30/medic-pro/internal/clinic"
)

type mockS3Client struct {
	bucket string
	key    string
	body   []byte
	err    error
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.bucket = *input.Bucket
	m.key = *input.Key
	m.body, _ = io.ReadAll(input.Body)
	return &s3.PutObjectOutput{}, nil
}

type memoryAudit struct{ events []audit.Event }

func (m *memoryAudit) Record(_ context.Context, e audit.Event) error {
	m.events = append(m.events, e)
	return nil
}

func testRecord() *clinic.Record {
	return &clinic.Record{
		IsSetup:  true,
		Branding: clinic.Branding{ClinicName: "Cabinet Export", Specialty: "Cardiologie"},
		Payments: []clinic.Payment{{ID: "1", Amount: 1000, Date: "2025-01-02", PatientName: "Ali", Method: clinic.MethodCash}},
	}
}

func TestExporter_Export(t *testing.T) {
	mock := &mockS3Client{}
	rec := &memoryAudit{}
	exp := NewExporter(mock, "exports-bucket", rec, nil)
	exp.now = func() time.Time { return time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) }

	snap, err := exp.Export(context.Background(), "medic_pro_db_v1:dr@example.com", "dr@example.com", testRecord())
	require.NoError(t, err)

	assert.Equal(t, "exports-bucket", mock.bucket)
	assert.Equal(t, mock.key, snap.Key)
	assert.True(t, strings.HasPrefix(snap.Key, "exports/v1/"))
	assert.Contains(t, snap.Key, "/2026/03/09/")
	assert.NotContains(t, snap.Key, "example.com")
	assert.Equal(t, len(mock.body), snap.Size)
	assert.Contains(t, string(mock.body), `"clinicName":"Cabinet Export"`)

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionExport, rec.events[0].Action)
	assert.Equal(t, "dr@example.com", rec.events[0].Actor)
	assert.Contains(t, string(rec.events[0].Details), snap.Key)
}

func TestExporter_Disabled(t *testing.T) {
	_, err := NewExporter(&mockS3Client{}, "", nil, nil).Export(context.Background(), "k", "", testRecord())
	assert.ErrorIs(t, err, ErrDisabled)

	var nilExporter *Exporter
	assert.False(t, nilExporter.Enabled())
}

func TestExporter_PutFailure(t *testing.T) {
	rec := &memoryAudit{}
	exp := NewExporter(&mockS3Client{err: errors.New("access denied")}, "b", rec, nil)

	_, err := exp.Export(context.Background(), "k", "", testRecord())
	assert.Error(t, err)
	assert.Empty(t, rec.events)
}

func TestObjectKey_StablePerOwner(t *testing.T) {
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	a := ObjectKey("medic_pro_db_v1:a@b.co", at, "x")
	b := ObjectKey("medic_pro_db_v1:a@b.co", at, "y")
	c := ObjectKey("medic_pro_db_v1:c@d.co", at, "x")
	assert.Equal(t, a[:strings.LastIndex(a, "/")], b[:strings.LastIndex(b, "/")])
	assert.NotEqual(t, a, c)
}
