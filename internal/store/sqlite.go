package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/medic-pro/internal/clinic"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// StoredRecord is the gorm model for a persisted document.
type StoredRecord struct {
	RecordKey string `gorm:"primaryKey;column:record_key"`
	Document  string `gorm:"column:document;not null"`
	UpdatedAt time.Time
}

func (StoredRecord) TableName() string { return "clinic_records" }

// SQLStore keeps records in a local database through gorm. It is used with
// sqlite, the closest match to browser local storage.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database file at path and migrates it.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	return NewSQLStore(db)
}

func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("store: gorm db cannot be nil")
	}
	if err := db.AutoMigrate(&StoredRecord{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Load(ctx context.Context, key string) (*clinic.Record, error) {
	var row StoredRecord
	err := s.db.WithContext(ctx).Where("record_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: sql load: %w", err)
	}
	return Decode([]byte(row.Document))
}

func (s *SQLStore) Save(ctx context.Context, key string, rec *clinic.Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	row := StoredRecord{RecordKey: key, Document: string(data), UpdatedAt: time.Now().UTC()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("store: sql save: %w", err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("record_key = ?", key).Delete(&StoredRecord{}).Error; err != nil {
		return fmt.Errorf("store: sql clear: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
