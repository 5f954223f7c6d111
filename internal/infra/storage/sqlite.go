package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sol_cycle/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Journal is the append-only swap audit trail backed by SQLite.
// It implements domain.SwapJournal.
type Journal struct {
	db *gorm.DB
}

// NewJournal opens (or creates) the journal database at path
func NewJournal(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal path is empty")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.SwapRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Journal{db: db}, nil
}

// RecordSwap appends one swap outcome
func (j *Journal) RecordSwap(ctx context.Context, rec *domain.SwapRecord) error {
	return j.db.WithContext(ctx).Create(rec).Error
}

// RecentSwaps returns the latest records, newest first
func (j *Journal) RecentSwaps(ctx context.Context, limit int) ([]domain.SwapRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var records []domain.SwapRecord
	err := j.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&records).Error
	return records, err
}

// SwapsByRun returns all records of one run in execution order
func (j *Journal) SwapsByRun(ctx context.Context, runID string) ([]domain.SwapRecord, error) {
	var records []domain.SwapRecord
	err := j.db.WithContext(ctx).Where("run_id = ?", runID).Order("id asc").Find(&records).Error
	return records, err
}

// Close releases the underlying connection
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
