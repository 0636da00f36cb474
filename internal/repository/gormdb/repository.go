// Package gormdb stores entries and summaries in MySQL or PostgreSQL through gorm.
package gormdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
	"github.com/mamadbah2/prodtracker/internal/repository"
)

// Supported driver names.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Repository implements repository.Repository on a relational database.
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ repository.Repository = (*Repository)(nil)

// Open connects with the named driver, tunes the pool and migrates the schema.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access %s pool: %w", driver, err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&models.Entry{}, &models.Summary{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logger.Info("relational store ready", zap.String("driver", driver))
	return &Repository{db: db, logger: logger.Named("gormdb")}, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	if dsn == "" {
		return nil, errors.New("database dsn must not be empty")
	}
	switch driver {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
}

func (r *Repository) CreateEntry(ctx context.Context, entry *models.Entry) error {
	entry.ID = 0
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (r *Repository) GetEntry(ctx context.Context, id int64) (*models.Entry, error) {
	var entry models.Entry
	err := r.db.WithContext(ctx).First(&entry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("entry %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load entry %d: %w", id, err)
	}
	return &entry, nil
}

// UpdateEntry writes every column, including zero values and cleared optional fields.
func (r *Repository) UpdateEntry(ctx context.Context, entry *models.Entry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Entry
		err := tx.Select("id").First(&existing, entry.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("entry %d: %w", entry.ID, repository.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("load entry %d: %w", entry.ID, err)
		}

		if err := tx.Model(entry).Select("*").Updates(entry).Error; err != nil {
			return fmt.Errorf("update entry %d: %w", entry.ID, err)
		}
		return nil
	})
}

func (r *Repository) DeleteEntry(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Entry{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete entry %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("entry %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func (r *Repository) ListEntries(ctx context.Context) ([]models.Entry, error) {
	var entries []models.Entry
	if err := r.db.WithContext(ctx).Order("id asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func (r *Repository) AppendSummary(ctx context.Context, summary *models.Summary) error {
	summary.ID = 0
	if err := r.db.WithContext(ctx).Create(summary).Error; err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

func (r *Repository) LatestSummary(ctx context.Context) (*models.Summary, error) {
	var summary models.Summary
	err := r.db.WithContext(ctx).Order("calculated_at desc").Order("id desc").First(&summary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("summary: %w", repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load latest summary: %w", err)
	}
	return &summary, nil
}

func (r *Repository) Close(context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
