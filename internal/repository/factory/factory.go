// Package factory opens the repository backend selected in configuration.
package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/prodtracker/internal/config"
	"github.com/mamadbah2/prodtracker/internal/repository"
	"github.com/mamadbah2/prodtracker/internal/repository/excel"
	"github.com/mamadbah2/prodtracker/internal/repository/gormdb"
	"github.com/mamadbah2/prodtracker/internal/repository/memory"
	"github.com/mamadbah2/prodtracker/internal/repository/mongodb"
	"github.com/mamadbah2/prodtracker/internal/repository/sheets"
)

// Open connects to the configured backend.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory storage, entries are lost on restart")
		return memory.NewRepository(), nil
	case config.BackendMongoDB:
		return mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, logger)
	case config.BackendSheets:
		client, err := sheets.NewGoogleSheetClient(ctx, cfg.Sheets, logger.Named("sheets"))
		if err != nil {
			return nil, err
		}
		return sheets.NewStore(ctx, client, logger)
	case config.BackendExcel:
		return excel.Open(cfg.Storage.ExcelFilePath, logger)
	case config.BackendMySQL:
		return gormdb.Open(ctx, gormdb.DriverMySQL, cfg.Storage.DatabaseDSN, logger)
	case config.BackendPostgres:
		return gormdb.Open(ctx, gormdb.DriverPostgres, cfg.Storage.DatabaseDSN, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
