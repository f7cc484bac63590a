package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/oas-auditor/internal/address"
	"github.com/garyjia/oas-auditor/internal/audit"
	"github.com/garyjia/oas-auditor/internal/config"
	"github.com/garyjia/oas-auditor/internal/reference"
	"github.com/garyjia/oas-auditor/internal/report"
	"github.com/garyjia/oas-auditor/internal/repository"
	"github.com/garyjia/oas-auditor/internal/rules"
	"github.com/garyjia/oas-auditor/internal/storage"
	"github.com/garyjia/oas-auditor/pkg/database"
	"github.com/garyjia/oas-auditor/pkg/utils"
)

// defaultConfigPath is read when --config is not given and the file exists
const defaultConfigPath = "configs/config.yaml"

// app holds the wired components shared by the subcommands
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *database.DB
	history *repository.AuditRepository
	service *audit.Service
}

func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(resolveConfigPath(configPath))
	if err != nil {
		return nil, err
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Version:    version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}

	if cfg.Database.Enabled {
		db, err := database.Open(ctx, database.Config{
			Path:            cfg.Database.Path,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.NewMigrator(db, logger).RunMigrations(ctx, database.Migrations()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		a.db = db
		a.history = repository.NewAuditRepository(db, logger)
	}

	auditor := audit.NewAuditor(cfg.AuditOptions(), audit.Dependencies{
		CPT:       rules.NewCPTRules(reference.LoadCPTConfig(cfg.Resources.CPTConfigPath, logger)),
		Registry:  reference.LoadSIDRegistry(cfg.Resources.SIDRegistryPath, logger),
		Phones:    rules.NewPhoneValidator(),
		Addresses: address.NewNormalizer(address.DefaultCountry),
		Logger:    logger,
	})

	renderer, err := report.NewRenderer(version)
	if err != nil {
		a.close()
		return nil, err
	}

	// a nil *AuditRepository must not reach the service as a non-nil interface
	var history audit.HistoryStore
	if a.history != nil {
		history = a.history
	}
	a.service = audit.NewService(auditor, renderer, storage.NewReportStore(cfg.Report.OutputDir, logger), history, logger).
		WithUploadDir(cfg.Report.UploadDir)

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}
