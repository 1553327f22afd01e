package database

import (
	"fmt"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zainab674/project-plus-sub002/pkg/config"
)

// MigrationsDir holds the sql-migrate files
const MigrationsDir = "migrations"

// NewPostgresDB creates a new PostgreSQL database connection using GORM
func NewPostgresDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.GetDatabaseDSN()

	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Warn)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Connection pool settings
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MinConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name))

	return db, nil
}

// Migrate applies pending migrations from MigrationsDir
func Migrate(db *gorm.DB, log *zap.Logger) error {
	migrations := &migrate.FileMigrationSource{
		Dir: MigrationsDir,
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get db connection during migrate up: %w", err)
	}

	n, err := migrate.Exec(sqlDB, "postgres", migrations, migrate.Up)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Migrations applied", zap.Int("count", n))
	return nil
}

// Rollback reverts up to steps applied migrations
func Rollback(db *gorm.DB, steps int, log *zap.Logger) (int, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get db connection during migrate down: %w", err)
	}

	n, err := migrate.ExecMax(sqlDB, "postgres", &migrate.FileMigrationSource{Dir: MigrationsDir}, migrate.Down, steps)
	if err != nil {
		return n, fmt.Errorf("failed to revert migrations: %w", err)
	}

	log.Info("Migrations reverted", zap.Int("count", n))
	return n, nil
}

// MigrationState reports whether a migration file has been applied
type MigrationState struct {
	ID        string
	AppliedAt *time.Time
}

// MigrationStatus lists every migration file with its applied time
func MigrationStatus(db *gorm.DB) ([]MigrationState, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get db connection: %w", err)
	}

	files, err := (&migrate.FileMigrationSource{Dir: MigrationsDir}).FindMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	records, err := migrate.GetMigrationRecords(sqlDB, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration records: %w", err)
	}

	applied := make(map[string]time.Time, len(records))
	for _, r := range records {
		applied[r.Id] = r.AppliedAt
	}

	states := make([]MigrationState, 0, len(files))
	for _, f := range files {
		state := MigrationState{ID: f.Id}
		if at, ok := applied[f.Id]; ok {
			state.AppliedAt = &at
		}
		states = append(states, state)
	}
	return states, nil
}

// CloseDB closes the database connection
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database object: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
