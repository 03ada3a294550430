package db

import "errors"

var (
	ErrMissingConnectionString  = errors.New("db: connection string is empty")
	ErrFailedToParseDBConfig    = errors.New("db: failed to parse database configuration")
	ErrFailedToOpenDBConnection = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed        = errors.New("db: healthcheck failed")
	ErrSetDialect               = errors.New("db migrator: failed to set dialect")
	ErrApplyMigrations          = errors.New("db migrator: failed to apply migrations")
	ErrRollbackMigration        = errors.New("db migrator: failed to roll back migration")
	ErrMigrationStatus          = errors.New("db migrator: failed to read migration status")
)
