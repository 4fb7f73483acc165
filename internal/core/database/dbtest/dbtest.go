// Package dbtest opens throwaway SQLite databases with the service schema
// for repository and integration tests.
package dbtest

import (
	auditDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/audit"
	identityDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/identity"
	ownershipDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/ownership"
	roleDatamodel "github.com/frahmantamala/workforce-authz/internal/core/datamodel/role"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models is every table the service owns, in dependency order.
var Models = []interface{}{
	&identityDatamodel.UserProfile{},
	&roleDatamodel.Role{},
	&roleDatamodel.Permission{},
	&roleDatamodel.RolePermission{},
	&roleDatamodel.RoleAssignment{},
	&ownershipDatamodel.ObjectOwnership{},
	&auditDatamodel.AuditLog{},
}

// Open returns an in-memory database with all tables migrated. A single
// connection is used so that every session sees the same memory database
// and transactions serialize.
func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(Models...); err != nil {
		return nil, err
	}
	return db, nil
}

func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
