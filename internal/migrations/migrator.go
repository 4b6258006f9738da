package migrations

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Migration represents a database migration
type Migration struct {
	ID   string // Unique identifier (e.g., "001_messaging_indexes")
	Name string // Human-readable name
	Up   func(db *gorm.DB) error
}

// MigrationRecord tracks which migrations have been applied
type MigrationRecord struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Name      string    `gorm:"type:text"`
	AppliedAt time.Time `gorm:"autoUpdateTime:nano"`
}

// TableName overrides the table name
func (MigrationRecord) TableName() string {
	return "schema_migrations"
}

// Migrator handles database migrations
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// NewMigrator creates a new migrator
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{
		db:         db,
		migrations: GetMigrations(),
	}
}

// Run executes all pending migrations in order
func (m *Migrator) Run() error {
	if err := m.db.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []MigrationRecord
	if err := m.db.Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to fetch applied migrations: %w", err)
	}

	appliedMap := make(map[string]bool, len(applied))
	for _, r := range applied {
		appliedMap[r.ID] = true
	}

	for _, mig := range m.migrations {
		if appliedMap[mig.ID] {
			continue
		}

		log.Info().Str("migration", mig.ID).Msg("Applying migration")
		if err := mig.Up(m.db); err != nil {
			return fmt.Errorf("migration %s failed: %w", mig.ID, err)
		}

		record := MigrationRecord{ID: mig.ID, Name: mig.Name, AppliedAt: time.Now()}
		if err := m.db.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", mig.ID, err)
		}
	}

	return nil
}
