package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/babbageLabs/insta-lite/internal/middleware"

	"gorm.io/gorm"
)

// migrationLockKey serializes concurrent `up` runs (API and worker booting
// together) on Postgres.
const migrationLockKey = 7_331_001

// MigrationLog is one applied migration.
type MigrationLog struct {
	Version int    `gorm:"primaryKey;autoIncrement:false"`
	Name    string `gorm:"size:255;not null"`
	// Checksum is the sha256 of the up script when it was applied. Empty for
	// rows written before checksums were recorded.
	Checksum  string    `gorm:"size:64"`
	AppliedAt time.Time `gorm:"autoCreateTime;index"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

// Checksum fingerprints the up script.
func (m *Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.UpScript))
	return hex.EncodeToString(sum[:])
}

// Migrator applies an ordered migration set and records it in migration_logs.
type Migrator struct {
	db     *gorm.DB
	set    []Migration
	logger *slog.Logger
}

// NewMigrator returns a Migrator for set, which must be ordered by version.
func NewMigrator(db *gorm.DB, set []Migration) *Migrator {
	return &Migrator{db: db, set: set, logger: middleware.Component("migrations")}
}

// Applied lists the log rows by version. A missing log table means none.
func (m *Migrator) Applied(ctx context.Context) ([]MigrationLog, error) {
	return m.applied(m.db.WithContext(ctx))
}

func (m *Migrator) applied(tx *gorm.DB) ([]MigrationLog, error) {
	var rows []MigrationLog
	if err := tx.Order("version ASC").Find(&rows).Error; err != nil {
		if isMissingTableError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read migration log: %w", err)
	}
	return rows, nil
}

// Pending returns the registered migrations not yet applied.
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	return m.pending(applied), nil
}

func (m *Migrator) pending(applied []MigrationLog) []Migration {
	done := make(map[int]bool, len(applied))
	for _, row := range applied {
		done[row.Version] = true
	}
	var out []Migration
	for _, mig := range m.set {
		if !done[mig.Version] {
			out = append(out, mig)
		}
	}
	return out
}

// Up applies every pending migration in one transaction and returns how many
// ran. It refuses to run when the log holds versions this build does not
// know or scripts that changed after being applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	db := m.db.WithContext(ctx)
	if err := db.AutoMigrate(&MigrationLog{}); err != nil {
		return 0, fmt.Errorf("ensure migration log: %w", err)
	}

	ran := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error; err != nil {
				return fmt.Errorf("acquire migration lock: %w", err)
			}
		}
		applied, err := m.applied(tx)
		if err != nil {
			return err
		}
		if err := m.verify(applied); err != nil {
			return err
		}
		for _, mig := range m.pending(applied) {
			m.logger.Info("applying migration", slog.String("migration", mig.String()))
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return fmt.Errorf("apply migration %s: %w", mig.String(), err)
			}
			row := MigrationLog{Version: mig.Version, Name: mig.Name, Checksum: mig.Checksum()}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("record migration %s: %w", mig.String(), err)
			}
			ran++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return ran, nil
}

// Down reverts one applied migration.
func (m *Migrator) Down(ctx context.Context, version int) error {
	var mig *Migration
	for i := range m.set {
		if m.set[i].Version == version {
			mig = &m.set[i]
		}
	}
	if mig == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("version = ?", version).Delete(&MigrationLog{})
		if res.Error != nil {
			return fmt.Errorf("remove migration record %d: %w", version, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("migration %d has not been applied", version)
		}
		m.logger.Info("rolling back migration", slog.String("migration", mig.String()))
		if err := tx.Exec(mig.DownScript).Error; err != nil {
			return fmt.Errorf("rollback migration %s: %w", mig.String(), err)
		}
		return nil
	})
}

// verify rejects logs from a newer build and edited scripts.
func (m *Migrator) verify(applied []MigrationLog) error {
	known := make(map[int]*Migration, len(m.set))
	for i := range m.set {
		known[m.set[i].Version] = &m.set[i]
	}

	var unknown, drifted []string
	for _, row := range applied {
		mig, ok := known[row.Version]
		switch {
		case !ok:
			unknown = append(unknown, fmt.Sprintf("%06d", row.Version))
		case row.Checksum != "" && row.Checksum != mig.Checksum():
			drifted = append(drifted, mig.String())
		}
	}
	var errs []error
	if len(unknown) > 0 {
		sort.Strings(unknown)
		errs = append(errs, fmt.Errorf("migration_logs has versions unknown to this build: %s (roll back with `migrate down` or rebuild the database)",
			strings.Join(unknown, ", ")))
	}
	if len(drifted) > 0 {
		errs = append(errs, fmt.Errorf("applied migrations were edited afterwards: %s", strings.Join(drifted, ", ")))
	}
	return errors.Join(errs...)
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// RunMigrations applies the embedded migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	n, err := NewMigrator(db, migrations).Up(ctx)
	if err != nil {
		return err
	}
	middleware.Component("migrations").Info("sql migrations up to date", slog.Int("applied_now", n))
	return nil
}

// RollbackMigration reverts one embedded migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db, migrations).Down(ctx, version)
}
