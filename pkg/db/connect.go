// Package db contains the persistent store for domains, queued, archived and
// dead-lettered emails.
package db

import (
	"errors"
	"fmt"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DatabaseClient defines methods for fetching or updating models in DB
type DatabaseClient interface {
	UpsertDomain(domain, token string, createdAt int64) error
	InsertDomainIfAbsent(domain, token string, createdAt int64) (bool, error)
	ListDomains() ([]Domain, error)
	DeleteDomain(domain string) (bool, error)
	GetDomainToken(domain string) (string, bool, error)

	InsertQueuedEmail(email *QueuedEmail) error
	ListQueuedEmails() ([]QueuedEmail, error)
	RecordDeliveryFailure(id string, lastError string) error
	MoveToArchive(queueID string, archived *ArchivedEmail) error
	MoveToDeadLetter(dead *DeadEmail) error

	InsertArchivedEmail(email *ArchivedEmail) error
	CullArchive(maxRows int64) (int64, error)

	CountQueuedEmails() (int64, error)
	CountArchivedEmails() (int64, error)

	GetSetting(key string) (string, bool, error)
	SetSetting(key, value string) error
}

// DatabaseConnection contains dependency for communicating with DB.
//
// The store is treated as a single-writer resource: every operation holds mu
// for the duration of exactly one query or one short transaction, so logical
// operations never interleave. The guard is never held across SMTP network
// calls; callers perform delivery outside of any store operation.
type DatabaseConnection struct {
	mu sync.Mutex
	db *gorm.DB
}

var _ DatabaseClient = (*DatabaseConnection)(nil)

// NewDatabaseConnection creates a new DB connection
func NewDatabaseConnection(host string, port int, user, password, database, sslMode string) (*DatabaseConnection, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslMode)

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %v", err)
	}
	// One shared connection; all access is serialized through mu anyway.
	sqlDB.SetMaxOpenConns(1)

	return &DatabaseConnection{db: gormDB}, nil
}

// Migrate automatically migrates listed models in the database
// Documentation: https://gorm.io/docs/migration.html#Auto-Migration
func (d *DatabaseConnection) Migrate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.AutoMigrate(&Domain{}, &QueuedEmail{}, &ArchivedEmail{}, &DeadEmail{}, &Setting{})
}

// UpsertDomain inserts a domain row or, if the domain is already registered,
// replaces its token in place. CreatedAt is preserved on re-registration.
func (d *DatabaseConnection) UpsertDomain(domain, token string, createdAt int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoUpdates: clause.AssignmentColumns([]string{"token"}),
	}).Create(&Domain{Domain: domain, Token: token, CreatedAt: createdAt})
	if result.Error != nil {
		return fmt.Errorf("failed upserting domains table: %v", result.Error)
	}
	return nil
}

// InsertDomainIfAbsent inserts a domain row only when no row exists for the
// domain, leaving an existing token untouched. It reports whether a row was
// inserted. Used for seeding domains at startup.
func (d *DatabaseConnection) InsertDomainIfAbsent(domain, token string, createdAt int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "domain"}},
		DoNothing: true,
	}).Create(&Domain{Domain: domain, Token: token, CreatedAt: createdAt})
	if result.Error != nil {
		return false, fmt.Errorf("failed seeding domains table: %v", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListDomains returns all registered domains ordered by domain name.
func (d *DatabaseConnection) ListDomains() ([]Domain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var domains []Domain
	if result := d.db.Order("domain").Find(&domains); result.Error != nil {
		return nil, fmt.Errorf("failed listing domains: %v", result.Error)
	}
	return domains, nil
}

// DeleteDomain removes a domain row and reports whether a row was deleted.
func (d *DatabaseConnection) DeleteDomain(domain string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := d.db.Where("domain = ?", domain).Delete(&Domain{})
	if result.Error != nil {
		return false, fmt.Errorf("failed deleting domain: %v", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetDomainToken returns the registered token for a domain. The second return
// value reports whether the domain is registered at all.
func (d *DatabaseConnection) GetDomainToken(domain string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var row Domain
	result := d.db.Where("domain = ?", domain).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed looking up domain token: %v", result.Error)
	}
	return row.Token, true, nil
}

// InsertQueuedEmail enqueues an email for asynchronous delivery.
func (d *DatabaseConnection) InsertQueuedEmail(email *QueuedEmail) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if result := d.db.Create(email); result.Error != nil {
		return fmt.Errorf("failed inserting into email_queue table: %v", result.Error)
	}
	return nil
}

// ListQueuedEmails returns the full current queue, oldest first.
func (d *DatabaseConnection) ListQueuedEmails() ([]QueuedEmail, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var pending []QueuedEmail
	if result := d.db.Order("enqueued_at ASC, id ASC").Find(&pending); result.Error != nil {
		return nil, fmt.Errorf("failed listing email_queue table: %v", result.Error)
	}
	return pending, nil
}

// RecordDeliveryFailure increments the attempt counter of a queued email in
// place and records the most recent delivery error.
func (d *DatabaseConnection) RecordDeliveryFailure(id string, lastError string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := d.db.Model(&QueuedEmail{}).Where("id = ?", id).Updates(map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastError,
	})
	if result.Error != nil {
		return fmt.Errorf("failed updating email_queue table: %v", result.Error)
	}
	return nil
}

// MoveToArchive removes a queued email and records the archive copy in a single
// transaction. The archive insert runs before the queue delete, so a failure
// mid-way can at worst leave a duplicate archive row, never silently drop a
// sent message.
func (d *DatabaseConnection) MoveToArchive(queueID string, archived *ArchivedEmail) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(archived); result.Error != nil {
			return result.Error
		}
		if result := tx.Where("id = ?", queueID).Delete(&QueuedEmail{}); result.Error != nil {
			return result.Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed moving email %s to archive: %v", queueID, err)
	}
	return nil
}

// MoveToDeadLetter removes a queued email and records the dead-letter copy in a
// single transaction.
func (d *DatabaseConnection) MoveToDeadLetter(dead *DeadEmail) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.db.Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(dead); result.Error != nil {
			return result.Error
		}
		if result := tx.Where("id = ?", dead.ID).Delete(&QueuedEmail{}); result.Error != nil {
			return result.Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed moving email %s to dead letter: %v", dead.ID, err)
	}
	return nil
}

// InsertArchivedEmail records a sent email in the archive. Used by the
// synchronous submission path; the delivery worker uses MoveToArchive instead.
func (d *DatabaseConnection) InsertArchivedEmail(email *ArchivedEmail) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if result := d.db.Create(email); result.Error != nil {
		return fmt.Errorf("failed inserting into email_archive table: %v", result.Error)
	}
	return nil
}

// CullArchive deletes the oldest archive rows until no more than maxRows
// remain, ordered by sent_at with the autoincrement id breaking ties. It
// returns the number of deleted rows.
func (d *DatabaseConnection) CullArchive(maxRows int64) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var count int64
	if result := d.db.Model(&ArchivedEmail{}).Count(&count); result.Error != nil {
		return 0, fmt.Errorf("failed counting email_archive table: %v", result.Error)
	}
	if count <= maxRows {
		return 0, nil
	}

	oldest := d.db.Model(&ArchivedEmail{}).
		Select("id").
		Order("sent_at ASC, id ASC").
		Limit(int(count - maxRows))
	result := d.db.Where("id IN (?)", oldest).Delete(&ArchivedEmail{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed culling email_archive table: %v", result.Error)
	}
	return result.RowsAffected, nil
}

// CountQueuedEmails returns the number of emails currently queued.
func (d *DatabaseConnection) CountQueuedEmails() (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var count int64
	if result := d.db.Model(&QueuedEmail{}).Count(&count); result.Error != nil {
		return 0, fmt.Errorf("failed counting email_queue table: %v", result.Error)
	}
	return count, nil
}

// CountArchivedEmails returns the number of archived emails.
func (d *DatabaseConnection) CountArchivedEmails() (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var count int64
	if result := d.db.Model(&ArchivedEmail{}).Count(&count); result.Error != nil {
		return 0, fmt.Errorf("failed counting email_archive table: %v", result.Error)
	}
	return count, nil
}

// GetSetting returns the value stored for a settings key. The second return
// value reports whether the key exists.
func (d *DatabaseConnection) GetSetting(key string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var row Setting
	result := d.db.Where("key = ?", key).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed reading settings table: %v", result.Error)
	}
	return row.Value, true, nil
}

// SetSetting stores a settings value, replacing any existing value for the key.
func (d *DatabaseConnection) SetSetting(key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Setting{Key: key, Value: value})
	if result.Error != nil {
		return fmt.Errorf("failed updating settings table: %v", result.Error)
	}
	return nil
}
