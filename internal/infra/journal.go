package infra

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eliteGoblin/focusd/widget_freeze/internal/domain"
)

// DefaultJournalRetention is how many transitions are kept on Prune.
const DefaultJournalRetention = 5000

// transitionRecord is the journal row.
type transitionRecord struct {
	ID        uint      `gorm:"primaryKey"`
	At        time.Time `gorm:"not null;index"`
	PID       int       `gorm:"not null"`
	Target    string    `gorm:"not null"`
	Mode      string    `gorm:"not null"`
	Direction string    `gorm:"not null"`
	Reason    string    `gorm:"not null"`
}

func (transitionRecord) TableName() string {
	return "freeze_transitions"
}

func (r transitionRecord) toDomain() domain.Transition {
	return domain.Transition{
		At:        r.At,
		PID:       r.PID,
		Target:    r.Target,
		Mode:      domain.FreezeMode(r.Mode),
		Direction: domain.Direction(r.Direction),
		Reason:    domain.Reason(r.Reason),
	}
}

// SQLiteJournal implements domain.Journal on a sqlite database via gorm.
type SQLiteJournal struct {
	db *gorm.DB
}

// OpenJournal opens (creating if needed) the journal database at path.
func OpenJournal(path string) (*SQLiteJournal, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open journal database")
	}
	if err := db.AutoMigrate(&transitionRecord{}); err != nil {
		return nil, errors.Wrap(err, "failed to initialize journal schema")
	}
	return &SQLiteJournal{db: db}, nil
}

// Record appends a transition.
func (j *SQLiteJournal) Record(t domain.Transition) error {
	if t.At.IsZero() {
		t.At = time.Now()
	}
	rec := transitionRecord{
		At:        t.At,
		PID:       t.PID,
		Target:    t.Target,
		Mode:      string(t.Mode),
		Direction: string(t.Direction),
		Reason:    string(t.Reason),
	}
	if err := j.db.Create(&rec).Error; err != nil {
		return errors.Wrap(err, "failed to insert transition")
	}
	return nil
}

// Latest returns the newest transition, or nil when the journal is empty.
func (j *SQLiteJournal) Latest() (*domain.Transition, error) {
	var rec transitionRecord
	result := j.db.Order("id DESC").Limit(1).Find(&rec)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query latest transition")
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	t := rec.toDomain()
	return &t, nil
}

// Recent returns up to limit transitions, newest first.
func (j *SQLiteJournal) Recent(limit int) ([]domain.Transition, error) {
	var recs []transitionRecord
	if err := j.db.Order("id DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to query transitions")
	}
	result := make([]domain.Transition, len(recs))
	for i, r := range recs {
		result[i] = r.toDomain()
	}
	return result, nil
}

// Prune deletes all but the newest keep transitions.
func (j *SQLiteJournal) Prune(keep int) (int64, error) {
	var cutoff transitionRecord
	result := j.db.Order("id DESC").Offset(keep).Limit(1).Find(&cutoff)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to find prune cutoff")
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}
	del := j.db.Where("id <= ?", cutoff.ID).Delete(&transitionRecord{})
	if del.Error != nil {
		return 0, errors.Wrap(del.Error, "failed to prune transitions")
	}
	return del.RowsAffected, nil
}

// Close releases the database.
func (j *SQLiteJournal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get underlying sql.DB")
	}
	return sqlDB.Close()
}

// Ensure SQLiteJournal implements domain.Journal.
var _ domain.Journal = (*SQLiteJournal)(nil)
