// Package activity persists an append-only playtime log to a sqlite
// database, separate from the flat-JSON instance store — this is derived,
// queryable history rather than authoritative state.
package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SessionRecord is one completed (or crashed) play session.
type SessionRecord struct {
	ID           string `gorm:"primaryKey"`
	InstanceID   string `gorm:"index"`
	InstanceName string
	AccountName  string
	StartedAt    time.Time
	EndedAt      time.Time
	DurationSecs int64
	Crashed      bool
	ExitCode     int
}

// DailyActivity is a materialized per-day rollup, kept so a "play time this
// week" chart doesn't have to scan every SessionRecord.
type DailyActivity struct {
	Day          string `gorm:"primaryKey"` // YYYY-MM-DD
	InstanceID   string `gorm:"primaryKey;index"`
	TotalSeconds int64
	Launches     int
}

// Store wraps the session history database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the sqlite database at path and runs
// migrations.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&SessionRecord{}, &DailyActivity{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordSession appends a session and folds its duration into the day's
// rollup. started/ended are both required; a crash is recorded with
// Crashed=true and whatever partial duration the supervisor measured.
func (s *Store) RecordSession(instanceID, instanceName, accountName string, started, ended time.Time, crashed bool, exitCode int) error {
	rec := SessionRecord{
		ID:           uuid.NewString(),
		InstanceID:   instanceID,
		InstanceName: instanceName,
		AccountName:  accountName,
		StartedAt:    started,
		EndedAt:      ended,
		DurationSecs: int64(ended.Sub(started).Seconds()),
		Crashed:      crashed,
		ExitCode:     exitCode,
	}
	if rec.DurationSecs < 0 {
		rec.DurationSecs = 0
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}

		day := started.UTC().Format("2006-01-02")
		var roll DailyActivity
		err := tx.Where("day = ? AND instance_id = ?", day, instanceID).First(&roll).Error
		if err == gorm.ErrRecordNotFound {
			roll = DailyActivity{Day: day, InstanceID: instanceID}
		} else if err != nil {
			return err
		}
		roll.TotalSeconds += rec.DurationSecs
		roll.Launches++
		return tx.Save(&roll).Error
	})
}

// RecentSessions returns the most recent n sessions across all instances,
// newest first.
func (s *Store) RecentSessions(n int) ([]SessionRecord, error) {
	var out []SessionRecord
	err := s.db.Order("started_at desc").Limit(n).Find(&out).Error
	return out, err
}

// DailyTotals returns the rollup rows for instanceID across the last n
// days, oldest first.
func (s *Store) DailyTotals(instanceID string, n int) ([]DailyActivity, error) {
	var out []DailyActivity
	err := s.db.Where("instance_id = ?", instanceID).
		Order("day desc").Limit(n).Find(&out).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
