// Package cache persists ffprobe results in a small sqlite database so
// repeated alignment runs over the same files skip the probe step.
// Entries are keyed by path plus file size and mtime, so an edited file
// never serves a stale result.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/soundalign/soundalign/pkg/soundalign"
)

// DefaultPath returns the per-user cache database location.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "soundalign", "probe.sqlite3")
}

type probeRow struct {
	Path      string `gorm:"primaryKey;type:varchar(4096)"`
	Size      int64
	ModTime   int64
	Duration  float64
	Streams   string // JSON-encoded []soundalign.StreamInfo
	CreatedAt time.Time
}

// Store is a sqlite-backed probe cache.
type Store struct {
	db  *gorm.DB
	sql *sql.DB
}

// Open creates or opens the cache database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&probeRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &Store{db: db, sql: sqlDB}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

// Get returns the cached probe result for path, if the file has not
// changed since it was cached.
func (s *Store) Get(path string) (soundalign.MediaInfo, bool) {
	var info soundalign.MediaInfo

	st, err := os.Stat(path)
	if err != nil {
		return info, false
	}

	var row probeRow
	err = s.db.Where("path = ?", path).First(&row).Error
	if err != nil {
		return info, false
	}
	if row.Size != st.Size() || row.ModTime != st.ModTime().UnixNano() {
		return info, false
	}

	info.Duration = row.Duration
	if row.Streams != "" {
		if err := json.Unmarshal([]byte(row.Streams), &info.Streams); err != nil {
			return soundalign.MediaInfo{}, false
		}
	}
	return info, true
}

// Put stores a probe result for path, replacing any previous entry.
func (s *Store) Put(path string, info soundalign.MediaInfo) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}

	streams, err := json.Marshal(info.Streams)
	if err != nil {
		return fmt.Errorf("encoding streams: %w", err)
	}

	row := probeRow{
		Path:     path,
		Size:     st.Size(),
		ModTime:  st.ModTime().UnixNano(),
		Duration: info.Duration,
		Streams:  string(streams),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path = ?", path).Delete(&probeRow{}).Error; err != nil &&
			!errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("storing probe result: %w", err)
	}
	return nil
}
