package storage

import (
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stock_alerter/internal/engine"
	"stock_alerter/internal/models"
)

// WatchlistStore is the persistence seam the watcher depends on. The
// engine never sees it; it only emits mutation maps for ApplyUpdates.
type WatchlistStore interface {
	ListRecords() ([]models.WatchlistRecord, error)
	ApplyUpdates(ticker string, fields map[string]interface{}) error
	ListMailingEmails() ([]string, error)
}

// Only engine-managed columns may be written through ApplyUpdates.
// Everything else (prices, thesis, email) belongs to user edits.
var allowedColumns = map[string]struct{}{
	engine.ColNotifiedBear:        {},
	engine.ColNotifiedBull:        {},
	engine.ColNotifiedDailyChange: {},
	engine.ColLastDailyNotifyDate: {},
}

// GormStore implements WatchlistStore on a MySQL database.
type GormStore struct {
	db *gorm.DB
}

var _ WatchlistStore = (*GormStore)(nil)

// Open connects to the database. GORM's query logging is silenced; the
// watcher does its own structured logging.
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	return &GormStore{db: db}, nil
}

// ListRecords returns the whole watchlist with tickers upper-cased.
func (s *GormStore) ListRecords() ([]models.WatchlistRecord, error) {
	var records []models.WatchlistRecord
	if err := s.db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("storage: list watchlist: %w", err)
	}
	for i := range records {
		records[i].Ticker = NormalizeTicker(records[i].Ticker)
	}
	return records, nil
}

// ApplyUpdates writes a partial mutation map for one ticker. Columns
// outside the engine's whitelist are rejected before any SQL runs.
func (s *GormStore) ApplyUpdates(ticker string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	for col := range fields {
		if _, ok := allowedColumns[col]; !ok {
			return fmt.Errorf("storage: column %q is not engine-managed", col)
		}
	}
	err := s.db.Model(&models.WatchlistRecord{}).
		Where("ticker = ?", NormalizeTicker(ticker)).
		Updates(fields).Error
	if err != nil {
		return fmt.Errorf("storage: update %s: %w", ticker, err)
	}
	return nil
}

// ListMailingEmails returns the shared mailing list.
func (s *GormStore) ListMailingEmails() ([]string, error) {
	var entries []models.MailingEntry
	if err := s.db.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("storage: list mailing list: %w", err)
	}
	emails := make([]string, 0, len(entries))
	for _, e := range entries {
		emails = append(emails, e.Email)
	}
	return emails, nil
}

// NormalizeTicker upper-cases and trims a symbol; tickers are keyed
// case-insensitively.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
