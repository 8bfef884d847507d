package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WatchlistRecord is one tracked ticker with its alert levels and
// notification latches. Struct tags map the fields onto the
// stock_watchlist table; pointer fields are nullable columns.
type WatchlistRecord struct {
	Ticker string `gorm:"column:ticker;primaryKey" json:"ticker"`

	// Target price bands. A nil price disables that condition.
	BearPrice *decimal.Decimal `gorm:"column:bear_price" json:"bear_price"`
	BAUPrice  *decimal.Decimal `gorm:"column:bau_price" json:"bau_price"`
	BullPrice *decimal.Decimal `gorm:"column:bull_price" json:"bull_price"`

	// Per-record daily move threshold in percent. Nil falls back to the
	// global default.
	DailyChangeThreshold *decimal.Decimal `gorm:"column:daily_change_threshold" json:"daily_change_threshold"`

	// Latched flags. Once true the matching condition stays silent until
	// a staleness reset or a user edit clears it.
	NotifiedBear        bool `gorm:"column:notified_bear" json:"notified_bear"`
	NotifiedBull        bool `gorm:"column:notified_bull" json:"notified_bull"`
	NotifiedDailyChange bool `gorm:"column:notified_daily_change" json:"notified_daily_change"`

	// Date of the last daily-change alert; drives same-day dedup.
	LastDailyNotifyDate *time.Time `gorm:"column:last_daily_notify_date" json:"last_daily_notify_date"`

	// Last manual edit. Nil when the backing schema lacks the column
	// (degraded mode: staleness reset is skipped, nothing else changes).
	// autoUpdateTime is off: only user edits may touch this column, or
	// every flag write would defeat the staleness reset.
	UpdatedAt *time.Time `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`

	// Record-specific recipient, merged with the shared mailing list.
	Email string `gorm:"column:email" json:"email"`

	// Investment thesis shown in the alert email.
	Pro1    string `gorm:"column:pro_1" json:"pro_1"`
	Pro2    string `gorm:"column:pro_2" json:"pro_2"`
	Pro3    string `gorm:"column:pro_3" json:"pro_3"`
	Contra1 string `gorm:"column:contra_1" json:"contra_1"`
	Contra2 string `gorm:"column:contra_2" json:"contra_2"`
	Contra3 string `gorm:"column:contra_3" json:"contra_3"`
}

// TableName keeps the original schema name instead of GORM's plural guess.
func (WatchlistRecord) TableName() string { return "stock_watchlist" }

// Pros returns the non-empty thesis pros in order.
func (r WatchlistRecord) Pros() []string {
	return nonEmpty(r.Pro1, r.Pro2, r.Pro3)
}

// Contras returns the non-empty thesis cons in order.
func (r WatchlistRecord) Contras() []string {
	return nonEmpty(r.Contra1, r.Contra2, r.Contra3)
}

func nonEmpty(ss ...string) []string {
	var out []string
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// MailingEntry is one shared mailing list subscriber.
type MailingEntry struct {
	Email string `gorm:"column:email;primaryKey" json:"email"`
}

func (MailingEntry) TableName() string { return "mailing_list" }

// PriceSnapshot is the latest two trading-day closes for a ticker.
// Feeds return nil for delisted tickers or insufficient history.
type PriceSnapshot struct {
	PreviousClose decimal.Decimal
	LastClose     decimal.Decimal
	LastCloseDate time.Time // UTC, truncated to the day
}

// NewsItem is one headline attached to an alert email.
type NewsItem struct {
	Title string
	URL   string
}
