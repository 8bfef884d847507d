// Package engine holds the alert evaluation and deduplication state
// machine. Evaluate is a pure function: it performs no I/O, reads no
// clock and has no failure mode. It decides which conditions fired for
// one watchlist record and returns the exact column mutations the
// caller must persist.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stock_alerter/internal/models"
)

// ConditionType identifies which alert rule fired.
type ConditionType string

const (
	BearHit       ConditionType = "bear_hit"
	BullHit       ConditionType = "bull_hit"
	DailyIncrease ConditionType = "daily_increase"
	DailyDecrease ConditionType = "daily_decrease"
)

// Mutation column names, shared with the storage whitelist.
const (
	ColNotifiedBear        = "notified_bear"
	ColNotifiedBull        = "notified_bull"
	ColNotifiedDailyChange = "notified_daily_change"
	ColLastDailyNotifyDate = "last_daily_notify_date"
)

// A latched band alert re-arms after the record sits untouched this long.
const staleAfterDays = 7

// Condition is one fired alert, carrying enough data for the alerter to
// render a notification without re-deriving anything.
type Condition struct {
	Type      ConditionType
	Reason    string          // e.g. "Bear case hit (close: 123.45)"
	Close     decimal.Decimal // last close that triggered the condition
	ChangePct decimal.Decimal // signed daily move, zero for band hits
}

// Outcome classifies a single evaluation pass. Guards are outcomes, not
// errors: a guarded ticker simply gets no alert this cycle.
type Outcome string

const (
	OutcomeEvaluated       Outcome = "evaluated"
	OutcomeDataUnavailable Outcome = "data_unavailable"
	OutcomeStaleData       Outcome = "stale_data"
	OutcomeMarketClosed    Outcome = "market_closed"
)

// Defaults is the process-wide configuration the engine consumes.
type Defaults struct {
	DailyChangeThreshold decimal.Decimal // percent, used when the record has no override
	MarketOpenHourUTC    int
	MarketOpenMinuteUTC  int
}

// Result is the full outcome of evaluating one record: what fired and
// which columns must change. Mutations may be non-empty even on a
// guarded exit, because the staleness reset runs ahead of the guards.
type Result struct {
	Outcome   Outcome
	Fired     []Condition
	Mutations map[string]interface{}
}

// Evaluate runs one pass over a single record. A nil snapshot means the
// feed had no usable data. nowUTC is normalized to UTC internally.
func Evaluate(rec models.WatchlistRecord, snap *models.PriceSnapshot, nowUTC time.Time, def Defaults) Result {
	now := nowUTC.UTC()
	res := Result{
		Outcome:   OutcomeEvaluated,
		Mutations: map[string]interface{}{},
	}

	notifiedBear := rec.NotifiedBear
	notifiedBull := rec.NotifiedBull

	// Staleness reset: the user has not revisited this thesis in over a
	// week, so re-arm the band alerts. Runs before the guards — the
	// reset must persist even when today's data is unusable. A nil
	// UpdatedAt (column absent in the backing schema) skips this step.
	if rec.UpdatedAt != nil {
		days := int(now.Sub(rec.UpdatedAt.UTC()).Hours() / 24)
		if days > staleAfterDays {
			if notifiedBear {
				res.Mutations[ColNotifiedBear] = false
				notifiedBear = false
			}
			if notifiedBull {
				res.Mutations[ColNotifiedBull] = false
				notifiedBull = false
			}
		}
	}

	if snap == nil {
		res.Outcome = OutcomeDataUnavailable
		return res
	}

	today := dateOf(now)

	// The feed has not produced today's close yet; yesterday's numbers
	// must not be evaluated as if they were today's.
	if dateOf(snap.LastCloseDate).Before(today) {
		res.Outcome = OutcomeStaleData
		return res
	}

	// Market-hours gate. Applies to every condition type, and also
	// protects the daily-flag rollover below from stale-data resets on
	// weekends and before the open.
	if isWeekend(now) || !afterOpen(now, def) {
		res.Outcome = OutcomeMarketClosed
		return res
	}

	// Only past this point is "is this a new day" safe to resolve.
	notifiedDaily := rec.NotifiedDailyChange
	lastNotify := rec.LastDailyNotifyDate
	if lastNotify != nil && dateOf(*lastNotify).Before(today) && notifiedDaily {
		res.Mutations[ColNotifiedDailyChange] = false
		notifiedDaily = false
	}

	lastClose := snap.LastClose
	priceStr := formatPrice(lastClose)

	if rec.BearPrice != nil && lastClose.LessThanOrEqual(*rec.BearPrice) && !notifiedBear {
		res.Fired = append(res.Fired, Condition{
			Type:   BearHit,
			Reason: fmt.Sprintf("Bear case hit (close: %s)", priceStr),
			Close:  lastClose,
		})
		res.Mutations[ColNotifiedBear] = true
	}

	if rec.BullPrice != nil && lastClose.GreaterThanOrEqual(*rec.BullPrice) && !notifiedBull {
		res.Fired = append(res.Fired, Condition{
			Type:   BullHit,
			Reason: fmt.Sprintf("Bull case hit (close: %s)", priceStr),
			Close:  lastClose,
		})
		res.Mutations[ColNotifiedBull] = true
	}

	// Daily change. A zero previous close skips only this condition
	// (division guard), never the whole evaluation.
	if !snap.PreviousClose.IsZero() {
		pct := lastClose.Sub(snap.PreviousClose).
			Div(snap.PreviousClose).
			Mul(decimal.NewFromInt(100))

		threshold := def.DailyChangeThreshold
		if rec.DailyChangeThreshold != nil {
			threshold = *rec.DailyChangeThreshold
		}

		if pct.GreaterThanOrEqual(threshold) || pct.LessThanOrEqual(threshold.Neg()) {
			// At most one daily alert per calendar day, however many
			// times the job runs.
			if lastNotify == nil || dateOf(*lastNotify).Before(today) {
				pctStr := pct.Abs().StringFixed(2)
				cond := Condition{Close: lastClose, ChangePct: pct}
				if pct.GreaterThanOrEqual(threshold) {
					cond.Type = DailyIncrease
					cond.Reason = fmt.Sprintf("Price increase >%s%% (close: %s)", pctStr, priceStr)
				} else {
					cond.Type = DailyDecrease
					cond.Reason = fmt.Sprintf("Price decrease >%s%% (close: %s)", pctStr, priceStr)
				}
				res.Fired = append(res.Fired, cond)
				res.Mutations[ColNotifiedDailyChange] = true
				res.Mutations[ColLastDailyNotifyDate] = today
			}
		}
	}

	return res
}

// dateOf truncates a timestamp to its UTC calendar day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func afterOpen(t time.Time, def Defaults) bool {
	if t.Hour() > def.MarketOpenHourUTC {
		return true
	}
	return t.Hour() == def.MarketOpenHourUTC && t.Minute() >= def.MarketOpenMinuteUTC
}

// formatPrice renders a close with two decimals and thousands
// separators, matching the strings users see in alert emails.
func formatPrice(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	for i := len(intPart) - 3; i > 0; i -= 3 {
		intPart = intPart[:i] + "," + intPart[i:]
	}
	if neg {
		return "-" + intPart + frac
	}
	return intPart + frac
}
