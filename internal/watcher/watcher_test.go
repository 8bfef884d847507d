package watcher

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stock_alerter/internal/engine"
	"stock_alerter/internal/logger"
	"stock_alerter/internal/models"
)

func TestMain(m *testing.M) {
	logger.Init("disabled")
	m.Run()
}

// Wednesday after a 13:30 UTC open.
var wednesday = time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC)

var testDefaults = engine.Defaults{
	DailyChangeThreshold: decimal.NewFromFloat(3.0),
	MarketOpenHourUTC:    13,
	MarketOpenMinuteUTC:  30,
}

func decPtr(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func timePtr(t time.Time) *time.Time { return &t }

type fakeStore struct {
	records   []models.WatchlistRecord
	mailing   []string
	updates   map[string]map[string]interface{}
	listErr   error
	updateErr error
}

func (f *fakeStore) ListRecords() ([]models.WatchlistRecord, error) {
	return f.records, f.listErr
}

func (f *fakeStore) ApplyUpdates(ticker string, fields map[string]interface{}) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updates == nil {
		f.updates = map[string]map[string]interface{}{}
	}
	f.updates[ticker] = fields
	return nil
}

func (f *fakeStore) ListMailingEmails() ([]string, error) {
	return f.mailing, nil
}

type fakeFeed struct {
	snaps map[string]*models.PriceSnapshot
	errs  map[string]error
}

func (f *fakeFeed) LatestTwoCloses(ticker string) (*models.PriceSnapshot, error) {
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}
	return f.snaps[ticker], nil
}

type sentAlert struct {
	ticker  string
	reason  string
	mailing []string
}

type spyAlerter struct {
	sent []sentAlert
}

func (s *spyAlerter) Send(ticker, reason string, rec models.WatchlistRecord, mailingList []string) {
	s.sent = append(s.sent, sentAlert{ticker: ticker, reason: reason, mailing: mailingList})
}

func newTestWatcher(store *fakeStore, feed *fakeFeed, alerter *spyAlerter) *Watcher {
	w := New(store, feed, alerter, testDefaults)
	w.now = func() time.Time { return wednesday }
	return w
}

func snapFor(prev, last string) *models.PriceSnapshot {
	p, _ := decimal.NewFromString(prev)
	l, _ := decimal.NewFromString(last)
	return &models.PriceSnapshot{PreviousClose: p, LastClose: l, LastCloseDate: wednesday}
}

func TestPollFiresAndPersists(t *testing.T) {
	store := &fakeStore{
		records: []models.WatchlistRecord{
			{Ticker: "AAPL", BearPrice: decPtr("90"), Email: "owner@example.com"},
		},
		mailing: []string{"list@example.com"},
	}
	feed := &fakeFeed{snaps: map[string]*models.PriceSnapshot{"AAPL": snapFor("87", "85")}}
	alerter := &spyAlerter{}

	summary := newTestWatcher(store, feed, alerter).Poll()

	if summary.Evaluated != 1 || summary.AlertsFired != 1 {
		t.Fatalf("Summary = %+v, want 1 evaluated / 1 fired", summary)
	}
	if len(alerter.sent) != 1 {
		t.Fatalf("Alerter called %d times, want 1", len(alerter.sent))
	}
	got := alerter.sent[0]
	if got.ticker != "AAPL" || got.reason != "Bear case hit (close: 85.00)" {
		t.Errorf("Unexpected alert: %+v", got)
	}
	if len(got.mailing) != 1 || got.mailing[0] != "list@example.com" {
		t.Errorf("Mailing list not passed through: %v", got.mailing)
	}
	fields, ok := store.updates["AAPL"]
	if !ok {
		t.Fatal("Mutations were not persisted")
	}
	if v := fields[engine.ColNotifiedBear]; v != true {
		t.Errorf("Persisted %v, want notified_bear=true", fields)
	}
}

func TestPollIsolatesPerTickerFailures(t *testing.T) {
	// First ticker's feed blows up; the second must still be evaluated.
	store := &fakeStore{
		records: []models.WatchlistRecord{
			{Ticker: "DEAD", BearPrice: decPtr("90")},
			{Ticker: "MSFT", BullPrice: decPtr("200")},
		},
	}
	feed := &fakeFeed{
		snaps: map[string]*models.PriceSnapshot{"MSFT": snapFor("202", "205")},
		errs:  map[string]error{"DEAD": errors.New("connection reset")},
	}
	alerter := &spyAlerter{}

	summary := newTestWatcher(store, feed, alerter).Poll()

	if summary.DataUnavailable != 1 {
		t.Errorf("DataUnavailable = %d, want 1", summary.DataUnavailable)
	}
	if summary.Evaluated != 1 || summary.AlertsFired != 1 {
		t.Errorf("Summary = %+v, want MSFT evaluated and fired", summary)
	}
	if len(alerter.sent) != 1 || alerter.sent[0].ticker != "MSFT" {
		t.Errorf("Alerts = %+v, want one for MSFT", alerter.sent)
	}
}

func TestPollGuardedTickersStaySilent(t *testing.T) {
	saturday := time.Date(2025, 6, 14, 15, 0, 0, 0, time.UTC)
	store := &fakeStore{
		records: []models.WatchlistRecord{
			{Ticker: "AAPL", BearPrice: decPtr("90")},
		},
	}
	feed := &fakeFeed{snaps: map[string]*models.PriceSnapshot{
		"AAPL": {
			PreviousClose: decimal.NewFromInt(100),
			LastClose:     decimal.NewFromInt(85),
			LastCloseDate: saturday,
		},
	}}
	alerter := &spyAlerter{}

	w := newTestWatcher(store, feed, alerter)
	w.now = func() time.Time { return saturday }
	summary := w.Poll()

	if summary.MarketClosed != 1 {
		t.Errorf("MarketClosed = %d, want 1", summary.MarketClosed)
	}
	if len(alerter.sent) != 0 {
		t.Errorf("Alerts sent on a Saturday: %+v", alerter.sent)
	}
	if len(store.updates) != 0 {
		t.Errorf("Flags written on a Saturday: %v", store.updates)
	}
}

func TestPollPersistsStalenessResetWithoutAlert(t *testing.T) {
	// Feed failure plus a week-stale latched record: the re-arm must be
	// persisted even though nothing can fire.
	store := &fakeStore{
		records: []models.WatchlistRecord{
			{
				Ticker:       "DEAD",
				NotifiedBear: true,
				UpdatedAt:    timePtr(wednesday.AddDate(0, 0, -10)),
			},
		},
	}
	feed := &fakeFeed{errs: map[string]error{"DEAD": errors.New("no data")}}
	alerter := &spyAlerter{}

	newTestWatcher(store, feed, alerter).Poll()

	if len(alerter.sent) != 0 {
		t.Errorf("Alert sent with no data: %+v", alerter.sent)
	}
	fields, ok := store.updates["DEAD"]
	if !ok {
		t.Fatal("Staleness reset was not persisted")
	}
	if v := fields[engine.ColNotifiedBear]; v != false {
		t.Errorf("Persisted %v, want notified_bear=false", fields)
	}
}

func TestPollSurvivesStoreUpdateFailure(t *testing.T) {
	store := &fakeStore{
		records: []models.WatchlistRecord{
			{Ticker: "AAPL", BearPrice: decPtr("90")},
			{Ticker: "MSFT", BullPrice: decPtr("200")},
		},
		updateErr: errors.New("deadlock"),
	}
	feed := &fakeFeed{snaps: map[string]*models.PriceSnapshot{
		"AAPL": snapFor("87", "85"),
		"MSFT": snapFor("202", "205"),
	}}
	alerter := &spyAlerter{}

	summary := newTestWatcher(store, feed, alerter).Poll()

	// Both alerts still go out; the failures are counted.
	if len(alerter.sent) != 2 {
		t.Errorf("Sent %d alerts, want 2", len(alerter.sent))
	}
	if summary.Errors != 2 {
		t.Errorf("Errors = %d, want 2", summary.Errors)
	}
}

func TestPollListFailureAborts(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db down")}
	alerter := &spyAlerter{}

	summary := newTestWatcher(store, &fakeFeed{}, alerter).Poll()

	if summary.Errors == 0 {
		t.Error("List failure not reflected in summary")
	}
	if len(alerter.sent) != 0 {
		t.Errorf("Alerts sent without records: %+v", alerter.sent)
	}
}
