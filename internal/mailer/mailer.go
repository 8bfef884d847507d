package mailer

import (
	"fmt"
	"sort"

	"gopkg.in/gomail.v2"

	"stock_alerter/internal/logger"
	"stock_alerter/internal/metrics"
	"stock_alerter/internal/models"
)

// NewsSource supplies headlines for an alert email.
type NewsSource interface {
	LatestHeadlines(ticker string) []models.NewsItem
}

// Mailer delivers alert emails over SMTP with STARTTLS. Send is fire
// and forget: delivery failures are logged and counted, never
// propagated to the evaluation loop.
type Mailer struct {
	from string
	news NewsSource

	// send is a seam for tests; in production it dials SMTP.
	send func(msg *gomail.Message) error
}

// New builds a Mailer. With empty credentials it degrades to a logged
// no-op so a misconfigured environment cannot crash the run.
func New(host string, port int, user, pass string, news NewsSource) *Mailer {
	m := &Mailer{from: user, news: news}
	if user == "" || pass == "" {
		return m
	}
	dialer := gomail.NewDialer(host, port, user, pass)
	m.send = func(msg *gomail.Message) error { return dialer.DialAndSend(msg) }
	return m
}

// Send renders and delivers one alert to the record's recipient plus
// the shared mailing list, deduplicated as a set.
func (m *Mailer) Send(ticker, reason string, rec models.WatchlistRecord, mailingList []string) {
	log := logger.WithComponent("mailer")

	if m.send == nil {
		log.Warn().Str("ticker", ticker).Msg("Email credentials missing, skipping notification")
		return
	}

	var items []models.NewsItem
	if m.news != nil {
		items = m.news.LatestHeadlines(ticker)
	}

	body, err := renderBody(ticker, reason, rec, items)
	if err != nil {
		log.Error().Str("ticker", ticker).Err(err).Msg("Failed to render email body")
		return
	}

	subject := fmt.Sprintf("! Check %s | Investia bot", ticker)
	for _, to := range Recipients(rec.Email, mailingList) {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", to)
		msg.SetHeader("Subject", subject)
		msg.SetBody("text/html", body)

		if err := m.send(msg); err != nil {
			metrics.EmailsSentTotal.WithLabelValues("failed").Inc()
			log.Error().Str("ticker", ticker).Str("to", to).Err(err).Msg("Failed to send email")
			continue
		}
		metrics.EmailsSentTotal.WithLabelValues("sent").Inc()
		log.Info().Str("ticker", ticker).Str("to", to).Str("subject", subject).Msg("Email sent")
	}
}

// Recipients merges the record email with the mailing list into a
// sorted, deduplicated set. Sorting keeps delivery order stable.
func Recipients(recordEmail string, mailingList []string) []string {
	set := make(map[string]struct{}, len(mailingList)+1)
	for _, e := range mailingList {
		if e != "" {
			set[e] = struct{}{}
		}
	}
	if recordEmail != "" {
		set[recordEmail] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
