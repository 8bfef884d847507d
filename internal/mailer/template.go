package mailer

import (
	"bytes"
	"html/template"

	"github.com/shopspring/decimal"

	"stock_alerter/internal/models"
)

var bodyTmpl = template.Must(template.New("alert").Parse(`<html>
  <body>
    <p>Dear member,</p>
    <p>This is an alert from the <strong>Investia Bot</strong> regarding the stock <strong>{{.Ticker}}</strong>.</p>
    <p>Reason for this email: <em>{{.Reason}}</em>.</p>
    <h3>Price Levels:</h3>
    <ul>
      <li>Bear price: {{.BearPrice}}</li>
      <li>BAU price: {{.BAUPrice}}</li>
      <li>Bull price: {{.BullPrice}}</li>
    </ul>
    {{if .Pros}}<h3>Investment Thesis:</h3>
    <p><strong>Pros:</strong></p>
    <ul>
      {{range .Pros}}<li>{{.}}</li>
      {{end}}
    </ul>
    {{end}}{{if .Contras}}<p><strong>Cons:</strong></p>
    <ul>
      {{range .Contras}}<li>{{.}}</li>
      {{end}}
    </ul>
    {{end}}<p>This event may be related to recent news or market movements.</p>
    {{if .News}}<h3>Latest News:</h3>
    <ul>
      {{range .News}}<li><a href="{{.URL}}" target="_blank" rel="noopener noreferrer">{{.Title}}</a></li>
      {{end}}
    </ul>
    {{end}}<p>Have a nice day!</p>
    <p>Kind regards,<br>The Investia bot</p>
  </body>
</html>
`))

type bodyData struct {
	Ticker    string
	Reason    string
	BearPrice string
	BAUPrice  string
	BullPrice string
	Pros      []string
	Contras   []string
	News      []models.NewsItem
}

// renderBody builds the HTML alert body for one fired condition.
func renderBody(ticker, reason string, rec models.WatchlistRecord, items []models.NewsItem) (string, error) {
	data := bodyData{
		Ticker:    ticker,
		Reason:    reason,
		BearPrice: priceLevel(rec.BearPrice),
		BAUPrice:  priceLevel(rec.BAUPrice),
		BullPrice: priceLevel(rec.BullPrice),
		Pros:      rec.Pros(),
		Contras:   rec.Contras(),
		News:      items,
	}

	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func priceLevel(p *decimal.Decimal) string {
	if p == nil {
		return "n/a"
	}
	return p.StringFixed(2)
}
