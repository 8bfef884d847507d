package news

import (
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"stock_alerter/internal/logger"
	"stock_alerter/internal/models"
)

const baseURL = "https://query1.finance.yahoo.com"

// Client fetches the latest headlines for a ticker. Strictly
// best-effort: an alert email without news beats no alert email.
type Client struct {
	http  *resty.Client
	limit int
}

func NewClient(limit int) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetHeader("User-Agent", "stock-alerter/1.0"),
		limit: limit,
	}
}

type searchResponse struct {
	News []struct {
		Title string `json:"title"`
		Link  string `json:"link"`
	} `json:"news"`
}

// LatestHeadlines returns up to limit headlines, or nil on any failure.
func (c *Client) LatestHeadlines(ticker string) []models.NewsItem {
	log := logger.WithComponent("news")

	var body searchResponse
	resp, err := c.http.R().
		SetQueryParams(map[string]string{
			"q":           ticker,
			"newsCount":   strconv.Itoa(c.limit),
			"quotesCount": "0",
		}).
		SetResult(&body).
		Get("/v1/finance/search")
	if err != nil {
		log.Warn().Str("ticker", ticker).Err(err).Msg("Failed to fetch news")
		return nil
	}
	if resp.IsError() {
		log.Warn().Str("ticker", ticker).Int("status", resp.StatusCode()).Msg("News lookup rejected")
		return nil
	}

	var items []models.NewsItem
	for _, n := range body.News {
		if n.Title == "" || n.Link == "" {
			continue
		}
		items = append(items, models.NewsItem{Title: n.Title, URL: n.Link})
		if len(items) >= c.limit {
			break
		}
	}
	return items
}
