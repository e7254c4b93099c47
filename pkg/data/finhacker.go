package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-resty/resty/v2"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

const (
	// FinHackerURL serves the CNN fear & greed history since 2011
	FinHackerURL     = "https://www.finhacker.cz/wp-content/custom-api/fear-greed-data.php"
	finHackerReferer = "https://www.finhacker.cz/fear-and-greed-index-historical-data-and-chart/"
)

// FinHackerProvider fetches the stock market fear & greed index
type FinHackerProvider struct {
	client *resty.Client
	url    string
}

// NewFinHackerProvider creates a FinHacker sentiment provider
func NewFinHackerProvider(opts HTTPOptions) *FinHackerProvider {
	url := FinHackerURL
	if opts.BaseURL != "" {
		url = opts.BaseURL
	}
	client := newRestyClient(opts)
	client.SetHeader("Referer", finHackerReferer)
	return &FinHackerProvider{client: client, url: url}
}

// Name returns the name of the data provider
func (p *FinHackerProvider) Name() string { return "finhacker" }

type finHackerResponse struct {
	Agg []struct {
		Date  string    `json:"date"`
		Value flexFloat `json:"value"`
	} `json:"agg"`
}

// FetchSentiment downloads the full index history
func (p *FinHackerProvider) FetchSentiment(ctx context.Context) ([]types.SentimentPoint, error) {
	resp, err := p.client.R().SetContext(ctx).Get(p.url)
	if err != nil {
		return nil, fmt.Errorf("finhacker fetch: %w", err)
	}
	if resp.IsError() {
		return nil, httpStatusError("finhacker", resp.StatusCode(), resp.String())
	}

	var payload finHackerResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("finhacker decode: %w", err)
	}

	points := make([]types.SentimentPoint, 0, len(payload.Agg))
	skipped := 0
	for _, row := range payload.Agg {
		date, err := parseFlexibleDate(row.Date, types.DateLayout)
		if err != nil || !row.Value.Valid || row.Value.Value < 0 || row.Value.Value > 100 {
			skipped++
			continue
		}
		points = append(points, types.SentimentPoint{Date: date, Value: row.Value.Value})
	}
	if skipped > 0 {
		log.Printf("⚠️ finhacker: skipped %d unparseable rows", skipped)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("finhacker: no data returned")
	}
	return Normalize(points), nil
}
