package data

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// AlternativeMeURL serves the crypto fear & greed index
const AlternativeMeURL = "https://api.alternative.me/fng/"

// AlternativeMeProvider fetches the crypto fear & greed index, for backtests
// against Bybit prices
type AlternativeMeProvider struct {
	client *resty.Client
	url    string
}

// NewAlternativeMeProvider creates an alternative.me sentiment provider
func NewAlternativeMeProvider(opts HTTPOptions) *AlternativeMeProvider {
	url := AlternativeMeURL
	if opts.BaseURL != "" {
		url = opts.BaseURL
	}
	return &AlternativeMeProvider{client: newRestyClient(opts), url: url}
}

// Name returns the name of the data provider
func (p *AlternativeMeProvider) Name() string { return "alternative.me" }

type alternativeMeResponse struct {
	Data []struct {
		Value     flexFloat `json:"value"`
		Timestamp string    `json:"timestamp"`
	} `json:"data"`
	Metadata struct {
		Error *string `json:"error"`
	} `json:"metadata"`
}

// FetchSentiment downloads the full index history (limit=0)
func (p *AlternativeMeProvider) FetchSentiment(ctx context.Context) ([]types.SentimentPoint, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"limit": "0", "format": "json"}).
		Get(p.url)
	if err != nil {
		return nil, fmt.Errorf("alternative.me fetch: %w", err)
	}
	if resp.IsError() {
		return nil, httpStatusError("alternative.me", resp.StatusCode(), resp.String())
	}

	var payload alternativeMeResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("alternative.me decode: %w", err)
	}
	if payload.Metadata.Error != nil && *payload.Metadata.Error != "" {
		return nil, fmt.Errorf("alternative.me api error: %s", *payload.Metadata.Error)
	}

	points := make([]types.SentimentPoint, 0, len(payload.Data))
	for _, row := range payload.Data {
		sec, err := strconv.ParseInt(row.Timestamp, 10, 64)
		if err != nil || !row.Value.Valid {
			continue
		}
		points = append(points, types.SentimentPoint{
			Date:  types.NormalizeDate(time.Unix(sec, 0).UTC()),
			Value: row.Value.Value,
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("alternative.me: no data returned")
	}
	// the API lists newest first
	return Normalize(points), nil
}
