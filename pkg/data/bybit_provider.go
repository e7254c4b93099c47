package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// bybitMaxLimit is the largest page the kline endpoint returns
const bybitMaxLimit = 1000

// klineFetcher issues one market kline request
type klineFetcher interface {
	GetMarketKline(ctx context.Context, params map[string]interface{}) (interface{}, error)
}

type bybitSDKFetcher struct {
	client *bybit_api.Client
}

func (f *bybitSDKFetcher) GetMarketKline(ctx context.Context, params map[string]interface{}) (interface{}, error) {
	return f.client.NewUtaBybitServiceWithParams(params).GetMarketKline(ctx)
}

// BybitProvider fetches daily close prices from Bybit public market data
type BybitProvider struct {
	fetcher  klineFetcher
	limiter  *RequestLimiter
	symbol   string
	category string
}

// NewBybitProvider creates a Bybit price provider. Market data is public, so
// no API keys are required.
func NewBybitProvider(symbol, category, baseURL string) *BybitProvider {
	if category == "" {
		category = "spot"
	}
	if baseURL == "" {
		baseURL = bybit_api.MAINNET
	}
	client := bybit_api.NewBybitHttpClient("", "", bybit_api.WithBaseURL(baseURL))
	return &BybitProvider{
		fetcher:  &bybitSDKFetcher{client: client},
		limiter:  NewRequestLimiter(bybitBurst, bybitRequestsPerSec),
		symbol:   symbol,
		category: category,
	}
}

// Name returns the name of the data provider
func (p *BybitProvider) Name() string {
	return fmt.Sprintf("bybit:%s:%s", p.category, p.symbol)
}

// FetchPrices pages backwards from end until start is covered
func (p *BybitProvider) FetchPrices(ctx context.Context, start, end time.Time) ([]types.PricePoint, error) {
	var points []types.PricePoint
	cursor := end.AddDate(0, 0, 1).Add(-time.Millisecond)

	for !cursor.Before(start) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		params := map[string]interface{}{
			"category": p.category,
			"symbol":   p.symbol,
			"interval": "D",
			"start":    start.UnixMilli(),
			"end":      cursor.UnixMilli(),
			"limit":    bybitMaxLimit,
		}
		resp, err := p.fetcher.GetMarketKline(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to get klines: %w", err)
		}
		page, err := parseBybitKlines(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse kline response: %w", err)
		}
		if len(page) == 0 {
			break
		}
		points = append(points, page...)

		oldest := page[0].Date
		for _, pp := range page {
			if pp.Date.Before(oldest) {
				oldest = pp.Date
			}
		}
		if len(page) < bybitMaxLimit {
			break
		}
		cursor = oldest.Add(-time.Millisecond)
	}

	points = FilterByDateRange(Normalize(points), start, end)
	if len(points) == 0 {
		return nil, fmt.Errorf("bybit: no klines for %s", p.symbol)
	}
	return points, nil
}

// parseBybitKlines converts a ServerResponse kline list into close prices.
// Rows are [startTime, open, high, low, close, volume, turnover].
func parseBybitKlines(response interface{}) ([]types.PricePoint, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return nil, fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	var klineResult struct {
		List [][]string `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	points := make([]types.PricePoint, 0, len(klineResult.List))
	for _, item := range klineResult.List {
		if len(item) < 5 {
			continue
		}
		ms, err := strconv.ParseInt(item[0], 10, 64)
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(item[4], 64)
		if err != nil || closePrice <= 0 {
			continue
		}
		points = append(points, types.PricePoint{
			Date:  types.NormalizeDate(time.UnixMilli(ms).UTC()),
			Price: closePrice,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
