package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// YahooChartURL is the Yahoo Finance chart endpoint
const YahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// DefaultTickers are tried in order until one returns data
var DefaultTickers = []string{"SPY", "VOO"}

// YahooProvider fetches daily adjusted closes, falling back through tickers
type YahooProvider struct {
	client  *resty.Client
	baseURL string
	tickers []string
}

// NewYahooProvider creates a Yahoo price provider
func NewYahooProvider(tickers []string, opts HTTPOptions) *YahooProvider {
	base := YahooChartURL
	if opts.BaseURL != "" {
		base = strings.TrimSuffix(opts.BaseURL, "/") + "/"
	}
	if len(tickers) == 0 {
		tickers = DefaultTickers
	}
	return &YahooProvider{client: newRestyClient(opts), baseURL: base, tickers: tickers}
}

// Name returns the name of the data provider
func (p *YahooProvider) Name() string {
	return "yahoo:" + strings.Join(p.tickers, ",")
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchPrices tries each ticker in order and returns the first non-empty series
func (p *YahooProvider) FetchPrices(ctx context.Context, start, end time.Time) ([]types.PricePoint, error) {
	var lastErr error
	for _, ticker := range p.tickers {
		points, err := p.fetchTicker(ctx, ticker, start, end)
		if err == nil && len(points) > 0 {
			return points, nil
		}
		if err == nil {
			err = fmt.Errorf("yahoo: no data for %s", ticker)
		}
		log.Printf("⚠️ %v, trying next ticker", err)
		lastErr = err
	}
	return nil, fmt.Errorf("all tickers failed: %w", lastErr)
}

func (p *YahooProvider) fetchTicker(ctx context.Context, ticker string, start, end time.Time) ([]types.PricePoint, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"period1":  strconv.FormatInt(start.Unix(), 10),
			// end is inclusive
			"period2":  strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10),
			"interval": "1d",
			"events":   "history",
		}).
		Get(p.baseURL + url.PathEscape(ticker))
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", ticker, err)
	}
	if resp.IsError() {
		return nil, httpStatusError("yahoo "+ticker, resp.StatusCode(), resp.String())
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}

	r := chart.Chart.Result[0]
	var closes []*float64
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) == len(r.Timestamp) {
		closes = r.Indicators.AdjClose[0].AdjClose
	} else if len(r.Indicators.Quote) > 0 && len(r.Indicators.Quote[0].Close) == len(r.Timestamp) {
		closes = r.Indicators.Quote[0].Close
	} else {
		return nil, fmt.Errorf("yahoo: %s response has no close prices", ticker)
	}

	points := make([]types.PricePoint, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		// skip null bars (holidays, halted sessions)
		if closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		points = append(points, types.PricePoint{
			Date:  types.NormalizeDate(time.Unix(ts, 0).UTC()),
			Price: *closes[i],
		})
	}
	return FilterByDateRange(Normalize(points), start, end), nil
}
