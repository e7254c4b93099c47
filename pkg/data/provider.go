package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/ducminhle1904/sentiment-dca-backtest/internal/errors"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// Source names
const (
	SourceFinHacker   = "finhacker"
	SourceAlternative = "alternative"
	SourceYahoo       = "yahoo"
	SourceBybit       = "bybit"
	SourceCSV         = "csv"
)

// Accepted source names per series
var (
	SentimentSources = []string{SourceFinHacker, SourceAlternative, SourceCSV}
	PriceSources     = []string{SourceYahoo, SourceBybit, SourceCSV}
)

// SourceConfig selects and configures the sentiment and price providers
type SourceConfig struct {
	SentimentSource string
	SentimentFile   string
	PriceSource     string
	PriceFile       string
	Tickers         []string
	BybitSymbol     string
	BybitCategory   string
	DataRoot        string
	HTTP            HTTPOptions
}

// FetchObserver is notified of every provider fetch outcome
type FetchObserver func(source string, err error)

// DataManager combines cached providers for both series
type DataManager struct {
	sentiment *CachedSentimentProvider
	prices    *CachedPriceProvider
	observer  FetchObserver
}

// NewDataManager builds cached providers from the source configuration
func NewDataManager(cfg SourceConfig) (*DataManager, error) {
	sp, err := NewSentimentProvider(cfg)
	if err != nil {
		return nil, err
	}
	pp, err := NewPriceProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewDataManagerWithProviders(sp, pp), nil
}

// NewDataManagerWithProviders creates a data manager around custom providers
func NewDataManagerWithProviders(sentiment SentimentProvider, prices PriceProvider) *DataManager {
	cache := NewMemoryCache()
	return &DataManager{
		sentiment: NewCachedSentimentProvider(sentiment, cache),
		prices:    NewCachedPriceProvider(prices, cache),
	}
}

// SetObserver registers a fetch observer, e.g. for metrics
func (dm *DataManager) SetObserver(observer FetchObserver) {
	dm.observer = observer
}

func (dm *DataManager) notify(source string, err error) {
	if dm.observer != nil {
		dm.observer(source, err)
	}
}

// LoadSeries fetches both series for a window. Any provider failure is
// reported as data unavailable.
func (dm *DataManager) LoadSeries(ctx context.Context, start, end time.Time) ([]types.SentimentPoint, []types.PricePoint, error) {
	sentiment, err := dm.sentiment.FetchSentiment(ctx)
	dm.notify(dm.sentiment.Name(), err)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrorCategoryDataUnavailable, dm.sentiment.Name(), "FetchSentiment")
	}
	if len(sentiment) == 0 {
		return nil, nil, apperrors.NewDataUnavailableError(dm.sentiment.Name(), "FetchSentiment", "empty sentiment series")
	}

	prices, err := dm.prices.FetchPrices(ctx, start, end)
	dm.notify(dm.prices.Name(), err)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrorCategoryDataUnavailable, dm.prices.Name(), "FetchPrices")
	}
	if len(prices) == 0 {
		return nil, nil, apperrors.NewDataUnavailableError(dm.prices.Name(), "FetchPrices", "empty price series")
	}
	return sentiment, prices, nil
}

// SentimentProvider returns the cached sentiment provider
func (dm *DataManager) SentimentProvider() *CachedSentimentProvider { return dm.sentiment }

// PriceProvider returns the cached price provider
func (dm *DataManager) PriceProvider() *CachedPriceProvider { return dm.prices }

// NewSentimentProvider builds the configured sentiment provider
func NewSentimentProvider(cfg SourceConfig) (SentimentProvider, error) {
	switch strings.ToLower(cfg.SentimentSource) {
	case "", SourceFinHacker:
		return NewFinHackerProvider(cfg.HTTP), nil
	case SourceAlternative, "alternative.me":
		return NewAlternativeMeProvider(cfg.HTTP), nil
	case SourceCSV:
		path := cfg.SentimentFile
		if path == "" {
			path = NewDefaultFileLocator().FindDataFile(cfg.DataRoot, KindSentiment, "")
		}
		if path == "" {
			return nil, fmt.Errorf("csv sentiment source needs a file; none found under %s", cfg.DataRoot)
		}
		return NewCSVSentimentProvider(path), nil
	default:
		return nil, fmt.Errorf("unknown sentiment source %q", cfg.SentimentSource)
	}
}

// NewPriceProvider builds the configured price provider
func NewPriceProvider(cfg SourceConfig) (PriceProvider, error) {
	switch strings.ToLower(cfg.PriceSource) {
	case "", SourceYahoo:
		return NewYahooProvider(cfg.Tickers, cfg.HTTP), nil
	case SourceBybit:
		if cfg.BybitSymbol == "" {
			return nil, fmt.Errorf("bybit price source needs a symbol")
		}
		return NewBybitProvider(cfg.BybitSymbol, cfg.BybitCategory, cfg.HTTP.BaseURL), nil
	case SourceCSV:
		path := cfg.PriceFile
		symbol := firstTicker(cfg)
		if path == "" {
			path = NewDefaultFileLocator().FindDataFile(cfg.DataRoot, KindPrices, symbol)
		}
		if path == "" {
			return nil, fmt.Errorf("csv price source needs a file; none found for %s under %s", symbol, cfg.DataRoot)
		}
		return NewCSVPriceProvider(path), nil
	default:
		return nil, fmt.Errorf("unknown price source %q", cfg.PriceSource)
	}
}

func firstTicker(cfg SourceConfig) string {
	if cfg.BybitSymbol != "" && strings.EqualFold(cfg.PriceSource, SourceBybit) {
		return cfg.BybitSymbol
	}
	if len(cfg.Tickers) > 0 {
		return cfg.Tickers[0]
	}
	return DefaultTickers[0]
}
