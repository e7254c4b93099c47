package data

import (
	"context"
	"time"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// SentimentProvider loads the full history of a fear/greed index
type SentimentProvider interface {
	// FetchSentiment returns the index history in ascending date order
	FetchSentiment(ctx context.Context) ([]types.SentimentPoint, error)

	// Name returns the name of the provider
	Name() string
}

// PriceProvider loads daily prices of the tracked asset
type PriceProvider interface {
	// FetchPrices returns daily prices between start and end in ascending order
	FetchPrices(ctx context.Context, start, end time.Time) ([]types.PricePoint, error)

	// Name returns the name of the provider
	Name() string
}

// SeriesCache stores fetched series by key
type SeriesCache interface {
	GetSentiment(key string) ([]types.SentimentPoint, bool)
	SetSentiment(key string, data []types.SentimentPoint)
	GetPrices(key string) ([]types.PricePoint, bool)
	SetPrices(key string, data []types.PricePoint)

	// Clear removes all cached data
	Clear()

	// Size returns the number of cached entries
	Size() int
}

// CSVColumnMapping defines the column positions of a two-column series file
type CSVColumnMapping struct {
	DateCol    int
	ValueCol   int
	MinColumns int
	DateFormat string
}

// Predefined CSV formats
var (
	DefaultSentimentCSVFormat = CSVColumnMapping{
		DateCol:    0,
		ValueCol:   1,
		MinColumns: 2,
		DateFormat: types.DateLayout,
	}

	DefaultPriceCSVFormat = CSVColumnMapping{
		DateCol:    0,
		ValueCol:   1,
		MinColumns: 2,
		DateFormat: types.DateLayout,
	}

	// Bybit kline dumps: timestamp,open,high,low,close,volume
	BybitCSVFormat = CSVColumnMapping{
		DateCol:    0,
		ValueCol:   4,
		MinColumns: 6,
		DateFormat: "2006-01-02 15:04:05",
	}
)

// FileLocator finds local series files
type FileLocator interface {
	// FindDataFile locates the file for a kind ("sentiment" or "prices") and symbol
	FindDataFile(dataRoot, kind, symbol string) string
}
