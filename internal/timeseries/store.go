package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"

	apperrors "github.com/ducminhle1904/sentiment-dca-backtest/internal/errors"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// ErrNotFound is returned when a lookup date precedes the first observation.
var ErrNotFound = apperrors.New(apperrors.ErrorCategoryLookupMiss, "timeseries", "ValueAsOf", "no observation on or before date")

// Observation is a single dated value.
type Observation struct {
	Date  time.Time
	Value float64
}

// Series is an immutable, strictly ascending sequence of observations that
// answers as-of queries.
type Series struct {
	name   string
	dates  []time.Time
	values []float64
}

// NewSeries builds a series. Observations must be strictly ascending by date.
func NewSeries(name string, observations []Observation) (*Series, error) {
	if len(observations) == 0 {
		return nil, apperrors.NewDataUnavailableError("timeseries", "NewSeries", fmt.Sprintf("%s series is empty", name))
	}

	s := &Series{
		name:   name,
		dates:  make([]time.Time, len(observations)),
		values: make([]float64, len(observations)),
	}
	for i, o := range observations {
		if i > 0 && !o.Date.After(observations[i-1].Date) {
			return nil, fmt.Errorf("%s series not strictly ascending at index %d: %s after %s",
				name, i, o.Date.Format(types.DateLayout), observations[i-1].Date.Format(types.DateLayout))
		}
		s.dates[i] = o.Date
		s.values[i] = o.Value
	}
	return s, nil
}

// Name returns the series label
func (s *Series) Name() string { return s.name }

// Len returns the number of observations
func (s *Series) Len() int { return len(s.dates) }

// First returns the date of the earliest observation
func (s *Series) First() time.Time { return s.dates[0] }

// Last returns the date of the latest observation
func (s *Series) Last() time.Time { return s.dates[len(s.dates)-1] }

// ValueAsOf returns the value of the latest observation dated on or before
// date (last observation carried forward). It never interpolates.
func (s *Series) ValueAsOf(date time.Time) (float64, error) {
	// first index strictly after date
	i := sort.Search(len(s.dates), func(i int) bool { return s.dates[i].After(date) })
	if i == 0 {
		return 0, ErrNotFound
	}
	return s.values[i-1], nil
}

// Store holds the sentiment and price series for one backtest window.
type Store struct {
	sentiment *Series
	price     *Series
	prices    []types.PricePoint
}

// NewStore validates both series and builds a store. An empty series or an
// out-of-domain value makes the window impossible to backtest.
func NewStore(sentiment []types.SentimentPoint, prices []types.PricePoint) (*Store, error) {
	if len(sentiment) == 0 {
		return nil, apperrors.NewDataUnavailableError("timeseries", "NewStore", "sentiment series is empty")
	}
	if len(prices) == 0 {
		return nil, apperrors.NewDataUnavailableError("timeseries", "NewStore", "price series is empty")
	}

	sentObs := make([]Observation, len(sentiment))
	for i, p := range sentiment {
		if math.IsNaN(p.Value) || p.Value < 0 || p.Value > 100 {
			return nil, apperrors.NewDataUnavailableError("timeseries", "NewStore",
				fmt.Sprintf("sentiment value %.2f on %s outside [0,100]", p.Value, p.Date.Format(types.DateLayout)))
		}
		sentObs[i] = Observation{Date: p.Date, Value: p.Value}
	}

	priceObs := make([]Observation, len(prices))
	for i, p := range prices {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price <= 0 {
			return nil, apperrors.NewDataUnavailableError("timeseries", "NewStore",
				fmt.Sprintf("price %.4f on %s is not a positive finite number", p.Price, p.Date.Format(types.DateLayout)))
		}
		priceObs[i] = Observation{Date: p.Date, Value: p.Price}
	}

	ss, err := NewSeries("sentiment", sentObs)
	if err != nil {
		return nil, err
	}
	ps, err := NewSeries("price", priceObs)
	if err != nil {
		return nil, err
	}

	cp := make([]types.PricePoint, len(prices))
	copy(cp, prices)
	return &Store{sentiment: ss, price: ps, prices: cp}, nil
}

// SentimentAsOf returns the sentiment value in effect on date
func (s *Store) SentimentAsOf(date time.Time) (float64, error) {
	return s.sentiment.ValueAsOf(date)
}

// PriceAsOf returns the price in effect on date
func (s *Store) PriceAsOf(date time.Time) (float64, error) {
	return s.price.ValueAsOf(date)
}

// Sentiment returns the underlying sentiment series
func (s *Store) Sentiment() *Series { return s.sentiment }

// Price returns the underlying price series
func (s *Store) Price() *Series { return s.price }

// Prices returns a copy of the raw price points
func (s *Store) Prices() []types.PricePoint {
	out := make([]types.PricePoint, len(s.prices))
	copy(out, s.prices)
	return out
}
