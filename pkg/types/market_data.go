package types

import "time"

// SentimentPoint is one observation of the fear/greed index.
type SentimentPoint struct {
	Date  time.Time
	Value float64
}

// GetDate returns the observation date
func (p SentimentPoint) GetDate() time.Time { return p.Date }

// PricePoint is one daily closing price of the tracked asset.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// GetDate returns the observation date
func (p PricePoint) GetDate() time.Time { return p.Date }

// Dated is implemented by every point type so filters can work on either series.
type Dated interface {
	GetDate() time.Time
}

// NormalizeDate truncates t to midnight UTC of its calendar day.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the canonical day format used in files and reports.
const DateLayout = "2006-01-02"
