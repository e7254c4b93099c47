package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

type csvRow struct {
	date  time.Time
	value float64
}

// readSeriesCSV reads a headered CSV file into dated values, skipping rows
// that cannot be parsed.
func readSeriesCSV(filename string, format CSVColumnMapping) ([]csvRow, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", filename, err)
	}

	var rows []csvRow
	lineNum := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading CSV at line %d: %v", lineNum, err)
		}
		lineNum++

		if len(record) < format.MinColumns {
			log.Printf("⚠️ Insufficient columns at line %d (expected %d, got %d), skipping", lineNum, format.MinColumns, len(record))
			continue
		}

		date, err := parseFlexibleDate(record[format.DateCol], format.DateFormat)
		if err != nil {
			log.Printf("⚠️ Invalid date '%s' at line %d, skipping: %v", record[format.DateCol], lineNum, err)
			continue
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[format.ValueCol]), 64)
		if err != nil || math.IsNaN(value) {
			log.Printf("⚠️ Invalid value '%s' at line %d, skipping", record[format.ValueCol], lineNum)
			continue
		}

		rows = append(rows, csvRow{date: date, value: value})
	}
	return rows, nil
}

// parseFlexibleDate accepts the configured layout and falls back to common
// day and timestamp layouts. The result is normalized to midnight UTC.
func parseFlexibleDate(raw, layout string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{layout, types.DateLayout, "2006-01-02 15:04:05", time.RFC3339}
	for _, l := range layouts {
		if l == "" {
			continue
		}
		if t, err := time.Parse(l, raw); err == nil {
			return types.NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// CSVSentimentProvider reads a date,value sentiment file
type CSVSentimentProvider struct {
	path   string
	format CSVColumnMapping
}

// NewCSVSentimentProvider creates a CSV sentiment provider with the default format
func NewCSVSentimentProvider(path string) *CSVSentimentProvider {
	return &CSVSentimentProvider{path: path, format: DefaultSentimentCSVFormat}
}

// Name returns the name of the data provider
func (p *CSVSentimentProvider) Name() string {
	return "CSV " + filepath.Base(p.path)
}

// FetchSentiment loads and normalizes the sentiment file
func (p *CSVSentimentProvider) FetchSentiment(ctx context.Context) ([]types.SentimentPoint, error) {
	rows, err := readSeriesCSV(p.path, p.format)
	if err != nil {
		return nil, err
	}
	points := make([]types.SentimentPoint, 0, len(rows))
	for _, r := range rows {
		if r.value < 0 || r.value > 100 {
			log.Printf("⚠️ Sentiment %.2f on %s outside [0,100], skipping", r.value, r.date.Format(types.DateLayout))
			continue
		}
		points = append(points, types.SentimentPoint{Date: r.date, Value: r.value})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no sentiment rows in %s", p.path)
	}
	return Normalize(points), nil
}

// CSVPriceProvider reads a date,price file
type CSVPriceProvider struct {
	path   string
	format CSVColumnMapping
}

// NewCSVPriceProvider creates a CSV price provider with the default format
func NewCSVPriceProvider(path string) *CSVPriceProvider {
	return &CSVPriceProvider{path: path, format: DefaultPriceCSVFormat}
}

// NewCSVPriceProviderWithFormat creates a CSV price provider with a custom column layout
func NewCSVPriceProviderWithFormat(path string, format CSVColumnMapping) *CSVPriceProvider {
	return &CSVPriceProvider{path: path, format: format}
}

// Name returns the name of the data provider
func (p *CSVPriceProvider) Name() string {
	return "CSV " + filepath.Base(p.path)
}

// FetchPrices loads the file and keeps the requested window
func (p *CSVPriceProvider) FetchPrices(ctx context.Context, start, end time.Time) ([]types.PricePoint, error) {
	rows, err := readSeriesCSV(p.path, p.format)
	if err != nil {
		return nil, err
	}
	points := make([]types.PricePoint, 0, len(rows))
	for _, r := range rows {
		if r.value <= 0 {
			log.Printf("⚠️ Invalid price (negative or zero) on %s, skipping", r.date.Format(types.DateLayout))
			continue
		}
		points = append(points, types.PricePoint{Date: r.date, Price: r.value})
	}
	points = FilterByDateRange(Normalize(points), start, end)
	if len(points) == 0 {
		return nil, fmt.Errorf("no prices in %s between %s and %s", p.path,
			start.Format(types.DateLayout), end.Format(types.DateLayout))
	}
	return points, nil
}

// WriteSentimentCSV saves a sentiment series in the default format
func WriteSentimentCSV(path string, points []types.SentimentPoint) error {
	rows := make([][]string, 0, len(points)+1)
	rows = append(rows, []string{"date", "value"})
	for _, p := range points {
		rows = append(rows, []string{p.Date.Format(types.DateLayout), strconv.FormatFloat(p.Value, 'f', -1, 64)})
	}
	return writeCSV(path, rows)
}

// WritePriceCSV saves a price series in the default format
func WritePriceCSV(path string, points []types.PricePoint) error {
	rows := make([][]string, 0, len(points)+1)
	rows = append(rows, []string{"date", "price"})
	for _, p := range points {
		rows = append(rows, []string{p.Date.Format(types.DateLayout), strconv.FormatFloat(p.Price, 'f', -1, 64)})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
