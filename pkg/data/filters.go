package data

import (
	"fmt"
	"sort"
	"time"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// SortByDate returns a copy of data sorted by date (ascending, stable)
func SortByDate[T types.Dated](data []T) []T {
	sorted := make([]T, len(data))
	copy(sorted, data)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GetDate().Before(sorted[j].GetDate())
	})
	return sorted
}

// RemoveDuplicateDates drops repeated dates from sorted data, keeping the
// last occurrence of each date.
func RemoveDuplicateDates[T types.Dated](data []T) []T {
	if len(data) <= 1 {
		return data
	}
	filtered := make([]T, 0, len(data))
	for i, p := range data {
		if i+1 < len(data) && data[i+1].GetDate().Equal(p.GetDate()) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// FilterByDateRange keeps points with start <= date <= end
func FilterByDateRange[T types.Dated](data []T, start, end time.Time) []T {
	var filtered []T
	for _, p := range data {
		d := p.GetDate()
		if !d.Before(start) && !d.After(end) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// ValidateTimeSequence ensures data is strictly ascending by date
func ValidateTimeSequence[T types.Dated](data []T) error {
	for i := 1; i < len(data); i++ {
		prev, cur := data[i-1].GetDate(), data[i].GetDate()
		if cur.Before(prev) {
			return fmt.Errorf("data not in chronological order at index %d: %s comes after %s",
				i, cur.Format(types.DateLayout), prev.Format(types.DateLayout))
		}
		if cur.Equal(prev) {
			return fmt.Errorf("duplicate date at index %d: %s", i, cur.Format(types.DateLayout))
		}
	}
	return nil
}

// Normalize sorts data and removes duplicate dates
func Normalize[T types.Dated](data []T) []T {
	return RemoveDuplicateDates(SortByDate(data))
}
