package data

import (
	"os"
	"path/filepath"
	"strings"
)

// Series kinds understood by the file locator
const (
	KindSentiment = "sentiment"
	KindPrices    = "prices"
)

// DefaultFileLocator implements FileLocator for the data/ directory layout
// written by the fetch command.
type DefaultFileLocator struct{}

// NewDefaultFileLocator creates a new default file locator
func NewDefaultFileLocator() *DefaultFileLocator {
	return &DefaultFileLocator{}
}

// DataFilePath returns the canonical location of a series file
func DataFilePath(dataRoot, kind, symbol string) string {
	if kind == KindSentiment {
		return filepath.Join(dataRoot, KindSentiment, "fear_greed.csv")
	}
	return filepath.Join(dataRoot, KindPrices, strings.ToUpper(symbol)+"_1d.csv")
}

// FindDataFile returns the first existing candidate path, or "" if none exists
func (f *DefaultFileLocator) FindDataFile(dataRoot, kind, symbol string) string {
	sym := strings.ToUpper(symbol)
	candidates := []string{DataFilePath(dataRoot, kind, symbol)}
	switch kind {
	case KindSentiment:
		candidates = append(candidates,
			filepath.Join(dataRoot, "fear_greed.csv"),
			filepath.Join(dataRoot, "fear_greed_index.csv"),
		)
	default:
		candidates = append(candidates,
			filepath.Join(dataRoot, sym+".csv"),
			filepath.Join(dataRoot, "bybit", "spot", sym, "1d", "candles.csv"),
		)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
