package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// Output file names inside a run directory
const (
	DCASnapshotsFile          = "dca_snapshots.csv"
	SentimentSnapshotsFile    = "sentiment_snapshots.csv"
	DCATransactionsFile       = "dca_transactions.csv"
	SentimentTransactionsFile = "sentiment_transactions.csv"
	WorkbookFile              = "backtest.xlsx"
	BestConfigFile            = "best.json"
	SummaryFile               = "summary.json"
)

// DefaultPathManager implements path management functionality
type DefaultPathManager struct {
	root string
}

// NewDefaultPathManager creates a path manager rooted at root ("results" when empty)
func NewDefaultPathManager(root string) *DefaultPathManager {
	if strings.TrimSpace(root) == "" {
		root = "results"
	}
	return &DefaultPathManager{root: root}
}

// GetDefaultOutputDir returns the run directory for a price label and window,
// e.g. results/SPY_2020-01-01_2024-01-01
func (p *DefaultPathManager) GetDefaultOutputDir(label string, start, end time.Time) string {
	l := strings.ToUpper(strings.TrimSpace(label))
	if l == "" {
		l = "UNKNOWN"
	}
	return filepath.Join(p.root, fmt.Sprintf("%s_%s_%s", l, start.Format(types.DateLayout), end.Format(types.DateLayout)))
}

// EnsureDirectoryExists creates the parent directory of path
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	return ensureParentDir(path)
}

func ensureParentDir(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
