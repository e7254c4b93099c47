package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/types"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteRunCSV writes snapshots and transactions of both strategies into dir
func (r *DefaultCSVReporter) WriteRunCSV(result *backtest.RunResult, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	writes := []struct {
		file string
		fn   func(string) error
	}{
		{DCASnapshotsFile, func(p string) error { return WriteSnapshotsCSV(result.DCASnapshots, p) }},
		{SentimentSnapshotsFile, func(p string) error { return WriteSnapshotsCSV(result.SentimentSnapshots, p) }},
		{DCATransactionsFile, func(p string) error { return WriteTransactionsCSV(result.DCATransactions, p) }},
		{SentimentTransactionsFile, func(p string) error { return WriteTransactionsCSV(result.SentimentTransactions, p) }},
	}
	for _, w := range writes {
		if err := w.fn(filepath.Join(dir, w.file)); err != nil {
			return fmt.Errorf("failed to write %s: %w", w.file, err)
		}
	}
	return nil
}

// WriteSnapshotsCSV writes one row per scheduled date
func WriteSnapshotsCSV(snaps []backtest.Snapshot, path string) error {
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		sentimentValue := ""
		if s.SentimentValue != nil {
			sentimentValue = strconv.FormatFloat(*s.SentimentValue, 'f', -1, 64)
		}
		rows = append(rows, []string{
			s.Date.Format(types.DateLayout),
			Money(s.PortfolioValue),
			Shares(s.Shares),
			Money(s.Cash),
			strconv.FormatFloat(s.Price, 'f', -1, 64),
			sentimentValue,
		})
	}
	return writeCSV(path, []string{"date", "portfolio_value", "shares", "cash", "price", "fear_greed_value"}, rows)
}

// WriteTransactionsCSV writes one row per executed purchase
func WriteTransactionsCSV(txs []backtest.Transaction, path string) error {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		row := []string{
			tx.Date.Format(types.DateLayout),
			Money(tx.Amount),
			Shares(tx.SharesBought),
			Shares(tx.TotalShares),
			Money(tx.CashBalance),
			strconv.FormatFloat(tx.Price, 'f', -1, 64),
			"", "", "", "",
		}
		if sig := tx.Signal; sig != nil {
			row[6] = strconv.FormatFloat(sig.SentimentValue, 'f', -1, 64)
			row[7] = sig.Category.String()
			row[8] = strconv.FormatFloat(sig.Multiplier, 'f', -1, 64)
			row[9] = Money(sig.DesiredInvestment)
		}
		rows = append(rows, row)
	}
	header := []string{
		"date", "amount", "shares_bought", "total_shares", "cash_balance", "price",
		"fear_greed_value", "fear_greed_category", "multiplier", "desired_investment",
	}
	return writeCSV(path, header, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}
