package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/reporting"
)

// writeSeries writes daily sentiment and price CSVs for January 2024
func writeSeries(t *testing.T) (string, string) {
	t.Helper()
	return writeSeriesDays(t, 31)
}

// writeSeriesDays writes days of daily series starting 2024-01-01
func writeSeriesDays(t *testing.T, days int) (string, string) {
	t.Helper()
	dir := t.TempDir()

	var fg, px strings.Builder
	fg.WriteString("date,value\n")
	px.WriteString("date,price\n")
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		d := day.AddDate(0, 0, i).Format("2006-01-02")
		fmt.Fprintf(&fg, "%s,%d\n", d, (10+i*3)%101)
		fmt.Fprintf(&px, "%s,%.2f\n", d, 100+float64(i%7))
	}

	fgPath := filepath.Join(dir, "fear_greed.csv")
	pxPath := filepath.Join(dir, "SPY.csv")
	require.NoError(t, os.WriteFile(fgPath, []byte(fg.String()), 0644))
	require.NoError(t, os.WriteFile(pxPath, []byte(px.String()), 0644))
	return fgPath, pxPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := root.Execute()
	return out.String(), err
}

// TestRunCmd_CSVSources runs a backtest end to end on local files
func TestRunCmd_CSVSources(t *testing.T) {
	fgPath, pxPath := writeSeries(t)
	outDir := t.TempDir()

	out, err := execute(t, "run",
		"--sentiment-file", fgPath, "--price-file", pxPath,
		"--start", "2024-01-01", "--end", "2024-01-31", "--weekday", "tuesday",
		"--output-dir", outDir, "--csv", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, "STRATEGY COMPARISON")
	assert.Contains(t, out, "FEAR/GREED vs DCA")

	runDir := filepath.Join(outDir, "SPY_2024-01-01_2024-01-31")
	assert.FileExists(t, filepath.Join(runDir, reporting.DCASnapshotsFile))
	assert.FileExists(t, filepath.Join(runDir, reporting.SentimentTransactionsFile))
	assert.NoFileExists(t, filepath.Join(runDir, reporting.WorkbookFile))

	raw, err := os.ReadFile(filepath.Join(runDir, reporting.SummaryFile))
	require.NoError(t, err)
	var summary reporting.RunSummaryJSON
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, 5, summary.TotalWeeks)
	assert.Equal(t, 2500.0, summary.DCA.BudgetReceived)
}

// TestRunCmd_InvalidInput checks configuration errors stop the run
func TestRunCmd_InvalidInput(t *testing.T) {
	fgPath, pxPath := writeSeries(t)

	_, err := execute(t, "run", "--sentiment-file", fgPath, "--price-file", pxPath, "--weekday", "funday")
	require.Error(t, err)

	_, err = execute(t, "run", "--sentiment-file", fgPath, "--price-file", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price file does not exist")

	_, err = execute(t, "run", "--sentiment-file", fgPath, "--price-file", pxPath, "--multipliers", "ef=2,f=1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--multipliers")

	_, err = execute(t, "run", "--sentiment-file", fgPath, "--price-source", "nasdaq")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price-source must be one of [yahoo, bybit, csv], got: nasdaq")

	_, err = execute(t, "history", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--session is required")
	assert.Contains(t, err.Error(), "database file does not exist")
}

// TestOptimizeAndHistoryCmd runs a small search, then reads it back from SQLite
func TestOptimizeAndHistoryCmd(t *testing.T) {
	fgPath, pxPath := writeSeries(t)
	outDir := t.TempDir()
	dbPath := filepath.Join(outDir, "search.db")
	reportPath := filepath.Join(outDir, "optimization_results.txt")

	out, err := execute(t, "optimize",
		"--sentiment-file", fgPath, "--price-file", pxPath,
		"--start", "2024-01-01", "--end", "2024-01-31",
		"--evaluations", "30", "--initial-points", "10", "--population", "10", "--workers", "2",
		"--db", dbPath, "--report-file", reportPath, "--output-dir", outDir, "--json", "--log-file")
	require.NoError(t, err)
	assert.Contains(t, out, "OPTIMIZATION COMPLETE")

	report, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(report), "Sentiment Multiplier Optimization Results\n"))
	assert.Contains(t, string(report), "Top 10 Results:")

	raw, err := os.ReadFile(filepath.Join(outDir, "SPY_2024-01-01_2024-01-31", reporting.BestConfigFile))
	require.NoError(t, err)
	var best reporting.BestConfig
	require.NoError(t, json.Unmarshal(raw, &best))
	require.NotNil(t, best.Search)
	assert.Len(t, best.Multipliers, 5)

	logs, err := filepath.Glob(filepath.Join(outDir, "logs", "optimize_*.log"))
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	out, err = execute(t, "history", "--db", dbPath, "--session", best.Search.SessionID, "--top", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "SESSION "+best.Search.SessionID)
}

// TestValidateCmd_Holdout searches the train weeks and replays on the rest
func TestValidateCmd_Holdout(t *testing.T) {
	fgPath, pxPath := writeSeriesDays(t, 152)

	out, err := execute(t, "validate",
		"--sentiment-file", fgPath, "--price-file", pxPath,
		"--start", "2024-01-01", "--end", "2024-05-31",
		"--split", "0.6", "--evaluations", "30", "--initial-points", "10", "--population", "10", "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Mode: Simple Holdout")
	assert.Contains(t, out, "Created 1 folds")
	assert.Contains(t, out, "WALK-FORWARD SUMMARY")
}

// TestValidateCmd_ShortWindow checks too few weeks are rejected
func TestValidateCmd_ShortWindow(t *testing.T) {
	fgPath, pxPath := writeSeries(t)

	_, err := execute(t, "validate",
		"--sentiment-file", fgPath, "--price-file", pxPath,
		"--start", "2024-01-01", "--end", "2024-01-31")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough scheduled weeks")

	_, err = execute(t, "validate", "--rolling", "--train-weeks", "2",
		"--sentiment-file", fgPath, "--price-file", pxPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "train-weeks must be between")
}

// TestVersionCmd prints the version banner
func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, appName+" v")
}
