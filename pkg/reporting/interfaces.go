package reporting

import (
	"io"
	"time"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/optimization"
)

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	PrintRunSummary(w io.Writer, summary *backtest.Summary)
	PrintSearchReport(w io.Writer, report *optimization.SearchReport)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteRunCSV(result *backtest.RunResult, dir string) error
	WriteRunXLSX(result *backtest.RunResult, summary *backtest.Summary, path string) error
	WriteBestConfigJSON(report *optimization.SearchReport, path string) error
	WriteSearchReport(report *optimization.SearchReport, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(label string, start, end time.Time) string
	EnsureDirectoryExists(path string) error
}

// ExcelStyles holds Excel formatting styles
type ExcelStyles struct {
	HeaderStyle       int
	CurrencyStyle     int
	PercentStyle      int
	NumberStyle       int
	DateStyle         int
	BaseStyle         int
	RedPercentStyle   int
	GreenPercentStyle int
	SummaryStyle      int
}

// ReportingConfig holds configuration for reporting
type ReportingConfig struct {
	EnableConsole   bool
	OutputDirectory string
	ExcelEnabled    bool
	CSVEnabled      bool
	JSONEnabled     bool
}
