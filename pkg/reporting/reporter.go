package reporting

import (
	"io"
	"log"
	"path/filepath"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/optimization"
)

// DefaultReporter combines console, file and path reporting
type DefaultReporter struct {
	console *DefaultConsoleReporter
	csv     *DefaultCSVReporter
	excel   *DefaultExcelReporter
	json    *DefaultJSONFormatter
	paths   *DefaultPathManager
}

// NewDefaultReporter creates a reporter writing under outputRoot
func NewDefaultReporter(outputRoot string) *DefaultReporter {
	return &DefaultReporter{
		console: NewDefaultConsoleReporter(),
		csv:     NewDefaultCSVReporter(),
		excel:   NewDefaultExcelReporter(),
		json:    NewDefaultJSONFormatter(),
		paths:   NewDefaultPathManager(outputRoot),
	}
}

func (r *DefaultReporter) PrintRunSummary(w io.Writer, summary *backtest.Summary) {
	r.console.PrintRunSummary(w, summary)
}

func (r *DefaultReporter) PrintSearchReport(w io.Writer, report *optimization.SearchReport) {
	r.console.PrintSearchReport(w, report)
}

func (r *DefaultReporter) WriteRunCSV(result *backtest.RunResult, dir string) error {
	return r.csv.WriteRunCSV(result, dir)
}

func (r *DefaultReporter) WriteRunXLSX(result *backtest.RunResult, summary *backtest.Summary, path string) error {
	return r.excel.WriteRunXLSX(result, summary, path)
}

func (r *DefaultReporter) WriteBestConfigJSON(report *optimization.SearchReport, path string) error {
	return WriteBestConfigJSON(report, path)
}

func (r *DefaultReporter) WriteSearchReport(report *optimization.SearchReport, path string) error {
	return WriteSearchReport(report, path)
}

func (r *DefaultReporter) Paths() *DefaultPathManager { return r.paths }

// ReportingManager writes the configured set of artifacts
type ReportingManager struct {
	reporter *DefaultReporter
	config   ReportingConfig
	out      io.Writer
}

// NewReportingManager creates a manager printing console output to out
func NewReportingManager(config ReportingConfig, out io.Writer) *ReportingManager {
	return &ReportingManager{
		reporter: NewDefaultReporter(config.OutputDirectory),
		config:   config,
		out:      out,
	}
}

// ReportRun prints the run summary and writes CSV, XLSX and JSON into dir. It returns
// the paths written.
func (m *ReportingManager) ReportRun(result *backtest.RunResult, summary *backtest.Summary, dir string) ([]string, error) {
	if m.config.EnableConsole {
		m.reporter.PrintRunSummary(m.out, summary)
	}

	var written []string
	if m.config.CSVEnabled {
		if err := m.reporter.WriteRunCSV(result, dir); err != nil {
			return written, err
		}
		for _, f := range []string{DCASnapshotsFile, SentimentSnapshotsFile, DCATransactionsFile, SentimentTransactionsFile} {
			written = append(written, filepath.Join(dir, f))
		}
	}
	if m.config.ExcelEnabled {
		path := filepath.Join(dir, WorkbookFile)
		if err := m.reporter.WriteRunXLSX(result, summary, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if m.config.JSONEnabled {
		path := filepath.Join(dir, SummaryFile)
		if err := WriteRunSummaryJSON(summary, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	for _, p := range written {
		log.Printf("💾 Wrote %s", p)
	}
	return written, nil
}

// ReportSearch prints the search report and writes the text report to
// reportPath plus best.json into dir when JSON is enabled
func (m *ReportingManager) ReportSearch(report *optimization.SearchReport, reportPath, dir string) ([]string, error) {
	if m.config.EnableConsole {
		m.reporter.PrintSearchReport(m.out, report)
	}

	var written []string
	if reportPath != "" {
		if err := m.reporter.WriteSearchReport(report, reportPath); err != nil {
			return written, err
		}
		written = append(written, reportPath)
	}
	if m.config.JSONEnabled {
		path := filepath.Join(dir, BestConfigFile)
		if err := m.reporter.WriteBestConfigJSON(report, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	for _, p := range written {
		log.Printf("💾 Wrote %s", p)
	}
	return written, nil
}
