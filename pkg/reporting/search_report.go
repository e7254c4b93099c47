package reporting

import (
	"fmt"
	"os"
	"strings"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/optimization"
)

const searchReportTitle = "Sentiment Multiplier Optimization Results"

type namedValue struct {
	name  string
	value float64
}

func categoriesOf(m sentiment.MultiplierConfig) []namedValue {
	out := make([]namedValue, 0, sentiment.NumCategories)
	for _, c := range sentiment.Categories {
		out = append(out, namedValue{name: c.String(), value: m.For(c)})
	}
	return out
}

// FormatSearchReport renders the plain-text search report
func FormatSearchReport(report *optimization.SearchReport) string {
	var b strings.Builder
	b.WriteString(searchReportTitle + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "Best Portfolio Value: $%.2f\n", report.BestValue)
	fmt.Fprintf(&b, "Best Parameters: %s\n", report.BestParams)
	fmt.Fprintf(&b, "Total Evaluations: %d\n\n", report.TotalEvaluations)
	fmt.Fprintf(&b, "Top %d Results:\n", len(report.Top))
	for i, ev := range report.Top {
		m := ev.Multipliers
		fmt.Fprintf(&b, "%2d.) EF=%.2f, F=%.2f, N=%.2f, G=%.2f, EG=%.2f : $%.2f (Excess: %.2f%%)\n",
			i+1, m[0], m[1], m[2], m[3], m[4], ev.FinalValue, ev.ExcessReturnPct)
	}
	return b.String()
}

// WriteSearchReport writes the plain-text search report to path
func WriteSearchReport(report *optimization.SearchReport, path string) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(FormatSearchReport(report)), 0644)
}
