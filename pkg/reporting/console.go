package reporting

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/optimization"
)

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

// PrintRunSummary prints the side-by-side strategy comparison, the category
// breakdown and buffer statistics
func (r *DefaultConsoleReporter) PrintRunSummary(w io.Writer, s *backtest.Summary) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(w, "📊 BACKTEST RESULTS")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "📅 Total Weeks:    %d\n", s.TotalWeeks)
	fmt.Fprintf(w, "💵 Weekly Budget:  $%s\n", Money(s.WeeklyBudget))
	fmt.Fprintf(w, "💰 Initial Cash:   $%s per strategy\n", Money(s.InitialCash))

	t := newTable(w, "STRATEGY COMPARISON")
	t.AppendHeader(table.Row{"", s.DCA.Name, s.Sentiment.Name})
	t.AppendRows([]table.Row{
		{"💵 Budget Received", "$" + Money(s.DCA.BudgetReceived), "$" + Money(s.Sentiment.BudgetReceived)},
		{"📥 Total Invested", "$" + Money(s.DCA.TotalInvested), "$" + Money(s.Sentiment.TotalInvested)},
		{"💼 Final Value", "$" + Money(s.DCA.FinalValue), "$" + Money(s.Sentiment.FinalValue)},
		{"🏦 Final Cash", "$" + Money(s.DCA.FinalCash), "$" + Money(s.Sentiment.FinalCash)},
		{"📦 Final Shares", Shares(s.DCA.FinalShares), Shares(s.Sentiment.FinalShares)},
		{"📈 Total Return", "$" + Money(s.DCA.TotalReturn), "$" + Money(s.Sentiment.TotalReturn)},
		{"📈 Return %", fmt.Sprintf("%.2f%%", s.DCA.ReturnPct), fmt.Sprintf("%.2f%%", s.Sentiment.ReturnPct)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", s.DCA.MaxDrawdownPct), fmt.Sprintf("%.2f%%", s.Sentiment.MaxDrawdownPct)},
		{"🔄 Transactions", s.DCA.Transactions, s.Sentiment.Transactions},
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 16, Align: text.AlignRight},
		{Number: 3, WidthMin: 16, Align: text.AlignRight},
	})
	t.Render()

	c := newTable(w, "WEEKS BY FEAR/GREED LEVEL")
	c.AppendHeader(table.Row{"Category", "Weeks", "Multiplier", "Trades", "Desired", "Invested"})
	for _, stat := range s.Categories {
		c.AppendRow(table.Row{
			stat.Category.String(),
			stat.Weeks,
			fmt.Sprintf("%.2fx", stat.Multiplier),
			stat.Trades,
			"$" + Money(stat.DesiredSum),
			"$" + Money(stat.ActualSum),
		})
	}
	c.Render()

	b := newTable(w, "CASH BUFFER")
	b.AppendRows([]table.Row{
		{"⬆️ Maximum", "$" + Money(s.Buffer.Max)},
		{"⬇️ Minimum", "$" + Money(s.Buffer.Min)},
		{"➗ Average", "$" + Money(s.Buffer.Mean)},
		{"🏁 Final", "$" + Money(s.Buffer.Final)},
	})
	b.Render()

	fmt.Fprintln(w, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(w, "⚖️ FEAR/GREED vs DCA")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Budget Difference:  $%s\n", Money(math.Abs(s.DCA.BudgetReceived-s.Sentiment.BudgetReceived)))
	fmt.Fprintf(w, "Value Difference:   $%s\n", Money(s.ValueDifference))
	fmt.Fprintf(w, "Excess Return:      %+.2f%%\n", s.ExcessReturnPct)
	if s.ExcessReturnPct > 0 {
		fmt.Fprintf(w, "✅ Fear/Greed strategy outperformed by %.2f%%\n", s.ExcessReturnPct)
	} else {
		fmt.Fprintf(w, "❌ DCA strategy outperformed by %.2f%%\n", math.Abs(s.ExcessReturnPct))
	}
}

// PrintSearchReport prints the best parameters and the top-N table
func (r *DefaultConsoleReporter) PrintSearchReport(w io.Writer, report *optimization.SearchReport) {
	fmt.Fprintln(w, "\n"+strings.Repeat("=", 80))
	fmt.Fprintln(w, "🏆 OPTIMIZATION COMPLETE!")
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintf(w, "Session:              %s\n", report.SessionID)
	fmt.Fprintf(w, "Best Portfolio Value: $%s\n", Money(report.BestValue))
	fmt.Fprintf(w, "Excess Return vs DCA: %.2f%%\n", report.Best.ExcessReturnPct)
	fmt.Fprintf(w, "Evaluations:          %d successful / %d calls (%d infeasible, %d failed)\n",
		report.TotalEvaluations, report.ObjectiveCalls, report.ConstraintViolations, report.SimulationFailures)
	fmt.Fprintf(w, "Duration:             %s\n", report.Duration.Round(time.Millisecond))

	p := newTable(w, "BEST PARAMETERS")
	for _, c := range categoriesOf(report.BestParams) {
		p.AppendRow(table.Row{c.name, fmt.Sprintf("%.2f", c.value)})
	}
	p.Render()

	t := newTable(w, fmt.Sprintf("TOP %d RESULTS", len(report.Top)))
	t.AppendHeader(table.Row{"#", "EF", "F", "N", "G", "EG", "Portfolio", "Excess"})
	for i, ev := range report.Top {
		m := ev.Multipliers
		t.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%.2f", m[0]), fmt.Sprintf("%.2f", m[1]), fmt.Sprintf("%.2f", m[2]),
			fmt.Sprintf("%.2f", m[3]), fmt.Sprintf("%.2f", m[4]),
			"$" + Money(ev.FinalValue),
			fmt.Sprintf("%.2f%%", ev.ExcessReturnPct),
		})
	}
	t.Render()
}
