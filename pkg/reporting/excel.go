package reporting

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/backtest"
)

// Workbook sheet names
const (
	SummarySheet            = "Summary"
	CategoriesSheet         = "Categories"
	DCASnapshotsSheet       = "DCA Snapshots"
	SentimentSnapshotsSheet = "Sentiment Snapshots"
	TransactionsSheet       = "Transactions"
	BufferSheet             = "Buffer"
)

// DefaultExcelReporter implements Excel output functionality
type DefaultExcelReporter struct{}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{}
}

// WriteRunXLSX writes a workbook with the summary, category breakdown,
// per-strategy snapshots, all transactions and the buffer history
func (r *DefaultExcelReporter) WriteRunXLSX(result *backtest.RunResult, summary *backtest.Summary, path string) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), SummarySheet)
	for _, sheet := range []string{CategoriesSheet, DCASnapshotsSheet, SentimentSnapshotsSheet, TransactionsSheet, BufferSheet} {
		if _, err := fx.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}

	styles, err := r.createExcelStyles(fx)
	if err != nil {
		return err
	}

	steps := []func() error{
		func() error { return r.writeSummarySheet(fx, summary, styles) },
		func() error { return r.writeCategoriesSheet(fx, summary, styles) },
		func() error { return r.writeSnapshotsSheet(fx, DCASnapshotsSheet, result.DCASnapshots, styles) },
		func() error { return r.writeSnapshotsSheet(fx, SentimentSnapshotsSheet, result.SentimentSnapshots, styles) },
		func() error { return r.writeTransactionsSheet(fx, result, styles) },
		func() error { return r.writeBufferSheet(fx, result.BufferHistory, styles) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	return fx.SaveAs(path)
}

func (r *DefaultExcelReporter) createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	border := []excelize.Border{
		{Type: "left", Color: "E0E0E0", Style: 1},
		{Type: "right", Color: "E0E0E0", Style: 1},
		{Type: "bottom", Color: "E0E0E0", Style: 1},
	}

	// Header style - Dark blue background with white text
	styles.HeaderStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles, err
	}

	// Currency style (right aligned, $ format)
	styles.CurrencyStyle, err = fx.NewStyle(&excelize.Style{
		NumFmt:    7,
		Alignment: &excelize.Alignment{Horizontal: "right"},
		Border:    border,
	})
	if err != nil {
		return styles, err
	}

	// Percentages are stored as plain numbers (12.5 = 12.5%)
	pctFmt := `0.00"%"`
	styles.PercentStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &pctFmt,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       border,
	})
	if err != nil {
		return styles, err
	}

	styles.RedPercentStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &pctFmt,
		Font:         &excelize.Font{Color: "FF0000"},
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       border,
	})
	if err != nil {
		return styles, err
	}

	styles.GreenPercentStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &pctFmt,
		Font:         &excelize.Font{Color: "008000"},
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       border,
	})
	if err != nil {
		return styles, err
	}

	shareFmt := "0.000000"
	styles.NumberStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &shareFmt,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       border,
	})
	if err != nil {
		return styles, err
	}

	dateFmt := "yyyy-mm-dd"
	styles.DateStyle, err = fx.NewStyle(&excelize.Style{
		CustomNumFmt: &dateFmt,
		Alignment:    &excelize.Alignment{Horizontal: "center"},
		Border:       border,
	})
	if err != nil {
		return styles, err
	}

	styles.BaseStyle, err = fx.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return styles, err
	}

	styles.SummaryStyle, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "1F4E79"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"DDEBF7"},
			Pattern: 1,
		},
		Border: border,
	})
	return styles, err
}

// column describes one sheet column
type column struct {
	header string
	width  float64
	style  int
}

// writeTable writes a styled header row and then rows starting at row 2
func writeTable(fx *excelize.File, sheet string, cols []column, rows [][]interface{}, headerStyle int) error {
	for i, c := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := fx.SetColWidth(sheet, name, name, c.width); err != nil {
			return err
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, c.header)
		fx.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for r, row := range rows {
		for i, v := range row {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := fx.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
			if i < len(cols) && cols[i].style != 0 {
				fx.SetCellStyle(sheet, cell, cell, cols[i].style)
			}
		}
	}

	if len(rows) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(cols), len(rows)+1)
		fx.AutoFilter(sheet, "A1:"+last, []excelize.AutoFilterOptions{})
	}
	return fx.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func (r *DefaultExcelReporter) writeSummarySheet(fx *excelize.File, s *backtest.Summary, st ExcelStyles) error {
	pctStyle := func(v float64) int {
		if v < 0 {
			return st.RedPercentStyle
		}
		return st.GreenPercentStyle
	}

	cols := []column{
		{header: "Metric", width: 26, style: st.SummaryStyle},
		{header: s.DCA.Name, width: 18},
		{header: s.Sentiment.Name, width: 18},
	}
	type line struct {
		label    string
		dca, fg  float64
		style    int
		pctColor bool
	}
	lines := []line{
		{"Budget Received", s.DCA.BudgetReceived, s.Sentiment.BudgetReceived, st.CurrencyStyle, false},
		{"Total Invested", s.DCA.TotalInvested, s.Sentiment.TotalInvested, st.CurrencyStyle, false},
		{"Final Portfolio Value", s.DCA.FinalValue, s.Sentiment.FinalValue, st.CurrencyStyle, false},
		{"Final Cash", s.DCA.FinalCash, s.Sentiment.FinalCash, st.CurrencyStyle, false},
		{"Final Shares", s.DCA.FinalShares, s.Sentiment.FinalShares, st.NumberStyle, false},
		{"Total Return", s.DCA.TotalReturn, s.Sentiment.TotalReturn, st.CurrencyStyle, false},
		{"Total Return %", s.DCA.ReturnPct, s.Sentiment.ReturnPct, 0, true},
		{"Max Drawdown %", s.DCA.MaxDrawdownPct, s.Sentiment.MaxDrawdownPct, st.PercentStyle, false},
		{"Transactions", float64(s.DCA.Transactions), float64(s.Sentiment.Transactions), st.BaseStyle, false},
	}

	if err := writeTable(fx, SummarySheet, cols, nil, st.HeaderStyle); err != nil {
		return err
	}
	row := 2
	for _, l := range lines {
		a, _ := excelize.CoordinatesToCellName(1, row)
		b, _ := excelize.CoordinatesToCellName(2, row)
		c, _ := excelize.CoordinatesToCellName(3, row)
		fx.SetCellValue(SummarySheet, a, l.label)
		fx.SetCellStyle(SummarySheet, a, a, st.SummaryStyle)
		dca, fg := Round2(l.dca), Round2(l.fg)
		if l.style == st.NumberStyle {
			dca, fg = l.dca, l.fg
		}
		fx.SetCellValue(SummarySheet, b, dca)
		fx.SetCellValue(SummarySheet, c, fg)
		if l.pctColor {
			fx.SetCellStyle(SummarySheet, b, b, pctStyle(l.dca))
			fx.SetCellStyle(SummarySheet, c, c, pctStyle(l.fg))
		} else {
			fx.SetCellStyle(SummarySheet, b, c, l.style)
		}
		row++
	}

	row++
	extras := []struct {
		label string
		value interface{}
		style int
	}{
		{"Total Weeks", s.TotalWeeks, st.BaseStyle},
		{"Weekly Budget", s.WeeklyBudget, st.CurrencyStyle},
		{"Initial Cash", s.InitialCash, st.CurrencyStyle},
		{"Excess Return %", Round2(s.ExcessReturnPct), pctStyle(s.ExcessReturnPct)},
		{"Value Difference", Round2(s.ValueDifference), st.CurrencyStyle},
	}
	for _, e := range extras {
		a, _ := excelize.CoordinatesToCellName(1, row)
		b, _ := excelize.CoordinatesToCellName(2, row)
		fx.SetCellValue(SummarySheet, a, e.label)
		fx.SetCellStyle(SummarySheet, a, a, st.SummaryStyle)
		fx.SetCellValue(SummarySheet, b, e.value)
		fx.SetCellStyle(SummarySheet, b, b, e.style)
		row++
	}
	return nil
}

func (r *DefaultExcelReporter) writeCategoriesSheet(fx *excelize.File, s *backtest.Summary, st ExcelStyles) error {
	cols := []column{
		{"Category", 16, st.BaseStyle},
		{"Weeks", 10, st.BaseStyle},
		{"Multiplier", 12, st.NumberStyle},
		{"Trades", 10, st.BaseStyle},
		{"Desired Investment", 20, st.CurrencyStyle},
		{"Actual Investment", 20, st.CurrencyStyle},
	}
	rows := make([][]interface{}, 0, len(s.Categories))
	for _, c := range s.Categories {
		rows = append(rows, []interface{}{
			c.Category.String(), c.Weeks, c.Multiplier, c.Trades, Round2(c.DesiredSum), Round2(c.ActualSum),
		})
	}
	return writeTable(fx, CategoriesSheet, cols, rows, st.HeaderStyle)
}

func (r *DefaultExcelReporter) writeSnapshotsSheet(fx *excelize.File, sheet string, snaps []backtest.Snapshot, st ExcelStyles) error {
	cols := []column{
		{"Date", 12, st.DateStyle},
		{"Portfolio Value", 16, st.CurrencyStyle},
		{"Shares", 14, st.NumberStyle},
		{"Cash", 14, st.CurrencyStyle},
		{"Price", 12, st.CurrencyStyle},
		{"Fear & Greed", 14, st.BaseStyle},
	}
	rows := make([][]interface{}, 0, len(snaps))
	for _, s := range snaps {
		var fg interface{}
		if s.SentimentValue != nil {
			fg = *s.SentimentValue
		}
		rows = append(rows, []interface{}{s.Date, Round2(s.PortfolioValue), s.Shares, Round2(s.Cash), s.Price, fg})
	}
	return writeTable(fx, sheet, cols, rows, st.HeaderStyle)
}

func (r *DefaultExcelReporter) writeTransactionsSheet(fx *excelize.File, result *backtest.RunResult, st ExcelStyles) error {
	cols := []column{
		{"Strategy", 14, st.BaseStyle},
		{"Date", 12, st.DateStyle},
		{"Amount", 14, st.CurrencyStyle},
		{"Price", 12, st.CurrencyStyle},
		{"Shares Bought", 14, st.NumberStyle},
		{"Total Shares", 14, st.NumberStyle},
		{"Cash Balance", 14, st.CurrencyStyle},
		{"Fear & Greed", 12, st.BaseStyle},
		{"Category", 14, st.BaseStyle},
		{"Multiplier", 12, st.NumberStyle},
		{"Desired", 14, st.CurrencyStyle},
	}
	rows := make([][]interface{}, 0, len(result.DCATransactions)+len(result.SentimentTransactions))
	add := func(name string, txs []backtest.Transaction) {
		for _, tx := range txs {
			row := []interface{}{name, tx.Date, Round2(tx.Amount), tx.Price, tx.SharesBought, tx.TotalShares, Round2(tx.CashBalance)}
			if sig := tx.Signal; sig != nil {
				row = append(row, sig.SentimentValue, sig.Category.String(), sig.Multiplier, Round2(sig.DesiredInvestment))
			}
			rows = append(rows, row)
		}
	}
	add(backtest.StrategyDCA, result.DCATransactions)
	add(backtest.StrategySentiment, result.SentimentTransactions)
	return writeTable(fx, TransactionsSheet, cols, rows, st.HeaderStyle)
}

func (r *DefaultExcelReporter) writeBufferSheet(fx *excelize.File, history []backtest.BufferPoint, st ExcelStyles) error {
	cols := []column{
		{"Date", 12, st.DateStyle},
		{"Cash Buffer", 16, st.CurrencyStyle},
		{"Fear & Greed", 14, st.BaseStyle},
		{"Category", 16, st.BaseStyle},
	}
	rows := make([][]interface{}, 0, len(history))
	for _, p := range history {
		rows = append(rows, []interface{}{p.Date, Round2(p.Buffer), p.SentimentValue, p.Category.String()})
	}
	return writeTable(fx, BufferSheet, cols, rows, st.HeaderStyle)
}
