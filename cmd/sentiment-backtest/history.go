package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ducminhle1904/sentiment-dca-backtest/cmd/common"
	"github.com/ducminhle1904/sentiment-dca-backtest/internal/recorder"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/config"
	"github.com/ducminhle1904/sentiment-dca-backtest/pkg/reporting"
)

func newHistoryCmd() *cobra.Command {
	var (
		dbPath    string
		sessionID string
		topN      int
	)

	cmd := &cobra.Command{
		Use:     "history",
		Short:   "Show the best recorded evaluations of a search session",
		Example: `  sentiment-backtest history --db results/search.db --session 6f1c... --top 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := common.NewFlagValidator().
				Require("db", dbPath).
				Require("session", sessionID).
				ValidateFile("database", dbPath, false).
				ValidateInt("top", topN, 1, 1000)
			if err := v.GetError(); err != nil {
				return err
			}

			rec, err := recorder.NewSQLiteRecorder(dbPath)
			if err != nil {
				return err
			}
			defer rec.Close()

			evals, err := rec.TopEvaluations(cmd.Context(), sessionID, topN)
			if err != nil {
				return err
			}
			if len(evals) == 0 {
				return fmt.Errorf("no evaluations recorded for session %s", sessionID)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleRounded)
			t.SetTitle(fmt.Sprintf("SESSION %s", sessionID))
			t.AppendHeader(table.Row{"#", "Eval", "Multipliers", "Fear/Greed", "DCA", "Excess"})
			for i, e := range evals {
				t.AppendRow(table.Row{
					i + 1,
					e.Index,
					e.Multipliers.String(),
					"$" + reporting.Money(e.FinalValue),
					"$" + reporting.Money(e.DCAFinalValue),
					fmt.Sprintf("%.2f%%", e.ExcessReturnPct),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database written by optimize --db")
	cmd.Flags().StringVar(&sessionID, "session", "", "Search session ID")
	cmd.Flags().IntVar(&topN, "top", config.DefaultTopN, "Number of evaluations to show")
	return cmd
}
