package backtest

import (
	"math"
	"time"

	"github.com/ducminhle1904/sentiment-dca-backtest/internal/sentiment"
)

// Strategy names used in reports
const (
	StrategyDCA       = "DCA"
	StrategySentiment = "Fear & Greed"
)

// Observation is the data both strategies see on one scheduled date.
type Observation struct {
	Date           time.Time
	Price          float64
	SentimentValue float64
	Category       sentiment.Category
}

// StrategyState is the mutable position of one strategy during a run.
type StrategyState struct {
	Cash   float64
	Shares float64
}

// Signal carries the sentiment-specific part of a sentiment purchase.
type Signal struct {
	SentimentValue    float64
	Category          sentiment.Category
	Multiplier        float64
	DesiredInvestment float64
}

// Transaction is one executed purchase.
type Transaction struct {
	Date         time.Time
	Amount       float64
	SharesBought float64
	TotalShares  float64
	CashBalance  float64
	Price        float64
	Signal       *Signal
}

// Snapshot is the post-expense state of a strategy on a scheduled date.
type Snapshot struct {
	Date           time.Time
	PortfolioValue float64
	Shares         float64
	Cash           float64
	Price          float64
	SentimentValue *float64
}

// Strategy advances its own state by one scheduled date.
type Strategy interface {
	Name() string
	Advance(obs Observation) (*Transaction, Snapshot)
	BudgetReceived() float64
	State() StrategyState
}

// position holds what both strategies share: state, budget accounting,
// and the expense drag.
type position struct {
	state          StrategyState
	budget         float64
	fee            float64
	expenseRatio   float64
	budgetReceived float64
}

func (p *position) BudgetReceived() float64 { return p.budgetReceived }

func (p *position) State() StrategyState { return p.state }

func (p *position) buy(amount, price float64) float64 {
	shares := (amount - p.fee) / price
	p.state.Shares += shares
	p.state.Cash -= amount
	return shares
}

// settle charges one interval of fund expenses and returns the portfolio value.
func (p *position) settle(price float64) float64 {
	value := p.state.Cash + p.state.Shares*price
	if p.state.Shares > 0 {
		expense := p.state.Shares * price * p.expenseRatio / DaysPerYear
		value -= expense
		p.state.Shares = math.Max(0, p.state.Shares-expense/price)
	}
	return value
}

// DCAStrategy invests the full weekly budget every week.
type DCAStrategy struct {
	position
}

// NewDCAStrategy creates a DCA strategy with the given starting cash
func NewDCAStrategy(cfg Config) *DCAStrategy {
	return &DCAStrategy{position{
		state:        StrategyState{Cash: cfg.InitialCash},
		budget:       cfg.WeeklyBudget,
		fee:          cfg.TransactionFee,
		expenseRatio: cfg.AnnualExpenseRatio,
	}}
}

// Name returns the strategy label
func (s *DCAStrategy) Name() string { return StrategyDCA }

// Advance deposits the weekly budget and spends exactly that budget once cash
// covers budget plus fee. The fee is taken out of the purchase, so a fee above
// the budget blocks buying.
func (s *DCAStrategy) Advance(obs Observation) (*Transaction, Snapshot) {
	s.budgetReceived += s.budget
	s.state.Cash += s.budget

	var tx *Transaction
	if s.budget >= s.fee && s.state.Cash >= s.budget+s.fee {
		bought := s.buy(s.budget, obs.Price)
		tx = &Transaction{
			Date:         obs.Date,
			Amount:       s.budget,
			SharesBought: bought,
			TotalShares:  s.state.Shares,
			CashBalance:  s.state.Cash,
			Price:        obs.Price,
		}
	}

	value := s.settle(obs.Price)
	return tx, Snapshot{
		Date:           obs.Date,
		PortfolioValue: value,
		Shares:         s.state.Shares,
		Cash:           s.state.Cash,
		Price:          obs.Price,
	}
}

// SentimentStrategy scales the weekly investment by the category multiplier
// and keeps what it does not spend in a cash buffer.
type SentimentStrategy struct {
	position
	multipliers sentiment.MultiplierConfig
}

// NewSentimentStrategy creates a sentiment strategy with the given multipliers
func NewSentimentStrategy(cfg Config, multipliers sentiment.MultiplierConfig) *SentimentStrategy {
	return &SentimentStrategy{
		position: position{
			state:        StrategyState{Cash: cfg.InitialCash},
			budget:       cfg.WeeklyBudget,
			fee:          cfg.TransactionFee,
			expenseRatio: cfg.AnnualExpenseRatio,
		},
		multipliers: multipliers,
	}
}

// Name returns the strategy label
func (s *SentimentStrategy) Name() string { return StrategySentiment }

// Advance deposits the weekly budget into the buffer and spends
// min(budget*multiplier, buffer). The fee comes out of the spent amount.
func (s *SentimentStrategy) Advance(obs Observation) (*Transaction, Snapshot) {
	s.budgetReceived += s.budget
	s.state.Cash += s.budget

	mult := s.multipliers.For(obs.Category)
	desired := s.budget * mult
	actual := math.Min(desired, s.state.Cash)

	var tx *Transaction
	if actual > s.fee {
		bought := s.buy(actual, obs.Price)
		tx = &Transaction{
			Date:         obs.Date,
			Amount:       actual,
			SharesBought: bought,
			TotalShares:  s.state.Shares,
			CashBalance:  s.state.Cash,
			Price:        obs.Price,
			Signal: &Signal{
				SentimentValue:    obs.SentimentValue,
				Category:          obs.Category,
				Multiplier:        mult,
				DesiredInvestment: desired,
			},
		}
	}

	value := s.settle(obs.Price)
	sv := obs.SentimentValue
	return tx, Snapshot{
		Date:           obs.Date,
		PortfolioValue: value,
		Shares:         s.state.Shares,
		Cash:           s.state.Cash,
		Price:          obs.Price,
		SentimentValue: &sv,
	}
}
