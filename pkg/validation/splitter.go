package validation

import (
	"time"
)

// Minimum window sizes, in scheduled purchases
const (
	MinTrainWeeks = 8
	MinTestWeeks  = 4
)

// DefaultDataSplitter implements the DataSplitter interface
type DefaultDataSplitter struct{}

// NewDefaultDataSplitter creates a new default data splitter
func NewDefaultDataSplitter() *DefaultDataSplitter {
	return &DefaultDataSplitter{}
}

// SplitByRatio splits the schedule into train/test by ratio. An invalid ratio
// returns everything as train.
func (s *DefaultDataSplitter) SplitByRatio(dates []time.Time, ratio float64) ([]time.Time, []time.Time) {
	if ratio <= 0 || ratio >= 1 {
		return dates, nil
	}

	n := int(float64(len(dates)) * ratio)
	if n < 1 || n >= len(dates) {
		return dates, nil
	}

	return dates[:n], dates[n:]
}

// CreateRollingFolds creates rolling walk-forward folds over the schedule.
// Each fold trains on trainWeeks purchases and tests on the following
// testWeeks; the next fold starts rollWeeks later.
func (s *DefaultDataSplitter) CreateRollingFolds(dates []time.Time, trainWeeks, testWeeks, rollWeeks int) []WalkForwardFold {
	var folds []WalkForwardFold

	if trainWeeks < MinTrainWeeks || testWeeks < MinTestWeeks {
		return folds
	}
	if rollWeeks < 1 {
		rollWeeks = testWeeks
	}

	for start := 0; start+trainWeeks+testWeeks <= len(dates); start += rollWeeks {
		trainEnd := start + trainWeeks
		testEnd := trainEnd + testWeeks

		folds = append(folds, WalkForwardFold{
			TrainStart: dates[start],
			TrainEnd:   dates[trainEnd-1],
			TestStart:  dates[trainEnd],
			TestEnd:    dates[testEnd-1],
			TrainWeeks: trainWeeks,
			TestWeeks:  testWeeks,
		})
	}

	return folds
}

// holdoutFold turns a ratio split into a single fold, or false when either
// side is too short
func holdoutFold(splitter DataSplitter, dates []time.Time, ratio float64) (WalkForwardFold, bool) {
	train, test := splitter.SplitByRatio(dates, ratio)
	if len(train) < MinTrainWeeks || len(test) < MinTestWeeks {
		return WalkForwardFold{}, false
	}
	return WalkForwardFold{
		TrainStart: train[0],
		TrainEnd:   train[len(train)-1],
		TestStart:  test[0],
		TestEnd:    test[len(test)-1],
		TrainWeeks: len(train),
		TestWeeks:  len(test),
	}, true
}
