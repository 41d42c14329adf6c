package contracts

import "time"

// Fold is one expanding-window train/validation split over a TickerSeries.
// Ranges are half-open row indices: train [0, TrainEnd), validation
// [ValidationStart, ValidationEnd).
type Fold struct {
	Number          int       `json:"number"`
	TrainEnd        int       `json:"train_end"`
	ValidationStart int       `json:"validation_start"`
	ValidationEnd   int       `json:"validation_end"`
	From            time.Time `json:"from"` // validation window start (inclusive)
	To              time.Time `json:"to"`   // validation window end (exclusive)
}

// TrainSize returns the number of training rows
func (f Fold) TrainSize() int {
	return f.TrainEnd
}

// ValidationSize returns the number of validation rows
func (f Fold) ValidationSize() int {
	return f.ValidationEnd - f.ValidationStart
}

// TestSplit is the final hold-out partition: train [0, TrainEnd), test [TrainEnd, TestEnd)
type TestSplit struct {
	Cutoff   time.Time `json:"cutoff"`
	TrainEnd int       `json:"train_end"`
	TestEnd  int       `json:"test_end"`
}

// TestSize returns the number of hold-out rows
func (t TestSplit) TestSize() int {
	return t.TestEnd - t.TrainEnd
}

// SplitPlan bundles the folds and hold-out split of one ticker
type SplitPlan struct {
	Ticker string    `json:"ticker"`
	Folds  []Fold    `json:"folds"`
	Test   TestSplit `json:"test"`
}
