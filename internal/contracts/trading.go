package contracts

import (
	"fmt"
	"strings"
	"time"
)

// Direction is the binary recommendation for one ticker on one day
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Sign returns +1 for long, -1 for short
func (d Direction) Sign() int {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// Valid reports whether d is long or short
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// ParseDirection accepts long/buy and short/sell
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return DirectionLong, nil
	case "short", "sell":
		return DirectionShort, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// Recommendation is the model output for one (day, ticker)
// ⭐ SSOT: 외부 모델 → 시뮬레이션 입력
type Recommendation struct {
	Date      time.Time `json:"date"`
	Ticker    string    `json:"ticker"`
	Direction Direction `json:"direction"`
}

// DayEntry is one ticker's input to a simulated day.
// Direction or Return may be nil when the upstream value is missing.
type DayEntry struct {
	Ticker    string     `json:"ticker"`
	Direction *Direction `json:"direction"`
	Return    *float64   `json:"return"` // realized next-period change, fraction
}

// TradingDay holds every entry for one simulated day
type TradingDay struct {
	Date    time.Time  `json:"date"`
	Entries []DayEntry `json:"entries"`
}

// Entry looks up the entry of ticker
func (d *TradingDay) Entry(ticker string) (DayEntry, bool) {
	for _, e := range d.Entries {
		if e.Ticker == ticker {
			return e, true
		}
	}
	return DayEntry{}, false
}
