package calculator

import (
	"errors"
	"math"

	"StockTracker/internal/model"
)

var errNoBars = errors.New("no bars provided")

// SessionStats summarizes a session's bars for the chart header.
type SessionStats struct {
	Open      float64
	High      float64
	Low       float64
	Last      float64
	Change    float64 // Last - Open
	ChangePct float64
	Volume    float64
	Bars      int
	Position  float64 // where Last sits within [Low, High], 0.0~1.0
}

// CalculateRange scans bars and returns the highest high and lowest low.
func CalculateRange(bars []model.Bar) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errNoBars
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// CalculatePosition returns where current sits within the range (0.0~1.0).
func CalculatePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// CalculateSessionStats summarizes series, which must be in time order.
func CalculateSessionStats(series model.BarSeries) (SessionStats, error) {
	high, low, err := CalculateRange(series)
	if err != nil {
		return SessionStats{}, err
	}
	s := SessionStats{
		Open: series[0].Open,
		High: high,
		Low:  low,
		Last: series[len(series)-1].Close,
		Bars: len(series),
	}
	for _, b := range series {
		s.Volume += b.Volume
	}
	s.Change = s.Last - s.Open
	if s.Open != 0 {
		s.ChangePct = s.Change / s.Open * 100
	}
	s.Position, err = CalculatePosition(s.Last, high, low)
	return s, err
}
