package core

import "math"

type TrendDirection string

const (
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendNeutral TrendDirection = "neutral"
)

// TrendThreshold is the relative change, in percent, that must be exceeded
// in either direction before a period counts as up or down.
const TrendThreshold = 10.0

// Trend compares a period with the same period one year earlier.
// Percent is the absolute relative change with one decimal and is zero
// for neutral trends.
type Trend struct {
	Direction TrendDirection
	Percent   float64
}

// ClassifyTrend compares current against prior. A period with nothing
// spent on either side is always neutral.
func ClassifyTrend(current, prior Money) Trend {
	if current.Cents == 0 || prior.Cents == 0 {
		return Trend{Direction: TrendNeutral}
	}
	change := float64(current.Cents-prior.Cents) / float64(prior.Cents) * 100
	change = math.Round(change*10) / 10
	switch {
	case change > TrendThreshold:
		return Trend{Direction: TrendUp, Percent: change}
	case change < -TrendThreshold:
		return Trend{Direction: TrendDown, Percent: -change}
	default:
		return Trend{Direction: TrendNeutral}
	}
}

// Arrow renders the direction as a single glyph, empty for neutral.
func (t Trend) Arrow() string {
	switch t.Direction {
	case TrendUp:
		return "↑"
	case TrendDown:
		return "↓"
	default:
		return ""
	}
}
