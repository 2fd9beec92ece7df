package allowance

import (
	"github.com/shopspring/decimal"

	"github.com/warp/shift-allowance/calendar"
)

// =============================================================================
// ALLOWANCE TIER - Month total against the monthly target
// =============================================================================

// Tier is the allowance level a month total reaches.
type Tier string

const (
	TierNone Tier = "none"
	TierHalf Tier = "half"
	TierFull Tier = "full"
)

// Thresholds are the monthly hour targets for half and full allowance.
type Thresholds struct {
	Full decimal.Decimal `json:"full"`
	Half decimal.Decimal `json:"half"`
}

// DefaultThresholds is 50 hours for full allowance and 25 for half.
func DefaultThresholds() Thresholds {
	return Thresholds{Full: decimal.NewFromInt(50), Half: decimal.NewFromInt(25)}
}

// Assessment is the tier outcome for one month.
type Assessment struct {
	Month       string          `json:"month"` // YYYY-MM
	Hours       decimal.Decimal `json:"hours"`
	Progress    decimal.Decimal `json:"progress"` // percent of Full, capped at 100
	Tier        Tier            `json:"tier"`
	HoursToHalf decimal.Decimal `json:"hours_to_half"`
	HoursToFull decimal.Decimal `json:"hours_to_full"`
	EarnedCO    int             `json:"earned_co"`
}

var hundred = decimal.NewFromInt(100)

// Assess grades a month aggregate.
func Assess(month Detail, earnedCO int, th Thresholds) Assessment {
	a := Assessment{
		Month:       calendar.MonthKey(month.Start),
		Hours:       month.Hours,
		Progress:    hundred,
		Tier:        TierNone,
		HoursToHalf: remaining(th.Half, month.Hours),
		HoursToFull: remaining(th.Full, month.Hours),
		EarnedCO:    earnedCO,
	}
	if th.Full.IsPositive() {
		a.Progress = decimal.Min(hundred, month.Hours.Mul(hundred).Div(th.Full)).Round(2)
	}
	switch {
	case month.Hours.GreaterThanOrEqual(th.Full):
		a.Tier = TierFull
	case month.Hours.GreaterThanOrEqual(th.Half):
		a.Tier = TierHalf
	}
	return a
}

// AssessAll grades every month of a result, in result order.
func AssessAll(r ComputeResult, th Thresholds) []Assessment {
	out := make([]Assessment, len(r.Month))
	for i, m := range r.Month {
		co := 0
		if i < len(r.EarnedCO) {
			co = r.EarnedCO[i]
		}
		out[i] = Assess(m, co, th)
	}
	return out
}

func remaining(target, hours decimal.Decimal) decimal.Decimal {
	if hours.GreaterThanOrEqual(target) {
		return decimal.Zero
	}
	return target.Sub(hours)
}
