package clinic

import (
	"math"
	"sort"
	"time"
)

// RevenueSummary is the finance view computed from the stored payments.
type RevenueSummary struct {
	Total           float64   `json:"total"`
	Goal            float64   `json:"goal"`
	ProgressPercent float64   `json:"progressPercent"`
	ProgressCapped  int       `json:"progressCapped"`
	Remaining       float64   `json:"remaining"`
	GoalReached     bool      `json:"goalReached"`
	Payments        []Payment `json:"payments"`
}

// Revenue sums payments and measures progress against the monthly goal.
// Payments are returned newest first; the record itself is left in storage order.
func Revenue(r *Record) RevenueSummary {
	summary := RevenueSummary{Payments: []Payment{}}
	if r == nil {
		return summary
	}
	for _, p := range r.Payments {
		summary.Total += p.Amount
	}
	summary.Goal = r.MonthlyGoal
	if r.MonthlyGoal > 0 {
		summary.ProgressPercent = summary.Total / r.MonthlyGoal * 100
	}
	summary.ProgressCapped = int(math.Min(100, math.Round(summary.ProgressPercent)))
	summary.GoalReached = summary.ProgressPercent >= 100
	summary.Remaining = math.Max(0, r.MonthlyGoal-summary.Total)
	summary.Payments = SortPaymentsByDateDesc(r.Payments)
	return summary
}

// SortPaymentsByDateDesc returns a copy sorted newest first. Unparseable dates
// sort last; ties keep storage order.
func SortPaymentsByDateDesc(payments []Payment) []Payment {
	out := append([]Payment{}, payments...)
	sort.SliceStable(out, func(i, j int) bool {
		ti, okI := parsePaymentDate(out[i].Date)
		tj, okJ := parsePaymentDate(out[j].Date)
		switch {
		case okI && okJ:
			return ti.After(tj)
		case okI:
			return true
		default:
			return false
		}
	})
	return out
}

func parsePaymentDate(s string) (time.Time, bool) {
	for _, layout := range []string{dateLayout, time.RFC3339, visitLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
