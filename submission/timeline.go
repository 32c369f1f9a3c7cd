package submission

import (
	"time"
)

// =============================================================================
// TIMELINE STEP
// =============================================================================

// Timeline is entered as a start date plus phase lengths; phase end dates
// are derived.
type Timeline struct {
	StartDate           string `json:"start_date"`
	PreProductionWeeks  int    `json:"pre_production_weeks"`
	ShootDays           int    `json:"shoot_days"`
	PostProductionWeeks int    `json:"post_production_weeks"`
}

// Milestones are the derived phase boundaries.
type Milestones struct {
	Start            time.Time
	PreProductionEnd time.Time
	ShootEnd         time.Time
	Delivery         time.Time
}

// TotalDays is the calendar length from start to delivery.
func (m Milestones) TotalDays() int { return daysBetween(m.Start, m.Delivery) }

// Milestones derives phase end dates. ok is false when no valid start date
// has been entered yet.
func (t Timeline) Milestones() (Milestones, bool) {
	start, err := parseDate(t.StartDate)
	if err != nil {
		return Milestones{}, false
	}
	preEnd := addDays(start, 7*nonNegative(t.PreProductionWeeks))
	shootEnd := addDays(preEnd, nonNegative(t.ShootDays))
	delivery := addDays(shootEnd, 7*nonNegative(t.PostProductionWeeks))
	return Milestones{
		Start:            start,
		PreProductionEnd: preEnd,
		ShootEnd:         shootEnd,
		Delivery:         delivery,
	}, true
}

// PaymentDates spreads n expected payment dates over the timeline: the
// first on the start date, the last on delivery, the rest evenly between.
func (m Milestones) PaymentDates(n int) []string {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []string{formatDate(m.Delivery)}
	}
	span := m.TotalDays()
	dates := make([]string, n)
	for i := 0; i < n; i++ {
		dates[i] = formatDate(addDays(m.Start, span*i/(n-1)))
	}
	return dates
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

func parseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

func formatDate(t time.Time) string { return t.Format(time.DateOnly) }

func addDays(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }

func daysBetween(from, to time.Time) int { return int(to.Sub(from).Hours() / 24) }

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
