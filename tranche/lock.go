package tranche

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LOCK-TIME SCHEDULES
// =============================================================================
// When an admin locks a project, its payment schedule is generated once from
// the project's format. This table is separate from the wizard templates:
// the names and splits differ and both are kept as the business defines them.

type LockFormat string

const (
	FormatFilm        LockFormat = "film"
	FormatWebSeries   LockFormat = "web_series"
	FormatMicrodrama  LockFormat = "microdrama"
	FormatDocumentary LockFormat = "documentary"
	FormatOther       LockFormat = "other"
)

var lockTable = map[LockFormat][]int64{
	FormatFilm:        {20, 30, 30, 20},
	FormatWebSeries:   {15, 20, 25, 25, 15},
	FormatMicrodrama:  {30, 40, 30},
	FormatDocumentary: {25, 25, 30, 20},
	FormatOther:       {30, 40, 30},
}

// LockFormats lists formats in display order.
func LockFormats() []LockFormat {
	return []LockFormat{FormatFilm, FormatWebSeries, FormatMicrodrama, FormatDocumentary, FormatOther}
}

// ParseLockFormat validates a format string.
func ParseLockFormat(s string) (LockFormat, error) {
	f := LockFormat(s)
	if _, ok := lockTable[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLockFormat, s)
	}
	return f, nil
}

// LockPercentages returns the format's split in order.
func LockPercentages(f LockFormat) ([]decimal.Decimal, error) {
	row, ok := lockTable[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLockFormat, f)
	}
	out := make([]decimal.Decimal, len(row))
	for i, p := range row {
		out[i] = decimal.NewFromInt(p)
	}
	return out, nil
}

// LockTemplates names each lock tranche "Tranche N" with its share.
func LockTemplates(f LockFormat) ([]Template, error) {
	pcts, err := LockPercentages(f)
	if err != nil {
		return nil, err
	}
	templates := make([]Template, len(pcts))
	for i, p := range pcts {
		templates[i] = Template{
			Name:        fmt.Sprintf("Tranche %d", i+1),
			Description: fmt.Sprintf("%s%% of total budget", p.String()),
			Percentage:  p,
		}
	}
	return templates, nil
}

// LockSchedule materializes the locked payment schedule for a format.
func LockSchedule(f LockFormat, budget decimal.Decimal, newID func() string) ([]Tranche, error) {
	templates, err := LockTemplates(f)
	if err != nil {
		return nil, err
	}
	return Materialize(templates, clampBudget(budget), newID), nil
}
