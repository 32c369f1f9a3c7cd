package tranche

import "github.com/shopspring/decimal"

// =============================================================================
// TEMPLATE TABLE
// =============================================================================
// Percentages are expected to sum to 100 for every project type. The table is
// not checked at definition time; TestResolve_TemplatesSumToHundred guards it.

var standardFilmPlan = []templateRow{
	{"Signing Advance", "Released on contract signing", 25},
	{"Pre-Production Complete", "Script lock, casting and recce sign-off", 25},
	{"Principal Photography Wrap", "Shoot completed and rushes delivered", 40},
	{"Final Delivery", "Master, deliverables and QC approval", 10},
}

var templateTable = map[ProjectType][]templateRow{
	ProjectFeature:       standardFilmPlan,
	ProjectMini:          standardFilmPlan,
	ProjectLimitedSeries: standardFilmPlan,
	ProjectLongSeries: {
		{"Signing Advance", "Released on contract signing", 25},
		{"Episode Block 1", "First block of episodes delivered", 20},
		{"Episode Block 2", "Second block of episodes delivered", 20},
		{"Episode Block 3", "Third block of episodes delivered", 20},
		{"Final Delivery", "Remaining episodes, deliverables and QC approval", 15},
	},
	ProjectMicrodrama: {
		{"Signing Advance", "Released on contract signing", 50},
		{"Final Delivery", "All episodes delivered and QC approved", 50},
	},
}

type templateRow struct {
	name        string
	description string
	percentage  int64
}

// Resolve returns the ordered milestone templates for a project type. The
// result is a fresh slice; callers may modify it. Unknown types yield nil.
func Resolve(pt ProjectType) []Template {
	rows, ok := templateTable[pt]
	if !ok {
		return nil
	}
	templates := make([]Template, len(rows))
	for i, r := range rows {
		templates[i] = Template{
			Name:        r.name,
			Description: r.description,
			Percentage:  decimal.NewFromInt(r.percentage),
		}
	}
	return templates
}
