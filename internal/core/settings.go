package core

// Settings are the user-tunable knobs consumed by the stat aggregator and
// report generator. Report generation always works from an immutable
// snapshot of these, never from shared mutable state.
type Settings struct {
	// RecentMonthCount is the trailing window, in months, used as the
	// statistical baseline for averages.
	RecentMonthCount int `json:"recentMonthCount"`
	// MaxGraphCategories caps how many categories chart aggregates carry
	// before folding the remainder into a single bucket.
	MaxGraphCategories int `json:"maxGraphCategories"`
	// RequiredDaysForLatestMonth excludes the in-progress month from the
	// recent window until this day of the month has been reached, so a
	// half-complete month never skews the baseline.
	RequiredDaysForLatestMonth int `json:"requiredDaysForLatestMonth"`
	// ReportColorDeadZone is the absolute deviation from the mean that is
	// ignored entirely when scoring report cells.
	ReportColorDeadZone float64 `json:"reportColorDeadZone"`
	// ReportColorSevereZScore is the z-score at which a cell's deviation
	// severity saturates at ±1.
	ReportColorSevereZScore float64 `json:"reportColorSevereZScore"`
}

// DefaultSettings returns the stock configuration.
func DefaultSettings() Settings {
	return Settings{
		RecentMonthCount:           24,
		MaxGraphCategories:         8,
		RequiredDaysForLatestMonth: 25,
		ReportColorDeadZone:        5,
		ReportColorSevereZScore:    2,
	}
}

// Sanitized replaces out-of-range values with their defaults so a corrupt
// persisted settings blob can never produce divide-by-zero scoring.
func (s Settings) Sanitized() Settings {
	d := DefaultSettings()
	if s.RecentMonthCount < 1 {
		s.RecentMonthCount = d.RecentMonthCount
	}
	if s.MaxGraphCategories < 1 {
		s.MaxGraphCategories = d.MaxGraphCategories
	}
	if s.RequiredDaysForLatestMonth < 1 || s.RequiredDaysForLatestMonth > 31 {
		s.RequiredDaysForLatestMonth = d.RequiredDaysForLatestMonth
	}
	if s.ReportColorDeadZone < 0 {
		s.ReportColorDeadZone = d.ReportColorDeadZone
	}
	if s.ReportColorSevereZScore <= 0 {
		s.ReportColorSevereZScore = d.ReportColorSevereZScore
	}
	return s
}
