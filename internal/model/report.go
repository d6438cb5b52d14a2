package model

// ComparisonStatus is the terminal state of one field comparison.
type ComparisonStatus string

const (
	StatusMatch              ComparisonStatus = "match"
	StatusMismatch           ComparisonStatus = "mismatch"
	StatusMissingInSource    ComparisonStatus = "missing_in_source"
	StatusMissingInCanonical ComparisonStatus = "missing_in_canonical"
	StatusUnverifiable       ComparisonStatus = "unverifiable"
)

// AllComparisonStatuses returns all defined comparison statuses.
func AllComparisonStatuses() []ComparisonStatus {
	return []ComparisonStatus{
		StatusMatch,
		StatusMismatch,
		StatusMissingInSource,
		StatusMissingInCanonical,
		StatusUnverifiable,
	}
}

// FieldComparison is the outcome for one canonical field path. Values are
// captured verbatim, before normalization.
type FieldComparison struct {
	FieldPath      string           `json:"field_path"`
	Status         ComparisonStatus `json:"status"`
	SourceLabel    string           `json:"source_label,omitempty"`
	SourceValue    string           `json:"source_value,omitempty"`
	CanonicalValue string           `json:"canonical_value,omitempty"`
}

// StatusCounts aggregates comparisons by status.
type StatusCounts struct {
	Match              int `json:"match"`
	Mismatch           int `json:"mismatch"`
	MissingInSource    int `json:"missing_in_source"`
	MissingInCanonical int `json:"missing_in_canonical"`
	Unverifiable       int `json:"unverifiable"`
}

// Add increments the counter for status.
func (c *StatusCounts) Add(status ComparisonStatus) {
	switch status {
	case StatusMatch:
		c.Match++
	case StatusMismatch:
		c.Mismatch++
	case StatusMissingInSource:
		c.MissingInSource++
	case StatusMissingInCanonical:
		c.MissingInCanonical++
	case StatusUnverifiable:
		c.Unverifiable++
	}
}

// Merge adds other into c.
func (c *StatusCounts) Merge(other StatusCounts) {
	c.Match += other.Match
	c.Mismatch += other.Mismatch
	c.MissingInSource += other.MissingInSource
	c.MissingInCanonical += other.MissingInCanonical
	c.Unverifiable += other.Unverifiable
}

// Total returns the number of comparisons counted.
func (c StatusCounts) Total() int {
	return c.Match + c.Mismatch + c.MissingInSource + c.MissingInCanonical + c.Unverifiable
}

// ReconciliationReport is the per-record outcome of the reconciler.
type ReconciliationReport struct {
	ProjectKey      string            `json:"project_key"`
	TaxonomyVersion string            `json:"taxonomy_version"`
	Counts          StatusCounts      `json:"counts"`
	Comparisons     []FieldComparison `json:"comparisons"`
}

// Clean reports whether no comparison diverged.
func (r ReconciliationReport) Clean() bool {
	return r.Counts.Mismatch == 0
}

// Filter returns the comparisons with the given status.
func (r ReconciliationReport) Filter(status ComparisonStatus) []FieldComparison {
	var out []FieldComparison
	for _, c := range r.Comparisons {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out
}
