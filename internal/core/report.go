package core

import "time"

// Report is the result of one import. Every processed row appears in exactly
// one of Created, Skipped or Errors, each list in row order.
type Report struct {
	ID             string        `json:"id"`
	Locator        string        `json:"locator"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	TotalProcessed int           `json:"total_processed"`
	Created        []Created     `json:"created"`
	Skipped        []Skipped     `json:"skipped"`
	Errors         []RowError    `json:"errors"`
}

func newReport(id, locator string, started time.Time) *Report {
	return &Report{
		ID:        id,
		Locator:   locator,
		StartedAt: started,
		Created:   []Created{},
		Skipped:   []Skipped{},
		Errors:    []RowError{},
	}
}

func (r *Report) record(o Outcome) {
	switch v := o.(type) {
	case Created:
		r.Created = append(r.Created, v)
	case Skipped:
		r.Skipped = append(r.Skipped, v)
	case RowError:
		r.Errors = append(r.Errors, v)
	}
}

func (r *Report) CreatedCount() int { return len(r.Created) }
func (r *Report) SkippedCount() int { return len(r.Skipped) }
func (r *Report) ErrorCount() int   { return len(r.Errors) }

// SkippedIdentifiers lists the identifiers of skipped rows.
func (r *Report) SkippedIdentifiers() []string {
	ids := make([]string, len(r.Skipped))
	for i, s := range r.Skipped {
		ids[i] = s.Identifier
	}
	return ids
}

// ErrorMessages formats every row error as "Row N: message".
func (r *Report) ErrorMessages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.String()
	}
	return msgs
}

// Run converts the report to its history record.
func (r *Report) Run() ImportRun {
	return ImportRun{
		ID:        r.ID,
		Locator:   r.Locator,
		Total:     r.TotalProcessed,
		Created:   len(r.Created),
		Skipped:   len(r.Skipped),
		Errors:    len(r.Errors),
		StartedAt: r.StartedAt,
		Duration:  r.Duration,
	}
}

func (r *Report) progress(phase Phase) Progress {
	return Progress{
		Phase:     phase,
		Processed: r.TotalProcessed,
		Created:   len(r.Created),
		Skipped:   len(r.Skipped),
		Errors:    len(r.Errors),
	}
}
