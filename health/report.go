package health

import (
	"slices"
	"time"
)

// Entry is the outcome of one registration within a Report.
type Entry struct {
	Status      Status
	Description string
	Duration    time.Duration
	Error       error
	Data        map[string]any
}

// IsZero reports whether e is the default entry that was never assigned a status.
func (e Entry) IsZero() bool {
	return e.Status == 0 && e.Description == "" && e.Duration == 0 && e.Error == nil && e.Data == nil
}

func newEntry(r Result, d time.Duration) Entry {
	data := r.Data
	if data == nil {
		data = map[string]any{}
	}
	return Entry{
		Status:      r.Status,
		Description: r.Description,
		Duration:    d,
		Error:       r.Error,
		Data:        data,
	}
}

// Report is the aggregate outcome of one invocation.
type Report struct {
	Entries       map[string]Entry
	Status        Status
	TotalDuration time.Duration
}

// NewReport builds a report whose status is the most severe entry status.
// An empty report is healthy.
func NewReport(entries map[string]Entry, total time.Duration) *Report {
	if entries == nil {
		entries = map[string]Entry{}
	}
	status := StatusHealthy
	for _, e := range entries {
		status = status.Worse(e.Status)
	}
	return &Report{
		Entries:       entries,
		Status:        status,
		TotalDuration: total,
	}
}

// Names returns the entry names in sorted order.
func (r *Report) Names() []string {
	names := make([]string, 0, len(r.Entries))
	for name := range r.Entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
