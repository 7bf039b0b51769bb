// Package history defines working copy history domain types and events.
package history

import "time"

// WorkingCopy identifies a tracked resource and its display name.
type WorkingCopy struct {
	Resource string `json:"resource"`
	Name     string `json:"name"`
}

// Entry represents one recorded snapshot of a working copy's content.
type Entry struct {
	ID          string      `json:"id"`
	Timestamp   int64       `json:"timestamp"` // unix milliseconds
	Source      string      `json:"source,omitempty"`
	WorkingCopy WorkingCopy `json:"working_copy"`
	Location    string      `json:"location"` // path of the immutable snapshot file
}

// Time returns the entry timestamp as a time.Time.
func (e *Entry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Descriptor returns the index record persisted for this entry.
func (e *Entry) Descriptor() Descriptor {
	return Descriptor{ID: e.ID, Timestamp: e.Timestamp, Source: e.Source}
}

// Descriptor is the persisted index record for one entry. The snapshot
// file stored next to the index is named by ID.
type Descriptor struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Source    string `json:"source,omitempty"`
}
