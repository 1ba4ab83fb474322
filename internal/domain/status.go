package domain

// Status is the lifecycle state of a soft-deletable record.
// Records only ever move from active to inactive; reads default to active.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// IsActive reports whether the record is visible to reads.
func (s Status) IsActive() bool {
	return s == StatusActive
}
