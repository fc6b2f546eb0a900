package models

import "time"

// AssignmentMode records which allocation path produced an entry.
type AssignmentMode string

const (
	// AssignmentPrimary satisfied every enforced rule and the weekly quota.
	AssignmentPrimary AssignmentMode = "primary"
	// AssignmentRelaxed satisfied every enforced rule but exceeded the quota.
	AssignmentRelaxed AssignmentMode = "relaxed"
	// AssignmentOverride bypassed clash and capacity checks to fill the slot.
	AssignmentOverride AssignmentMode = "override"
	// AssignmentFixed came from a pre-pinned fixed slot.
	AssignmentFixed AssignmentMode = "fixed"
)

// Degraded reports whether the mode breaks the weekly quota or a hard rule.
func (m AssignmentMode) Degraded() bool {
	return m == AssignmentRelaxed || m == AssignmentOverride
}

// TimetableEntry is one allocated class.
type TimetableEntry struct {
	ID          EntryID        `db:"id" json:"id"`
	SectionID   SectionID      `db:"section_id" json:"section_id"`
	Day         Weekday        `db:"day" json:"day"`
	TimeSlotID  TimeSlotID     `db:"time_slot_id" json:"time_slot_id"`
	SubjectID   SubjectID      `db:"subject_id" json:"subject_id"`
	ClassroomID ClassroomID    `db:"classroom_id" json:"classroom_id"`
	FacultyID   FacultyID      `db:"faculty_id" json:"faculty_id"`
	IsFixed     bool           `db:"is_fixed" json:"is_fixed"`
	Mode        AssignmentMode `db:"assignment_mode" json:"assignment_mode"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// TimetableEntryFilter narrows entry listings.
type TimetableEntryFilter struct {
	SectionID SectionID
	FacultyID FacultyID
}
