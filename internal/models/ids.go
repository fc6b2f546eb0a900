package models

// Typed identifiers keep catalog lookups and usage counters from mixing keys.
type (
	DepartmentID string
	ClassroomID  string
	SubjectID    string
	SectionID    string
	FacultyID    string
	TimeSlotID   string
	EntryID      string
)
