package models

// FixedSlot pins a subject, room and faculty member to a section's slot.
type FixedSlot struct {
	ID          string      `db:"id" json:"id"`
	SectionID   SectionID   `db:"section_id" json:"section_id"`
	TimeSlotID  TimeSlotID  `db:"time_slot_id" json:"time_slot_id"`
	SubjectID   SubjectID   `db:"subject_id" json:"subject_id"`
	ClassroomID ClassroomID `db:"classroom_id" json:"classroom_id"`
	FacultyID   FacultyID   `db:"faculty_id" json:"faculty_id"`
}
