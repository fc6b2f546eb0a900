package models

// Section is the unit being scheduled; each section gets its own weekly grid.
type Section struct {
	ID           SectionID    `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	Semester     int          `db:"semester" json:"semester"`
	DepartmentID DepartmentID `db:"department_id" json:"department_id"`
	StudentCount int          `db:"student_count" json:"student_count"`
}
