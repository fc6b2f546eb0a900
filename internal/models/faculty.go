package models

// Faculty is a teaching staff member. Daily and weekly maximums are advisory.
type Faculty struct {
	ID                FacultyID    `db:"id" json:"id"`
	UserID            string       `db:"user_id" json:"user_id"`
	DepartmentID      DepartmentID `db:"department_id" json:"department_id"`
	Designation       string       `db:"designation" json:"designation"`
	EmployeeID        string       `db:"employee_id" json:"employee_id"`
	MaxClassesPerDay  int          `db:"max_classes_per_day" json:"max_classes_per_day"`
	MaxClassesPerWeek int          `db:"max_classes_per_week" json:"max_classes_per_week"`
}

// FacultyAvailability records whether a faculty member can teach the period
// starting at StartTime. A missing record means available.
type FacultyAvailability struct {
	FacultyID   FacultyID `db:"faculty_id" json:"faculty_id"`
	Day         Weekday   `db:"day" json:"day"`
	StartTime   string    `db:"start_time" json:"start_time"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
}
