package models

import "strings"

// SubjectType distinguishes theory subjects from lab subjects.
type SubjectType string

const (
	SubjectTypeTheory SubjectType = "theory"
	SubjectTypeLab    SubjectType = "lab"
)

// Subject is taught to every section of its department and semester.
type Subject struct {
	ID             SubjectID    `db:"id" json:"id"`
	Name           string       `db:"name" json:"name"`
	Code           string       `db:"code" json:"code"`
	DepartmentID   DepartmentID `db:"department_id" json:"department_id"`
	Semester       int          `db:"semester" json:"semester"`
	Type           SubjectType  `db:"subject_type" json:"subject_type"`
	CreditHours    int          `db:"credit_hours" json:"credit_hours"`
	ClassesPerWeek int          `db:"classes_per_week" json:"classes_per_week"`
}

// RequiresLab reports whether the subject must be placed in a lab room.
// labSuffix is the code marker for lab subjects, "L" by default. With byType
// a subject_type of lab also counts.
func (s Subject) RequiresLab(labSuffix string, byType bool) bool {
	if byType && s.Type == SubjectTypeLab {
		return true
	}
	return labSuffix != "" && strings.HasSuffix(s.Code, labSuffix)
}
