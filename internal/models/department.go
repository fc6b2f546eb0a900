package models

import "time"

// Department groups subjects and sections.
type Department struct {
	ID        DepartmentID `db:"id" json:"id"`
	Name      string       `db:"name" json:"name"`
	Code      string       `db:"code" json:"code"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}
