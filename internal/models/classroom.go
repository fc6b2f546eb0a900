package models

import "strings"

// ClassroomType distinguishes lecture rooms from laboratories.
type ClassroomType string

const (
	ClassroomTypeClassroom ClassroomType = "classroom"
	ClassroomTypeLab       ClassroomType = "lab"
)

// Classroom is a bookable room.
type Classroom struct {
	ID          ClassroomID   `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Capacity    int           `db:"capacity" json:"capacity"`
	Type        ClassroomType `db:"room_type" json:"room_type"`
	IsAvailable bool          `db:"is_available" json:"is_available"`
}

// IsLab reports whether the room may host lab subjects. Rooms registered
// before room_type existed are recognised by a "Lab" name.
func (c Classroom) IsLab() bool {
	return c.Type == ClassroomTypeLab || strings.Contains(c.Name, "Lab")
}
