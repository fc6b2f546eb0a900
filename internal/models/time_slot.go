package models

// TimeSlot is one teaching period of a day. Break slots are never allocated.
type TimeSlot struct {
	ID        TimeSlotID `db:"id" json:"id"`
	Day       Weekday    `db:"day" json:"day"`
	StartTime string     `db:"start_time" json:"start_time"`
	EndTime   string     `db:"end_time" json:"end_time"`
	IsBreak   bool       `db:"is_break" json:"is_break"`
	BreakName *string    `db:"break_name" json:"break_name,omitempty"`
}

// Label returns the break name, or BREAK when none was set.
func (t TimeSlot) Label() string {
	if t.BreakName != nil && *t.BreakName != "" {
		return *t.BreakName
	}
	return "BREAK"
}
