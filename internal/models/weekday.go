package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Weekday is a teaching day. The zero value is invalid.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// Weekdays is the fixed iteration order used by the generator and grid views.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var weekdayNames = map[Weekday]string{
	Monday:    "monday",
	Tuesday:   "tuesday",
	Wednesday: "wednesday",
	Thursday:  "thursday",
	Friday:    "friday",
	Saturday:  "saturday",
}

// String returns the lowercase persisted name.
func (d Weekday) String() string {
	if name, ok := weekdayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("weekday(%d)", int(d))
}

// Short returns the three letter label used in grids and exports.
func (d Weekday) Short() string {
	name, ok := weekdayNames[d]
	if !ok {
		return "?"
	}
	return strings.ToUpper(name[:1]) + name[1:3]
}

// Valid reports whether d is one of the teaching days.
func (d Weekday) Valid() bool {
	_, ok := weekdayNames[d]
	return ok
}

// WeekdayOf returns the teaching day of t, or the zero value on Sunday.
func WeekdayOf(t time.Time) Weekday {
	day := Weekday(t.Weekday())
	if !day.Valid() {
		return 0
	}
	return day
}

// ParseWeekday accepts any casing of the full day name.
func ParseWeekday(raw string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for day, candidate := range weekdayNames {
		if candidate == name {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", raw)
}

// MarshalText implements encoding.TextMarshaler.
func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Weekday) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid weekday %d", int(d))
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Weekday) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case []byte:
		return d.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Weekday", src)
	}
}
