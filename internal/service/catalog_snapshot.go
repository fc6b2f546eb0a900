package service

import (
	"sort"

	"github.com/noah-isme/campus-timetable/internal/models"
)

// catalogSnapshot is the immutable view of master data for one generation run.
type catalogSnapshot struct {
	sections   []models.Section
	subjects   []models.Subject
	classrooms []models.Classroom
	faculty    []models.Faculty
	slots      []models.TimeSlot

	slotsByDay   map[models.Weekday][]models.TimeSlot
	slotIndex    map[models.TimeSlotID]models.TimeSlot
	subjectIndex map[models.SubjectID]models.Subject
	sectionIndex map[models.SectionID]models.Section
	roomIndex    map[models.ClassroomID]models.Classroom
	nonBreak     int
}

func newCatalogSnapshot(
	sections []models.Section,
	subjects []models.Subject,
	classrooms []models.Classroom,
	faculty []models.Faculty,
	slots []models.TimeSlot,
) *catalogSnapshot {
	snap := &catalogSnapshot{
		sections:     append([]models.Section(nil), sections...),
		subjects:     append([]models.Subject(nil), subjects...),
		classrooms:   append([]models.Classroom(nil), classrooms...),
		faculty:      append([]models.Faculty(nil), faculty...),
		slots:        append([]models.TimeSlot(nil), slots...),
		slotsByDay:   make(map[models.Weekday][]models.TimeSlot),
		slotIndex:    make(map[models.TimeSlotID]models.TimeSlot, len(slots)),
		subjectIndex: make(map[models.SubjectID]models.Subject, len(subjects)),
		sectionIndex: make(map[models.SectionID]models.Section, len(sections)),
		roomIndex:    make(map[models.ClassroomID]models.Classroom, len(classrooms)),
	}

	sort.SliceStable(snap.sections, func(i, j int) bool { return snap.sections[i].ID < snap.sections[j].ID })
	sort.SliceStable(snap.subjects, func(i, j int) bool { return snap.subjects[i].ID < snap.subjects[j].ID })
	sort.SliceStable(snap.classrooms, func(i, j int) bool { return snap.classrooms[i].ID < snap.classrooms[j].ID })
	sort.SliceStable(snap.faculty, func(i, j int) bool { return snap.faculty[i].ID < snap.faculty[j].ID })
	sortSlots(snap.slots)

	for _, slot := range snap.slots {
		snap.slotIndex[slot.ID] = slot
		if slot.IsBreak || !slot.Day.Valid() {
			continue
		}
		snap.slotsByDay[slot.Day] = append(snap.slotsByDay[slot.Day], slot)
		snap.nonBreak++
	}
	for _, subject := range snap.subjects {
		snap.subjectIndex[subject.ID] = subject
	}
	for _, section := range snap.sections {
		snap.sectionIndex[section.ID] = section
	}
	for _, room := range snap.classrooms {
		snap.roomIndex[room.ID] = room
	}
	return snap
}

// sortSlots orders slots by start time, ties broken by id.
func sortSlots(slots []models.TimeSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].StartTime == slots[j].StartTime {
			return slots[i].ID < slots[j].ID
		}
		return slots[i].StartTime < slots[j].StartTime
	})
}

// SubjectsFor returns the subjects sharing the section's department and semester.
func (c *catalogSnapshot) SubjectsFor(section models.Section) []models.Subject {
	var out []models.Subject
	for _, subject := range c.subjects {
		if subject.DepartmentID == section.DepartmentID && subject.Semester == section.Semester {
			out = append(out, subject)
		}
	}
	return out
}

// SlotsFor returns the non-break slots of a day in ascending start time.
func (c *catalogSnapshot) SlotsFor(day models.Weekday) []models.TimeSlot {
	return c.slotsByDay[day]
}

// NonBreakSlotCount counts allocatable slots across all days.
func (c *catalogSnapshot) NonBreakSlotCount() int {
	return c.nonBreak
}

// Exhausted reports whether allocation cannot proceed at all.
func (c *catalogSnapshot) Exhausted() bool {
	return len(c.classrooms) == 0 || len(c.faculty) == 0
}
