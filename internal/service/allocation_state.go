package service

import (
	"github.com/noah-isme/campus-timetable/internal/models"
)

type sectionSubjectKey struct {
	section models.SectionID
	subject models.SubjectID
}

type sectionDayKey struct {
	section models.SectionID
	day     models.Weekday
}

type roomSlotKey struct {
	room models.ClassroomID
	day  models.Weekday
	slot models.TimeSlotID
}

type facultySlotKey struct {
	faculty models.FacultyID
	day     models.Weekday
	slot    models.TimeSlotID
}

type sectionSlotKey struct {
	section models.SectionID
	day     models.Weekday
	slot    models.TimeSlotID
}

// allocationState holds everything committed during one generation run. It is
// owned by the run and never shared between goroutines.
type allocationState struct {
	usage     map[sectionSubjectKey]int
	last      map[sectionDayKey]models.SubjectID
	rooms     map[roomSlotKey]struct{}
	faculty   map[facultySlotKey]struct{}
	sections  map[sectionSlotKey]models.SubjectID
	committed []models.TimetableEntry
}

func newAllocationState() *allocationState {
	return &allocationState{
		usage:    make(map[sectionSubjectKey]int),
		last:     make(map[sectionDayKey]models.SubjectID),
		rooms:    make(map[roomSlotKey]struct{}),
		faculty:  make(map[facultySlotKey]struct{}),
		sections: make(map[sectionSlotKey]models.SubjectID),
	}
}

func (s *allocationState) roomBusy(room models.ClassroomID, day models.Weekday, slot models.TimeSlotID) bool {
	_, ok := s.rooms[roomSlotKey{room: room, day: day, slot: slot}]
	return ok
}

func (s *allocationState) facultyBusy(faculty models.FacultyID, day models.Weekday, slot models.TimeSlotID) bool {
	_, ok := s.faculty[facultySlotKey{faculty: faculty, day: day, slot: slot}]
	return ok
}

// sectionBusy reports whether the section already holds an entry for the slot
// and which subject it is.
func (s *allocationState) sectionBusy(section models.SectionID, day models.Weekday, slot models.TimeSlotID) (models.SubjectID, bool) {
	subject, ok := s.sections[sectionSlotKey{section: section, day: day, slot: slot}]
	return subject, ok
}

// commit appends the entry and updates usage, last-assigned and clash sets.
func (s *allocationState) commit(entry models.TimetableEntry) {
	s.reserve(entry)
	s.touch(entry.SectionID, entry.Day, entry.SubjectID)
}

// reserve records a pre-pinned entry without moving the last-assigned marker;
// the sweep calls touch when it reaches the reserved slot.
func (s *allocationState) reserve(entry models.TimetableEntry) {
	s.committed = append(s.committed, entry)
	s.usage[sectionSubjectKey{section: entry.SectionID, subject: entry.SubjectID}]++
	s.rooms[roomSlotKey{room: entry.ClassroomID, day: entry.Day, slot: entry.TimeSlotID}] = struct{}{}
	if entry.FacultyID != "" {
		s.faculty[facultySlotKey{faculty: entry.FacultyID, day: entry.Day, slot: entry.TimeSlotID}] = struct{}{}
	}
	s.sections[sectionSlotKey{section: entry.SectionID, day: entry.Day, slot: entry.TimeSlotID}] = entry.SubjectID
}

func (s *allocationState) touch(section models.SectionID, day models.Weekday, subject models.SubjectID) {
	s.last[sectionDayKey{section: section, day: day}] = subject
}

func (s *allocationState) usageOf(section models.SectionID, subject models.SubjectID) int {
	return s.usage[sectionSubjectKey{section: section, subject: subject}]
}

func (s *allocationState) lastAssigned(section models.SectionID, day models.Weekday) (models.SubjectID, bool) {
	subject, ok := s.last[sectionDayKey{section: section, day: day}]
	return subject, ok
}

// entries returns committed entries in commit order.
func (s *allocationState) entries() []models.TimetableEntry {
	out := make([]models.TimetableEntry, len(s.committed))
	copy(out, s.committed)
	return out
}
