package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/campus-timetable/internal/models"
	"github.com/noah-isme/campus-timetable/pkg/config"
)

var entryNamespace = uuid.MustParse("6f1c2a7e-3b7d-4f0e-9a55-2c1d8e4b9f10")

// entryID derives a stable id from the cell an entry occupies.
func entryID(section models.SectionID, day models.Weekday, slot models.TimeSlotID) models.EntryID {
	name := fmt.Sprintf("%s/%s/%s", section, day, slot)
	return models.EntryID(uuid.NewSHA1(entryNamespace, []byte(name)).String())
}

// availabilityPolicy decides whether a faculty member has blacked out a slot.
type availabilityPolicy interface {
	isBlackedOut(faculty models.FacultyID, day models.Weekday, slot models.TimeSlot) bool
}

// openAvailability treats every faculty member as available.
type openAvailability struct{}

func (openAvailability) isBlackedOut(models.FacultyID, models.Weekday, models.TimeSlot) bool {
	return false
}

type availabilityKey struct {
	faculty models.FacultyID
	day     models.Weekday
	start   string
}

// declaredAvailability blocks slots whose start time a faculty member marked
// unavailable. Missing records mean available.
type declaredAvailability struct {
	blocked map[availabilityKey]struct{}
}

func newDeclaredAvailability(records []models.FacultyAvailability) *declaredAvailability {
	policy := &declaredAvailability{blocked: make(map[availabilityKey]struct{})}
	for _, record := range records {
		if record.IsAvailable {
			continue
		}
		policy.blocked[availabilityKey{faculty: record.FacultyID, day: record.Day, start: record.StartTime}] = struct{}{}
	}
	return policy
}

func (p *declaredAvailability) isBlackedOut(faculty models.FacultyID, day models.Weekday, slot models.TimeSlot) bool {
	_, ok := p.blocked[availabilityKey{faculty: faculty, day: day, start: slot.StartTime}]
	return ok
}

// reservationPolicy supplies entries pinned before the sweep.
type reservationPolicy interface {
	reservedEntries(section models.Section) []models.TimetableEntry
}

type noReservations struct{}

func (noReservations) reservedEntries(models.Section) []models.TimetableEntry { return nil }

// fixedSlotReservations turns FixedSlot rows into fixed entries.
type fixedSlotReservations struct {
	bySection map[models.SectionID][]models.FixedSlot
	slots     map[models.TimeSlotID]models.TimeSlot
}

func newFixedSlotReservations(fixed []models.FixedSlot, catalog *catalogSnapshot) *fixedSlotReservations {
	policy := &fixedSlotReservations{
		bySection: make(map[models.SectionID][]models.FixedSlot),
		slots:     catalog.slotIndex,
	}
	for _, item := range fixed {
		policy.bySection[item.SectionID] = append(policy.bySection[item.SectionID], item)
	}
	return policy
}

func (p *fixedSlotReservations) reservedEntries(section models.Section) []models.TimetableEntry {
	var out []models.TimetableEntry
	for _, item := range p.bySection[section.ID] {
		slot, ok := p.slots[item.TimeSlotID]
		if !ok || slot.IsBreak || !slot.Day.Valid() {
			continue
		}
		out = append(out, models.TimetableEntry{
			ID:          entryID(section.ID, slot.Day, slot.ID),
			SectionID:   section.ID,
			Day:         slot.Day,
			TimeSlotID:  slot.ID,
			SubjectID:   item.SubjectID,
			ClassroomID: item.ClassroomID,
			FacultyID:   item.FacultyID,
			IsFixed:     true,
			Mode:        models.AssignmentFixed,
		})
	}
	return out
}

// slotAssigner picks a subject, classroom and faculty member for one cell.
type slotAssigner struct {
	catalog      *catalogSnapshot
	rules        *ruleSet
	availability availabilityPolicy
	labSuffix    string
	labByType    bool
	fallbackMode string
}

func newSlotAssigner(catalog *catalogSnapshot, rules *ruleSet, availability availabilityPolicy, cfg config.SchedulerConfig) *slotAssigner {
	if availability == nil {
		availability = openAvailability{}
	}
	mode := cfg.FallbackMode
	if mode != config.FallbackOverride {
		mode = config.FallbackWidened
	}
	return &slotAssigner{
		catalog:      catalog,
		rules:        rules,
		availability: availability,
		labSuffix:    cfg.LabSuffix,
		labByType:    cfg.LabByType,
		fallbackMode: mode,
	}
}

// assign fills one (section, day, slot) cell and commits the result to state.
// It returns false only when no subject can be placed even by the override pass.
func (a *slotAssigner) assign(state *allocationState, section models.Section, day models.Weekday, slot models.TimeSlot, subjects []models.Subject) (models.TimetableEntry, bool) {
	if entry, ok := a.search(state, section, day, slot, subjects, false); ok {
		return a.commit(state, entry), true
	}
	if a.fallbackMode == config.FallbackWidened {
		if entry, ok := a.search(state, section, day, slot, subjects, true); ok {
			return a.commit(state, entry), true
		}
	}
	if entry, ok := a.override(state, section, day, slot, subjects); ok {
		return a.commit(state, entry), true
	}
	return models.TimetableEntry{}, false
}

func (a *slotAssigner) commit(state *allocationState, entry models.TimetableEntry) models.TimetableEntry {
	state.commit(entry)
	return entry
}

// search runs the rule-checked pass. With ignoreQuota the weekly quota is
// skipped and the entry is marked relaxed.
func (a *slotAssigner) search(state *allocationState, section models.Section, day models.Weekday, slot models.TimeSlot, subjects []models.Subject, ignoreQuota bool) (models.TimetableEntry, bool) {
	last, hasLast := state.lastAssigned(section.ID, day)
	for _, subject := range subjects {
		if hasLast && subject.ID == last {
			continue
		}
		if !ignoreQuota && state.usageOf(section.ID, subject.ID) >= subject.ClassesPerWeek {
			continue
		}
		room, ok := a.pickClassroom(state, section, subject, day, slot)
		if !ok {
			continue
		}
		member, ok := a.pickFaculty(state, subject, day, slot)
		if !ok {
			continue
		}
		mode := models.AssignmentPrimary
		if ignoreQuota {
			mode = models.AssignmentRelaxed
		}
		return a.entry(section, day, slot, subject, room.ID, member.ID, mode), true
	}
	return models.TimetableEntry{}, false
}

func (a *slotAssigner) requiresLab(subject models.Subject) bool {
	return subject.RequiresLab(a.labSuffix, a.labByType)
}

func (a *slotAssigner) pickClassroom(state *allocationState, section models.Section, subject models.Subject, day models.Weekday, slot models.TimeSlot) (models.Classroom, bool) {
	needsLab := a.rules.enforced(models.RuleLabTiming) && a.requiresLab(subject)
	checkCapacity := a.rules.enforced(models.RuleCapacityCheck)
	checkClash := a.rules.enforced(models.RuleRoomClash)
	for _, room := range a.catalog.classrooms {
		if needsLab && !room.IsLab() {
			continue
		}
		if checkCapacity && room.Capacity < section.StudentCount {
			continue
		}
		if checkClash && state.roomBusy(room.ID, day, slot.ID) {
			continue
		}
		return room, true
	}
	return models.Classroom{}, false
}

func (a *slotAssigner) pickFaculty(state *allocationState, subject models.Subject, day models.Weekday, slot models.TimeSlot) (models.Faculty, bool) {
	checkClash := a.rules.enforced(models.RuleFacultyClash)
	for _, member := range a.catalog.faculty {
		if member.DepartmentID != subject.DepartmentID {
			continue
		}
		if checkClash && state.facultyBusy(member.ID, day, slot.ID) {
			continue
		}
		if a.availability.isBlackedOut(member.ID, day, slot) {
			continue
		}
		return member, true
	}
	return models.Faculty{}, false
}

// override takes the first subject that is not an immediate repeat and places
// it with the first classroom and faculty member, skipping every check.
func (a *slotAssigner) override(state *allocationState, section models.Section, day models.Weekday, slot models.TimeSlot, subjects []models.Subject) (models.TimetableEntry, bool) {
	if len(a.catalog.classrooms) == 0 || len(a.catalog.faculty) == 0 {
		return models.TimetableEntry{}, false
	}
	last, hasLast := state.lastAssigned(section.ID, day)
	for _, subject := range subjects {
		if hasLast && subject.ID == last {
			continue
		}
		return a.entry(section, day, slot, subject, a.catalog.classrooms[0].ID, a.catalog.faculty[0].ID, models.AssignmentOverride), true
	}
	return models.TimetableEntry{}, false
}

func (a *slotAssigner) entry(section models.Section, day models.Weekday, slot models.TimeSlot, subject models.Subject, room models.ClassroomID, faculty models.FacultyID, mode models.AssignmentMode) models.TimetableEntry {
	return models.TimetableEntry{
		ID:          entryID(section.ID, day, slot.ID),
		SectionID:   section.ID,
		Day:         day,
		TimeSlotID:  slot.ID,
		SubjectID:   subject.ID,
		ClassroomID: room,
		FacultyID:   faculty,
		Mode:        mode,
	}
}
