package service

import (
	"fmt"
	"sort"

	"github.com/noah-isme/campus-timetable/internal/dto"
	"github.com/noah-isme/campus-timetable/internal/models"
)

var ruleOrder = []models.RuleKind{
	models.RuleFacultyClash,
	models.RuleRoomClash,
	models.RuleCapacityCheck,
	models.RuleLabTiming,
	models.RuleFacultyLoad,
}

func defaultConstraintRules() []models.ConstraintRule {
	return []models.ConstraintRule{
		{ID: "default-faculty-clash", Kind: models.RuleFacultyClash, IsMandatory: true, Description: "a faculty member teaches one class per slot"},
		{ID: "default-room-clash", Kind: models.RuleRoomClash, IsMandatory: true, Description: "a classroom hosts one class per slot"},
		{ID: "default-capacity-check", Kind: models.RuleCapacityCheck, IsMandatory: true, Description: "room capacity covers the section size"},
		{ID: "default-lab-timing", Kind: models.RuleLabTiming, IsMandatory: true, Description: "lab subjects are held in lab rooms"},
		{ID: "default-faculty-load", Kind: models.RuleFacultyLoad, IsMandatory: false, Description: "faculty stay within declared daily and weekly loads"},
	}
}

// ruleSet is the constraint catalog for one run. Kinds missing from the
// configured rows keep their default definition.
type ruleSet struct {
	rules map[models.RuleKind]models.ConstraintRule
}

func newRuleSet(rows []models.ConstraintRule) *ruleSet {
	set := &ruleSet{rules: make(map[models.RuleKind]models.ConstraintRule, len(ruleOrder))}
	for _, rule := range defaultConstraintRules() {
		set.rules[rule.Kind] = rule
	}
	for _, rule := range rows {
		if _, known := set.rules[rule.Kind]; !known {
			continue
		}
		set.rules[rule.Kind] = rule
	}
	return set
}

// enforced reports whether the assigner must apply the rule as a hard check.
func (r *ruleSet) enforced(kind models.RuleKind) bool {
	rule, ok := r.rules[kind]
	return ok && rule.IsMandatory
}

// audit evaluates every rule against the final entry set.
func (r *ruleSet) audit(entries []models.TimetableEntry, catalog *catalogSnapshot, requiresLab func(models.Subject) bool) []dto.RuleViolation {
	violations := make([]dto.RuleViolation, 0)
	for _, kind := range ruleOrder {
		rule := r.rules[kind]
		var found []dto.RuleViolation
		switch kind {
		case models.RuleFacultyClash:
			found = auditClashes(entries, func(e models.TimetableEntry) (string, bool) {
				if e.FacultyID == "" {
					return "", false
				}
				return fmt.Sprintf("faculty %s on %s slot %s", e.FacultyID, e.Day, e.TimeSlotID), true
			})
		case models.RuleRoomClash:
			found = auditClashes(entries, func(e models.TimetableEntry) (string, bool) {
				return fmt.Sprintf("classroom %s on %s slot %s", e.ClassroomID, e.Day, e.TimeSlotID), true
			})
		case models.RuleCapacityCheck:
			found = auditCapacity(entries, catalog)
		case models.RuleLabTiming:
			found = auditLabRooms(entries, catalog, requiresLab)
		case models.RuleFacultyLoad:
			found = auditFacultyLoad(entries, catalog)
		}
		for i := range found {
			found[i].Rule = kind
			found[i].Mandatory = rule.IsMandatory
		}
		violations = append(violations, found...)
	}
	return violations
}

func auditClashes(entries []models.TimetableEntry, keyOf func(models.TimetableEntry) (string, bool)) []dto.RuleViolation {
	groups := make(map[string][]models.EntryID)
	var order []string
	for _, entry := range entries {
		key, ok := keyOf(entry)
		if !ok {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], entry.ID)
	}

	var out []dto.RuleViolation
	for _, key := range order {
		ids := groups[key]
		if len(ids) < 2 {
			continue
		}
		out = append(out, dto.RuleViolation{
			Message:  fmt.Sprintf("%s is double booked (%d entries)", key, len(ids)),
			EntryIDs: ids,
		})
	}
	return out
}

func auditCapacity(entries []models.TimetableEntry, catalog *catalogSnapshot) []dto.RuleViolation {
	var out []dto.RuleViolation
	for _, entry := range entries {
		room, okRoom := catalog.roomIndex[entry.ClassroomID]
		section, okSection := catalog.sectionIndex[entry.SectionID]
		if !okRoom || !okSection || room.Capacity >= section.StudentCount {
			continue
		}
		out = append(out, dto.RuleViolation{
			Message:  fmt.Sprintf("classroom %s seats %d but section %s has %d students", room.Name, room.Capacity, section.Name, section.StudentCount),
			EntryIDs: []models.EntryID{entry.ID},
		})
	}
	return out
}

func auditLabRooms(entries []models.TimetableEntry, catalog *catalogSnapshot, requiresLab func(models.Subject) bool) []dto.RuleViolation {
	var out []dto.RuleViolation
	for _, entry := range entries {
		subject, okSubject := catalog.subjectIndex[entry.SubjectID]
		room, okRoom := catalog.roomIndex[entry.ClassroomID]
		if !okSubject || !okRoom || !requiresLab(subject) || room.IsLab() {
			continue
		}
		out = append(out, dto.RuleViolation{
			Message:  fmt.Sprintf("lab subject %s placed in non-lab room %s", subject.Code, room.Name),
			EntryIDs: []models.EntryID{entry.ID},
		})
	}
	return out
}

func auditFacultyLoad(entries []models.TimetableEntry, catalog *catalogSnapshot) []dto.RuleViolation {
	type facultyDay struct {
		faculty models.FacultyID
		day     models.Weekday
	}
	daily := make(map[facultyDay][]models.EntryID)
	weekly := make(map[models.FacultyID][]models.EntryID)
	for _, entry := range entries {
		if entry.FacultyID == "" {
			continue
		}
		key := facultyDay{faculty: entry.FacultyID, day: entry.Day}
		daily[key] = append(daily[key], entry.ID)
		weekly[entry.FacultyID] = append(weekly[entry.FacultyID], entry.ID)
	}

	var out []dto.RuleViolation
	for _, member := range catalog.faculty {
		if member.MaxClassesPerDay > 0 {
			for _, day := range models.Weekdays {
				ids := daily[facultyDay{faculty: member.ID, day: day}]
				if len(ids) > member.MaxClassesPerDay {
					out = append(out, dto.RuleViolation{
						Message:  fmt.Sprintf("faculty %s teaches %d classes on %s, limit %d", member.ID, len(ids), day, member.MaxClassesPerDay),
						EntryIDs: ids,
					})
				}
			}
		}
		if member.MaxClassesPerWeek > 0 {
			if ids := weekly[member.ID]; len(ids) > member.MaxClassesPerWeek {
				out = append(out, dto.RuleViolation{
					Message:  fmt.Sprintf("faculty %s teaches %d classes this week, limit %d", member.ID, len(ids), member.MaxClassesPerWeek),
					EntryIDs: ids,
				})
			}
		}
	}
	return out
}

// ruleCatalog returns the effective rules in evaluation order.
func (r *ruleSet) ruleCatalog() []models.ConstraintRule {
	out := make([]models.ConstraintRule, 0, len(r.rules))
	for _, kind := range ruleOrder {
		out = append(out, r.rules[kind])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsMandatory && !out[j].IsMandatory })
	return out
}
