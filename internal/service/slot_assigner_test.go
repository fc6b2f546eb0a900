package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable/internal/models"
	"github.com/noah-isme/campus-timetable/pkg/config"
)

func allocate(t *testing.T, catalog *catalogStub, cfg config.SchedulerConfig) (allocationOutcome, *catalogSnapshot, *ruleSet) {
	t.Helper()
	snap := catalog.snapshot()
	rules := newRuleSet(catalog.rules)
	var policy availabilityPolicy = openAvailability{}
	if cfg.EnforceAvailability {
		policy = newDeclaredAvailability(catalog.availability)
	}
	var reservations reservationPolicy = noReservations{}
	if cfg.HonorFixedSlots {
		reservations = newFixedSlotReservations(catalog.fixed, snap)
	}
	return runAllocation(snap, newSlotAssigner(snap, rules, policy, cfg), reservations), snap, rules
}

func labByCode(subject models.Subject) bool {
	return subject.RequiresLab("L", false)
}

func entriesBySubject(entries []models.TimetableEntry) map[models.SubjectID][]models.TimetableEntry {
	out := make(map[models.SubjectID][]models.TimetableEntry)
	for _, e := range entries {
		out[e.SubjectID] = append(out[e.SubjectID], e)
	}
	return out
}

func TestRunAllocationSingleSectionMeetsQuotas(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-a", 30)},
		subjects:   []models.Subject{subject("sub-a", "CS101", 3), subject("sub-b", "CS102", 2)},
		classrooms: []models.Classroom{room("r1", "Room 101", 40)},
		faculty:    []models.Faculty{facultyMember("f1", "cse")},
		slots:      oneSlotPerDay(5),
	}

	outcome, snap, rules := allocate(t, catalog, testSchedulerConfig())
	require.Len(t, outcome.entries, 5)
	assert.Empty(t, outcome.unassigned)

	bySubject := entriesBySubject(outcome.entries)
	require.Len(t, bySubject["sub-a"], 3)
	require.Len(t, bySubject["sub-b"], 2)

	days := map[models.Weekday]bool{}
	for _, e := range bySubject["sub-a"] {
		days[e.Day] = true
	}
	assert.Len(t, days, 3, "subject A lands on three distinct days")

	for _, e := range outcome.entries {
		assert.Equal(t, models.AssignmentPrimary, e.Mode)
		assert.Equal(t, models.ClassroomID("r1"), e.ClassroomID)
		assert.Equal(t, models.FacultyID("f1"), e.FacultyID)
	}

	report := buildCoverageReport(snap, outcome, rules, newSlotAssigner(snap, rules, nil, testSchedulerConfig()))
	assert.Equal(t, 5, report.TotalRequiredSlots)
	assert.Equal(t, 5, report.TotalCreated)
	assert.Equal(t, "complete", string(report.Status))
	assert.Zero(t, report.Assignments.Relaxed+report.Assignments.Override)
	assert.Empty(t, report.Violations)
}

func TestRunAllocationNoImmediateRepeat(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-a", 30)},
		subjects:   []models.Subject{subject("sub-a", "CS101", 5), subject("sub-b", "CS102", 5)},
		classrooms: []models.Classroom{room("r1", "Room 101", 40)},
		faculty:    []models.Faculty{facultyMember("f1", "cse")},
		slots: []models.TimeSlot{
			slot("m1", models.Monday, "09:00", "10:00"),
			slot("m2", models.Monday, "10:00", "11:00"),
			breakSlot("mb", models.Monday, "11:00", "11:30", "Tea"),
			slot("m3", models.Monday, "11:30", "12:30"),
			slot("m4", models.Monday, "12:30", "13:30"),
		},
	}

	outcome, _, _ := allocate(t, catalog, testSchedulerConfig())
	require.Len(t, outcome.entries, 4)
	for i := 1; i < len(outcome.entries); i++ {
		assert.NotEqual(t, outcome.entries[i-1].SubjectID, outcome.entries[i].SubjectID)
	}
	for _, e := range outcome.entries {
		assert.NotEqual(t, models.TimeSlotID("mb"), e.TimeSlotID, "break slots are never allocated")
	}
}

func TestRunAllocationSectionsDoNotClash(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-a", 30), section("sec-b", 30)},
		subjects:   []models.Subject{subject("sub-a", "CS101", 3), subject("sub-b", "CS102", 3)},
		classrooms: []models.Classroom{room("r1", "Room 101", 40), room("r2", "Room 102", 40)},
		faculty:    []models.Faculty{facultyMember("f1", "cse"), facultyMember("f2", "cse")},
		slots:      oneSlotPerDay(6),
	}

	outcome, _, _ := allocate(t, catalog, testSchedulerConfig())
	require.Len(t, outcome.entries, 12)

	rooms := map[roomSlotKey]int{}
	faculty := map[facultySlotKey]int{}
	for _, e := range outcome.entries {
		require.NotEqual(t, models.AssignmentOverride, e.Mode)
		rooms[roomSlotKey{room: e.ClassroomID, day: e.Day, slot: e.TimeSlotID}]++
		faculty[facultySlotKey{faculty: e.FacultyID, day: e.Day, slot: e.TimeSlotID}]++
	}
	for key, n := range rooms {
		assert.Equal(t, 1, n, "room %v double booked", key)
	}
	for key, n := range faculty {
		assert.Equal(t, 1, n, "faculty %v double booked", key)
	}
}

func TestRunAllocationQuotaHeldOutsideFallback(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-a", 30)},
		subjects:   []models.Subject{subject("sub-a", "CS101", 1), subject("sub-b", "CS102", 1)},
		classrooms: []models.Classroom{room("r1", "Room 101", 40)},
		faculty:    []models.Faculty{facultyMember("f1", "cse")},
		slots:      oneSlotPerDay(4),
	}

	outcome, _, _ := allocate(t, catalog, testSchedulerConfig())
	require.Len(t, outcome.entries, 4)

	primary := map[models.SubjectID]int{}
	for _, e := range outcome.entries {
		if e.Mode == models.AssignmentPrimary {
			primary[e.SubjectID]++
		}
	}
	assert.Equal(t, 1, primary["sub-a"])
	assert.Equal(t, 1, primary["sub-b"])
	assert.Equal(t, models.AssignmentRelaxed, outcome.entries[2].Mode)
	assert.Equal(t, models.AssignmentRelaxed, outcome.entries[3].Mode)
}

func TestSlotAssignerLabSubjectNeedsLabRoom(t *testing.T) {
	catalog := &catalogStub{
		sections: []models.Section{section("sec-a", 30)},
		subjects: []models.Subject{subject("sub-l", "CS101L", 1)},
		classrooms: []models.Classroom{
			room("r1", "Room 101", 60),
			room("r2", "Physics Lab", 40),
		},
		faculty: []models.Faculty{facultyMember("f1", "cse")},
		slots:   oneSlotPerDay(1),
	}

	outcome, _, _ := allocate(t, catalog, testSchedulerConfig())
	require.Len(t, outcome.entries, 1)
	assert.Equal(t, models.ClassroomID("r2"), outcome.entries[0].ClassroomID)
	assert.Equal(t, models.AssignmentPrimary, outcome.entries[0].Mode)
}

func TestSlotAssignerLabSubjectTypeNeedsFlag(t *testing.T) {
	lab := subject("sub-p", "CS205", 1)
	lab.Type = models.SubjectTypeLab
	catalog := &catalogStub{
		sections: []models.Section{section("sec-a", 30)},
		subjects: []models.Subject{lab},
		classrooms: []models.Classroom{
			room("r1", "Room 101", 60),
			room("r2", "Physics Lab", 40),
		},
		faculty: []models.Faculty{facultyMember("f1", "cse")},
		slots:   oneSlotPerDay(1),
	}

	outcome, _, _ := allocate(t, catalog, testSchedulerConfig())
	require.Len(t, outcome.entries, 1)
	assert.Equal(t, models.ClassroomID("r1"), outcome.entries[0].ClassroomID)

	cfg := testSchedulerConfig()
	cfg.LabByType = true
	outcome, _, _ = allocate(t, catalog, cfg)
	require.Len(t, outcome.entries, 1)
	assert.Equal(t, models.ClassroomID("r2"), outcome.entries[0].ClassroomID)
}

func TestSlotAssignerSkipsSmallRoomsAndOtherDepartments(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-a", 30)},
		subjects:   []models.Subject{subject("sub-a", "CS101", 1)},
		classrooms: []models.Classroom{room("r1", "Seminar", 20), room("r2", "Room 102", 35)},
		faculty:    []models.Faculty{facultyMember("f0", "ece"), facultyMember("f1", "cse")},
		slots:      oneSlotPerDay(1),
	}

	outcome, _, _ := allocate(t, catalog, testSchedulerConfig())
	require.Len(t, outcome.entries, 1)
	assert.Equal(t, models.ClassroomID("r2"), outcome.entries[0].ClassroomID)
	assert.Equal(t, models.FacultyID("f1"), outcome.entries[0].FacultyID)
}

func TestSlotAssignerOverrideIsFlaggedAndAudited(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-a", 30), section("sec-b", 30)},
		subjects:   []models.Subject{subject("sub-a", "CS101", 5)},
		classrooms: []models.Classroom{room("r1", "Room 101", 40)},
		faculty:    []models.Faculty{facultyMember("f1", "cse")},
		slots:      oneSlotPerDay(1),
	}

	for _, mode := range []string{config.FallbackWidened, config.FallbackOverride} {
		t.Run(mode, func(t *testing.T) {
			cfg := testSchedulerConfig()
			cfg.FallbackMode = mode
			outcome, snap, rules := allocate(t, catalog, cfg)
			require.Len(t, outcome.entries, 2)
			assert.Equal(t, models.AssignmentPrimary, outcome.entries[0].Mode)
			assert.Equal(t, models.AssignmentOverride, outcome.entries[1].Mode)
			assert.True(t, outcome.entries[1].Mode.Degraded())

			violations := rules.audit(outcome.entries, snap, labByCode)
			kinds := map[models.RuleKind]bool{}
			for _, v := range violations {
				kinds[v.Rule] = true
				assert.True(t, v.Mandatory)
				assert.Len(t, v.EntryIDs, 2)
			}
			assert.True(t, kinds[models.RuleRoomClash])
			assert.True(t, kinds[models.RuleFacultyClash])
		})
	}
}

func TestSlotAssignerOverrideModeSkipsRelaxedPass(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-a", 30)},
		subjects:   []models.Subject{subject("sub-a", "CS101", 1)},
		classrooms: []models.Classroom{room("r1", "Room 101", 40)},
		faculty:    []models.Faculty{facultyMember("f1", "cse")},
		slots:      oneSlotPerDay(2),
	}
	cfg := testSchedulerConfig()
	cfg.FallbackMode = config.FallbackOverride

	outcome, _, _ := allocate(t, catalog, cfg)
	require.Len(t, outcome.entries, 2)
	assert.Equal(t, models.AssignmentPrimary, outcome.entries[0].Mode)
	assert.Equal(t, models.AssignmentOverride, outcome.entries[1].Mode)
}

func TestRunAllocationLeavesSlotEmptyWhenOnlyRepeatRemains(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-a", 30)},
		subjects:   []models.Subject{subject("sub-a", "CS101", 5)},
		classrooms: []models.Classroom{room("r1", "Room 101", 40)},
		faculty:    []models.Faculty{facultyMember("f1", "cse")},
		slots: []models.TimeSlot{
			slot("m1", models.Monday, "09:00", "10:00"),
			slot("m2", models.Monday, "10:00", "11:00"),
		},
	}

	outcome, snap, rules := allocate(t, catalog, testSchedulerConfig())
	require.Len(t, outcome.entries, 1)
	require.Len(t, outcome.unassigned, 1)
	assert.Equal(t, models.TimeSlotID("m2"), outcome.unassigned[0].TimeSlotID)

	report := buildCoverageReport(snap, outcome, rules, newSlotAssigner(snap, rules, nil, testSchedulerConfig()))
	assert.Equal(t, "partial", string(report.Status))
	assert.Equal(t, 2, report.TotalRequiredSlots)
	assert.Equal(t, 1, report.TotalCreated)
}

func TestRunAllocationIsDeterministic(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-b", 25), section("sec-a", 30)},
		subjects:   []models.Subject{subject("sub-b", "CS102", 2), subject("sub-a", "CS101", 3), subject("sub-l", "CS103L", 1)},
		classrooms: []models.Classroom{room("r2", "Lab 2", 40), room("r1", "Room 101", 40)},
		faculty:    []models.Faculty{facultyMember("f2", "cse"), facultyMember("f1", "cse")},
		slots:      oneSlotPerDay(6),
	}

	first, _, _ := allocate(t, catalog, testSchedulerConfig())
	second, _, _ := allocate(t, catalog, testSchedulerConfig())
	assert.Equal(t, first.entries, second.entries)
	assert.Equal(t, models.SectionID("sec-a"), first.entries[0].SectionID, "sections are swept in id order")
}

func TestSlotAssignerHonoursDeclaredAvailability(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-a", 30)},
		subjects:   []models.Subject{subject("sub-a", "CS101", 1)},
		classrooms: []models.Classroom{room("r1", "Room 101", 40)},
		faculty:    []models.Faculty{facultyMember("f1", "cse"), facultyMember("f2", "cse")},
		slots:      oneSlotPerDay(1),
		availability: []models.FacultyAvailability{
			{FacultyID: "f1", Day: models.Monday, StartTime: "09:00", IsAvailable: false},
		},
	}

	ignored, _, _ := allocate(t, catalog, testSchedulerConfig())
	require.Len(t, ignored.entries, 1)
	assert.Equal(t, models.FacultyID("f1"), ignored.entries[0].FacultyID)

	cfg := testSchedulerConfig()
	cfg.EnforceAvailability = true
	enforced, _, _ := allocate(t, catalog, cfg)
	require.Len(t, enforced.entries, 1)
	assert.Equal(t, models.FacultyID("f2"), enforced.entries[0].FacultyID)
}

func TestRunAllocationReservesFixedSlots(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-a", 30), section("sec-b", 30)},
		subjects:   []models.Subject{subject("sub-a", "CS101", 3), subject("sub-b", "CS102", 3)},
		classrooms: []models.Classroom{room("r1", "Room 101", 40), room("r2", "Room 102", 40)},
		faculty:    []models.Faculty{facultyMember("f1", "cse"), facultyMember("f2", "cse")},
		slots:      oneSlotPerDay(1),
		fixed: []models.FixedSlot{
			{ID: "fx1", SectionID: "sec-b", TimeSlotID: "s1", SubjectID: "sub-b", ClassroomID: "r1", FacultyID: "f1"},
		},
	}
	cfg := testSchedulerConfig()
	cfg.HonorFixedSlots = true

	outcome, _, _ := allocate(t, catalog, cfg)
	require.Len(t, outcome.entries, 2)

	fixed := outcome.entries[0]
	assert.True(t, fixed.IsFixed)
	assert.Equal(t, models.AssignmentFixed, fixed.Mode)
	assert.Equal(t, models.SectionID("sec-b"), fixed.SectionID)

	swept := outcome.entries[1]
	assert.Equal(t, models.SectionID("sec-a"), swept.SectionID)
	assert.Equal(t, models.ClassroomID("r2"), swept.ClassroomID)
	assert.Equal(t, models.FacultyID("f2"), swept.FacultyID)
}

func TestRunAllocationAdvisoryRoomClashDoesNotBlock(t *testing.T) {
	catalog := &catalogStub{
		sections:   []models.Section{section("sec-a", 30), section("sec-b", 30)},
		subjects:   []models.Subject{subject("sub-a", "CS101", 3)},
		classrooms: []models.Classroom{room("r1", "Room 101", 40)},
		faculty:    []models.Faculty{facultyMember("f1", "cse"), facultyMember("f2", "cse")},
		slots:      oneSlotPerDay(1),
		rules: []models.ConstraintRule{
			{ID: "1", Kind: models.RuleRoomClash, IsMandatory: false},
		},
	}

	outcome, snap, rules := allocate(t, catalog, testSchedulerConfig())
	require.Len(t, outcome.entries, 2)
	assert.Equal(t, models.AssignmentPrimary, outcome.entries[1].Mode)
	assert.Equal(t, models.ClassroomID("r1"), outcome.entries[1].ClassroomID)

	violations := rules.audit(outcome.entries, snap, labByCode)
	require.Len(t, violations, 1)
	assert.Equal(t, models.RuleRoomClash, violations[0].Rule)
	assert.False(t, violations[0].Mandatory)
}

func TestEntryIDIsStable(t *testing.T) {
	a := entryID("sec-a", models.Monday, "s1")
	assert.Equal(t, a, entryID("sec-a", models.Monday, "s1"))
	assert.NotEqual(t, a, entryID("sec-a", models.Tuesday, "s1"))
}
