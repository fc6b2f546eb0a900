package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable/internal/models"
	"github.com/noah-isme/campus-timetable/pkg/config"
)

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Enabled:      true,
		FallbackMode: config.FallbackWidened,
		LabSuffix:    "L",
		LockKey:      7411,
	}
}

func section(id string, students int) models.Section {
	return models.Section{ID: models.SectionID(id), Name: id, Semester: 3, DepartmentID: "cse", StudentCount: students}
}

func subject(id, code string, perWeek int) models.Subject {
	return models.Subject{ID: models.SubjectID(id), Name: code, Code: code, DepartmentID: "cse", Semester: 3, Type: models.SubjectTypeTheory, ClassesPerWeek: perWeek}
}

func room(id, name string, capacity int) models.Classroom {
	return models.Classroom{ID: models.ClassroomID(id), Name: name, Capacity: capacity, Type: models.ClassroomTypeClassroom, IsAvailable: true}
}

func facultyMember(id, dept string) models.Faculty {
	return models.Faculty{ID: models.FacultyID(id), UserID: "user-" + id, DepartmentID: models.DepartmentID(dept), EmployeeID: "EMP-" + id}
}

func slot(id string, day models.Weekday, start, end string) models.TimeSlot {
	return models.TimeSlot{ID: models.TimeSlotID(id), Day: day, StartTime: start, EndTime: end}
}

func breakSlot(id string, day models.Weekday, start, end, name string) models.TimeSlot {
	s := slot(id, day, start, end)
	s.IsBreak = true
	s.BreakName = &name
	return s
}

// oneSlotPerDay returns a 09:00 slot for each of the first n weekdays.
func oneSlotPerDay(n int) []models.TimeSlot {
	var out []models.TimeSlot
	for i, day := range models.Weekdays[:n] {
		out = append(out, slot(fmt.Sprintf("s%d", i+1), day, "09:00", "10:00"))
	}
	return out
}

type catalogStub struct {
	sections     []models.Section
	subjects     []models.Subject
	classrooms   []models.Classroom
	faculty      []models.Faculty
	slots        []models.TimeSlot
	availability []models.FacultyAvailability
	fixed        []models.FixedSlot
	rules        []models.ConstraintRule
	departments  map[models.DepartmentID]models.Department
	err          error
}

func (c *catalogStub) ListSections(context.Context, sqlx.ExtContext) ([]models.Section, error) {
	return c.sections, c.err
}

func (c *catalogStub) ListSubjects(context.Context, sqlx.ExtContext) ([]models.Subject, error) {
	return c.subjects, nil
}

func (c *catalogStub) ListClassrooms(_ context.Context, _ sqlx.ExtContext, onlyAvailable bool) ([]models.Classroom, error) {
	if !onlyAvailable {
		return c.classrooms, nil
	}
	var out []models.Classroom
	for _, r := range c.classrooms {
		if r.IsAvailable {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *catalogStub) ListFaculty(context.Context, sqlx.ExtContext) ([]models.Faculty, error) {
	return c.faculty, nil
}

func (c *catalogStub) ListTimeSlots(context.Context, sqlx.ExtContext) ([]models.TimeSlot, error) {
	return c.slots, nil
}

func (c *catalogStub) ListFacultyAvailability(context.Context, sqlx.ExtContext) ([]models.FacultyAvailability, error) {
	return c.availability, nil
}

func (c *catalogStub) ListFixedSlots(context.Context, sqlx.ExtContext) ([]models.FixedSlot, error) {
	return c.fixed, nil
}

func (c *catalogStub) ListConstraintRules(context.Context, sqlx.ExtContext) ([]models.ConstraintRule, error) {
	return c.rules, nil
}

func (c *catalogStub) FindSection(_ context.Context, id models.SectionID) (*models.Section, error) {
	for _, s := range c.sections {
		if s.ID == id {
			s := s
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (c *catalogStub) FindDepartment(_ context.Context, id models.DepartmentID) (*models.Department, error) {
	if dept, ok := c.departments[id]; ok {
		return &dept, nil
	}
	return nil, sql.ErrNoRows
}

func (c *catalogStub) FindFaculty(_ context.Context, id models.FacultyID) (*models.Faculty, error) {
	for _, f := range c.faculty {
		if f.ID == id {
			f := f
			return &f, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (c *catalogStub) FindFacultyByUser(_ context.Context, userID string) (*models.Faculty, error) {
	for _, f := range c.faculty {
		if f.UserID == userID {
			f := f
			return &f, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (c *catalogStub) snapshot() *catalogSnapshot {
	rooms, _ := c.ListClassrooms(context.Background(), nil, true)
	return newCatalogSnapshot(c.sections, c.subjects, rooms, c.faculty, c.slots)
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}
