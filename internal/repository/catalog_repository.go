package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable/internal/models"
)

// CatalogRepository reads the master data the allocator consumes. Every
// method accepts an optional executor so a generation run can read through
// its own transaction.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository constructs the repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListSections returns every section ordered by id.
func (r *CatalogRepository) ListSections(ctx context.Context, exec sqlx.ExtContext) ([]models.Section, error) {
	const query = `SELECT id, name, semester, department_id, student_count FROM sections ORDER BY id ASC`
	var sections []models.Section
	if err := sqlx.SelectContext(ctx, r.exec(exec), &sections, query); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindSection loads one section.
func (r *CatalogRepository) FindSection(ctx context.Context, id models.SectionID) (*models.Section, error) {
	const query = `SELECT id, name, semester, department_id, student_count FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

const facultyColumns = `id, user_id, department_id, designation, employee_id, max_classes_per_day, max_classes_per_week`

// FindFaculty loads one faculty member.
func (r *CatalogRepository) FindFaculty(ctx context.Context, id models.FacultyID) (*models.Faculty, error) {
	query := `SELECT ` + facultyColumns + ` FROM faculty WHERE id = $1`
	var member models.Faculty
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// FindFacultyByUser loads the faculty profile linked to a user account.
func (r *CatalogRepository) FindFacultyByUser(ctx context.Context, userID string) (*models.Faculty, error) {
	query := `SELECT ` + facultyColumns + ` FROM faculty WHERE user_id = $1`
	var member models.Faculty
	if err := r.db.GetContext(ctx, &member, query, userID); err != nil {
		return nil, err
	}
	return &member, nil
}

// FindDepartment loads one department.
func (r *CatalogRepository) FindDepartment(ctx context.Context, id models.DepartmentID) (*models.Department, error) {
	const query = `SELECT id, name, code, created_at FROM departments WHERE id = $1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		return nil, err
	}
	return &dept, nil
}

// ListSubjects returns every subject ordered by id.
func (r *CatalogRepository) ListSubjects(ctx context.Context, exec sqlx.ExtContext) ([]models.Subject, error) {
	const query = `SELECT id, name, code, department_id, semester, subject_type, credit_hours, classes_per_week FROM subjects ORDER BY id ASC`
	var subjects []models.Subject
	if err := sqlx.SelectContext(ctx, r.exec(exec), &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// ListClassrooms returns classrooms ordered by id, optionally only bookable ones.
func (r *CatalogRepository) ListClassrooms(ctx context.Context, exec sqlx.ExtContext, onlyAvailable bool) ([]models.Classroom, error) {
	query := `SELECT id, name, capacity, room_type, is_available FROM classrooms`
	if onlyAvailable {
		query += ` WHERE is_available = TRUE`
	}
	query += ` ORDER BY id ASC`
	var rooms []models.Classroom
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rooms, query); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return rooms, nil
}

// ListFaculty returns every faculty member ordered by id.
func (r *CatalogRepository) ListFaculty(ctx context.Context, exec sqlx.ExtContext) ([]models.Faculty, error) {
	query := `SELECT ` + facultyColumns + ` FROM faculty ORDER BY id ASC`
	var faculty []models.Faculty
	if err := sqlx.SelectContext(ctx, r.exec(exec), &faculty, query); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return faculty, nil
}

// ListTimeSlots returns all slots, breaks included, ordered by start time.
func (r *CatalogRepository) ListTimeSlots(ctx context.Context, exec sqlx.ExtContext) ([]models.TimeSlot, error) {
	const query = `SELECT id, day, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time, is_break, break_name
FROM time_slots ORDER BY start_time ASC, id ASC`
	var slots []models.TimeSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// ListFacultyAvailability returns every declared availability record.
func (r *CatalogRepository) ListFacultyAvailability(ctx context.Context, exec sqlx.ExtContext) ([]models.FacultyAvailability, error) {
	const query = `SELECT faculty_id, day, to_char(start_time, 'HH24:MI') AS start_time, is_available FROM faculty_availability ORDER BY faculty_id ASC`
	var records []models.FacultyAvailability
	if err := sqlx.SelectContext(ctx, r.exec(exec), &records, query); err != nil {
		return nil, fmt.Errorf("list faculty availability: %w", err)
	}
	return records, nil
}

// ListFixedSlots returns pre-pinned assignments.
func (r *CatalogRepository) ListFixedSlots(ctx context.Context, exec sqlx.ExtContext) ([]models.FixedSlot, error) {
	const query = `SELECT id, section_id, time_slot_id, subject_id, classroom_id, faculty_id FROM fixed_slots ORDER BY id ASC`
	var slots []models.FixedSlot
	if err := sqlx.SelectContext(ctx, r.exec(exec), &slots, query); err != nil {
		return nil, fmt.Errorf("list fixed slots: %w", err)
	}
	return slots, nil
}

// ListConstraintRules returns the configured rule catalog.
func (r *CatalogRepository) ListConstraintRules(ctx context.Context, exec sqlx.ExtContext) ([]models.ConstraintRule, error) {
	const query = `SELECT id, rule_type, is_mandatory, description FROM constraint_rules ORDER BY id ASC`
	var rules []models.ConstraintRule
	if err := sqlx.SelectContext(ctx, r.exec(exec), &rules, query); err != nil {
		return nil, fmt.Errorf("list constraint rules: %w", err)
	}
	return rules, nil
}
