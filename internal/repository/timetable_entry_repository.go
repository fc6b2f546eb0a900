package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-timetable/internal/models"
)

const insertChunkSize = 500

var entryColumns = []string{"id", "section_id", "day", "time_slot_id", "subject_id", "classroom_id", "faculty_id", "is_fixed", "assignment_mode", "created_at"}

// entrySelectColumns reads faculty_id as "" once the faculty row is gone
// (ON DELETE SET NULL).
var entrySelectColumns = []string{"id", "section_id", "day", "time_slot_id", "subject_id", "classroom_id", "COALESCE(faculty_id, '') AS faculty_id", "is_fixed", "assignment_mode", "created_at"}

// TimetableEntryRepository persists generated timetable entries.
type TimetableEntryRepository struct {
	db   *sqlx.DB
	psql sq.StatementBuilderType
}

// NewTimetableEntryRepository constructs the repository.
func NewTimetableEntryRepository(db *sqlx.DB) *TimetableEntryRepository {
	return &TimetableEntryRepository{db: db, psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

func (r *TimetableEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BeginTxx starts a transaction on the underlying database.
func (r *TimetableEntryRepository) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, opts)
}

// TryRunLock takes a transaction-scoped advisory lock. It returns false when
// another generation run holds it.
func (r *TimetableEntryRepository) TryRunLock(ctx context.Context, exec sqlx.ExtContext, key int64) (bool, error) {
	var acquired bool
	if err := sqlx.GetContext(ctx, r.exec(exec), &acquired, `SELECT pg_try_advisory_xact_lock($1)`, key); err != nil {
		return false, fmt.Errorf("acquire generation lock: %w", err)
	}
	return acquired, nil
}

// List returns entries matching the filter ordered by section and slot.
func (r *TimetableEntryRepository) List(ctx context.Context, filter models.TimetableEntryFilter) ([]models.TimetableEntry, error) {
	builder := r.psql.Select(entrySelectColumns...).From("timetable_entries")
	if filter.SectionID != "" {
		builder = builder.Where(sq.Eq{"section_id": filter.SectionID})
	}
	if filter.FacultyID != "" {
		builder = builder.Where(sq.Eq{"faculty_id": filter.FacultyID})
	}
	query, args, err := builder.OrderBy("section_id ASC", "time_slot_id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build entry query: %w", err)
	}

	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// DeleteAll removes every entry. Callers run it inside the replace transaction.
func (r *TimetableEntryRepository) DeleteAll(ctx context.Context, exec sqlx.ExtContext) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM timetable_entries`); err != nil {
		return fmt.Errorf("delete timetable entries: %w", err)
	}
	return nil
}

// BulkInsert writes entries with multi-row inserts.
func (r *TimetableEntryRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	for start := 0; start < len(entries); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(entries) {
			end = len(entries)
		}
		builder := r.psql.Insert("timetable_entries").Columns(entryColumns...)
		for i := start; i < end; i++ {
			entry := &entries[i]
			if entry.CreatedAt.IsZero() {
				entry.CreatedAt = now
			}
			builder = builder.Values(entry.ID, entry.SectionID, entry.Day, entry.TimeSlotID, entry.SubjectID,
				entry.ClassroomID, nullableFaculty(entry.FacultyID), entry.IsFixed, entry.Mode, entry.CreatedAt)
		}
		query, args, err := builder.ToSql()
		if err != nil {
			return fmt.Errorf("build entry insert: %w", err)
		}
		if _, err := target.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert timetable entries: %w", err)
		}
	}
	return nil
}

// ListFacultyUsers returns the distinct user ids of faculty holding entries.
func (r *TimetableEntryRepository) ListFacultyUsers(ctx context.Context, exec sqlx.ExtContext) ([]string, error) {
	const query = `SELECT DISTINCT f.user_id FROM timetable_entries e JOIN faculty f ON f.id = e.faculty_id ORDER BY f.user_id ASC`
	var users []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &users, query); err != nil {
		return nil, fmt.Errorf("list faculty users: %w", err)
	}
	return users, nil
}

func nullableFaculty(id models.FacultyID) interface{} {
	if id == "" {
		return nil
	}
	return id
}
