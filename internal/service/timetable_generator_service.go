package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable/internal/dto"
	"github.com/noah-isme/campus-timetable/internal/models"
	"github.com/noah-isme/campus-timetable/pkg/config"
	appErrors "github.com/noah-isme/campus-timetable/pkg/errors"
)

const (
	gridCachePattern = "timetable:grid:*"
	reportCacheKey   = "timetable:report:last"
)

type generatorCatalogReader interface {
	ListSections(ctx context.Context, exec sqlx.ExtContext) ([]models.Section, error)
	ListSubjects(ctx context.Context, exec sqlx.ExtContext) ([]models.Subject, error)
	ListClassrooms(ctx context.Context, exec sqlx.ExtContext, onlyAvailable bool) ([]models.Classroom, error)
	ListFaculty(ctx context.Context, exec sqlx.ExtContext) ([]models.Faculty, error)
	ListTimeSlots(ctx context.Context, exec sqlx.ExtContext) ([]models.TimeSlot, error)
	ListFacultyAvailability(ctx context.Context, exec sqlx.ExtContext) ([]models.FacultyAvailability, error)
	ListFixedSlots(ctx context.Context, exec sqlx.ExtContext) ([]models.FixedSlot, error)
	ListConstraintRules(ctx context.Context, exec sqlx.ExtContext) ([]models.ConstraintRule, error)
}

type generatorEntryWriter interface {
	TryRunLock(ctx context.Context, exec sqlx.ExtContext, key int64) (bool, error)
	DeleteAll(ctx context.Context, exec sqlx.ExtContext) error
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableGeneratorService regenerates the whole timetable in one transaction.
type TimetableGeneratorService struct {
	catalog generatorCatalogReader
	entries generatorEntryWriter
	tx      txProvider
	cache   *CacheService
	metrics *MetricsService
	cfg     config.SchedulerConfig
	logger  *zap.Logger

	mu   sync.RWMutex
	last *dto.CoverageReport
}

// NewTimetableGeneratorService wires generator dependencies.
func NewTimetableGeneratorService(
	catalog generatorCatalogReader,
	entries generatorEntryWriter,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	cfg config.SchedulerConfig,
	logger *zap.Logger,
) *TimetableGeneratorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableGeneratorService{
		catalog: catalog,
		entries: entries,
		tx:      tx,
		cache:   cache,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
	}
}

// Generate discards the current timetable and allocates a new one. On any
// error the previous entries are left untouched.
func (s *TimetableGeneratorService) Generate(ctx context.Context, actor string) (*dto.CoverageReport, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.ErrSchedulerDisabled
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	started := time.Now()

	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		s.metrics.RecordGenerationFailure()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	// No-op once committed; also releases the lock and connection on panic.
	defer tx.Rollback() //nolint:errcheck
	defer func() {
		if err != nil {
			s.metrics.RecordGenerationFailure()
			s.logger.Warn("timetable generation aborted", zap.String("actor", actor), zap.Error(err))
		}
	}()

	var report *dto.CoverageReport
	report, err = s.replace(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable")
		return nil, err
	}

	report.GeneratedBy = actor
	report.GeneratedAt = time.Now().UTC()
	report.DurationMs = time.Since(started).Milliseconds()
	s.remember(ctx, report)
	s.metrics.ObserveGeneration(report, time.Since(started))

	s.logger.Info("timetable generated",
		zap.String("actor", actor),
		zap.String("status", string(report.Status)),
		zap.Int("required", report.TotalRequiredSlots),
		zap.Int("created", report.TotalCreated),
		zap.Int("relaxed", report.Assignments.Relaxed),
		zap.Int("override", report.Assignments.Override),
		zap.Int("unassigned", len(report.Unassigned)),
		zap.Int64("duration_ms", report.DurationMs),
	)
	return report, nil
}

func (s *TimetableGeneratorService) replace(ctx context.Context, tx *sqlx.Tx) (*dto.CoverageReport, error) {
	acquired, err := s.entries.TryRunLock(ctx, tx, s.cfg.LockKey)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire generation lock")
	}
	if !acquired {
		return nil, appErrors.Clone(appErrors.ErrConflict, "another timetable generation is in progress")
	}

	snapshot, fixed, availability, rules, err := s.loadCatalog(ctx, tx)
	if err != nil {
		return nil, err
	}
	if snapshot.Exhausted() {
		return nil, appErrors.Clone(appErrors.ErrResourceExhausted, "allocation needs at least one available classroom and one faculty member")
	}

	var policy availabilityPolicy = openAvailability{}
	if s.cfg.EnforceAvailability {
		policy = newDeclaredAvailability(availability)
	}
	var reservations reservationPolicy = noReservations{}
	if s.cfg.HonorFixedSlots {
		reservations = newFixedSlotReservations(fixed, snapshot)
	}

	ruleSet := newRuleSet(rules)
	assigner := newSlotAssigner(snapshot, ruleSet, policy, s.cfg)
	outcome := runAllocation(snapshot, assigner, reservations)

	if err := s.entries.DeleteAll(ctx, tx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear previous timetable")
	}
	if err := s.entries.BulkInsert(ctx, tx, outcome.entries); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store timetable entries")
	}

	return buildCoverageReport(snapshot, outcome, ruleSet, assigner), nil
}

func (s *TimetableGeneratorService) loadCatalog(ctx context.Context, tx sqlx.ExtContext) (*catalogSnapshot, []models.FixedSlot, []models.FacultyAvailability, []models.ConstraintRule, error) {
	wrap := func(err error, what string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
	}
	sections, err := s.catalog.ListSections(ctx, tx)
	if err != nil {
		return nil, nil, nil, nil, wrap(err, "sections")
	}
	subjects, err := s.catalog.ListSubjects(ctx, tx)
	if err != nil {
		return nil, nil, nil, nil, wrap(err, "subjects")
	}
	classrooms, err := s.catalog.ListClassrooms(ctx, tx, true)
	if err != nil {
		return nil, nil, nil, nil, wrap(err, "classrooms")
	}
	faculty, err := s.catalog.ListFaculty(ctx, tx)
	if err != nil {
		return nil, nil, nil, nil, wrap(err, "faculty")
	}
	slots, err := s.catalog.ListTimeSlots(ctx, tx)
	if err != nil {
		return nil, nil, nil, nil, wrap(err, "time slots")
	}
	rules, err := s.catalog.ListConstraintRules(ctx, tx)
	if err != nil {
		return nil, nil, nil, nil, wrap(err, "constraint rules")
	}

	var availability []models.FacultyAvailability
	if s.cfg.EnforceAvailability {
		if availability, err = s.catalog.ListFacultyAvailability(ctx, tx); err != nil {
			return nil, nil, nil, nil, wrap(err, "faculty availability")
		}
	}
	var fixed []models.FixedSlot
	if s.cfg.HonorFixedSlots {
		if fixed, err = s.catalog.ListFixedSlots(ctx, tx); err != nil {
			return nil, nil, nil, nil, wrap(err, "fixed slots")
		}
	}

	return newCatalogSnapshot(sections, subjects, classrooms, faculty, slots), fixed, availability, rules, nil
}

func (s *TimetableGeneratorService) remember(ctx context.Context, report *dto.CoverageReport) {
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, gridCachePattern); err != nil {
		s.logger.Warn("failed to invalidate timetable grids", zap.Error(err))
	}
	if err := s.cache.Set(ctx, reportCacheKey, report, 0); err != nil {
		s.logger.Warn("failed to cache coverage report", zap.Error(err))
	}
}

// LastReport returns the report of the most recent successful run.
func (s *TimetableGeneratorService) LastReport(ctx context.Context) (*dto.CoverageReport, error) {
	if s.cache != nil {
		var cached dto.CoverageReport
		hit, err := s.cache.Get(ctx, reportCacheKey, &cached)
		if err == nil && hit {
			return &cached, nil
		}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable has been generated yet")
	}
	report := *s.last
	return &report, nil
}

type allocationOutcome struct {
	entries    []models.TimetableEntry
	unassigned []dto.SlotRef
}

// runAllocation sweeps sections by id, weekdays Monday to Saturday and
// non-break slots by start time. Pinned entries are reserved for every section
// before the sweep so they take part in clash checks from the start.
func runAllocation(catalog *catalogSnapshot, assigner *slotAssigner, reservations reservationPolicy) allocationOutcome {
	state := newAllocationState()
	for _, section := range catalog.sections {
		for _, entry := range reservations.reservedEntries(section) {
			if _, taken := state.sectionBusy(entry.SectionID, entry.Day, entry.TimeSlotID); taken {
				continue
			}
			state.reserve(entry)
		}
	}

	unassigned := make([]dto.SlotRef, 0)
	for _, section := range catalog.sections {
		subjects := catalog.SubjectsFor(section)
		for _, day := range models.Weekdays {
			for _, slot := range catalog.SlotsFor(day) {
				if subject, taken := state.sectionBusy(section.ID, day, slot.ID); taken {
					state.touch(section.ID, day, subject)
					continue
				}
				if _, ok := assigner.assign(state, section, day, slot, subjects); !ok {
					unassigned = append(unassigned, dto.SlotRef{
						SectionID:  section.ID,
						Day:        day,
						TimeSlotID: slot.ID,
						StartTime:  slot.StartTime,
					})
				}
			}
		}
	}
	return allocationOutcome{entries: state.entries(), unassigned: unassigned}
}

func buildCoverageReport(catalog *catalogSnapshot, outcome allocationOutcome, rules *ruleSet, assigner *slotAssigner) *dto.CoverageReport {
	report := &dto.CoverageReport{
		SectionCount:      len(catalog.sections),
		NonBreakSlotCount: catalog.NonBreakSlotCount(),
		TotalCreated:      len(outcome.entries),
		Unassigned:        outcome.unassigned,
		Violations:        rules.audit(outcome.entries, catalog, assigner.requiresLab),
		Rules:             rules.ruleCatalog(),
		FallbackMode:      assigner.fallbackMode,
	}
	report.TotalRequiredSlots = report.NonBreakSlotCount * report.SectionCount
	for _, entry := range outcome.entries {
		switch entry.Mode {
		case models.AssignmentPrimary:
			report.Assignments.Primary++
		case models.AssignmentRelaxed:
			report.Assignments.Relaxed++
		case models.AssignmentOverride:
			report.Assignments.Override++
		case models.AssignmentFixed:
			report.Assignments.Fixed++
		}
	}
	report.Status = dto.CoveragePartial
	if report.TotalCreated >= report.TotalRequiredSlots {
		report.Status = dto.CoverageComplete
	}
	return report
}
