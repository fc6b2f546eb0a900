package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable/internal/dto"
	"github.com/noah-isme/campus-timetable/internal/models"
	appErrors "github.com/noah-isme/campus-timetable/pkg/errors"
	"github.com/noah-isme/campus-timetable/pkg/export"
)

const (
	exportFormatPDF  = "pdf"
	exportFormatCSV  = "csv"
	exportFormatXLSX = "xlsx"

	// defaultWeeklyLoad is the workload limit for faculty without a declared maximum.
	defaultWeeklyLoad = 20
)

type timetableCatalogReader interface {
	FindSection(ctx context.Context, id models.SectionID) (*models.Section, error)
	FindDepartment(ctx context.Context, id models.DepartmentID) (*models.Department, error)
	FindFaculty(ctx context.Context, id models.FacultyID) (*models.Faculty, error)
	FindFacultyByUser(ctx context.Context, userID string) (*models.Faculty, error)
	ListSections(ctx context.Context, exec sqlx.ExtContext) ([]models.Section, error)
	ListSubjects(ctx context.Context, exec sqlx.ExtContext) ([]models.Subject, error)
	ListClassrooms(ctx context.Context, exec sqlx.ExtContext, onlyAvailable bool) ([]models.Classroom, error)
	ListFaculty(ctx context.Context, exec sqlx.ExtContext) ([]models.Faculty, error)
	ListTimeSlots(ctx context.Context, exec sqlx.ExtContext) ([]models.TimeSlot, error)
}

type timetableEntryReader interface {
	List(ctx context.Context, filter models.TimetableEntryFilter) ([]models.TimetableEntry, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// TimetableService serves read views over the current timetable.
type TimetableService struct {
	catalog   timetableCatalogReader
	entries   timetableEntryReader
	cache     *CacheService
	renderers map[string]datasetRenderer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTimetableService constructs the service with the PDF, CSV and XLSX exporters.
func NewTimetableService(catalog timetableCatalogReader, entries timetableEntryReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		catalog: catalog,
		entries: entries,
		cache:   cache,
		renderers: map[string]datasetRenderer{
			exportFormatPDF:  export.NewPDFExporter(),
			exportFormatCSV:  export.NewCSVExporter(),
			exportFormatXLSX: export.NewXLSXExporter(),
		},
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

func gridCacheKey(sectionID models.SectionID) string {
	if sectionID == "" {
		return "timetable:grid:all"
	}
	return "timetable:grid:" + string(sectionID)
}

// Grid renders entries as periods × weekdays, optionally for one section.
func (s *TimetableService) Grid(ctx context.Context, sectionID models.SectionID) (*dto.GridResponse, error) {
	key := gridCacheKey(sectionID)
	var cached dto.GridResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	if sectionID != "" {
		if _, err := s.findSection(ctx, sectionID); err != nil {
			return nil, err
		}
	}

	slots, err := s.catalog.ListTimeSlots(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	entries, err := s.entries.List(ctx, models.TimetableEntryFilter{SectionID: sectionID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	subjects, err := s.catalog.ListSubjects(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	rooms, err := s.catalog.ListClassrooms(ctx, nil, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}

	grid := buildGrid(slots, entries,
		lo.KeyBy(subjects, func(item models.Subject) models.SubjectID { return item.ID }),
		lo.KeyBy(rooms, func(item models.Classroom) models.ClassroomID { return item.ID }),
	)
	grid.SectionID = sectionID

	_ = s.cache.Set(ctx, key, grid, 0)
	return grid, nil
}

type periodKey struct {
	start string
	end   string
}

func buildGrid(
	slots []models.TimeSlot,
	entries []models.TimetableEntry,
	subjects map[models.SubjectID]models.Subject,
	rooms map[models.ClassroomID]models.Classroom,
) *dto.GridResponse {
	ordered := append([]models.TimeSlot(nil), slots...)
	sortSlots(ordered)

	rowIndex := make(map[periodKey]int)
	slotRow := make(map[models.TimeSlotID]int, len(ordered))
	rows := make([]dto.GridRow, 0)
	for _, slot := range ordered {
		key := periodKey{start: slot.StartTime, end: slot.EndTime}
		idx, ok := rowIndex[key]
		if !ok {
			idx = len(rows)
			rowIndex[key] = idx
			cells := make(map[string][]dto.GridCell, len(models.Weekdays))
			for _, day := range models.Weekdays {
				cells[day.String()] = []dto.GridCell{}
			}
			rows = append(rows, dto.GridRow{StartTime: slot.StartTime, EndTime: slot.EndTime, Cells: cells})
		}
		if slot.IsBreak {
			rows[idx].IsBreak = true
			rows[idx].BreakName = slot.Label()
		}
		slotRow[slot.ID] = idx
	}

	for _, entry := range entries {
		idx, ok := slotRow[entry.TimeSlotID]
		if !ok || !entry.Day.Valid() {
			continue
		}
		subject := subjects[entry.SubjectID]
		room := rooms[entry.ClassroomID]
		day := entry.Day.String()
		rows[idx].Cells[day] = append(rows[idx].Cells[day], dto.GridCell{
			EntryID:       entry.ID,
			SectionID:     entry.SectionID,
			SubjectCode:   subject.Code,
			SubjectName:   subject.Name,
			ClassroomName: room.Name,
			FacultyID:     entry.FacultyID,
			Mode:          entry.Mode,
		})
	}

	return &dto.GridResponse{Days: models.Weekdays, Rows: rows}
}

// Utilization reports room and faculty occupancy against the non-break slot count.
func (s *TimetableService) Utilization(ctx context.Context) (*dto.UtilizationResponse, error) {
	slots, err := s.catalog.ListTimeSlots(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	entries, err := s.entries.List(ctx, models.TimetableEntryFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	rooms, err := s.catalog.ListClassrooms(ctx, nil, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	faculty, err := s.catalog.ListFaculty(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	available := lo.CountBy(slots, func(slot models.TimeSlot) bool { return !slot.IsBreak })
	byRoom := lo.GroupBy(entries, func(e models.TimetableEntry) models.ClassroomID { return e.ClassroomID })
	byFaculty := lo.GroupBy(entries, func(e models.TimetableEntry) models.FacultyID { return e.FacultyID })

	resp := &dto.UtilizationResponse{
		AvailableSlots: available,
		Classrooms:     make([]dto.ResourceUtilization, 0, len(rooms)),
		Faculty:        make([]dto.ResourceUtilization, 0, len(faculty)),
	}
	for _, room := range rooms {
		occupied := len(byRoom[room.ID])
		resp.Classrooms = append(resp.Classrooms, dto.ResourceUtilization{
			ID:            string(room.ID),
			Label:         room.Name,
			OccupiedSlots: occupied,
			Percentage:    percentage(occupied, available),
		})
	}
	for _, member := range faculty {
		occupied := len(byFaculty[member.ID])
		label := member.EmployeeID
		if label == "" {
			label = string(member.ID)
		}
		resp.Faculty = append(resp.Faculty, dto.ResourceUtilization{
			ID:            string(member.ID),
			Label:         label,
			OccupiedSlots: occupied,
			Percentage:    percentage(occupied, available),
		})
	}
	sort.SliceStable(resp.Classrooms, func(i, j int) bool { return resp.Classrooms[i].Percentage > resp.Classrooms[j].Percentage })
	sort.SliceStable(resp.Faculty, func(i, j int) bool { return resp.Faculty[i].Percentage > resp.Faculty[j].Percentage })
	return resp, nil
}

func percentage(occupied, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(occupied) / float64(total) * 100))
}

// Export renders one section's grid as pdf (default), csv or xlsx.
func (s *TimetableService) Export(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export query")
	}
	format := strings.ToLower(query.Format)
	if format == "" {
		format = exportFormatPDF
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", query.Format))
	}

	sectionID := models.SectionID(query.SectionID)
	section, err := s.findSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	deptCode := string(section.DepartmentID)
	if dept, err := s.catalog.FindDepartment(ctx, section.DepartmentID); err == nil && dept.Code != "" {
		deptCode = dept.Code
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	grid, err := s.Grid(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	dataset := gridDataset(grid, fmt.Sprintf("Official Timetable - Section %s (%s)", section.Name, deptCode))
	content, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}

	s.logger.Debug("timetable exported", zap.String("section_id", string(sectionID)), zap.String("format", format), zap.Int("bytes", len(content)))
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("timetable-%s.%s", sanitizeFilename(section.Name), format),
		ContentType: contentTypeFor(format),
		Content:     content,
	}, nil
}

func gridDataset(grid *dto.GridResponse, title string) export.Dataset {
	headers := []string{"Time"}
	for _, day := range grid.Days {
		headers = append(headers, day.Short())
	}

	rows := make([]export.Row, 0, len(grid.Rows))
	for _, row := range grid.Rows {
		period := fmt.Sprintf("%s - %s", row.StartTime, row.EndTime)
		if row.IsBreak {
			rows = append(rows, export.Row{Cells: []string{period}, Banner: row.BreakName})
			continue
		}
		cells := []string{period}
		for _, day := range grid.Days {
			items := row.Cells[day.String()]
			if len(items) == 0 {
				cells = append(cells, "-")
				continue
			}
			parts := lo.Map(items, func(cell dto.GridCell, _ int) string {
				return cell.SubjectCode + "\n" + cell.ClassroomName
			})
			cells = append(cells, strings.Join(parts, "\n"))
		}
		rows = append(rows, export.Row{Cells: cells})
	}
	return export.Dataset{Title: title, Headers: headers, Rows: rows}
}

// FacultyDashboard returns a faculty member's classes, today's classes and
// weekly workload.
func (s *TimetableService) FacultyDashboard(ctx context.Context, id models.FacultyID) (*dto.FacultyDashboard, error) {
	member, err := s.catalog.FindFaculty(ctx, id)
	if err != nil {
		return nil, lookupError(err, "faculty member not found", "failed to load faculty member")
	}
	return s.facultyDashboard(ctx, member)
}

// FacultyDashboardForUser resolves the faculty profile linked to a user account.
func (s *TimetableService) FacultyDashboardForUser(ctx context.Context, userID string) (*dto.FacultyDashboard, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, appErrors.ErrUnauthorized
	}
	member, err := s.catalog.FindFacultyByUser(ctx, userID)
	if err != nil {
		return nil, lookupError(err, "faculty profile not found", "failed to load faculty profile")
	}
	return s.facultyDashboard(ctx, member)
}

func (s *TimetableService) facultyDashboard(ctx context.Context, member *models.Faculty) (*dto.FacultyDashboard, error) {
	entries, err := s.entries.List(ctx, models.TimetableEntryFilter{FacultyID: member.ID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entries")
	}
	slots, err := s.catalog.ListTimeSlots(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	subjects, err := s.catalog.ListSubjects(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	rooms, err := s.catalog.ListClassrooms(ctx, nil, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	sections, err := s.catalog.ListSections(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}

	slotIndex := lo.KeyBy(slots, func(item models.TimeSlot) models.TimeSlotID { return item.ID })
	subjectIndex := lo.KeyBy(subjects, func(item models.Subject) models.SubjectID { return item.ID })
	roomIndex := lo.KeyBy(rooms, func(item models.Classroom) models.ClassroomID { return item.ID })
	sectionIndex := lo.KeyBy(sections, func(item models.Section) models.SectionID { return item.ID })

	classes := lo.Map(entries, func(entry models.TimetableEntry, _ int) dto.FacultyClass {
		slot := slotIndex[entry.TimeSlotID]
		subject := subjectIndex[entry.SubjectID]
		return dto.FacultyClass{
			EntryID:       entry.ID,
			Day:           entry.Day,
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
			SectionID:     entry.SectionID,
			SectionName:   sectionIndex[entry.SectionID].Name,
			SubjectCode:   subject.Code,
			SubjectName:   subject.Name,
			ClassroomName: roomIndex[entry.ClassroomID].Name,
			Mode:          entry.Mode,
		}
	})
	sort.SliceStable(classes, func(i, j int) bool {
		if classes[i].Day != classes[j].Day {
			return classes[i].Day < classes[j].Day
		}
		return classes[i].StartTime < classes[j].StartTime
	})

	today := models.WeekdayOf(s.now())
	limit := member.MaxClassesPerWeek
	if limit <= 0 {
		limit = defaultWeeklyLoad
	}
	todayClasses := lo.Filter(classes, func(class dto.FacultyClass, _ int) bool {
		return today.Valid() && class.Day == today
	})
	return &dto.FacultyDashboard{
		Faculty:         *member,
		Today:           today,
		Classes:         classes,
		TodayClasses:    todayClasses,
		WeeklyClasses:   len(entries),
		WorkloadLimit:   limit,
		WorkloadPercent: percentage(len(entries), limit),
		TotalSubjects:   len(lo.UniqBy(entries, func(entry models.TimetableEntry) models.SubjectID { return entry.SubjectID })),
	}, nil
}

func (s *TimetableService) findSection(ctx context.Context, id models.SectionID) (*models.Section, error) {
	section, err := s.catalog.FindSection(ctx, id)
	if err != nil {
		return nil, lookupError(err, "section not found", "failed to load section")
	}
	return section, nil
}

func lookupError(err error, notFound, failed string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, failed)
}

func contentTypeFor(format string) string {
	switch format {
	case exportFormatCSV:
		return "text/csv"
	case exportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/pdf"
	}
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return "section"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
