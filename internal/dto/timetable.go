package dto

import (
	"time"

	"github.com/noah-isme/campus-timetable/internal/models"
)

// CoverageStatus classifies a generation run.
type CoverageStatus string

const (
	CoverageComplete CoverageStatus = "complete"
	CoveragePartial  CoverageStatus = "partial"
)

// SlotRef identifies one (section, day, slot) cell.
type SlotRef struct {
	SectionID  models.SectionID  `json:"sectionId"`
	Day        models.Weekday    `json:"day"`
	TimeSlotID models.TimeSlotID `json:"timeSlotId"`
	StartTime  string            `json:"startTime"`
}

// RuleViolation is one breach of a constraint rule found by the post-run audit.
type RuleViolation struct {
	Rule      models.RuleKind  `json:"rule"`
	Mandatory bool             `json:"mandatory"`
	Message   string           `json:"message"`
	EntryIDs  []models.EntryID `json:"entryIds,omitempty"`
}

// AssignmentCounts breaks totalCreated down by allocation path.
type AssignmentCounts struct {
	Primary  int `json:"primary"`
	Relaxed  int `json:"relaxed"`
	Override int `json:"override"`
	Fixed    int `json:"fixed"`
}

// CoverageReport summarises a generation run.
type CoverageReport struct {
	Status             CoverageStatus          `json:"status"`
	TotalRequiredSlots int                     `json:"totalRequiredSlots"`
	TotalCreated       int                     `json:"totalCreated"`
	SectionCount       int                     `json:"sectionCount"`
	NonBreakSlotCount  int                     `json:"nonBreakSlotCount"`
	Assignments        AssignmentCounts        `json:"assignments"`
	Unassigned         []SlotRef               `json:"unassigned"`
	Violations         []RuleViolation         `json:"violations"`
	Rules              []models.ConstraintRule `json:"rules"`
	FallbackMode       string                  `json:"fallbackMode"`
	GeneratedBy        string                  `json:"generatedBy,omitempty"`
	GeneratedAt        time.Time               `json:"generatedAt"`
	DurationMs         int64                   `json:"durationMs"`
}

// MandatoryViolations counts violations of blocking rules.
func (r *CoverageReport) MandatoryViolations() int {
	if r == nil {
		return 0
	}
	count := 0
	for _, v := range r.Violations {
		if v.Mandatory {
			count++
		}
	}
	return count
}

// GridCell is one occupied cell of the timetable grid.
type GridCell struct {
	EntryID       models.EntryID        `json:"entryId"`
	SectionID     models.SectionID      `json:"sectionId"`
	SubjectCode   string                `json:"subjectCode"`
	SubjectName   string                `json:"subjectName"`
	ClassroomName string                `json:"classroomName"`
	FacultyID     models.FacultyID      `json:"facultyId"`
	Mode          models.AssignmentMode `json:"mode"`
}

// GridRow is one distinct period of the day.
type GridRow struct {
	StartTime string                `json:"startTime"`
	EndTime   string                `json:"endTime"`
	IsBreak   bool                  `json:"isBreak"`
	BreakName string                `json:"breakName,omitempty"`
	Cells     map[string][]GridCell `json:"cells"`
}

// GridResponse renders entries as periods × weekdays.
type GridResponse struct {
	SectionID models.SectionID `json:"sectionId,omitempty"`
	Days      []models.Weekday `json:"days"`
	Rows      []GridRow        `json:"rows"`
}

// ResourceUtilization is the occupancy percentage of one room or faculty member.
type ResourceUtilization struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	OccupiedSlots int    `json:"occupiedSlots"`
	Percentage    int    `json:"percentage"`
}

// UtilizationResponse lists room and faculty occupancy.
type UtilizationResponse struct {
	AvailableSlots int                   `json:"availableSlots"`
	Classrooms     []ResourceUtilization `json:"classrooms"`
	Faculty        []ResourceUtilization `json:"faculty"`
}

// ExportQuery selects the export format for a section timetable.
type ExportQuery struct {
	SectionID string `uri:"id" validate:"required"`
	Format    string `form:"format" validate:"omitempty,oneof=pdf csv xlsx"`
}

// ExportFile is a rendered timetable document.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// PublishRequest optionally overrides the notification text.
type PublishRequest struct {
	Title   string `json:"title" validate:"omitempty,max=120"`
	Message string `json:"message" validate:"omitempty,max=500"`
}

// PublishResult reports the notification fan-out.
type PublishResult struct {
	Notified int      `json:"notified"`
	UserIDs  []string `json:"userIds"`
}

// FacultyClass is one class on a faculty member's schedule.
type FacultyClass struct {
	EntryID       models.EntryID        `json:"entryId"`
	Day           models.Weekday        `json:"day"`
	StartTime     string                `json:"startTime"`
	EndTime       string                `json:"endTime"`
	SectionID     models.SectionID      `json:"sectionId"`
	SectionName   string                `json:"sectionName"`
	SubjectCode   string                `json:"subjectCode"`
	SubjectName   string                `json:"subjectName"`
	ClassroomName string                `json:"classroomName"`
	Mode          models.AssignmentMode `json:"mode"`
}

// FacultyDashboard summarises one faculty member's timetable and workload.
type FacultyDashboard struct {
	Faculty         models.Faculty `json:"faculty"`
	Today           models.Weekday `json:"today,omitempty"`
	Classes         []FacultyClass `json:"classes"`
	TodayClasses    []FacultyClass `json:"todayClasses"`
	WeeklyClasses   int            `json:"weeklyClasses"`
	WorkloadLimit   int            `json:"workloadLimit"`
	WorkloadPercent int            `json:"workloadPercent"`
	TotalSubjects   int            `json:"totalSubjects"`
}

// NotificationInbox lists a user's notifications newest first. Unread counts
// the items that were unread before this listing marked them read.
type NotificationInbox struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}
