package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable/internal/dto"
	"github.com/noah-isme/campus-timetable/internal/middleware"
	"github.com/noah-isme/campus-timetable/internal/models"
	appErrors "github.com/noah-isme/campus-timetable/pkg/errors"
	"github.com/noah-isme/campus-timetable/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, actor string) (*dto.CoverageReport, error)
	LastReport(ctx context.Context) (*dto.CoverageReport, error)
}

type timetableReader interface {
	Grid(ctx context.Context, sectionID models.SectionID) (*dto.GridResponse, error)
	Utilization(ctx context.Context) (*dto.UtilizationResponse, error)
	Export(ctx context.Context, query dto.ExportQuery) (*dto.ExportFile, error)
	FacultyDashboard(ctx context.Context, id models.FacultyID) (*dto.FacultyDashboard, error)
	FacultyDashboardForUser(ctx context.Context, userID string) (*dto.FacultyDashboard, error)
}

type timetablePublisher interface {
	Publish(ctx context.Context, req dto.PublishRequest) (*dto.PublishResult, error)
}

// TimetableHandler exposes generation, publishing and read endpoints.
type TimetableHandler struct {
	generator timetableGenerator
	reader    timetableReader
	publisher timetablePublisher
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(generator timetableGenerator, reader timetableReader, publisher timetablePublisher) *TimetableHandler {
	return &TimetableHandler{generator: generator, reader: reader, publisher: publisher}
}

// Generate godoc
// @Summary Regenerate the whole timetable
// @Description Discards every entry and allocates a new timetable in one transaction. Returns the coverage report.
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	report, err := h.generator.Generate(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, map[string]interface{}{
		"status":              report.Status,
		"mandatoryViolations": report.MandatoryViolations(),
	})
}

// Report godoc
// @Summary Coverage report of the last generation run
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/report [get]
func (h *TimetableHandler) Report(c *gin.Context) {
	report, err := h.generator.LastReport(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Grid godoc
// @Summary Timetable grid
// @Description Periods by weekdays. Filter with the section query parameter.
// @Tags Timetable
// @Produce json
// @Param section query string false "Section ID"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Grid(c *gin.Context) {
	grid, err := h.reader.Grid(c.Request.Context(), models.SectionID(c.Query("section")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid)
}

// PublicGrid godoc
// @Summary Public timetable of one section
// @Description Read-only grid for students and guests. No token required.
// @Tags Timetable
// @Produce json
// @Param section query string true "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/public [get]
func (h *TimetableHandler) PublicGrid(c *gin.Context) {
	sectionID := strings.TrimSpace(c.Query("section"))
	if sectionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "section is required"))
		return
	}
	grid, err := h.reader.Grid(c.Request.Context(), models.SectionID(sectionID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid)
}

// FacultyDashboard godoc
// @Summary Schedule and workload of one faculty member
// @Tags Timetable
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/faculty/{id} [get]
func (h *TimetableHandler) FacultyDashboard(c *gin.Context) {
	board, err := h.reader.FacultyDashboard(c.Request.Context(), models.FacultyID(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board)
}

// MyFacultyDashboard godoc
// @Summary Schedule and workload of the calling faculty member
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/faculty/me [get]
func (h *TimetableHandler) MyFacultyDashboard(c *gin.Context) {
	var userID string
	if claims := middleware.CurrentClaims(c); claims != nil {
		userID = claims.UserID
	}
	board, err := h.reader.FacultyDashboardForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board)
}

// Utilization godoc
// @Summary Classroom and faculty utilization
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/utilization [get]
func (h *TimetableHandler) Utilization(c *gin.Context) {
	result, err := h.reader.Utilization(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Export godoc
// @Summary Export a section timetable
// @Tags Timetable
// @Produce application/pdf
// @Produce text/csv
// @Param id path string true "Section ID"
// @Param format query string false "pdf, csv or xlsx" default(pdf)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /timetable/sections/{id}/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindUri(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section id"))
		return
	}
	query.Format = c.Query("format")

	file, err := h.reader.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}

// Publish godoc
// @Summary Publish the current timetable
// @Description Stores one notification per faculty member holding classes and queues them for delivery.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.PublishRequest false "Optional notification text"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /timetable/publish [post]
func (h *TimetableHandler) Publish(c *gin.Context) {
	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid publish payload"))
		return
	}
	result, err := h.publisher.Publish(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
