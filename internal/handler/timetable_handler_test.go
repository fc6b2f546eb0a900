package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable/internal/dto"
	"github.com/noah-isme/campus-timetable/internal/middleware"
	"github.com/noah-isme/campus-timetable/internal/models"
	appErrors "github.com/noah-isme/campus-timetable/pkg/errors"
)

type generatorMock struct {
	actor  string
	report *dto.CoverageReport
	err    error
}

func (m *generatorMock) Generate(_ context.Context, actor string) (*dto.CoverageReport, error) {
	m.actor = actor
	return m.report, m.err
}

func (m *generatorMock) LastReport(context.Context) (*dto.CoverageReport, error) {
	if m.report == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable has been generated yet")
	}
	return m.report, nil
}

type readerMock struct {
	section models.SectionID
	query   dto.ExportQuery
	file    *dto.ExportFile
	faculty models.FacultyID
	userID  string
	err     error
}

func (m *readerMock) Grid(_ context.Context, sectionID models.SectionID) (*dto.GridResponse, error) {
	m.section = sectionID
	return &dto.GridResponse{SectionID: sectionID, Days: models.Weekdays}, m.err
}

func (m *readerMock) Utilization(context.Context) (*dto.UtilizationResponse, error) {
	return &dto.UtilizationResponse{AvailableSlots: 30}, m.err
}

func (m *readerMock) Export(_ context.Context, query dto.ExportQuery) (*dto.ExportFile, error) {
	m.query = query
	return m.file, m.err
}

func (m *readerMock) FacultyDashboard(_ context.Context, id models.FacultyID) (*dto.FacultyDashboard, error) {
	m.faculty = id
	if m.err != nil {
		return nil, m.err
	}
	return &dto.FacultyDashboard{Faculty: models.Faculty{ID: id}, WeeklyClasses: 3, WorkloadPercent: 15}, nil
}

func (m *readerMock) FacultyDashboardForUser(_ context.Context, userID string) (*dto.FacultyDashboard, error) {
	m.userID = userID
	if m.err != nil {
		return nil, m.err
	}
	return &dto.FacultyDashboard{Faculty: models.Faculty{ID: "f1", UserID: userID}}, nil
}

type publisherMock struct {
	req dto.PublishRequest
	err error
}

func (m *publisherMock) Publish(_ context.Context, req dto.PublishRequest) (*dto.PublishResult, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.PublishResult{Notified: 2, UserIDs: []string{"u1", "u2"}}, nil
}

func newTimetableRouter(h *TimetableHandler, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
		c.Next()
	})
	r.POST("/timetable/generate", h.Generate)
	r.POST("/timetable/publish", h.Publish)
	r.GET("/timetable", h.Grid)
	r.GET("/timetable/report", h.Report)
	r.GET("/timetable/utilization", h.Utilization)
	r.GET("/timetable/sections/:id/export", h.Export)
	r.GET("/timetable/public", h.PublicGrid)
	r.GET("/timetable/faculty/me", h.MyFacultyDashboard)
	r.GET("/timetable/faculty/:id", h.FacultyDashboard)
	return r
}

func do(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTimetableHandlerGenerate(t *testing.T) {
	gen := &generatorMock{report: &dto.CoverageReport{
		Status:       dto.CoveragePartial,
		TotalCreated: 4,
		Violations:   []dto.RuleViolation{{Rule: models.RuleRoomClash, Mandatory: true}},
	}}
	r := newTimetableRouter(NewTimetableHandler(gen, &readerMock{}, &publisherMock{}),
		&models.JWTClaims{UserID: "u1", Email: "admin@campus.test", Role: models.RoleAdmin})

	w := do(r, http.MethodPost, "/timetable/generate", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@campus.test", gen.actor)

	var body struct {
		Data dto.CoverageReport     `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Data.TotalCreated)
	assert.Equal(t, "partial", body.Meta["status"])
	assert.Equal(t, float64(1), body.Meta["mandatoryViolations"])
}

func TestTimetableHandlerGenerateErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{appErrors.Clone(appErrors.ErrResourceExhausted, "no classrooms"), http.StatusPreconditionFailed, "RESOURCE_EXHAUSTED"},
		{appErrors.Clone(appErrors.ErrConflict, "busy"), http.StatusConflict, "CONFLICT"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			r := newTimetableRouter(NewTimetableHandler(&generatorMock{err: tc.err}, &readerMock{}, &publisherMock{}), nil)
			w := do(r, http.MethodPost, "/timetable/generate", nil)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.code)
		})
	}
}

func TestTimetableHandlerReport(t *testing.T) {
	r := newTimetableRouter(NewTimetableHandler(&generatorMock{}, &readerMock{}, &publisherMock{}), nil)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/timetable/report", nil).Code)

	gen := &generatorMock{report: &dto.CoverageReport{Status: dto.CoverageComplete}}
	r = newTimetableRouter(NewTimetableHandler(gen, &readerMock{}, &publisherMock{}), nil)
	w := do(r, http.MethodGet, "/timetable/report", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"complete"`)
}

func TestTimetableHandlerGridAndUtilization(t *testing.T) {
	reader := &readerMock{}
	r := newTimetableRouter(NewTimetableHandler(&generatorMock{}, reader, &publisherMock{}), nil)

	w := do(r, http.MethodGet, "/timetable?section=sec-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SectionID("sec-a"), reader.section)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = do(r, http.MethodGet, "/timetable/utilization", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"availableSlots":30`)
}

func TestTimetableHandlerExport(t *testing.T) {
	reader := &readerMock{file: &dto.ExportFile{Filename: "timetable-cse-3a.csv", ContentType: "text/csv", Content: []byte("Time,Mon\n")}}
	r := newTimetableRouter(NewTimetableHandler(&generatorMock{}, reader, &publisherMock{}), nil)

	w := do(r, http.MethodGet, "/timetable/sections/sec-a/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sec-a", reader.query.SectionID)
	assert.Equal(t, "csv", reader.query.Format)
	assert.Equal(t, `attachment; filename="timetable-cse-3a.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "Time,Mon\n", w.Body.String())

	reader.err = appErrors.Clone(appErrors.ErrNotFound, "section not found")
	w = do(r, http.MethodGet, "/timetable/sections/missing/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableHandlerPublish(t *testing.T) {
	publisher := &publisherMock{}
	r := newTimetableRouter(NewTimetableHandler(&generatorMock{}, &readerMock{}, publisher), nil)

	w := do(r, http.MethodPost, "/timetable/publish", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"notified":2`)

	w = do(r, http.MethodPost, "/timetable/publish", []byte(`{"title":"Spring"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Spring", publisher.req.Title)

	w = do(r, http.MethodPost, "/timetable/publish", []byte(`{"title":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	publisher.err = appErrors.Clone(appErrors.ErrPreconditionFailed, "no faculty")
	w = do(r, http.MethodPost, "/timetable/publish", nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestActorFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "anonymous", actorFromContext(c))

	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u9"})
	assert.Equal(t, "u9", actorFromContext(c))
}

func TestTimetableHandlerPublicGrid(t *testing.T) {
	reader := &readerMock{}
	r := newTimetableRouter(NewTimetableHandler(&generatorMock{}, reader, &publisherMock{}), nil)

	w := do(r, http.MethodGet, "/timetable/public?section=sec-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.SectionID("sec-a"), reader.section)
	assert.Contains(t, w.Body.String(), `"sectionId":"sec-a"`)

	w = do(r, http.MethodGet, "/timetable/public", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestTimetableHandlerFacultyDashboard(t *testing.T) {
	reader := &readerMock{}
	claims := &models.JWTClaims{UserID: "user-f1", Role: models.RoleFaculty}
	r := newTimetableRouter(NewTimetableHandler(&generatorMock{}, reader, &publisherMock{}), claims)

	w := do(r, http.MethodGet, "/timetable/faculty/f7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.FacultyID("f7"), reader.faculty)
	assert.Contains(t, w.Body.String(), `"workloadPercent":15`)

	w = do(r, http.MethodGet, "/timetable/faculty/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-f1", reader.userID)
	assert.Equal(t, models.FacultyID("f7"), reader.faculty)

	reader.err = appErrors.Clone(appErrors.ErrNotFound, "faculty profile not found")
	w = do(r, http.MethodGet, "/timetable/faculty/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
