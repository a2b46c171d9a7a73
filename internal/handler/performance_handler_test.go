package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edupulse-api/internal/dto"
	"github.com/noah-isme/edupulse-api/internal/middleware"
	"github.com/noah-isme/edupulse-api/internal/models"
	"github.com/noah-isme/edupulse-api/internal/performance"
	"github.com/noah-isme/edupulse-api/internal/service"
	appErrors "github.com/noah-isme/edupulse-api/pkg/errors"
)

type fakePerformanceSrv struct {
	summary      *dto.PerformanceSummaryResponse
	summaryHit   bool
	analysis     *dto.PerformanceAnalysisResponse
	comparison   *dto.ComparisonResponse
	analyzed     *dto.AnalyzeResponse
	required     *dto.RequiredScoreResponse
	predicted    *dto.PredictResponse
	scale        *dto.GradeScaleResponse
	file         *service.ExportFile
	err          error
	lastFilter   models.PerformanceFilter
	lastFormat   string
	lastAnalyze  dto.AnalyzeRequest
	invalidated  string
	lastRequired dto.RequiredScoreRequest
}

func (f *fakePerformanceSrv) Summary(_ context.Context, filter models.PerformanceFilter) (*dto.PerformanceSummaryResponse, bool, error) {
	f.lastFilter = filter
	return f.summary, f.summaryHit, f.err
}

func (f *fakePerformanceSrv) Analysis(_ context.Context, filter models.PerformanceFilter) (*dto.PerformanceAnalysisResponse, bool, error) {
	f.lastFilter = filter
	return f.analysis, false, f.err
}

func (f *fakePerformanceSrv) Comparison(_ context.Context, filter models.PerformanceFilter) (*dto.ComparisonResponse, error) {
	f.lastFilter = filter
	return f.comparison, f.err
}

func (f *fakePerformanceSrv) Analyze(_ context.Context, req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	f.lastAnalyze = req
	return f.analyzed, f.err
}

func (f *fakePerformanceSrv) RequiredScore(req dto.RequiredScoreRequest) (*dto.RequiredScoreResponse, error) {
	f.lastRequired = req
	return f.required, f.err
}

func (f *fakePerformanceSrv) Predict(dto.PredictRequest) (*dto.PredictResponse, error) {
	return f.predicted, f.err
}

func (f *fakePerformanceSrv) Convert(string) (*dto.GradeScaleResponse, error) {
	return f.scale, f.err
}

func (f *fakePerformanceSrv) Export(_ context.Context, filter models.PerformanceFilter, format string) (*service.ExportFile, error) {
	f.lastFilter = filter
	f.lastFormat = format
	return f.file, f.err
}

func (f *fakePerformanceSrv) Invalidate(_ context.Context, studentID string) error {
	f.invalidated = studentID
	return f.err
}

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *appErrors.Error       `json:"error"`
}

func performRequest(h gin.HandlerFunc, method, route, target, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.Handle(method, route, h)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestPerformanceHandlerSummary(t *testing.T) {
	srv := &fakePerformanceSrv{
		summary: &dto.PerformanceSummaryResponse{
			StudentID:      "s-1",
			OverallAverage: 83.4,
			Summary:        performance.Summary{Overall: performance.OverallStrong},
		},
		summaryHit: true,
	}
	handler := NewPerformanceHandler(srv)

	rec := performRequest(handler.Summary, http.MethodGet, "/students/:id/performance/summary", "/students/s-1/performance/summary?term_id=t-1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.PerformanceFilter{StudentID: "s-1", TermID: "t-1"}, srv.lastFilter)
	envelope := decode(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
	assert.Equal(t, "s-1", envelope.Data["student_id"])
	assert.Equal(t, 83.4, envelope.Data["overall_average"])
}

func TestPerformanceHandlerSummaryNoGrades(t *testing.T) {
	handler := NewPerformanceHandler(&fakePerformanceSrv{err: appErrors.ErrNoGrades})

	rec := performRequest(handler.Summary, http.MethodGet, "/students/:id/performance/summary", "/students/s-1/performance/summary", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decode(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NO_GRADES", envelope.Error.Code)
}

func TestPerformanceHandlerAnalysis(t *testing.T) {
	srv := &fakePerformanceSrv{analysis: &dto.PerformanceAnalysisResponse{
		StudentID:  "s-1",
		Strengths:  []string{"Excellent performance in Physics"},
		Weaknesses: []string{},
		Patterns:   []string{performance.PatternQuizStruggles},
	}}
	handler := NewPerformanceHandler(srv)

	rec := performRequest(handler.Analysis, http.MethodGet, "/students/:id/performance/analysis", "/students/s-1/performance/analysis", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decode(t, rec)
	assert.Equal(t, false, envelope.Meta["cache_hit"])
	assert.Equal(t, []interface{}{"quiz_struggles"}, envelope.Data["patterns"])
}

func TestPerformanceHandlerComparisonRequiresCourse(t *testing.T) {
	srv := &fakePerformanceSrv{}
	handler := NewPerformanceHandler(srv)

	rec := performRequest(handler.Comparison, http.MethodGet, "/students/:id/performance/comparison", "/students/s-1/performance/comparison", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.lastFilter.StudentID)

	srv.comparison = &dto.ComparisonResponse{StudentID: "s-1", CourseID: "c-1", Comparison: performance.Comparison{Status: performance.StatusAbove}}
	rec = performRequest(handler.Comparison, http.MethodGet, "/students/:id/performance/comparison", "/students/s-1/performance/comparison?course_id=c-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c-1", srv.lastFilter.CourseID)
}

func TestPerformanceHandlerExport(t *testing.T) {
	srv := &fakePerformanceSrv{file: &service.ExportFile{Filename: "performance-s-1.csv", ContentType: "text/csv", Payload: []byte("Course\nAlgebra\n")}}
	handler := NewPerformanceHandler(srv)

	rec := performRequest(handler.Export, http.MethodGet, "/students/:id/performance/export", "/students/s-1/performance/export?format=csv", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", srv.lastFormat)
	assert.Equal(t, `attachment; filename="performance-s-1.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Course\nAlgebra\n", rec.Body.String())
}

func TestPerformanceHandlerExportUnsupportedFormat(t *testing.T) {
	handler := NewPerformanceHandler(&fakePerformanceSrv{err: appErrors.ErrUnsupportedFormat})

	rec := performRequest(handler.Export, http.MethodGet, "/students/:id/performance/export", "/students/s-1/performance/export?format=doc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPerformanceHandlerInvalidateCache(t *testing.T) {
	srv := &fakePerformanceSrv{}
	handler := NewPerformanceHandler(srv)

	rec := performRequest(handler.InvalidateCache, http.MethodDelete, "/students/:id/performance/cache", "/students/s-1/performance/cache", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "s-1", srv.invalidated)
}

func TestPerformanceHandlerAnalyze(t *testing.T) {
	srv := &fakePerformanceSrv{analyzed: &dto.AnalyzeResponse{OverallAverage: 67.5}}
	handler := NewPerformanceHandler(srv)
	body := `{"courses":[{"course_name":"Algebra","grades":[{"score":95,"max_score":100},{"score":40,"max_score":100,"assessment_type":"quiz"}]}]}`

	rec := performRequest(handler.Analyze, http.MethodPost, "/performance/analyze", "/performance/analyze", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, srv.lastAnalyze.Courses, 1)
	require.Len(t, srv.lastAnalyze.Courses[0].Grades, 2)
	assert.Equal(t, "quiz", srv.lastAnalyze.Courses[0].Grades[1].AssessmentType)
	assert.Equal(t, 67.5, decode(t, rec).Data["overall_average"])
}

func TestPerformanceHandlerAnalyzeRejectsBadJSON(t *testing.T) {
	handler := NewPerformanceHandler(&fakePerformanceSrv{})

	rec := performRequest(handler.Analyze, http.MethodPost, "/performance/analyze", "/performance/analyze", `{"courses":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPerformanceHandlerRequiredScore(t *testing.T) {
	srv := &fakePerformanceSrv{required: &dto.RequiredScoreResponse{RequiredScore: 40, Achievable: true}}
	handler := NewPerformanceHandler(srv)
	body := `{"grades":[{"score":40,"max_score":50}],"target_average":80,"upcoming_max_score":50}`

	rec := performRequest(handler.RequiredScore, http.MethodPost, "/performance/required-score", "/performance/required-score", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 80.0, srv.lastRequired.TargetAverage)
	assert.Equal(t, 40.0, decode(t, rec).Data["required_score"])
}

func TestPerformanceHandlerPredictValidationError(t *testing.T) {
	handler := NewPerformanceHandler(&fakePerformanceSrv{err: appErrors.Clone(appErrors.ErrValidation, "invalid predict payload")})

	rec := performRequest(handler.Predict, http.MethodPost, "/performance/predict", "/performance/predict", `{"grades":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPerformanceHandlerGradeScale(t *testing.T) {
	handler := NewPerformanceHandler(&fakePerformanceSrv{scale: &dto.GradeScaleResponse{Percentage: 91, GradePoint: 3.7, LetterGrade: "A-"}})

	rec := performRequest(handler.GradeScale, http.MethodGet, "/performance/grade-scale", "/performance/grade-scale?percentage=91", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A-", decode(t, rec).Data["letter_grade"])
}
