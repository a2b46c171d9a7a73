package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edupulse-api/internal/dto"
	"github.com/noah-isme/edupulse-api/internal/middleware"
	"github.com/noah-isme/edupulse-api/internal/models"
	"github.com/noah-isme/edupulse-api/internal/service"
	appErrors "github.com/noah-isme/edupulse-api/pkg/errors"
	"github.com/noah-isme/edupulse-api/pkg/response"
)

type performanceService interface {
	Summary(ctx context.Context, filter models.PerformanceFilter) (*dto.PerformanceSummaryResponse, bool, error)
	Analysis(ctx context.Context, filter models.PerformanceFilter) (*dto.PerformanceAnalysisResponse, bool, error)
	Comparison(ctx context.Context, filter models.PerformanceFilter) (*dto.ComparisonResponse, error)
	Analyze(ctx context.Context, req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error)
	RequiredScore(req dto.RequiredScoreRequest) (*dto.RequiredScoreResponse, error)
	Predict(req dto.PredictRequest) (*dto.PredictResponse, error)
	Convert(percentage string) (*dto.GradeScaleResponse, error)
	Export(ctx context.Context, filter models.PerformanceFilter, format string) (*service.ExportFile, error)
	Invalidate(ctx context.Context, studentID string) error
}

// PerformanceHandler exposes student performance insights over HTTP.
type PerformanceHandler struct {
	service performanceService
}

// NewPerformanceHandler constructs the handler.
func NewPerformanceHandler(service performanceService) *PerformanceHandler {
	return &PerformanceHandler{service: service}
}

// Summary godoc
// @Summary Student performance summary
// @Tags Performance
// @Produce json
// @Param id path string true "Student ID"
// @Param term_id query string false "Term ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/performance/summary [get]
func (h *PerformanceHandler) Summary(c *gin.Context) {
	start := time.Now()
	summary, cacheHit, err := h.service.Summary(c.Request.Context(), studentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, summary, cacheHit, start)
}

// Analysis godoc
// @Summary Strengths, weaknesses, patterns and recommendations
// @Tags Performance
// @Produce json
// @Param id path string true "Student ID"
// @Param term_id query string false "Term ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/performance/analysis [get]
func (h *PerformanceHandler) Analysis(c *gin.Context) {
	start := time.Now()
	analysis, cacheHit, err := h.service.Analysis(c.Request.Context(), studentFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, analysis, cacheHit, start)
}

// Comparison godoc
// @Summary Compare a course average with the class
// @Tags Performance
// @Produce json
// @Param id path string true "Student ID"
// @Param course_id query string true "Course ID"
// @Param term_id query string false "Term ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/performance/comparison [get]
func (h *PerformanceHandler) Comparison(c *gin.Context) {
	filter := studentFilter(c)
	if filter.CourseID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "course_id is required"))
		return
	}
	start := time.Now()
	comparison, err := h.service.Comparison(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, comparison, false, start)
}

// Export godoc
// @Summary Download the performance report
// @Tags Performance
// @Produce application/octet-stream
// @Param id path string true "Student ID"
// @Param format query string false "csv, pdf or xlsx"
// @Param term_id query string false "Term ID"
// @Success 200 {file} file
// @Router /students/{id}/performance/export [get]
func (h *PerformanceHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), studentFilter(c), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// InvalidateCache godoc
// @Summary Drop cached insights for a student
// @Tags Performance
// @Param id path string true "Student ID"
// @Success 204
// @Router /students/{id}/performance/cache [delete]
func (h *PerformanceHandler) InvalidateCache(c *gin.Context) {
	if err := h.service.Invalidate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Analyze godoc
// @Summary Analyse caller supplied grades
// @Tags Performance
// @Accept json
// @Produce json
// @Param payload body dto.AnalyzeRequest true "Courses and grades"
// @Success 200 {object} response.Envelope
// @Router /performance/analyze [post]
func (h *PerformanceHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	start := time.Now()
	result, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithMeta(c, result, false, start)
}

// RequiredScore godoc
// @Summary Score needed on the next assessment
// @Tags Performance
// @Accept json
// @Produce json
// @Param payload body dto.RequiredScoreRequest true "Current grades and target"
// @Success 200 {object} response.Envelope
// @Router /performance/required-score [post]
func (h *PerformanceHandler) RequiredScore(c *gin.Context) {
	var req dto.RequiredScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	result, err := h.service.RequiredScore(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Predict godoc
// @Summary Project the final grade
// @Tags Performance
// @Accept json
// @Produce json
// @Param payload body dto.PredictRequest true "Grades so far"
// @Success 200 {object} response.Envelope
// @Router /performance/predict [post]
func (h *PerformanceHandler) Predict(c *gin.Context) {
	var req dto.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	result, err := h.service.Predict(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// GradeScale godoc
// @Summary Convert a percentage to grade point and letter
// @Tags Performance
// @Produce json
// @Param percentage query number true "Percentage"
// @Success 200 {object} response.Envelope
// @Router /performance/grade-scale [get]
func (h *PerformanceHandler) GradeScale(c *gin.Context) {
	result, err := h.service.Convert(c.Query("percentage"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func studentFilter(c *gin.Context) models.PerformanceFilter {
	return models.PerformanceFilter{
		StudentID: c.Param("id"),
		TermID:    c.Query("term_id"),
		CourseID:  c.Query("course_id"),
	}
}

func respondWithMeta(c *gin.Context, data interface{}, cacheHit bool, start time.Time) {
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetProcessingTime(c, start)
	response.JSON(c, http.StatusOK, data, middleware.ResponseMeta(c))
}
