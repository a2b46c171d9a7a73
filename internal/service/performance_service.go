package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edupulse-api/internal/dto"
	"github.com/noah-isme/edupulse-api/internal/models"
	"github.com/noah-isme/edupulse-api/internal/performance"
	appErrors "github.com/noah-isme/edupulse-api/pkg/errors"
	"github.com/noah-isme/edupulse-api/pkg/export"
)

// PerformanceRepository describes the persistence layer required by PerformanceService.
type PerformanceRepository interface {
	StudentGrades(ctx context.Context, filter models.PerformanceFilter) ([]models.GradeRecord, error)
	ClassAverage(ctx context.Context, courseID, termID string) (*models.ClassAverage, error)
	ActiveStudents(ctx context.Context, since time.Time) ([]string, error)
}

// PerformanceConfig tunes the performance service.
type PerformanceConfig struct {
	CacheTTL   time.Duration
	PeerStdDev float64
}

// ExportFile is a rendered performance report.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// PerformanceService turns stored grades into insights and caches the results.
type PerformanceService struct {
	repo      PerformanceRepository
	analyzer  *performance.Analyzer
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PerformanceConfig
}

// NewPerformanceService constructs a performance service.
func NewPerformanceService(repo PerformanceRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg PerformanceConfig) *PerformanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PerformanceService{
		repo:      repo,
		analyzer:  performance.NewAnalyzer(cfg.PeerStdDev),
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Summary returns the dashboard summary for a student. The boolean reports a cache hit.
func (s *PerformanceService) Summary(ctx context.Context, filter models.PerformanceFilter) (*dto.PerformanceSummaryResponse, bool, error) {
	if err := requireStudent(filter); err != nil {
		return nil, false, err
	}

	cacheKey := s.cache.Key("student", filter.StudentID, "summary", filter.TermID)
	var cached dto.PerformanceSummaryResponse
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
		return nil, false, fmt.Errorf("get summary cache: %w", err)
	} else if hit {
		return &cached, true, nil
	}

	courses, err := s.loadCourses(ctx, filter)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	resp := &dto.PerformanceSummaryResponse{
		StudentID: filter.StudentID,
		TermID:    filter.TermID,
		Summary:   s.analyzer.GenerateInsightsSummary(courses),
		Courses:   make([]performance.CourseReport, 0, len(courses)),
	}
	var all []performance.Grade
	for _, c := range courses {
		resp.Courses = append(resp.Courses, performance.BuildCourseReport(c))
		all = append(all, c.Grades...)
	}
	resp.OverallAverage = performance.CalculateAverage(all)
	resp.OverallGPA = performance.CalculateGPA(all)
	resp.LetterGrade = performance.PercentageToLetterGrade(resp.OverallAverage)
	s.metrics.ObserveAnalysis("summary", time.Since(start))

	if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("cache performance summary", zap.String("student_id", filter.StudentID), zap.Error(err))
	}
	return resp, false, nil
}

// Analysis returns strengths, weaknesses, patterns and recommendations for a student.
func (s *PerformanceService) Analysis(ctx context.Context, filter models.PerformanceFilter) (*dto.PerformanceAnalysisResponse, bool, error) {
	if err := requireStudent(filter); err != nil {
		return nil, false, err
	}

	cacheKey := s.cache.Key("student", filter.StudentID, "analysis", filter.TermID)
	var cached dto.PerformanceAnalysisResponse
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
		return nil, false, fmt.Errorf("get analysis cache: %w", err)
	} else if hit {
		return &cached, true, nil
	}

	courses, err := s.loadCourses(ctx, filter)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	analysis := s.analyzer.Analyze(courses)
	resp := &dto.PerformanceAnalysisResponse{
		StudentID:       filter.StudentID,
		TermID:          filter.TermID,
		Strengths:       analysis.Strengths,
		Weaknesses:      analysis.Weaknesses,
		Patterns:        analysis.Patterns,
		Recommendations: s.analyzer.GenerateRecommendations(analysis),
	}
	s.metrics.ObserveAnalysis("analysis", time.Since(start))

	if err := s.cache.Set(ctx, cacheKey, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("cache performance analysis", zap.String("student_id", filter.StudentID), zap.Error(err))
	}
	return resp, false, nil
}

// Comparison places the student's average in a course against the class average.
func (s *PerformanceService) Comparison(ctx context.Context, filter models.PerformanceFilter) (*dto.ComparisonResponse, error) {
	if err := requireStudent(filter); err != nil {
		return nil, err
	}
	if filter.CourseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course_id is required")
	}

	courses, err := s.loadCourses(ctx, filter)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	class, err := s.repo.ClassAverage(ctx, filter.CourseID, filter.TermID)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDBQuery("performance_class_average", time.Since(start))
	if class == nil || class.StudentCount == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no class results for course")
	}

	studentAverage := performance.CalculateAverage(courses[0].Grades)
	return &dto.ComparisonResponse{
		StudentID:      filter.StudentID,
		CourseID:       filter.CourseID,
		TermID:         filter.TermID,
		StudentAverage: studentAverage,
		ClassAverage:   round2(class.Average),
		ClassSize:      class.StudentCount,
		Comparison:     s.analyzer.CompareToClassAverage(studentAverage, class.Average),
	}, nil
}

// Analyze runs the full engine over caller supplied grades without touching storage.
func (s *PerformanceService) Analyze(ctx context.Context, req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analyze payload")
	}

	start := time.Now()
	courses := dto.ToCourses(req.Courses)
	var all []performance.Grade
	reports := make([]performance.CourseReport, 0, len(courses))
	for _, c := range courses {
		reports = append(reports, performance.BuildCourseReport(c))
		all = append(all, c.Grades...)
	}

	analysis := s.analyzer.Analyze(courses)
	resp := &dto.AnalyzeResponse{
		OverallAverage:  performance.CalculateAverage(all),
		Summary:         s.analyzer.GenerateInsightsSummary(courses),
		Analysis:        analysis,
		Recommendations: s.analyzer.GenerateRecommendations(analysis),
		Courses:         reports,
	}
	if req.ClassAverage != nil {
		comparison := s.analyzer.CompareToClassAverage(resp.OverallAverage, *req.ClassAverage)
		resp.Comparison = &comparison
	}
	s.metrics.ObserveAnalysis("analyze", time.Since(start))
	return resp, nil
}

// RequiredScore reports the score needed on the next assessment to reach a target average.
func (s *PerformanceService) RequiredScore(req dto.RequiredScoreRequest) (*dto.RequiredScoreResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid required score payload")
	}

	grades := dto.ToGrades(req.Grades)
	detail := performance.RequiredScoreDetail(grades, req.TargetAverage, req.UpcomingMaxScore)
	return &dto.RequiredScoreResponse{
		RequiredScore:  detail.Score,
		RequiredPct:    round2(detail.Score / req.UpcomingMaxScore * 100),
		CurrentAverage: performance.CalculateAverage(grades),
		Achievable:     detail.Achievable,
	}, nil
}

// Predict projects the final grade from the grades recorded so far.
func (s *PerformanceService) Predict(req dto.PredictRequest) (*dto.PredictResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid predict payload")
	}

	predicted := performance.PredictFinalGrade(dto.ToGrades(req.Grades), req.RemainingWeight)
	return &dto.PredictResponse{
		PredictedAverage: predicted,
		LetterGrade:      performance.PercentageToLetterGrade(predicted),
		GradePoint:       performance.PercentageToGradePoint(predicted),
	}, nil
}

// Convert maps a percentage onto the grading scale.
func (s *PerformanceService) Convert(raw string) (*dto.GradeScaleResponse, error) {
	percentage, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(percentage) || math.IsInf(percentage, 0) || percentage < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "percentage must be a non-negative number")
	}
	return &dto.GradeScaleResponse{
		Percentage:  percentage,
		GradePoint:  performance.PercentageToGradePoint(percentage),
		LetterGrade: performance.PercentageToLetterGrade(percentage),
		Band:        performance.OverallBand(percentage),
	}, nil
}

// Export renders the student's per-course report in the requested format.
func (s *PerformanceService) Export(ctx context.Context, filter models.PerformanceFilter, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, err.Error())
	}
	renderer, err := export.RendererFor(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, err.Error())
	}

	summary, _, err := s.Summary(ctx, filter)
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(buildDataset(summary))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render performance report")
	}

	name := "performance-" + filter.StudentID
	if filter.TermID != "" {
		name += "-" + filter.TermID
	}
	return &ExportFile{
		Filename:    name + "." + renderer.Extension(),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

// Invalidate drops every cached payload for the student.
func (s *PerformanceService) Invalidate(ctx context.Context, studentID string) error {
	if studentID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	return s.cache.Invalidate(ctx, EscapePattern(s.cache.Key("student", studentID))+":*")
}

// Warm recomputes and caches the summary and analysis for a student and term.
// Only those two entries are replaced. Students without grades are skipped.
func (s *PerformanceService) Warm(ctx context.Context, studentID, termID string) error {
	if studentID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	for _, kind := range []string{"summary", "analysis"} {
		key := s.cache.Key("student", studentID, kind, termID)
		if err := s.cache.Invalidate(ctx, EscapePattern(key)); err != nil {
			return fmt.Errorf("invalidate %s: %w", key, err)
		}
	}
	filter := models.PerformanceFilter{StudentID: studentID, TermID: termID}
	if _, _, err := s.Summary(ctx, filter); err != nil {
		if isNoGrades(err) {
			return nil
		}
		return err
	}
	if _, _, err := s.Analysis(ctx, filter); err != nil {
		return err
	}
	return nil
}

// ActiveStudents lists students whose grades changed since the given time.
func (s *PerformanceService) ActiveStudents(ctx context.Context, since time.Time) ([]string, error) {
	start := time.Now()
	ids, err := s.repo.ActiveStudents(ctx, since)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDBQuery("performance_active_students", time.Since(start))
	return ids, nil
}

// SystemMetrics returns the instrumentation snapshot.
func (s *PerformanceService) SystemMetrics() models.PerformanceSystemMetrics {
	return s.metrics.Snapshot()
}

func (s *PerformanceService) loadCourses(ctx context.Context, filter models.PerformanceFilter) ([]performance.CourseGrade, error) {
	start := time.Now()
	records, err := s.repo.StudentGrades(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDBQuery("performance_student_grades", time.Since(start))

	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoGrades, fmt.Sprintf("no grades recorded for student %s", filter.StudentID))
	}
	return buildCourseGrades(records), nil
}

// buildCourseGrades groups records by course keeping the order in which
// courses first appear.
func buildCourseGrades(records []models.GradeRecord) []performance.CourseGrade {
	index := make(map[string]int)
	var courses []performance.CourseGrade
	for _, r := range records {
		i, ok := index[r.CourseID]
		if !ok {
			i = len(courses)
			index[r.CourseID] = i
			courses = append(courses, performance.CourseGrade{
				CourseID:   r.CourseID,
				CourseName: r.CourseName,
				Category:   r.Category.String,
			})
		}

		grade := performance.Grade{
			Score:          r.Score,
			MaxScore:       r.MaxScore,
			AssessmentType: performance.AssessmentType(r.AssessmentType.String),
		}
		if r.Weight.Valid {
			w := r.Weight.Float64
			grade.Weight = &w
		}
		if r.GradedAt != nil {
			grade.Date = r.GradedAt.UTC().Format(time.RFC3339)
		}
		courses[i].Grades = append(courses[i].Grades, grade)
	}
	return courses
}

var exportHeaders = []string{"Course", "Category", "Grades", "Average", "Weighted Average", "GPA", "Letter", "Trend", "Change", "Consistency"}

func buildDataset(summary *dto.PerformanceSummaryResponse) export.Dataset {
	rows := make([]map[string]string, 0, len(summary.Courses))
	for _, c := range summary.Courses {
		rows = append(rows, map[string]string{
			"Course":           c.CourseName,
			"Category":         c.Category,
			"Grades":           strconv.Itoa(c.GradeCount),
			"Average":          formatFloat(c.Average),
			"Weighted Average": formatFloat(c.WeightedAverage),
			"GPA":              formatFloat(c.GPA),
			"Letter":           c.LetterGrade,
			"Trend":            string(c.Trend.Direction),
			"Change":           formatFloat(c.Trend.Change),
			"Consistency":      formatFloat(c.Trend.Consistency),
		})
	}

	notes := []string{
		fmt.Sprintf("%s (average %s, GPA %s, %s)", summary.Summary.Overall, formatFloat(summary.OverallAverage), formatFloat(summary.OverallGPA), summary.LetterGrade),
	}
	for _, p := range summary.Summary.KeyPoints {
		notes = append(notes, "Key point: "+p)
	}
	for _, a := range summary.Summary.ActionItems {
		notes = append(notes, "Action: "+a)
	}

	title := "Performance report for " + summary.StudentID
	if summary.TermID != "" {
		title += " (" + summary.TermID + ")"
	}
	return export.Dataset{Title: title, Headers: exportHeaders, Rows: rows, Notes: notes}
}

func requireStudent(filter models.PerformanceFilter) error {
	if strings.TrimSpace(filter.StudentID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	return nil
}

func isNoGrades(err error) bool {
	var appErr *appErrors.Error
	return errors.As(err, &appErr) && appErr.Code == appErrors.ErrNoGrades.Code
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
