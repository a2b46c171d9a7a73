package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edupulse-api/internal/dto"
	"github.com/noah-isme/edupulse-api/internal/models"
	"github.com/noah-isme/edupulse-api/internal/performance"
	appErrors "github.com/noah-isme/edupulse-api/pkg/errors"
)

type mockPerformanceRepo struct {
	grades       []models.GradeRecord
	class        *models.ClassAverage
	active       []string
	gradesErr    error
	gradesCalls  int
	lastFilter   models.PerformanceFilter
	activeSince  time.Time
	classCourse  string
	classTermArg string
}

func (m *mockPerformanceRepo) StudentGrades(_ context.Context, filter models.PerformanceFilter) ([]models.GradeRecord, error) {
	m.gradesCalls++
	m.lastFilter = filter
	if m.gradesErr != nil {
		return nil, m.gradesErr
	}
	if filter.CourseID == "" {
		return m.grades, nil
	}
	var filtered []models.GradeRecord
	for _, g := range m.grades {
		if g.CourseID == filter.CourseID {
			filtered = append(filtered, g)
		}
	}
	return filtered, nil
}

func (m *mockPerformanceRepo) ClassAverage(_ context.Context, courseID, termID string) (*models.ClassAverage, error) {
	m.classCourse = courseID
	m.classTermArg = termID
	return m.class, nil
}

func (m *mockPerformanceRepo) ActiveStudents(_ context.Context, since time.Time) ([]string, error) {
	m.activeSince = since
	return m.active, nil
}

type memoryCacheRepo struct {
	store   map[string][]byte
	deleted []string
}

func (s *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	if !strings.HasSuffix(pattern, "*") {
		delete(s.store, pattern)
		return nil
	}
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

func at(day int) *time.Time {
	t := time.Date(2024, time.March, day, 9, 0, 0, 0, time.UTC)
	return &t
}

func record(courseID, name, category string, score float64, day int, kind string) models.GradeRecord {
	return models.GradeRecord{
		ID:             courseID + "-" + string(rune('a'+day)),
		StudentID:      "student-1",
		CourseID:       courseID,
		CourseName:     name,
		Category:       sql.NullString{String: category, Valid: category != ""},
		Score:          score,
		MaxScore:       100,
		AssessmentType: sql.NullString{String: kind, Valid: kind != ""},
		GradedAt:       at(day),
	}
}

func sampleRecords() []models.GradeRecord {
	return []models.GradeRecord{
		record("alg", "Algebra", "Math", 95, 1, "exam"),
		record("alg", "Algebra", "Math", 40, 2, "exam"),
		record("phy", "Physics", "Science", 92, 1, "assignment"),
		record("phy", "Physics", "Science", 94, 2, "assignment"),
		record("phy", "Physics", "Science", 96, 3, "quiz"),
	}
}

func newPerformanceService(repo *mockPerformanceRepo, cacheRepo CacheRepository) *PerformanceService {
	metrics := NewMetricsService()
	cacheSvc := NewCacheService(cacheRepo, metrics, "performance", time.Minute, zap.NewNop(), cacheRepo != nil)
	return NewPerformanceService(repo, cacheSvc, metrics, nil, zap.NewNop(), PerformanceConfig{CacheTTL: time.Minute, PeerStdDev: 10})
}

func TestBuildCourseGradesGroupsInOrder(t *testing.T) {
	weighted := record("phy", "Physics", "", 80, 4, "")
	weighted.Weight = sql.NullFloat64{Float64: 2, Valid: true}
	weighted.GradedAt = nil

	courses := buildCourseGrades(append(sampleRecords(), weighted))
	require.Len(t, courses, 2)
	assert.Equal(t, "Algebra", courses[0].CourseName)
	assert.Equal(t, "Math", courses[0].Category)
	assert.Len(t, courses[0].Grades, 2)
	assert.Equal(t, "2024-03-02T09:00:00Z", courses[0].Grades[1].Date)

	phys := courses[1]
	require.Len(t, phys.Grades, 4)
	assert.Equal(t, performance.AssessmentQuiz, phys.Grades[2].AssessmentType)
	require.NotNil(t, phys.Grades[3].Weight)
	assert.Equal(t, 2.0, *phys.Grades[3].Weight)
	assert.Empty(t, phys.Grades[3].Date)
	assert.Nil(t, phys.Grades[0].Weight)
}

func TestPerformanceServiceSummaryCaching(t *testing.T) {
	repo := &mockPerformanceRepo{grades: sampleRecords()}
	svc := newPerformanceService(repo, &memoryCacheRepo{})
	filter := models.PerformanceFilter{StudentID: "student-1", TermID: "term-1"}
	ctx := context.Background()

	summary, hit, err := svc.Summary(ctx, filter)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, repo.gradesCalls)
	assert.Equal(t, "student-1", summary.StudentID)
	require.Len(t, summary.Courses, 2)
	assert.Equal(t, 67.5, summary.Courses[0].Average)
	assert.Equal(t, 94.0, summary.Courses[1].Average)
	assert.Equal(t, performance.OverallStrong, summary.Summary.Overall)
	assert.Equal(t, 83.4, summary.OverallAverage)
	assert.Equal(t, "B", summary.LetterGrade)

	cached, hit, err := svc.Summary(ctx, filter)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.gradesCalls)
	assert.Equal(t, summary, cached)
}

func TestPerformanceServiceSummaryWithoutGrades(t *testing.T) {
	svc := newPerformanceService(&mockPerformanceRepo{}, nil)

	_, _, err := svc.Summary(context.Background(), models.PerformanceFilter{StudentID: "student-9"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoGrades.Code, appErrors.FromError(err).Code)
}

func TestPerformanceServiceRequiresStudent(t *testing.T) {
	svc := newPerformanceService(&mockPerformanceRepo{}, nil)

	_, _, err := svc.Analysis(context.Background(), models.PerformanceFilter{StudentID: "  "})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPerformanceServiceErrorPassthrough(t *testing.T) {
	repo := &mockPerformanceRepo{gradesErr: assert.AnError}
	svc := newPerformanceService(repo, nil)

	_, _, err := svc.Summary(context.Background(), models.PerformanceFilter{StudentID: "student-1"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestPerformanceServiceAnalysis(t *testing.T) {
	repo := &mockPerformanceRepo{grades: sampleRecords()}
	svc := newPerformanceService(repo, nil)

	analysis, hit, err := svc.Analysis(context.Background(), models.PerformanceFilter{StudentID: "student-1"})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Contains(t, analysis.Strengths, "Excellent performance in Physics")
	assert.Contains(t, analysis.Weaknesses, "Needs improvement in Algebra")
	assert.NotNil(t, analysis.Patterns)
	assert.NotEmpty(t, analysis.Recommendations)
}

func TestPerformanceServiceComparison(t *testing.T) {
	repo := &mockPerformanceRepo{
		grades: sampleRecords(),
		class:  &models.ClassAverage{CourseID: "phy", Average: 84, StudentCount: 30},
	}
	svc := newPerformanceService(repo, nil)

	resp, err := svc.Comparison(context.Background(), models.PerformanceFilter{StudentID: "student-1", CourseID: "phy", TermID: "term-1"})
	require.NoError(t, err)
	assert.Equal(t, "phy", repo.classCourse)
	assert.Equal(t, "term-1", repo.classTermArg)
	assert.Equal(t, 94.0, resp.StudentAverage)
	assert.Equal(t, 30, resp.ClassSize)
	assert.Equal(t, performance.StatusAbove, resp.Comparison.Status)
	assert.Equal(t, 10.0, resp.Comparison.Difference)
	assert.InDelta(t, 84.13, resp.Comparison.Percentile, 0.01)
}

func TestPerformanceServiceComparisonValidation(t *testing.T) {
	svc := newPerformanceService(&mockPerformanceRepo{grades: sampleRecords()}, nil)

	_, err := svc.Comparison(context.Background(), models.PerformanceFilter{StudentID: "student-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Comparison(context.Background(), models.PerformanceFilter{StudentID: "student-1", CourseID: "phy"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPerformanceServiceAnalyze(t *testing.T) {
	svc := newPerformanceService(&mockPerformanceRepo{}, nil)
	classAverage := 70.0

	resp, err := svc.Analyze(context.Background(), dto.AnalyzeRequest{
		Courses: []dto.CourseInput{{
			CourseName: "Algebra",
			Grades: []dto.GradeInput{
				{Score: 95, MaxScore: 100},
				{Score: 40, MaxScore: 100},
			},
		}},
		ClassAverage: &classAverage,
	})
	require.NoError(t, err)
	assert.Equal(t, 67.5, resp.OverallAverage)
	assert.Equal(t, performance.OverallNeedsWork, resp.Summary.Overall)
	assert.Equal(t, []string{"Needs improvement in Algebra", "Declining performance in Algebra", "Struggling with General subjects"}, resp.Analysis.Weaknesses)
	require.NotNil(t, resp.Comparison)
	assert.Equal(t, performance.StatusBelow, resp.Comparison.Status)
	require.Len(t, resp.Courses, 1)
	assert.Equal(t, "D+", resp.Courses[0].LetterGrade)
}

func TestPerformanceServiceAnalyzeRejectsZeroMaxScore(t *testing.T) {
	svc := newPerformanceService(&mockPerformanceRepo{}, nil)

	_, err := svc.Analyze(context.Background(), dto.AnalyzeRequest{
		Courses: []dto.CourseInput{{CourseName: "Algebra", Grades: []dto.GradeInput{{Score: 5, MaxScore: 0}}}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPerformanceServiceRequiredScore(t *testing.T) {
	svc := newPerformanceService(&mockPerformanceRepo{}, nil)

	resp, err := svc.RequiredScore(dto.RequiredScoreRequest{
		Grades:           []dto.GradeInput{{Score: 40, MaxScore: 50}},
		TargetAverage:    80,
		UpcomingMaxScore: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, resp.RequiredScore)
	assert.Equal(t, 80.0, resp.RequiredPct)
	assert.Equal(t, 80.0, resp.CurrentAverage)
	assert.True(t, resp.Achievable)

	unreachable, err := svc.RequiredScore(dto.RequiredScoreRequest{
		Grades:           []dto.GradeInput{{Score: 0, MaxScore: 100}},
		TargetAverage:    90,
		UpcomingMaxScore: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, unreachable.RequiredScore)
	assert.False(t, unreachable.Achievable)

	_, err = svc.RequiredScore(dto.RequiredScoreRequest{TargetAverage: 80})
	require.Error(t, err)
}

func TestPerformanceServicePredict(t *testing.T) {
	svc := newPerformanceService(&mockPerformanceRepo{}, nil)

	resp, err := svc.Predict(dto.PredictRequest{Grades: []dto.GradeInput{{Score: 80, MaxScore: 100}}, RemainingWeight: 2})
	require.NoError(t, err)
	assert.Equal(t, 80.0, resp.PredictedAverage)
	assert.Equal(t, "B-", resp.LetterGrade)
	assert.Equal(t, 2.7, resp.GradePoint)

	_, err = svc.Predict(dto.PredictRequest{})
	require.Error(t, err)
}

func TestPerformanceServiceConvert(t *testing.T) {
	svc := newPerformanceService(&mockPerformanceRepo{}, nil)

	resp, err := svc.Convert("91")
	require.NoError(t, err)
	assert.Equal(t, 3.7, resp.GradePoint)
	assert.Equal(t, "A-", resp.LetterGrade)
	assert.Equal(t, performance.OverallExcellent, resp.Band)

	for _, raw := range []string{"", "abc", "-1", "NaN"} {
		_, err := svc.Convert(raw)
		assert.Error(t, err, raw)
	}
}

func TestPerformanceServiceExport(t *testing.T) {
	repo := &mockPerformanceRepo{grades: sampleRecords()}
	svc := newPerformanceService(repo, nil)
	filter := models.PerformanceFilter{StudentID: "student-1", TermID: "term-1"}

	file, err := svc.Export(context.Background(), filter, "csv")
	require.NoError(t, err)
	assert.Equal(t, "performance-student-1-term-1.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Payload, []byte("Course,Category,Grades")))
	assert.Contains(t, string(file.Payload), "Physics,Science,3,94.00")

	_, err = svc.Export(context.Background(), filter, "docx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedFormat.Code, appErrors.FromError(err).Code)
}

func TestPerformanceServiceInvalidateAndWarm(t *testing.T) {
	repo := &mockPerformanceRepo{grades: sampleRecords()}
	cacheRepo := &memoryCacheRepo{store: map[string][]byte{
		"performance:student:student-1:summary:term-9": []byte(`{}`),
	}}
	svc := newPerformanceService(repo, cacheRepo)
	ctx := context.Background()

	require.NoError(t, svc.Warm(ctx, "student-1", ""))
	assert.Equal(t, []string{
		"performance:student:student-1:summary",
		"performance:student:student-1:analysis",
	}, cacheRepo.deleted)
	assert.Contains(t, cacheRepo.store, "performance:student:student-1:summary")
	assert.Contains(t, cacheRepo.store, "performance:student:student-1:analysis")
	assert.Contains(t, cacheRepo.store, "performance:student:student-1:summary:term-9")
	assert.Equal(t, 2, repo.gradesCalls)

	require.NoError(t, svc.Invalidate(ctx, "student-1"))
	assert.Equal(t, "performance:student:student-1:*", cacheRepo.deleted[len(cacheRepo.deleted)-1])
	assert.Empty(t, cacheRepo.store)

	assert.Error(t, svc.Invalidate(ctx, ""))
	assert.Error(t, svc.Warm(ctx, "", ""))
}

func TestPerformanceServiceInvalidateQuotesGlobCharacters(t *testing.T) {
	cacheRepo := &memoryCacheRepo{store: map[string][]byte{
		"performance:student:student-1:summary": []byte(`{}`),
		"performance:student:student-2:summary": []byte(`{}`),
	}}
	svc := newPerformanceService(&mockPerformanceRepo{}, cacheRepo)

	require.NoError(t, svc.Invalidate(context.Background(), "*"))
	assert.Equal(t, []string{`performance:student:\*:*`}, cacheRepo.deleted)
	assert.Len(t, cacheRepo.store, 2)
}

func TestPerformanceServiceWarmSkipsStudentsWithoutGrades(t *testing.T) {
	svc := newPerformanceService(&mockPerformanceRepo{}, &memoryCacheRepo{})
	assert.NoError(t, svc.Warm(context.Background(), "student-2", "term-1"))
}

func TestPerformanceServiceActiveStudents(t *testing.T) {
	repo := &mockPerformanceRepo{active: []string{"student-1", "student-2"}}
	svc := newPerformanceService(repo, nil)
	since := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	ids, err := svc.ActiveStudents(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, []string{"student-1", "student-2"}, ids)
	assert.Equal(t, since, repo.activeSince)
	assert.Equal(t, uint64(1), svc.SystemMetrics().DBQueryCount)
}
