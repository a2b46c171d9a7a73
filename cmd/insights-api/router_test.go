package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/edupulse-api/internal/handler"
	"github.com/noah-isme/edupulse-api/internal/models"
	"github.com/noah-isme/edupulse-api/internal/service"
	"github.com/noah-isme/edupulse-api/pkg/config"
	appErrors "github.com/noah-isme/edupulse-api/pkg/errors"
)

type stubRepo struct{}

func (stubRepo) StudentGrades(_ context.Context, filter models.PerformanceFilter) ([]models.GradeRecord, error) {
	if filter.StudentID != "s-1" {
		return nil, nil
	}
	return []models.GradeRecord{
		{CourseID: "c-1", CourseName: "Physics", Score: 92, MaxScore: 100},
		{CourseID: "c-1", CourseName: "Physics", Score: 96, MaxScore: 100},
	}, nil
}

func (stubRepo) ClassAverage(context.Context, string, string) (*models.ClassAverage, error) {
	return &models.ClassAverage{Average: 80, StudentCount: 20}, nil
}

func (stubRepo) ActiveStudents(context.Context, time.Time) ([]string, error) { return nil, nil }

type tokenTable map[string]*models.JWTClaims

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := t[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func testRouter(enabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: config.EnvProduction, APIPrefix: "/api/v1", Performance: config.PerformanceConfig{Enabled: enabled}}
	metrics := service.NewMetricsService()
	perf := service.NewPerformanceService(stubRepo{}, nil, metrics, nil, zap.NewNop(), service.PerformanceConfig{})

	return newRouter(routerDeps{
		cfg:     cfg,
		logger:  zap.NewNop(),
		metrics: metrics,
		tokens: tokenTable{
			"student": {UserID: "s-1", Role: models.RoleStudent},
			"other":   {UserID: "s-2", Role: models.RoleStudent},
			"teacher": {UserID: "t-1", Role: models.RoleTeacher},
		},
		performance: handler.NewPerformanceHandler(perf),
		ops:         handler.NewMetricsHandler(metrics, nil),
	})
}

func call(r http.Handler, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRouterAccessRules(t *testing.T) {
	r := testRouter(true)

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"no docs in production", http.MethodGet, "/docs/index.html", "", http.StatusNotFound},
		{"anonymous", http.MethodGet, "/api/v1/students/s-1/performance/summary", "", http.StatusUnauthorized},
		{"self", http.MethodGet, "/api/v1/students/s-1/performance/summary", "student", http.StatusOK},
		{"other student", http.MethodGet, "/api/v1/students/s-1/performance/summary", "other", http.StatusForbidden},
		{"teacher comparison", http.MethodGet, "/api/v1/students/s-1/performance/comparison?course_id=c-1", "teacher", http.StatusOK},
		{"no grades", http.MethodGet, "/api/v1/students/s-2/performance/analysis", "other", http.StatusNotFound},
		{"export", http.MethodGet, "/api/v1/students/s-1/performance/export?format=xlsx", "student", http.StatusOK},
		{"student cannot purge cache", http.MethodDelete, "/api/v1/students/s-1/performance/cache", "student", http.StatusForbidden},
		{"teacher purges cache", http.MethodDelete, "/api/v1/students/s-1/performance/cache", "teacher", http.StatusNoContent},
		{"grade scale", http.MethodGet, "/api/v1/performance/grade-scale?percentage=88", "student", http.StatusOK},
		{"system metrics staff only", http.MethodGet, "/api/v1/system/metrics", "teacher", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, call(r, tc.method, tc.path, tc.token))
		})
	}
}

func TestRouterFeatureDisabled(t *testing.T) {
	r := testRouter(false)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/api/v1/students/s-1/performance/summary", "student"))
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/health", ""))
}
