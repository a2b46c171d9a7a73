package models

import (
	"database/sql"
	"time"
)

// GradeRecord is a single persisted assessment result joined with its course.
type GradeRecord struct {
	ID             string          `db:"id" json:"id"`
	StudentID      string          `db:"student_id" json:"student_id"`
	CourseID       string          `db:"course_id" json:"course_id"`
	CourseName     string          `db:"course_name" json:"course_name"`
	Category       sql.NullString  `db:"category" json:"-"`
	TermID         sql.NullString  `db:"term_id" json:"-"`
	Score          float64         `db:"score" json:"score"`
	MaxScore       float64         `db:"max_score" json:"max_score"`
	Weight         sql.NullFloat64 `db:"weight" json:"-"`
	AssessmentType sql.NullString  `db:"assessment_type" json:"-"`
	GradedAt       *time.Time      `db:"graded_at" json:"graded_at,omitempty"`
}

// PerformanceFilter scopes performance queries to a student and optional term/course.
type PerformanceFilter struct {
	StudentID string
	TermID    string
	CourseID  string
}

// ClassAverage summarises peer performance for a course.
type ClassAverage struct {
	CourseID     string  `db:"course_id" json:"course_id"`
	Average      float64 `db:"average" json:"average"`
	StudentCount int     `db:"student_count" json:"student_count"`
}

// PerformanceSystemMetrics represents instrumentation snapshots exposed to operators.
type PerformanceSystemMetrics struct {
	CacheHitRatio             float64   `json:"cache_hit_ratio"`
	CacheHits                 uint64    `json:"cache_hits"`
	CacheMisses               uint64    `json:"cache_misses"`
	RequestsTotal             uint64    `json:"requests_total"`
	AverageRequestDurationMs  float64   `json:"average_request_duration_ms"`
	DBQueryCount              uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs  float64   `json:"average_db_query_duration_ms"`
	AnalysesTotal             uint64    `json:"analyses_total"`
	AverageAnalysisDurationMs float64   `json:"average_analysis_duration_ms"`
	Goroutines                int       `json:"goroutines"`
	GeneratedAt               time.Time `json:"generated_at"`
}
