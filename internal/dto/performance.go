package dto

import "github.com/noah-isme/edupulse-api/internal/performance"

// PerformanceSummaryResponse is the dashboard payload for a student's insights.
type PerformanceSummaryResponse struct {
	StudentID      string                     `json:"student_id"`
	TermID         string                     `json:"term_id,omitempty"`
	OverallAverage float64                    `json:"overall_average"`
	OverallGPA     float64                    `json:"overall_gpa"`
	LetterGrade    string                     `json:"letter_grade"`
	Summary        performance.Summary        `json:"summary"`
	Courses        []performance.CourseReport `json:"courses"`
}

// PerformanceAnalysisResponse exposes the full qualitative analysis.
type PerformanceAnalysisResponse struct {
	StudentID       string   `json:"student_id"`
	TermID          string   `json:"term_id,omitempty"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Patterns        []string `json:"patterns"`
	Recommendations []string `json:"recommendations"`
}

// ComparisonResponse places a student's course average against the class.
type ComparisonResponse struct {
	StudentID      string                 `json:"student_id"`
	CourseID       string                 `json:"course_id"`
	TermID         string                 `json:"term_id,omitempty"`
	StudentAverage float64                `json:"student_average"`
	ClassAverage   float64                `json:"class_average"`
	ClassSize      int                    `json:"class_size"`
	Comparison     performance.Comparison `json:"comparison"`
}

// GradeInput is a caller supplied grade.
type GradeInput struct {
	Score          float64  `json:"score" validate:"gte=0"`
	MaxScore       float64  `json:"max_score" validate:"gt=0"`
	Weight         *float64 `json:"weight,omitempty" validate:"omitempty,gte=0"`
	Date           string   `json:"date,omitempty"`
	AssessmentType string   `json:"assessment_type,omitempty" validate:"omitempty,oneof=quiz assignment exam project"`
}

// CourseInput is a caller supplied course with grades.
type CourseInput struct {
	CourseID   string       `json:"course_id"`
	CourseName string       `json:"course_name" validate:"required"`
	Category   string       `json:"category,omitempty"`
	Grades     []GradeInput `json:"grades" validate:"dive"`
}

// AnalyzeRequest runs the engine over grades that are not persisted.
type AnalyzeRequest struct {
	Courses      []CourseInput `json:"courses" validate:"required,dive"`
	ClassAverage *float64      `json:"class_average,omitempty" validate:"omitempty,gte=0"`
}

// AnalyzeResponse bundles every derived view for ad-hoc analysis.
type AnalyzeResponse struct {
	OverallAverage  float64                    `json:"overall_average"`
	Summary         performance.Summary        `json:"summary"`
	Analysis        performance.Analysis       `json:"analysis"`
	Recommendations []string                   `json:"recommendations"`
	Courses         []performance.CourseReport `json:"courses"`
	Comparison      *performance.Comparison    `json:"comparison,omitempty"`
}

// RequiredScoreRequest asks what score reaches a target average.
type RequiredScoreRequest struct {
	Grades           []GradeInput `json:"grades" validate:"dive"`
	TargetAverage    float64      `json:"target_average" validate:"gte=0,lte=100"`
	UpcomingMaxScore float64      `json:"upcoming_max_score" validate:"gt=0"`
}

// RequiredScoreResponse reports the clamped required score.
type RequiredScoreResponse struct {
	RequiredScore  float64 `json:"required_score"`
	RequiredPct    float64 `json:"required_percentage"`
	CurrentAverage float64 `json:"current_average"`
	// Achievable is false when even a perfect score misses the target.
	Achievable bool `json:"achievable"`
}

// PredictRequest projects the final grade.
type PredictRequest struct {
	Grades          []GradeInput `json:"grades" validate:"required,min=1,dive"`
	RemainingWeight float64      `json:"remaining_weight" validate:"gte=0"`
}

// PredictResponse is the projected final grade.
type PredictResponse struct {
	PredictedAverage float64 `json:"predicted_average"`
	LetterGrade      string  `json:"letter_grade"`
	GradePoint       float64 `json:"grade_point"`
}

// GradeScaleResponse maps a percentage onto the grading scale.
type GradeScaleResponse struct {
	Percentage  float64 `json:"percentage"`
	GradePoint  float64 `json:"grade_point"`
	LetterGrade string  `json:"letter_grade"`
	Band        string  `json:"band"`
}

// ToGrades converts validated inputs into engine grades.
func ToGrades(inputs []GradeInput) []performance.Grade {
	grades := make([]performance.Grade, len(inputs))
	for i, in := range inputs {
		grades[i] = performance.Grade{
			Score:          in.Score,
			MaxScore:       in.MaxScore,
			Weight:         in.Weight,
			Date:           in.Date,
			AssessmentType: performance.AssessmentType(in.AssessmentType),
		}
	}
	return grades
}

// ToCourses converts validated inputs into engine course grades.
func ToCourses(inputs []CourseInput) []performance.CourseGrade {
	courses := make([]performance.CourseGrade, len(inputs))
	for i, in := range inputs {
		courses[i] = performance.CourseGrade{
			CourseID:   in.CourseID,
			CourseName: in.CourseName,
			Category:   in.Category,
			Grades:     ToGrades(in.Grades),
		}
	}
	return courses
}
