// Package performance turns raw score records into grade metrics, trends,
// qualitative observations and display-ready summaries. Every function in
// the package is pure and safe for concurrent use.
package performance

// DefaultCategory is applied to courses that carry no subject grouping.
const DefaultCategory = "General"

// AssessmentType classifies a graded item.
type AssessmentType string

const (
	AssessmentQuiz       AssessmentType = "quiz"
	AssessmentAssignment AssessmentType = "assignment"
	AssessmentExam       AssessmentType = "exam"
	AssessmentProject    AssessmentType = "project"
)

// Grade is a single scored assessment.
type Grade struct {
	Score    float64  `json:"score" yaml:"score"`
	MaxScore float64  `json:"max_score" yaml:"max_score"`
	Weight   *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	// Date orders grades chronologically when it parses as a timestamp.
	// Older records also used it as a free-form type tag ("quiz-3").
	Date           string         `json:"date,omitempty" yaml:"date,omitempty"`
	AssessmentType AssessmentType `json:"assessment_type,omitempty" yaml:"assessment_type,omitempty"`
}

// EffectiveWeight returns the grade weight, defaulting to 1.
func (g Grade) EffectiveWeight() float64 {
	if g.Weight == nil {
		return 1
	}
	return *g.Weight
}

// CourseGrade groups the grades a student earned in one course.
type CourseGrade struct {
	CourseID   string  `json:"course_id" yaml:"course_id"`
	CourseName string  `json:"course_name" yaml:"course_name"`
	Category   string  `json:"category,omitempty" yaml:"category,omitempty"`
	Grades     []Grade `json:"grades" yaml:"grades"`
}

// CategoryName returns the course category or DefaultCategory.
func (c CourseGrade) CategoryName() string {
	if c.Category == "" {
		return DefaultCategory
	}
	return c.Category
}

// TrendDirection is the sign of a grade trend.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// TrendData describes the linear trend of a grade sequence.
type TrendData struct {
	Direction   TrendDirection `json:"direction"`
	Change      float64        `json:"change"`
	Consistency float64        `json:"consistency"`
}

// Analysis holds qualitative observations for a set of courses.
type Analysis struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Patterns   []string `json:"patterns"`
}

// HasPattern reports whether tag was detected.
func (a Analysis) HasPattern(tag string) bool {
	for _, p := range a.Patterns {
		if p == tag {
			return true
		}
	}
	return false
}

// ComparisonStatus places a student relative to a peer average.
type ComparisonStatus string

const (
	StatusAbove ComparisonStatus = "above"
	StatusBelow ComparisonStatus = "below"
	StatusAt    ComparisonStatus = "at"
)

// Comparison is a student score measured against a class average.
type Comparison struct {
	Difference float64          `json:"difference"`
	Percentile float64          `json:"percentile"`
	Status     ComparisonStatus `json:"status"`
}

// Summary is the compact narrative shown on dashboards.
type Summary struct {
	Overall     string   `json:"overall"`
	KeyPoints   []string `json:"key_points"`
	ActionItems []string `json:"action_items"`
}

// RequiredScoreResult is the outcome of a required score calculation.
type RequiredScoreResult struct {
	Score      float64 `json:"score"`
	Achievable bool    `json:"achievable"`
}

// CourseReport is the numeric breakdown for a single course.
type CourseReport struct {
	CourseID        string    `json:"course_id"`
	CourseName      string    `json:"course_name"`
	Category        string    `json:"category"`
	GradeCount      int       `json:"grade_count"`
	Average         float64   `json:"average"`
	WeightedAverage float64   `json:"weighted_average"`
	GPA             float64   `json:"gpa"`
	LetterGrade     string    `json:"letter_grade"`
	Trend           TrendData `json:"trend"`
}
