package performance

import (
	"math"
	"strings"
)

// DefaultPeerStdDev is the spread assumed for a class when estimating a
// percentile. It is a placeholder, not a property of real peer data; set
// Analyzer.PeerStdDev once an empirical value is available.
const DefaultPeerStdDev = 10.0

// Pattern tags emitted by IdentifyPatterns.
const (
	PatternQuizStruggles     = "quiz_struggles"
	PatternImprovingOverTime = "improving_over_time"
	PatternDecliningOverTime = "declining_over_time"
)

const (
	excellentCourseAverage = 90.0
	strongCategoryAverage  = 85.0
	weakAverage            = 75.0
	trendChangeThreshold   = 2.0
	highConsistency        = 0.8
	lowConsistency         = 0.5
	quizGapThreshold       = 10.0
	halfShiftThreshold     = 5.0
	atClassAverageMargin   = 1.0
)

const fallbackStrength = "Building a solid foundation across all subjects"

var fallbackRecommendations = []string{
	"Keep up your current study routine",
	"Challenge yourself with enrichment material in your favourite subjects",
	"Share what you know with classmates to deepen your understanding",
}

// Analyzer classifies course performance into qualitative observations.
// The zero value is ready to use.
type Analyzer struct {
	// PeerStdDev is the class spread used by CompareToClassAverage.
	// Non-positive values fall back to DefaultPeerStdDev.
	PeerStdDev float64
}

// NewAnalyzer returns an Analyzer using the given peer spread.
func NewAnalyzer(peerStdDev float64) *Analyzer {
	return &Analyzer{PeerStdDev: peerStdDev}
}

type courseStats struct {
	name    string
	average float64
	trend   TrendData
}

type categoryStats struct {
	name    string
	average float64
}

// Analyze runs strengths, weaknesses and pattern detection together.
func (a *Analyzer) Analyze(courses []CourseGrade) Analysis {
	return Analysis{
		Strengths:  a.AnalyzeStrengths(courses),
		Weaknesses: a.AnalyzeWeaknesses(courses),
		Patterns:   a.IdentifyPatterns(courses),
	}
}

// AnalyzeStrengths returns one sentence per strength rule that matched. It
// never returns an empty slice.
func (a *Analyzer) AnalyzeStrengths(courses []CourseGrade) []string {
	stats := collectCourseStats(courses)

	var excellent, improving, consistent []string
	for _, s := range stats {
		if s.average >= excellentCourseAverage {
			excellent = append(excellent, s.name)
		}
		if s.trend.Direction == TrendUp && s.trend.Change > trendChangeThreshold {
			improving = append(improving, s.name)
		}
		if s.trend.Consistency > highConsistency {
			consistent = append(consistent, s.name)
		}
	}
	var strong []string
	for _, c := range collectCategoryStats(courses) {
		if c.average >= strongCategoryAverage {
			strong = append(strong, c.name)
		}
	}

	var strengths []string
	strengths = appendSentence(strengths, "Excellent performance in ", excellent, "")
	strengths = appendSentence(strengths, "Showing improvement in ", improving, "")
	strengths = appendSentence(strengths, "Consistent performance in ", consistent, "")
	strengths = appendSentence(strengths, "Strong skills in ", strong, " subjects")

	if len(strengths) == 0 {
		return []string{fallbackStrength}
	}
	return strengths
}

// AnalyzeWeaknesses returns one sentence per weakness rule that matched. The
// result is empty when nothing needs attention.
func (a *Analyzer) AnalyzeWeaknesses(courses []CourseGrade) []string {
	stats := collectCourseStats(courses)

	var low, declining, inconsistent []string
	for _, s := range stats {
		if s.average < weakAverage {
			low = append(low, s.name)
		}
		if s.trend.Direction == TrendDown && s.trend.Change < -trendChangeThreshold {
			declining = append(declining, s.name)
		}
		if s.trend.Consistency < lowConsistency {
			inconsistent = append(inconsistent, s.name)
		}
	}
	var struggling []string
	for _, c := range collectCategoryStats(courses) {
		if c.average < weakAverage {
			struggling = append(struggling, c.name)
		}
	}

	weaknesses := []string{}
	weaknesses = appendSentence(weaknesses, "Needs improvement in ", low, "")
	weaknesses = appendSentence(weaknesses, "Declining performance in ", declining, "")
	weaknesses = appendSentence(weaknesses, "Inconsistent performance in ", inconsistent, "")
	weaknesses = appendSentence(weaknesses, "Struggling with ", struggling, " subjects")
	return weaknesses
}

// IdentifyPatterns tags recurring behaviour across all courses.
func (a *Analyzer) IdentifyPatterns(courses []CourseGrade) []string {
	var quizzes, assignments, sequence []float64
	for _, course := range courses {
		for _, g := range course.Grades {
			p, ok := Percentage(g)
			if !ok {
				continue
			}
			sequence = append(sequence, p)
			switch classify(g) {
			case AssessmentQuiz:
				quizzes = append(quizzes, p)
			case AssessmentAssignment:
				assignments = append(assignments, p)
			}
		}
	}

	patterns := []string{}
	if len(quizzes) > 0 && len(assignments) > 0 && mean(assignments)-mean(quizzes) >= quizGapThreshold {
		patterns = append(patterns, PatternQuizStruggles)
	}

	if len(sequence) >= 2 {
		half := len(sequence) / 2
		shift := mean(sequence[half:]) - mean(sequence[:half])
		switch {
		case shift > halfShiftThreshold:
			patterns = append(patterns, PatternImprovingOverTime)
		case shift < -halfShiftThreshold:
			patterns = append(patterns, PatternDecliningOverTime)
		}
	}
	return patterns
}

// GenerateRecommendations turns an analysis into action items.
func (a *Analyzer) GenerateRecommendations(analysis Analysis) []string {
	var recs []string
	if len(analysis.Weaknesses) > 0 {
		recs = append(recs,
			"Set aside extra study time for the subjects flagged for improvement",
			"Ask your teachers for feedback on the topics you find most challenging",
		)
	}
	actionable := false
	if analysis.HasPattern(PatternQuizStruggles) {
		actionable = true
		recs = append(recs, "Practice with short timed quizzes to build test-taking confidence")
	}
	if analysis.HasPattern(PatternDecliningOverTime) {
		actionable = true
		recs = append(recs, "Review recent material to find where understanding started to slip")
	}
	if analysis.HasPattern(PatternImprovingOverTime) {
		recs = append(recs, "Keep the momentum going with the study habits that are working")
	}
	if len(analysis.Weaknesses) == 0 && !actionable {
		recs = append(recs, fallbackRecommendations...)
	}
	return recs
}

// CompareToClassAverage estimates where studentScore sits relative to a
// class averaging classAverage, assuming a normal spread of PeerStdDev.
func (a *Analyzer) CompareToClassAverage(studentScore, classAverage float64) Comparison {
	diff := studentScore - classAverage
	z := diff / a.peerStdDev()
	percentile := clamp(normalCDF(z)*100, 0, 100)

	status := StatusBelow
	switch {
	case math.Abs(diff) < atClassAverageMargin:
		status = StatusAt
	case diff > 0:
		status = StatusAbove
	}

	return Comparison{
		Difference: round2(diff),
		Percentile: round2(percentile),
		Status:     status,
	}
}

func (a *Analyzer) peerStdDev() float64 {
	if a == nil || a.PeerStdDev <= 0 {
		return DefaultPeerStdDev
	}
	return a.PeerStdDev
}

// normalCDF is the Zelen & Severo approximation of the standard normal CDF
// (Abramowitz & Stegun 26.2.17, |error| < 7.5e-8).
func normalCDF(z float64) float64 {
	const (
		p  = 0.2316419
		b1 = 0.319381530
		b2 = -0.356563782
		b3 = 1.781477937
		b4 = -1.821255978
		b5 = 1.330274429
	)
	t := 1 / (1 + p*math.Abs(z))
	density := math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
	tail := density * t * (b1 + t*(b2+t*(b3+t*(b4+t*b5))))
	if z >= 0 {
		return 1 - tail
	}
	return tail
}

// classify resolves the assessment type, falling back to the legacy
// convention of tagging the date field ("quiz-2", "assignment 4").
func classify(g Grade) AssessmentType {
	if g.AssessmentType != "" {
		return AssessmentType(strings.ToLower(string(g.AssessmentType)))
	}
	tag := strings.ToLower(g.Date)
	switch {
	case strings.Contains(tag, string(AssessmentQuiz)):
		return AssessmentQuiz
	case strings.Contains(tag, string(AssessmentAssignment)):
		return AssessmentAssignment
	}
	return ""
}

func collectCourseStats(courses []CourseGrade) []courseStats {
	stats := make([]courseStats, 0, len(courses))
	for _, c := range courses {
		if len(percentages(c.Grades)) == 0 {
			continue
		}
		stats = append(stats, courseStats{
			name:    c.CourseName,
			average: CalculateAverage(c.Grades),
			trend:   CalculateTrend(c.Grades),
		})
	}
	return stats
}

func collectCategoryStats(courses []CourseGrade) []categoryStats {
	var order []string
	grouped := make(map[string][]Grade)
	for _, c := range courses {
		name := c.CategoryName()
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], c.Grades...)
	}

	stats := make([]categoryStats, 0, len(order))
	for _, name := range order {
		if len(percentages(grouped[name])) == 0 {
			continue
		}
		stats = append(stats, categoryStats{name: name, average: CalculateAverage(grouped[name])})
	}
	return stats
}

func appendSentence(dst []string, prefix string, names []string, suffix string) []string {
	if len(names) == 0 {
		return dst
	}
	return append(dst, prefix+strings.Join(names, ", ")+suffix)
}
