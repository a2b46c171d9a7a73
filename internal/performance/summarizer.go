package performance

const (
	maxKeyStrengths  = 2
	maxKeyWeaknesses = 2
	maxActionItems   = 3
)

// Overall performance bands.
const (
	OverallExcellent    = "Excellent academic performance"
	OverallStrong       = "Strong academic performance"
	OverallSatisfactory = "Satisfactory academic performance"
	OverallNeedsWork    = "Academic performance needs improvement"
)

// GenerateInsightsSummary condenses the analysis of courses into a rating,
// key points and action items.
func (a *Analyzer) GenerateInsightsSummary(courses []CourseGrade) Summary {
	var all []Grade
	for _, c := range courses {
		all = append(all, c.Grades...)
	}

	analysis := a.Analyze(courses)
	recommendations := a.GenerateRecommendations(analysis)

	keyPoints := make([]string, 0, maxKeyStrengths+maxKeyWeaknesses)
	keyPoints = append(keyPoints, head(analysis.Strengths, maxKeyStrengths)...)
	keyPoints = append(keyPoints, head(analysis.Weaknesses, maxKeyWeaknesses)...)

	return Summary{
		Overall:     OverallBand(CalculateAverage(all)),
		KeyPoints:   keyPoints,
		ActionItems: append([]string{}, head(recommendations, maxActionItems)...),
	}
}

// OverallBand maps an average percentage onto a qualitative band.
func OverallBand(average float64) string {
	switch {
	case average >= 90:
		return OverallExcellent
	case average >= 80:
		return OverallStrong
	case average >= 70:
		return OverallSatisfactory
	default:
		return OverallNeedsWork
	}
}

func head(items []string, n int) []string {
	if len(items) < n {
		return items
	}
	return items[:n]
}
