package performance

import (
	"math"
	"sort"
	"time"
)

// trendThreshold is the minimum absolute slope, in percentage points per
// assessment, that counts as a real trend.
const trendThreshold = 0.5

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

type scaleStep struct {
	min    float64
	points float64
	letter string
}

// gradeScale is the fixed grading scale; bounds are inclusive and descending.
var gradeScale = []scaleStep{
	{93, 4.0, "A"},
	{90, 3.7, "A-"},
	{87, 3.3, "B+"},
	{83, 3.0, "B"},
	{80, 2.7, "B-"},
	{77, 2.3, "C+"},
	{73, 2.0, "C"},
	{70, 1.7, "C-"},
	{67, 1.3, "D+"},
	{63, 1.0, "D"},
	{60, 0.7, "D-"},
}

// Percentage returns score/maxScore*100. ok is false when MaxScore is not
// positive; such grades carry no percentage and are skipped by aggregates.
func Percentage(g Grade) (float64, bool) {
	if g.MaxScore <= 0 {
		return 0, false
	}
	return g.Score / g.MaxScore * 100, true
}

// CalculateAverage returns the mean percentage, or 0 for no gradable grades.
func CalculateAverage(grades []Grade) float64 {
	return round2(mean(percentages(grades)))
}

// CalculateWeightedAverage returns Σ(percentage×weight)/Σweight, or 0.
func CalculateWeightedAverage(grades []Grade) float64 {
	avg, _ := weightedAverage(grades)
	return round2(avg)
}

// CalculateGPA returns the mean grade point of all gradable grades, or 0.
func CalculateGPA(grades []Grade) float64 {
	pcts := percentages(grades)
	if len(pcts) == 0 {
		return 0
	}
	var total float64
	for _, p := range pcts {
		total += PercentageToGradePoint(p)
	}
	return round2(total / float64(len(pcts)))
}

// PercentageToGradePoint maps a percentage onto the 0.0–4.0 scale.
func PercentageToGradePoint(percentage float64) float64 {
	for _, step := range gradeScale {
		if percentage >= step.min {
			return step.points
		}
	}
	return 0
}

// PercentageToLetterGrade maps a percentage onto A…F.
func PercentageToLetterGrade(percentage float64) string {
	for _, step := range gradeScale {
		if percentage >= step.min {
			return step.letter
		}
	}
	return "F"
}

// CalculateTrend fits a least-squares line through the grade percentages in
// chronological order. Fewer than two gradable grades yield a stable trend
// with full consistency.
func CalculateTrend(grades []Grade) TrendData {
	pcts := percentages(chronological(grades))
	if len(pcts) < 2 {
		return TrendData{Direction: TrendStable, Change: 0, Consistency: 1}
	}

	slope := leastSquaresSlope(pcts)
	consistency := math.Max(0, 1-stdDev(pcts)/100)

	var direction TrendDirection
	switch {
	case math.Abs(slope) < trendThreshold:
		direction = TrendStable
	case slope > 0:
		direction = TrendUp
	default:
		direction = TrendDown
	}

	return TrendData{
		Direction:   direction,
		Change:      round2(slope),
		Consistency: round2(consistency),
	}
}

// PredictFinalGrade projects the weighted average forward assuming the
// remaining work is completed at the current weighted average.
func PredictFinalGrade(currentGrades []Grade, remainingWeight float64) float64 {
	current, currentWeight := weightedAverage(currentGrades)
	if currentWeight == 0 {
		return 0
	}
	if remainingWeight < 0 {
		remainingWeight = 0
	}
	projected := (current*currentWeight + current*remainingWeight) / (currentWeight + remainingWeight)
	return round2(projected)
}

// CalculateRequiredScore returns the score needed on one upcoming assessment
// worth upcomingMaxScore points for the raw point total to reach
// targetAverage percent. The result is clamped to [0, upcomingMaxScore], so
// an unreachable target reports the maximum rather than failing.
func CalculateRequiredScore(currentGrades []Grade, targetAverage, upcomingMaxScore float64) float64 {
	return RequiredScoreDetail(currentGrades, targetAverage, upcomingMaxScore).Score
}

// RequiredScoreDetail is CalculateRequiredScore plus whether a perfect score
// on the upcoming assessment would reach the target.
func RequiredScoreDetail(currentGrades []Grade, targetAverage, upcomingMaxScore float64) RequiredScoreResult {
	earned, possible := pointTotals(currentGrades)
	if upcomingMaxScore <= 0 {
		return RequiredScoreResult{Achievable: possible > 0 && earned/possible*100 >= targetAverage}
	}
	needed := targetAverage/100*(possible+upcomingMaxScore) - earned
	best := (earned + upcomingMaxScore) / (possible + upcomingMaxScore) * 100
	return RequiredScoreResult{
		Score:      round2(clamp(needed, 0, upcomingMaxScore)),
		Achievable: best >= targetAverage,
	}
}

func pointTotals(grades []Grade) (earned, possible float64) {
	for _, g := range grades {
		if g.MaxScore <= 0 {
			continue
		}
		earned += g.Score
		possible += g.MaxScore
	}
	return earned, possible
}

// BuildCourseReport computes the numeric breakdown for one course.
func BuildCourseReport(course CourseGrade) CourseReport {
	avg := CalculateAverage(course.Grades)
	return CourseReport{
		CourseID:        course.CourseID,
		CourseName:      course.CourseName,
		Category:        course.CategoryName(),
		GradeCount:      len(course.Grades),
		Average:         avg,
		WeightedAverage: CalculateWeightedAverage(course.Grades),
		GPA:             CalculateGPA(course.Grades),
		LetterGrade:     PercentageToLetterGrade(avg),
		Trend:           CalculateTrend(course.Grades),
	}
}

func percentages(grades []Grade) []float64 {
	out := make([]float64, 0, len(grades))
	for _, g := range grades {
		if p, ok := Percentage(g); ok {
			out = append(out, p)
		}
	}
	return out
}

func weightedAverage(grades []Grade) (avg, totalWeight float64) {
	var weighted float64
	for _, g := range grades {
		p, ok := Percentage(g)
		if !ok {
			continue
		}
		w := g.EffectiveWeight()
		weighted += p * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0, 0
	}
	return weighted / totalWeight, totalWeight
}

// chronological returns grades sorted by date when every grade carries a
// parseable date, otherwise the input order. The input is never mutated.
func chronological(grades []Grade) []Grade {
	times := make([]time.Time, len(grades))
	for i, g := range grades {
		t, ok := parseDate(g.Date)
		if !ok {
			return grades
		}
		times[i] = t
	}

	idx := make([]int, len(grades))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return times[idx[a]].Before(times[idx[b]])
	})

	sorted := make([]Grade, len(grades))
	for i, j := range idx {
		sorted[i] = grades[j]
	}
	return sorted
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func leastSquaresSlope(values []float64) float64 {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// clamp maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}

// round2 rounds half up to two decimals, so -0.005 becomes 0.
func round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
