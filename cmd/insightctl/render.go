package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/noah-isme/edupulse-api/internal/performance"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func renderReport(r analyzeReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(r.Summary.Overall))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("average %.2f%%  gpa %.2f  letter %s", r.OverallAverage, r.GPA, r.LetterGrade)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Courses"))
	b.WriteString("\n")
	b.WriteString(courseTable(r.Courses))
	b.WriteString("\n")

	writeList(&b, "Strengths", r.Analysis.Strengths, goodStyle)
	writeList(&b, "Weaknesses", r.Analysis.Weaknesses, badStyle)
	writeList(&b, "Patterns", r.Analysis.Patterns, lipgloss.NewStyle())
	writeList(&b, "Action items", r.Summary.ActionItems, lipgloss.NewStyle())

	if r.Comparison != nil {
		b.WriteString(sectionStyle.Render("Class comparison"))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("%s class average by %+.2f points (percentile %.2f)\n", r.Comparison.Status, r.Comparison.Difference, r.Comparison.Percentile))
	}
	return b.String()
}

func courseTable(courses []performance.CourseReport) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Course", "Category", "Grades", "Average", "GPA", "Letter", "Trend")
	for _, c := range courses {
		t.Row(
			c.CourseName,
			c.Category,
			fmt.Sprintf("%d", c.GradeCount),
			fmt.Sprintf("%.2f", c.Average),
			fmt.Sprintf("%.2f", c.GPA),
			c.LetterGrade,
			fmt.Sprintf("%s (%+.2f)", c.Trend.Direction, c.Trend.Change),
		)
	}
	return t.Render()
}

func writeList(b *strings.Builder, title string, items []string, style lipgloss.Style) {
	if len(items) == 0 {
		return
	}
	b.WriteString(sectionStyle.Render(title))
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("  • ")
		b.WriteString(style.Render(item))
		b.WriteString("\n")
	}
}

func renderRequired(required, upcoming, target float64) string {
	line := fmt.Sprintf("Need %.2f / %.2f to reach %.2f%%", required, upcoming, target)
	if required >= upcoming {
		return badStyle.Render(line + " (at or beyond the maximum)")
	}
	return goodStyle.Render(line)
}

func renderScale(pct float64) string {
	return fmt.Sprintf("%.2f%% -> %s (%.1f)", pct, performance.PercentageToLetterGrade(pct), performance.PercentageToGradePoint(pct))
}
