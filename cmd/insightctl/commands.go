package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/edupulse-api/internal/performance"
)

// gradebook is the YAML document accepted by analyze and required.
type gradebook struct {
	ClassAverage *float64                  `yaml:"class_average"`
	PeerStdDev   float64                   `yaml:"peer_stddev"`
	Courses      []performance.CourseGrade `yaml:"courses"`
}

type analyzeReport struct {
	OverallAverage  float64                    `json:"overall_average"`
	GPA             float64                    `json:"gpa"`
	LetterGrade     string                     `json:"letter_grade"`
	Summary         performance.Summary        `json:"summary"`
	Analysis        performance.Analysis       `json:"analysis"`
	Recommendations []string                   `json:"recommendations"`
	Courses         []performance.CourseReport `json:"courses"`
	Comparison      *performance.Comparison    `json:"comparison,omitempty"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "insightctl",
		Short:         "Student performance insights from a local gradebook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd(), newRequiredCmd(), newScaleCmd())
	return root
}

func newAnalyzeCmd() *cobra.Command {
	var (
		file         string
		classAverage float64
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarise strengths, weaknesses and recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			book, err := loadGradebook(file)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("class-average") {
				book.ClassAverage = &classAverage
			}

			report := buildReport(book)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderReport(report))
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Gradebook YAML file")
	cmd.Flags().Float64Var(&classAverage, "class-average", 0, "Class average percentage to compare against")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newRequiredCmd() *cobra.Command {
	var (
		file     string
		target   float64
		upcoming float64
	)
	cmd := &cobra.Command{
		Use:   "required",
		Short: "Score needed on the next assessment to reach a target average",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !finite(target) {
				return fmt.Errorf("--target must be a finite number")
			}
			if !finite(upcoming) || upcoming <= 0 {
				return fmt.Errorf("--upcoming must be positive")
			}
			book, err := loadGradebook(file)
			if err != nil {
				return err
			}
			var grades []performance.Grade
			for _, c := range book.Courses {
				grades = append(grades, c.Grades...)
			}
			required := performance.CalculateRequiredScore(grades, target, upcoming)
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderRequired(required, upcoming, target))
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Gradebook YAML file")
	cmd.Flags().Float64Var(&target, "target", 90, "Target average percentage")
	cmd.Flags().Float64Var(&upcoming, "upcoming", 100, "Maximum score of the upcoming assessment")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newScaleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scale <percentage>",
		Short: "Convert a percentage to grade point and letter grade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := strconv.ParseFloat(args[0], 64)
			if err != nil || !finite(pct) || pct < 0 {
				return fmt.Errorf("invalid percentage %q", args[0])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderScale(pct))
			return err
		},
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func loadGradebook(path string) (*gradebook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gradebook: %w", err)
	}
	var book gradebook
	if err := yaml.Unmarshal(raw, &book); err != nil {
		return nil, fmt.Errorf("parse gradebook %s: %w", path, err)
	}
	if len(book.Courses) == 0 {
		return nil, fmt.Errorf("gradebook %s has no courses", path)
	}
	return &book, nil
}

func buildReport(book *gradebook) analyzeReport {
	analyzer := performance.NewAnalyzer(book.PeerStdDev)

	var all []performance.Grade
	courses := make([]performance.CourseReport, 0, len(book.Courses))
	for _, c := range book.Courses {
		courses = append(courses, performance.BuildCourseReport(c))
		all = append(all, c.Grades...)
	}

	analysis := analyzer.Analyze(book.Courses)
	report := analyzeReport{
		OverallAverage:  performance.CalculateAverage(all),
		GPA:             performance.CalculateGPA(all),
		Summary:         analyzer.GenerateInsightsSummary(book.Courses),
		Analysis:        analysis,
		Recommendations: analyzer.GenerateRecommendations(analysis),
		Courses:         courses,
	}
	report.LetterGrade = performance.PercentageToLetterGrade(report.OverallAverage)
	if book.ClassAverage != nil {
		cmp := analyzer.CompareToClassAverage(report.OverallAverage, *book.ClassAverage)
		report.Comparison = &cmp
	}
	return report
}
