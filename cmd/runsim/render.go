package main

import (
	"fmt"
	"strings"

	"backend-fitquest/internal/metrics"
	"backend-fitquest/internal/tracking"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(12)

	valueStyle = lipgloss.NewStyle().Bold(true)

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

func liveLine(st tracking.State) string {
	m := st.Metrics
	return fmt.Sprintf("%s  %7.1f m  pace %s  %s  %d kcal  [%s]",
		metrics.FormatDuration(m.ActiveDurationSeconds),
		m.DistanceMeters,
		m.PaceDisplay,
		metrics.FormatPace(m.AveragePaceMinPerKm),
		m.CaloriesKcal,
		st.AccuracyTier)
}

func renderSummary(title string, s tracking.Summary) string {
	if title == "" {
		title = "run complete"
	}
	m := s.Metrics
	rows := [][2]string{
		{"session", s.SessionID},
		{"distance", fmt.Sprintf("%.2f km (%.2f mi)", m.Distance.Kilometers, m.Distance.Miles)},
		{"duration", m.Duration.Formatted},
		{"pace", m.Pace.MinPerKmDisplay + " /km"},
		{"speed", fmt.Sprintf("%.1f km/h", m.Pace.KmPerHour)},
		{"calories", fmt.Sprintf("%d kcal", m.Calories.Burned)},
		{"elevation", fmt.Sprintf("+%.0f m / -%.0f m", m.ElevationGain, m.ElevationLoss)},
		{"uploaded", yesNo(s.Uploaded)},
		{"stats", yesNo(s.StatsRecorded)},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(r[0]))
		b.WriteString(valueStyle.Render(r[1]))
	}
	for _, e := range []string{s.UploadError, s.StatsError} {
		if e != "" {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(e))
		}
	}
	return boxStyle.Render(b.String())
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
